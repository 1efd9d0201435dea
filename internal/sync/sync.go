// Package sync mirrors the relational talent graph (persons,
// collaboration edges, person-skill evidence) into the Neo4j graph
// package, incrementally via an updated_at cursor persisted in the
// checkpoint store so a re-run only pushes what changed.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/ckerr6/talentgraph/internal/checkpoint"
	"github.com/ckerr6/talentgraph/internal/graph"
	"github.com/ckerr6/talentgraph/internal/logging"
	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

const (
	subsystemPersons = "graph_sync_persons"
	subsystemEdges   = "graph_sync_edges"
	subsystemSkills  = "graph_sync_skills"

	batchSize = 500
)

// GraphSyncer pushes rows that changed since the last run to Neo4j.
type GraphSyncer struct {
	store       storage.Store
	mirror      *graph.Mirror
	checkpoints *checkpoint.Store
}

func NewGraphSyncer(store storage.Store, mirror *graph.Mirror, checkpoints *checkpoint.Store) *GraphSyncer {
	return &GraphSyncer{store: store, mirror: mirror, checkpoints: checkpoints}
}

// Stats summarizes one sync pass across all three entity kinds.
type Stats struct {
	PersonsSynced int
	EdgesSynced   int
	SkillsSynced  int
}

// Run pushes every person, collaboration edge, and person-skill row
// updated since the last successful run, in that order (persons first
// so edges and skills can rely on the endpoint nodes already existing,
// though UpsertCollaborationEdge and UpsertPersonSkill also merge bare
// stubs defensively).
func (s *GraphSyncer) Run(ctx context.Context) (*Stats, error) {
	log := logging.With("component", "graph_sync")
	stats := &Stats{}

	n, err := s.syncPersons(ctx, log)
	if err != nil {
		return stats, err
	}
	stats.PersonsSynced = n

	n, err = s.syncEdges(ctx, log)
	if err != nil {
		return stats, err
	}
	stats.EdgesSynced = n

	n, err = s.syncSkills(ctx, log)
	if err != nil {
		return stats, err
	}
	stats.SkillsSynced = n

	log.Info("graph sync complete", "persons", stats.PersonsSynced, "edges", stats.EdgesSynced, "skills", stats.SkillsSynced)
	return stats, nil
}

func (s *GraphSyncer) syncPersons(ctx context.Context, log *logging.Logger) (int, error) {
	since, err := s.cursor(subsystemPersons)
	if err != nil {
		return 0, err
	}

	total := 0
	for {
		persons, err := s.store.ListPersonsUpdatedSince(ctx, since, batchSize)
		if err != nil {
			return total, fmt.Errorf("list persons: %w", err)
		}
		if len(persons) == 0 {
			break
		}

		for _, p := range persons {
			if err := s.mirror.UpsertPerson(ctx, p); err != nil {
				return total, err
			}
			total++
			since = p.RefreshedAt
		}

		if err := s.saveCursor(subsystemPersons, since); err != nil {
			log.Warn("checkpoint save failed", "subsystem", subsystemPersons, "error", err)
		}
		if len(persons) < batchSize {
			break
		}
	}
	return total, nil
}

func (s *GraphSyncer) syncEdges(ctx context.Context, log *logging.Logger) (int, error) {
	since, err := s.cursor(subsystemEdges)
	if err != nil {
		return 0, err
	}

	total := 0
	for {
		edges, err := s.store.ListCollaborationEdgesUpdatedSince(ctx, since, batchSize)
		if err != nil {
			return total, fmt.Errorf("list collaboration edges: %w", err)
		}
		if len(edges) == 0 {
			break
		}

		for _, e := range edges {
			if err := s.mirror.UpsertCollaborationEdge(ctx, e); err != nil {
				return total, err
			}
			total++
			since = e.UpdatedAt
		}

		if err := s.saveCursor(subsystemEdges, since); err != nil {
			log.Warn("checkpoint save failed", "subsystem", subsystemEdges, "error", err)
		}
		if len(edges) < batchSize {
			break
		}
	}
	return total, nil
}

func (s *GraphSyncer) syncSkills(ctx context.Context, log *logging.Logger) (int, error) {
	since, err := s.cursor(subsystemSkills)
	if err != nil {
		return 0, err
	}

	total := 0
	for {
		skills, err := s.store.ListPersonSkillsUpdatedSince(ctx, since, batchSize)
		if err != nil {
			return total, fmt.Errorf("list person skills: %w", err)
		}
		if len(skills) == 0 {
			break
		}

		for _, ps := range skills {
			name, err := s.skillName(ctx, ps.SkillID)
			if err != nil {
				return total, err
			}
			if err := s.mirror.UpsertPersonSkill(ctx, ps, name); err != nil {
				return total, err
			}
			total++
			since = ps.UpdatedAt
		}

		if err := s.saveCursor(subsystemSkills, since); err != nil {
			log.Warn("checkpoint save failed", "subsystem", subsystemSkills, "error", err)
		}
		if len(skills) < batchSize {
			break
		}
	}
	return total, nil
}

// skillName looks up a skill's display name for the Skill node label.
// Results aren't cached across calls; skill rows number in the dozens,
// so the per-row lookup cost is negligible next to the Neo4j round trip
// it accompanies.
func (s *GraphSyncer) skillName(ctx context.Context, skillID string) (string, error) {
	sk, err := s.store.GetSkill(ctx, skillID)
	if err != nil {
		return skillID, nil
	}
	return sk.SkillName, nil
}

func (s *GraphSyncer) cursor(subsystem string) (time.Time, error) {
	cp, err := s.checkpoints.Load(subsystem)
	if err != nil {
		return time.Time{}, err
	}
	if cp == nil || cp.LastProcessedID == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, cp.LastProcessedID)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

func (s *GraphSyncer) saveCursor(subsystem string, t time.Time) error {
	return s.checkpoints.Save(&models.Checkpoint{
		Subsystem:       subsystem,
		LastProcessedID: t.Format(time.RFC3339Nano),
	})
}
