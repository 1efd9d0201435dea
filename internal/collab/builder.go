// Package collab derives a weighted collaboration graph between
// persons from repository co-contribution.
package collab

import (
	"context"
	"math"
	"time"

	"github.com/ckerr6/talentgraph/internal/checkpoint"
	"github.com/ckerr6/talentgraph/internal/logging"
	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

const subsystemName = "collab_builder"

const (
	strengthReposWeight        = 0.4
	strengthReposDenominator   = 10.0
	strengthContribWeight      = 0.3
	strengthContribDenominator = 100.0
	strengthMonthsWeight       = 0.3
	strengthMonthsDenominator  = 24.0

	daysPerMonth = 30.0
)

// Builder runs the pairwise collaboration-edge derivation pass.
type Builder struct {
	store       storage.Store
	checkpoints *checkpoint.Store
}

func New(store storage.Store, checkpoints *checkpoint.Store) *Builder {
	return &Builder{store: store, checkpoints: checkpoints}
}

// Stats summarizes one builder run.
type Stats struct {
	ReposProcessed  int
	EdgesUpserted   int
	StrengthsComputed int
}

// Run processes every repository with at least minContributors
// contributors (optionally scoped to ecosystemID, optionally capped at
// limit repos), deriving or updating a CollaborationEdge for every pair
// of linked persons who co-contributed, then computes
// collaboration_strength for any edge still missing it. limit <= 0
// means no cap.
func (b *Builder) Run(ctx context.Context, minContributors int, ecosystemID string, limit int) (*Stats, error) {
	log := logging.With("component", "collab_builder")
	stats := &Stats{}

	repos, err := b.store.ListRepositoriesByMinContributors(ctx, minContributors, ecosystemID)
	if err != nil {
		return stats, err
	}
	if limit > 0 && len(repos) > limit {
		repos = repos[:limit]
	}

	cp, err := b.checkpoints.Load(subsystemName)
	if err != nil {
		return stats, err
	}
	skipUntil := ""
	if cp != nil {
		skipUntil = cp.LastProcessedID
	}
	resuming := skipUntil != ""

	for i, repo := range repos {
		select {
		case <-ctx.Done():
			return stats, b.saveCheckpoint(repo.ID, stats)
		default:
		}

		if resuming {
			if repo.ID == skipUntil {
				resuming = false
			}
			continue
		}

		n, err := b.processRepo(ctx, repo)
		if err != nil {
			log.Error("process repo failed", "repo", repo.FullName, "error", err)
			continue
		}
		stats.EdgesUpserted += n
		stats.ReposProcessed++

		if (i+1)%100 == 0 {
			if err := b.saveCheckpoint(repo.ID, stats); err != nil {
				log.Warn("checkpoint save failed", "error", err)
			}
		}
	}

	if err := b.saveCheckpoint("", stats); err != nil {
		log.Warn("final checkpoint save failed", "error", err)
	}

	n, err := b.computeMissingStrengths(ctx)
	if err != nil {
		return stats, err
	}
	stats.StrengthsComputed = n

	log.Info("collaboration build complete",
		"repos", stats.ReposProcessed, "edges", stats.EdgesUpserted, "strengths", stats.StrengthsComputed)
	return stats, nil
}

func (b *Builder) processRepo(ctx context.Context, repo *models.GitHubRepository) (int, error) {
	contribs, err := b.store.ListPersonContributionsForRepo(ctx, repo.ID)
	if err != nil {
		return 0, err
	}

	upserted := 0
	for i := 0; i < len(contribs); i++ {
		for j := i + 1; j < len(contribs); j++ {
			a, c := contribs[i], contribs[j]
			if a.PersonID == c.PersonID {
				continue
			}

			src, dst := a.PersonID, c.PersonID
			if src > dst {
				src, dst = dst, src
			}

			overlapStart, overlapEnd := overlap(a.FirstDate, a.LastDate, c.FirstDate, c.LastDate)
			months := collaborationMonths(overlapStart, overlapEnd)

			edge := &models.CollaborationEdge{
				SrcPersonID:            src,
				DstPersonID:            dst,
				SharedRepos:            1,
				SharedContributions:    a.ContributionCount + c.ContributionCount,
				FirstCollaborationDate: overlapStart,
				LastCollaborationDate:  overlapEnd,
				CollaborationMonths:    months,
				RepoIDs:                models.StringSlice{repo.ID},
				TopSharedRepos: models.SharedRepoList{{
					RepoName:      repo.FullName,
					Contributions: a.ContributionCount + c.ContributionCount,
				}},
			}
			if err := b.store.UpsertCollaborationEdge(ctx, edge); err != nil {
				return upserted, err
			}
			upserted++
		}
	}
	return upserted, nil
}

// overlap returns the intersection of [aFirst,aLast] and [cFirst,cLast],
// or (nil, nil) if either bound is unknown or the ranges don't overlap.
func overlap(aFirst, aLast, cFirst, cLast *time.Time) (*time.Time, *time.Time) {
	if aFirst == nil || aLast == nil || cFirst == nil || cLast == nil {
		return nil, nil
	}
	start := *aFirst
	if cFirst.After(start) {
		start = *cFirst
	}
	end := *aLast
	if cLast.Before(end) {
		end = *cLast
	}
	if end.Before(start) {
		return nil, nil
	}
	return &start, &end
}

func collaborationMonths(start, end *time.Time) float64 {
	if start == nil || end == nil {
		return 0
	}
	days := end.Sub(*start).Hours() / 24
	months := days / daysPerMonth
	if months < 1 {
		return 1
	}
	return months
}

func (b *Builder) computeMissingStrengths(ctx context.Context) (int, error) {
	edges, err := b.store.ListCollaborationEdgesMissingStrength(ctx)
	if err != nil {
		return 0, err
	}

	for _, e := range edges {
		strength := strengthComponent(float64(e.SharedRepos), strengthReposDenominator) * strengthReposWeight
		strength += strengthComponent(float64(e.SharedContributions), strengthContribDenominator) * strengthContribWeight
		strength += strengthComponent(e.CollaborationMonths, strengthMonthsDenominator) * strengthMonthsWeight
		strength = math.Min(strength, 1.0)

		if err := b.store.SetCollaborationStrength(ctx, e.ID, strength); err != nil {
			return 0, err
		}
	}
	return len(edges), nil
}

func strengthComponent(v, denominator float64) float64 {
	return math.Min(v/denominator, 1.0)
}

func (b *Builder) saveCheckpoint(lastID string, stats *Stats) error {
	return b.checkpoints.Save(&models.Checkpoint{
		Subsystem:       subsystemName,
		LastProcessedID: lastID,
		Counters: map[string]int{
			"repos_processed": stats.ReposProcessed,
			"edges_upserted":  stats.EdgesUpserted,
		},
	})
}
