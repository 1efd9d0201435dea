// Package skills derives Skill evidence from repository languages and
// aggregates it into per-person proficiency scores.
package skills

import (
	"context"

	"github.com/ckerr6/talentgraph/internal/logging"
	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

const (
	languageSkillConfidence = 0.95
	languageSkillSource     = "github_language"
	languageCategory        = "language"

	reposWeight        = 10.0
	reposCap           = 30.0
	contributionsScale = 0.01
	contributionsCap   = 20.0
	mergedPRWeight     = 2.0
	mergedPRCap        = 20.0
	baseProficiency    = 30.0
	maxProficiency     = 100.0

	repoBatchSize = 200
)

// Mapper runs Phase A (repository tagging) and Phase B (person skill
// derivation) of skill derivation.
type Mapper struct {
	store storage.Store
}

func New(store storage.Store) *Mapper {
	return &Mapper{store: store}
}

// Stats summarizes one mapper run.
type Stats struct {
	ReposTagged       int
	ReposUnknownLang  int
	PersonsProcessed  int
	PersonSkillsWritten int
}

// TagRepositories is Phase A: every repository with a language and no
// existing RepositorySkill row gets tagged against the Skills catalog.
// Languages with no catalog match are counted and left for a later
// manual-additions pass.
func (m *Mapper) TagRepositories(ctx context.Context, limit int) (*Stats, error) {
	log := logging.With("component", "skills_mapper")
	stats := &Stats{}

	remaining := limit
	for remaining != 0 {
		batch := repoBatchSize
		if remaining > 0 && remaining < batch {
			batch = remaining
		}

		repos, err := m.store.RepositoriesMissingSkill(ctx, batch)
		if err != nil {
			return stats, err
		}
		if len(repos) == 0 {
			break
		}

		for _, repo := range repos {
			sk, err := m.store.FindSkillByNameOrAlias(ctx, repo.Language, languageCategory)
			if err == storage.ErrNotFound {
				stats.ReposUnknownLang++
				continue
			}
			if err != nil {
				return stats, err
			}

			rs := &models.RepositorySkill{
				RepoID:          repo.ID,
				SkillID:         sk.ID,
				IsPrimary:       true,
				ConfidenceScore: languageSkillConfidence,
				Source:          languageSkillSource,
			}
			if err := m.store.UpsertRepositorySkill(ctx, rs); err != nil {
				return stats, err
			}
			stats.ReposTagged++
		}

		if remaining > 0 {
			remaining -= len(repos)
		}
		if len(repos) < batch {
			break
		}
	}

	log.Info("repository tagging complete", "tagged", stats.ReposTagged, "unknown_language", stats.ReposUnknownLang)
	return stats, nil
}

// DerivePersonSkills is Phase B: for every person with at least one
// linked GitHub profile, aggregate contribution evidence joined to
// primary repository skills and upsert a PersonSkill per skill found.
func (m *Mapper) DerivePersonSkills(ctx context.Context, limit int) (*Stats, error) {
	log := logging.With("component", "skills_mapper")
	stats := &Stats{}

	personIDs, err := m.store.PersonsWithGitHubProfiles(ctx, limit)
	if err != nil {
		return stats, err
	}

	for _, personID := range personIDs {
		evidence, err := m.store.AggregateSkillEvidenceForPerson(ctx, personID)
		if err != nil {
			log.Error("aggregate skill evidence failed", "person", personID, "error", err)
			continue
		}
		stats.PersonsProcessed++

		for _, ev := range evidence {
			ps := &models.PersonSkill{
				PersonID:         personID,
				SkillID:          ev.SkillID,
				ProficiencyScore: proficiency(ev.RepoCount, ev.TotalContributions, ev.MergedPRs),
				ConfidenceScore:  1.0,
				EvidenceSources:  models.StringSlice{"repos"},
				MergedPRsCount:   ev.MergedPRs,
				ReposUsingSkill:  ev.RepoCount,
				FirstSeen:        ev.FirstSeen,
				LastUsed:         ev.LastUsed,
			}
			if err := m.store.UpsertPersonSkill(ctx, ps); err != nil {
				return stats, err
			}
			stats.PersonSkillsWritten++
		}
	}

	log.Info("person skill derivation complete", "persons", stats.PersonsProcessed, "skills_written", stats.PersonSkillsWritten)
	return stats, nil
}

// proficiency implements the mapper's scoring formula:
// min(30 + min(repos*10, 30) + min(contributions*0.01, 20) + min(mergedPRs*2, 20), 100).
func proficiency(repos, totalContributions, mergedPRs int) float64 {
	score := baseProficiency
	score += capAt(float64(repos)*reposWeight, reposCap)
	score += capAt(float64(totalContributions)*contributionsScale, contributionsCap)
	score += capAt(float64(mergedPRs)*mergedPRWeight, mergedPRCap)
	if score > maxProficiency {
		return maxProficiency
	}
	return score
}

func capAt(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
