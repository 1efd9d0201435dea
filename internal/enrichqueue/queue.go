// Package enrichqueue orders GitHub profiles for the enrichment engine,
// scoring each by how likely it is to belong to a real, reachable person.
package enrichqueue

import (
	"context"
	"sort"

	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

// DefaultStaleAfterDays is the freshness window after which an enriched
// profile is due for re-enrichment.
const DefaultStaleAfterDays = 30

// Queue yields batches of profiles needing enrichment, ranked by a
// priority score computed from the shape of what's already known about
// each profile.
type Queue struct {
	store          storage.Store
	staleAfterDays int
}

func New(store storage.Store, staleAfterDays int) *Queue {
	if staleAfterDays <= 0 {
		staleAfterDays = DefaultStaleAfterDays
	}
	return &Queue{store: store, staleAfterDays: staleAfterDays}
}

// Score computes the priority weight for a profile. Higher scores are
// enriched first.
func Score(p *models.GitHubProfile) int {
	score := 0
	if p.Email != "" {
		score += 10
	}
	if p.Location != "" {
		score += 5
	}
	switch {
	case p.Followers > 1000:
		score += 8
	case p.Followers >= 100:
		score += 4
	}
	if p.Bio != "" || p.Name != "" || p.Company != "" {
		score += 3
	}
	return score
}

// candidatePoolFactor widens the store-level fetch beyond the requested
// batch size so the score-based resort has something to reorder; the
// store only orders by followers, not by the full priority score.
const candidatePoolFactor = 5

// GetBatch returns up to n profiles needing enrichment, ordered by
// descending priority score, ties broken by descending follower count.
func (q *Queue) GetBatch(ctx context.Context, n int) ([]*models.GitHubProfile, error) {
	poolSize := n * candidatePoolFactor
	if n <= 0 || poolSize < n {
		poolSize = n
	}
	candidates, err := q.store.NeedsEnrichmentProfiles(ctx, q.staleAfterDays, poolSize)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := Score(candidates[i]), Score(candidates[j])
		if si != sj {
			return si > sj
		}
		return candidates[i].Followers > candidates[j].Followers
	})

	if n > 0 && len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

// MarkEnriched records the outcome of an enrichment attempt. On success
// the store advances last_enriched; on failure it leaves the watermark
// untouched so the profile is retried on the next pass.
func (q *Queue) MarkEnriched(ctx context.Context, profileID string, ok bool) error {
	return q.store.MarkEnriched(ctx, profileID, ok)
}
