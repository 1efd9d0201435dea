// Package discovery crawls contributor lists of known repositories,
// populating the profile and contribution stores.
package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/ckerr6/talentgraph/internal/cache"
	"github.com/ckerr6/talentgraph/internal/checkpoint"
	"github.com/ckerr6/talentgraph/internal/githubapi"
	"github.com/ckerr6/talentgraph/internal/logging"
	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

// contributorCacheTTL bounds how long a repo's fetched contributor list
// is trusted before the next run re-fetches it from GitHub, independent
// of the freshness window gating whether the repo is crawled at all.
const contributorCacheTTL = 6 * time.Hour

const subsystemName = "discovery_crawler"

// topNAlways is the number of leading contributors per repo that are
// always upserted; beyond it, only brand-new profiles are added.
const topNAlways = 20

// Crawler walks priority repositories' contributor lists.
type Crawler struct {
	client          *githubapi.Client
	store           storage.Store
	checkpoints     *checkpoint.Store
	freshnessWindow time.Duration
	cache           *cache.Client
}

func New(client *githubapi.Client, store storage.Store, checkpoints *checkpoint.Store, freshnessWindow time.Duration) *Crawler {
	return &Crawler{client: client, store: store, checkpoints: checkpoints, freshnessWindow: freshnessWindow}
}

// WithCache attaches a shared Redis cache used to dedupe repeated
// contributor-list fetches across runs/processes within contributorCacheTTL.
// Passing nil disables caching (the default).
func (c *Crawler) WithCache(client *cache.Client) *Crawler {
	c.cache = client
	return c
}

// Stats summarizes one crawl run.
type Stats struct {
	ReposProcessed       int
	ReposSkippedFresh    int
	ContributorsUpserted int
	ProfilesCreated      int
}

// Run crawls each repo in repos, in descending stars order assumed by
// the caller, checkpointing every ~100 repos.
func (c *Crawler) Run(ctx context.Context, repos []*models.GitHubRepository, dryRun bool) (*Stats, error) {
	log := logging.With("component", "discovery")
	stats := &Stats{}

	cp, err := c.checkpoints.Load(subsystemName)
	if err != nil {
		return nil, err
	}
	processed := map[string]bool{}
	if cp != nil {
		processed[cp.LastProcessedID] = true
	}

	for i, repo := range repos {
		select {
		case <-ctx.Done():
			return stats, c.saveCheckpoint(repo.ID, stats)
		default:
		}

		if repo.IsStale(time.Now(), c.freshnessWindow) == false {
			stats.ReposSkippedFresh++
			continue
		}

		if err := c.crawlRepo(ctx, repo, stats, dryRun); err != nil {
			log.Error("crawl repo failed", "repo", repo.FullName, "error", err)
			continue
		}
		stats.ReposProcessed++

		if (i+1)%100 == 0 {
			if err := c.saveCheckpoint(repo.ID, stats); err != nil {
				log.Warn("checkpoint save failed", "error", err)
			}
		}
	}

	return stats, c.saveCheckpoint("", stats)
}

func (c *Crawler) crawlRepo(ctx context.Context, repo *models.GitHubRepository, stats *Stats, dryRun bool) error {
	owner, name, ok := splitFullName(repo.FullName)
	if !ok {
		return nil
	}

	contributors, err := c.loadContributors(ctx, repo.FullName, owner, name)
	if err != nil {
		return err
	}

	profileCache, err := c.store.LoadProfileCache(ctx)
	if err != nil {
		return err
	}

	ecosystemNames, err := c.store.EcosystemNamesByID(ctx, repo.EcosystemIDs)
	if err != nil {
		return err
	}
	tags := make(models.StringSlice, 0, len(ecosystemNames))
	for _, name := range ecosystemNames {
		tags = append(tags, name)
	}

	seenBefore := 0
	for _, contrib := range contributors {
		username := contrib.GetLogin()
		isNew := profileCache[normalizeUsername(username)] == ""
		if seenBefore >= topNAlways && !isNew {
			continue
		}
		seenBefore++

		if dryRun {
			continue
		}

		profile := &models.GitHubProfile{
			GitHubUsername: username,
			AvatarURL:      contrib.GetAvatarURL(),
			EcosystemTags:  tags,
		}
		profileID, err := c.store.UpsertProfile(ctx, profile)
		if err != nil {
			return err
		}
		if isNew {
			stats.ProfilesCreated++
			if err := c.store.RecordEntityDiscovery(ctx, &models.EntityDiscovery{
				EntityType:      "profile",
				EntityID:        profileID,
				SourceID:        derefOrEmpty(repo.DiscoverySourceID),
				DiscoveryMethod: "contributor_expansion",
			}); err != nil {
				return err
			}
		}

		contribution := &models.GitHubContribution{
			GitHubProfileID:   profileID,
			RepoID:            repo.ID,
			ContributionCount: contrib.GetContributions(),
		}
		if _, err := c.store.UpsertContribution(ctx, contribution); err != nil {
			return err
		}
		stats.ContributorsUpserted++
	}

	if dryRun {
		return nil
	}

	now := time.Now()
	repo.ContributorCount = len(contributors)
	repo.LastContributorSync = &now
	_, err = c.store.UpsertRepository(ctx, repo)
	return err
}

// loadContributors serves a repo's contributor list from the shared
// cache when present, falling back to a live GitHub fetch and
// populating the cache for the next crawl of the same repo.
func (c *Crawler) loadContributors(ctx context.Context, fullName, owner, name string) ([]*github.Contributor, error) {
	log := logging.With("component", "discovery")
	key := cache.ContributorPageCacheKey(fullName, 0)

	if c.cache != nil {
		var cached []*github.Contributor
		hit, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("contributor cache read failed", "repo", fullName, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	contributors, err := c.client.ListRepoContributors(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetWithTTL(ctx, key, contributors, contributorCacheTTL); err != nil {
			log.Warn("contributor cache write failed", "repo", fullName, "error", err)
		}
	}

	return contributors, nil
}

func (c *Crawler) saveCheckpoint(lastID string, stats *Stats) error {
	return c.checkpoints.Save(&models.Checkpoint{
		Subsystem:       subsystemName,
		LastProcessedID: lastID,
		Counters: map[string]int{
			"repos_processed":      stats.ReposProcessed,
			"contributors_upserted": stats.ContributorsUpserted,
			"profiles_created":     stats.ProfilesCreated,
		},
	})
}

// splitFullName splits an "owner/name" repo identifier into its parts.
func splitFullName(fullName string) (owner, name string, ok bool) {
	owner, name, found := strings.Cut(fullName, "/")
	if !found || owner == "" || name == "" {
		return "", "", false
	}
	return owner, name, true
}

func normalizeUsername(username string) string {
	runes := []rune(username)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			runes[i] = r + ('a' - 'A')
		}
	}
	return string(runes)
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
