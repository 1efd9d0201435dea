// Package enrichment fetches detailed GitHub user data for queued
// profiles and writes the merged, enriched fields back to the store.
package enrichment

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/ckerr6/talentgraph/internal/cache"
	"github.com/ckerr6/talentgraph/internal/checkpoint"
	"github.com/ckerr6/talentgraph/internal/githubapi"
	"github.com/ckerr6/talentgraph/internal/logging"
	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

// userCacheTTL bounds how long a fetched GitHub user record is trusted
// before the next enrichment pass re-fetches it, distinct from the
// last_enriched staleness window that decides whether a profile is
// queued for enrichment at all.
const userCacheTTL = 30 * time.Minute

// languageFetchWorkers bounds how many of a user's top repos have their
// language breakdown fetched concurrently. The client's own pacer still
// serializes the underlying HTTP calls onto the configured inter-request
// delay; fanning out here only overlaps goroutine scheduling and response
// parsing, not the rate-limited requests themselves.
const languageFetchWorkers = 3

const subsystemName = "enrichment_engine"

// topReposForLanguages is how many of a user's repos (by stars) are
// inspected to build the language histogram.
const topReposForLanguages = 5

// linkedInPattern extracts a profile or company slug from free-form bio
// text, e.g. "linkedin.com/in/jane-doe" or "linkedin.com/company/acme".
var linkedInPattern = regexp.MustCompile(`linkedin\.com/(?:in|company)/([A-Za-z0-9\-_%]+)`)

// Engine fetches and merges GitHub user data for queued profiles.
type Engine struct {
	client          *githubapi.Client
	store           storage.Store
	checkpoints     *checkpoint.Store
	interRequestGap time.Duration
	cache           *cache.Client
}

func New(client *githubapi.Client, store storage.Store, checkpoints *checkpoint.Store, interRequestGap time.Duration) *Engine {
	return &Engine{client: client, store: store, checkpoints: checkpoints, interRequestGap: interRequestGap}
}

// WithCache attaches a shared Redis cache used to dedupe repeated
// GetUser fetches for the same username within userCacheTTL, across
// runs and concurrent enrichment processes. Passing nil disables
// caching (the default).
func (e *Engine) WithCache(client *cache.Client) *Engine {
	e.cache = client
	return e
}

// Stats summarizes one enrichment batch.
type Stats struct {
	Attempted int
	Enriched  int
	UserGone  int
	Failed    int
}

// RunBatch enriches each profile in turn. A per-profile failure (other
// than the user disappearing) is counted and logged; the batch
// continues. A fatal client error aborts the remaining batch, saves a
// checkpoint naming the last successfully enriched profile so the next
// run resumes after it, and returns the error.
func (e *Engine) RunBatch(ctx context.Context, profiles []*models.GitHubProfile) (*Stats, error) {
	log := logging.With("component", "enrichment")
	stats := &Stats{}
	lastOK := ""

	for _, profile := range profiles {
		select {
		case <-ctx.Done():
			return stats, e.saveCheckpoint(profile.ID, stats)
		default:
		}

		stats.Attempted++
		fatal, err := e.enrichOne(ctx, profile, stats)
		if fatal {
			log.Error("fatal enrichment error, aborting batch", "profile", profile.GitHubUsername, "error", err)
			if cpErr := e.saveCheckpoint(lastOK, stats); cpErr != nil {
				log.Warn("checkpoint save failed", "error", cpErr)
			}
			return stats, err
		}
		if err != nil {
			stats.Failed++
			log.Warn("enrichment failed", "profile", profile.GitHubUsername, "error", err)
			if markErr := e.store.MarkEnriched(ctx, profile.ID, false); markErr != nil {
				log.Warn("mark-enriched failed", "profile", profile.GitHubUsername, "error", markErr)
			}
		} else {
			lastOK = profile.ID
		}

		if e.interRequestGap > 0 {
			select {
			case <-time.After(e.interRequestGap):
			case <-ctx.Done():
			}
		}
	}

	return stats, nil
}

// enrichOne returns fatal=true when the caller should abort the whole
// batch rather than continue to the next profile.
func (e *Engine) enrichOne(ctx context.Context, profile *models.GitHubProfile, stats *Stats) (fatal bool, err error) {
	log := logging.With("component", "enrichment")

	user, err := e.fetchUser(ctx, profile.GitHubUsername)
	if err != nil {
		if githubapi.IsAbsent(err) {
			stats.UserGone++
			if markErr := e.store.MarkEnriched(ctx, profile.ID, true); markErr != nil {
				return false, markErr
			}
			log.Info("user gone", "profile", profile.GitHubUsername)
			return false, nil
		}
		return true, err
	}

	mergeUser(profile, user)

	if bio := profile.Bio; bio != "" {
		if m := linkedInPattern.FindStringSubmatch(bio); m != nil {
			profile.LinkedInURLFromBio = "https://www." + m[0]
		}
	}

	repos, err := e.client.ListUserRepos(ctx, profile.GitHubUsername)
	if err != nil {
		if !githubapi.IsAbsent(err) {
			return true, err
		}
		repos = nil
	}
	profile.PublicRepos = len(repos)

	histogram, err := e.languageHistogram(ctx, profile.GitHubUsername, repos)
	if err != nil {
		return true, err
	}
	mergeLanguageTags(profile, histogram)

	if _, err := e.store.UpsertProfile(ctx, profile); err != nil {
		return false, err
	}
	if err := e.store.MarkEnriched(ctx, profile.ID, true); err != nil {
		return false, err
	}

	stats.Enriched++
	log.Info("enriched", "profile", profile.GitHubUsername, "languages", len(histogram))
	return false, nil
}

// fetchUser serves a cached user record when present (a 404 is never
// cached, so this never masks a user who has since disappeared), falling
// back to a live GetUser call and populating the cache for the TTL window.
func (e *Engine) fetchUser(ctx context.Context, username string) (*github.User, error) {
	log := logging.With("component", "enrichment")
	key := cache.ProfileCacheKey(username)

	if e.cache != nil {
		var cached github.User
		hit, err := e.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("user cache read failed", "profile", username, "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	user, err := e.client.GetUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.SetWithTTL(ctx, key, user, userCacheTTL); err != nil {
			log.Warn("user cache write failed", "profile", username, "error", err)
		}
	}

	return user, nil
}

// mergeUser applies a COALESCE(existing, new)-style merge: blank
// existing fields are filled from the fetched user, numeric counters
// take the max of existing and new.
func mergeUser(profile *models.GitHubProfile, user *github.User) {
	if profile.Name == "" {
		profile.Name = user.GetName()
	}
	if profile.Email == "" {
		profile.Email = user.GetEmail()
	}
	if profile.Bio == "" {
		profile.Bio = user.GetBio()
	}
	if profile.Company == "" {
		profile.Company = user.GetCompany()
	}
	if profile.Location == "" {
		profile.Location = user.GetLocation()
	}
	if profile.Blog == "" {
		profile.Blog = user.GetBlog()
	}
	if profile.TwitterUsername == "" {
		profile.TwitterUsername = user.GetTwitterUsername()
	}
	if profile.AvatarURL == "" {
		profile.AvatarURL = user.GetAvatarURL()
	}
	if user.GetFollowers() > profile.Followers {
		profile.Followers = user.GetFollowers()
	}
	if user.GetFollowing() > profile.Following {
		profile.Following = user.GetFollowing()
	}
	profile.Hireable = user.GetHireable()
	if profile.GitHubCreatedAt == nil && user.CreatedAt != nil {
		t := user.GetCreatedAt().Time
		profile.GitHubCreatedAt = &t
	}
	if user.UpdatedAt != nil {
		t := user.GetUpdatedAt().Time
		profile.GitHubUpdatedAt = &t
	}
}

// languageHistogram inspects the top N (by stars) of a user's repos and
// counts how many of those repos use each language.
func (e *Engine) languageHistogram(ctx context.Context, username string, repos []*github.Repository) (map[string]int, error) {
	sorted := make([]*github.Repository, len(repos))
	copy(sorted, repos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GetStargazersCount() > sorted[j].GetStargazersCount()
	})
	if len(sorted) > topReposForLanguages {
		sorted = sorted[:topReposForLanguages]
	}

	histogram := make(map[string]int)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(languageFetchWorkers)
	for _, repo := range sorted {
		repo := repo
		g.Go(func() error {
			owner := repo.GetOwner().GetLogin()
			if owner == "" {
				owner = username
			}
			langs, err := e.client.GetRepoLanguages(gctx, owner, repo.GetName())
			if err != nil {
				if githubapi.IsAbsent(err) {
					return nil
				}
				return err
			}
			mu.Lock()
			for lang := range langs {
				histogram[lang]++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return histogram, nil
}

// mergeLanguageTags folds the computed language histogram's keys into
// the profile's EcosystemTags set so the top-5 summary is
// queryable without re-fetching GitHub.
func mergeLanguageTags(profile *models.GitHubProfile, histogram map[string]int) {
	langs := make([]string, 0, len(histogram))
	for lang := range histogram {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return histogram[langs[i]] > histogram[langs[j]] })
	if len(langs) > topReposForLanguages {
		langs = langs[:topReposForLanguages]
	}

	existing := map[string]bool{}
	for _, t := range profile.EcosystemTags {
		existing[t] = true
	}
	for _, l := range langs {
		if !existing[l] {
			profile.EcosystemTags = append(profile.EcosystemTags, l)
			existing[l] = true
		}
	}
}

func (e *Engine) saveCheckpoint(lastID string, stats *Stats) error {
	return e.checkpoints.Save(&models.Checkpoint{
		Subsystem:       subsystemName,
		LastProcessedID: lastID,
		Counters: map[string]int{
			"attempted": stats.Attempted,
			"enriched":  stats.Enriched,
			"user_gone": stats.UserGone,
			"failed":    stats.Failed,
		},
	})
}
