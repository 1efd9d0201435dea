package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ckerr6/talentgraph/internal/cache"
	"github.com/ckerr6/talentgraph/internal/checkpoint"
	"github.com/ckerr6/talentgraph/internal/githubapi"
	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

// testCacheHostPort points at the same Redis instance internal/cache's own
// tests use, matching this repo's docker-compose-backed test convention.
const (
	testCacheHost = "localhost"
	testCachePort = 6380
)

func newCrawlerTestDeps(t *testing.T, handler http.Handler) (*githubapi.Client, *storage.SQLiteStore, *checkpoint.Store) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := githubapi.NewClient(githubapi.Config{
		RequestDelay:     time.Millisecond,
		RetryBackoffBase: time.Millisecond,
	})
	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	githubapi.SetBaseURLForTesting(client, base)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "discovery.db"), logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cps, err := checkpoint.Open(filepath.Join(t.TempDir(), "checkpoints.db"))
	if err != nil {
		t.Fatalf("checkpoint.Open() error: %v", err)
	}
	t.Cleanup(func() { cps.Close() })

	return client, store, cps
}

func contributorsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"login":"alice","contributions":40,"avatar_url":"https://avatars/alice"},
			{"login":"bob","contributions":12,"avatar_url":"https://avatars/bob"}
		]`)
	})
}

// TestRunCrawlsStaleRepoAndCreatesProfiles mirrors the discovery crawler's
// core path: a repo past its freshness window gets its contributors
// upserted as new profiles with contribution records.
func TestRunCrawlsStaleRepoAndCreatesProfiles(t *testing.T) {
	client, store, cps := newCrawlerTestDeps(t, contributorsHandler())
	ctx := context.Background()

	ecoID, err := store.UpsertEcosystem(ctx, &models.CryptoEcosystem{EcosystemName: "Uniswap", NormalizedName: "uniswap", PriorityScore: 1})
	if err != nil {
		t.Fatalf("UpsertEcosystem() error: %v", err)
	}
	repoID, err := store.UpsertRepository(ctx, &models.GitHubRepository{
		FullName:     "Uniswap/v4-core",
		EcosystemIDs: models.StringSlice{ecoID},
	})
	if err != nil {
		t.Fatalf("UpsertRepository() error: %v", err)
	}
	repo, err := store.GetRepository(ctx, repoID)
	if err != nil {
		t.Fatalf("GetRepository() error: %v", err)
	}

	crawler := New(client, store, cps, time.Hour)
	stats, err := crawler.Run(ctx, []*models.GitHubRepository{repo}, false)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.ReposProcessed != 1 {
		t.Errorf("ReposProcessed = %d, want 1", stats.ReposProcessed)
	}
	if stats.ProfilesCreated != 2 {
		t.Errorf("ProfilesCreated = %d, want 2", stats.ProfilesCreated)
	}
	if stats.ContributorsUpserted != 2 {
		t.Errorf("ContributorsUpserted = %d, want 2", stats.ContributorsUpserted)
	}

	alice, err := store.GetProfileByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetProfileByUsername() error: %v", err)
	}
	found := false
	for _, tag := range alice.EcosystemTags {
		if tag == "Uniswap" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected alice tagged with the repo's ecosystem, got %v", alice.EcosystemTags)
	}

	updated, err := store.GetRepository(ctx, repoID)
	if err != nil {
		t.Fatalf("GetRepository() error: %v", err)
	}
	if updated.ContributorCount != 2 {
		t.Errorf("ContributorCount = %d, want 2", updated.ContributorCount)
	}
	if updated.LastContributorSync == nil {
		t.Error("expected LastContributorSync to be set after a crawl")
	}
}

// TestRunSkipsFreshRepo verifies a repo crawled within the freshness
// window is left alone.
func TestRunSkipsFreshRepo(t *testing.T) {
	client, store, cps := newCrawlerTestDeps(t, contributorsHandler())
	ctx := context.Background()

	now := time.Now()
	repoID, err := store.UpsertRepository(ctx, &models.GitHubRepository{
		FullName:            "Uniswap/v4-core",
		LastContributorSync: &now,
	})
	if err != nil {
		t.Fatalf("UpsertRepository() error: %v", err)
	}
	repo, err := store.GetRepository(ctx, repoID)
	if err != nil {
		t.Fatalf("GetRepository() error: %v", err)
	}

	crawler := New(client, store, cps, time.Hour)
	stats, err := crawler.Run(ctx, []*models.GitHubRepository{repo}, false)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.ReposSkippedFresh != 1 {
		t.Errorf("ReposSkippedFresh = %d, want 1", stats.ReposSkippedFresh)
	}
	if stats.ReposProcessed != 0 {
		t.Errorf("ReposProcessed = %d, want 0", stats.ReposProcessed)
	}
}

// TestRunDryRunMakesNoProfileWrites verifies dry-run still counts the
// repo as processed but persists no profiles or contributions.
func TestRunDryRunMakesNoProfileWrites(t *testing.T) {
	client, store, cps := newCrawlerTestDeps(t, contributorsHandler())
	ctx := context.Background()

	repoID, err := store.UpsertRepository(ctx, &models.GitHubRepository{FullName: "Uniswap/v4-core"})
	if err != nil {
		t.Fatalf("UpsertRepository() error: %v", err)
	}
	repo, err := store.GetRepository(ctx, repoID)
	if err != nil {
		t.Fatalf("GetRepository() error: %v", err)
	}

	crawler := New(client, store, cps, time.Hour)
	stats, err := crawler.Run(ctx, []*models.GitHubRepository{repo}, true)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.ReposProcessed != 1 {
		t.Errorf("ReposProcessed = %d, want 1", stats.ReposProcessed)
	}
	if stats.ProfilesCreated != 0 || stats.ContributorsUpserted != 0 {
		t.Errorf("expected no writes in dry-run, got %+v", stats)
	}

	if _, err := store.GetProfileByUsername(ctx, "alice"); err != storage.ErrNotFound {
		t.Fatalf("expected dry-run to create no profile, GetProfileByUsername() error = %v", err)
	}
}

// TestLoadContributorsWithCacheSkipsSecondFetch verifies that a second
// contributor load for the same repo within contributorCacheTTL serves the
// contributor list from the shared cache instead of hitting GitHub again.
func TestLoadContributorsWithCacheSkipsSecondFetch(t *testing.T) {
	var requests int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"login":"alice","contributions":40,"avatar_url":"https://avatars/alice"}]`)
	})

	client, store, cps := newCrawlerTestDeps(t, handler)
	ctx := context.Background()

	cacheClient, err := cache.NewClient(ctx, testCacheHost, testCachePort, "")
	if err != nil {
		t.Skipf("shared redis unavailable, skipping cache test: %v", err)
	}
	defer cacheClient.Close()
	key := cache.ContributorPageCacheKey("Uniswap/v4-core-cache-test", 0)
	defer cacheClient.Delete(ctx, key)

	repoID, err := store.UpsertRepository(ctx, &models.GitHubRepository{FullName: "Uniswap/v4-core-cache-test"})
	if err != nil {
		t.Fatalf("UpsertRepository() error: %v", err)
	}

	crawler := New(client, store, cps, time.Hour).WithCache(cacheClient)

	for i := 0; i < 2; i++ {
		repo, err := store.GetRepository(ctx, repoID)
		if err != nil {
			t.Fatalf("GetRepository() error: %v", err)
		}
		// loadContributors does not consult the sync watermark, so both
		// iterations reach the fetch path; only the cache can save the
		// second request.
		repo.LastContributorSync = nil
		if _, err := crawler.loadContributors(ctx, repo.FullName, "Uniswap", "v4-core-cache-test"); err != nil {
			t.Fatalf("loadContributors() iteration %d error: %v", i, err)
		}
	}

	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("expected exactly 1 live GitHub request, got %d", got)
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := normalizeUsername("OctoCat"); got != "octocat" {
		t.Errorf("normalizeUsername(OctoCat) = %q, want octocat", got)
	}
}

func TestSplitFullName(t *testing.T) {
	owner, name, ok := splitFullName("Uniswap/v4-core")
	if !ok || owner != "Uniswap" || name != "v4-core" {
		t.Fatalf("unexpected split: %q %q %v", owner, name, ok)
	}
	if _, _, ok := splitFullName("no-slash"); ok {
		t.Fatal("expected a name without a slash to fail")
	}
}
