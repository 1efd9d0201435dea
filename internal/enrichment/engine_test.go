package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/ckerr6/talentgraph/internal/cache"
	"github.com/ckerr6/talentgraph/internal/githubapi"
	"github.com/ckerr6/talentgraph/internal/models"
)

// testCacheHostPort points at the same Redis instance internal/cache's own
// tests use, matching this repo's docker-compose-backed test convention.
const (
	testCacheHost = "localhost"
	testCachePort = 6380
)

func TestMergeUserFillsBlankFieldsOnly(t *testing.T) {
	profile := &models.GitHubProfile{
		Name:      "Existing Name",
		Followers: 10,
	}
	user := &github.User{
		Name:      github.String("Fetched Name"),
		Email:     github.String("fetched@example.com"),
		Bio:       github.String("fetched bio"),
		Followers: github.Int(50),
		Following: github.Int(5),
	}

	mergeUser(profile, user)

	if profile.Name != "Existing Name" {
		t.Errorf("expected existing non-blank Name preserved, got %q", profile.Name)
	}
	if profile.Email != "fetched@example.com" {
		t.Errorf("expected blank Email filled from fetched user, got %q", profile.Email)
	}
	if profile.Bio != "fetched bio" {
		t.Errorf("expected blank Bio filled, got %q", profile.Bio)
	}
	if profile.Followers != 50 {
		t.Errorf("expected Followers to take the max(10, 50) = 50, got %d", profile.Followers)
	}
	if profile.Following != 5 {
		t.Errorf("expected Following to take the max(0, 5) = 5, got %d", profile.Following)
	}
}

func TestMergeUserKeepsHigherFollowerCount(t *testing.T) {
	profile := &models.GitHubProfile{Followers: 1000}
	user := &github.User{Followers: github.Int(200)}

	mergeUser(profile, user)

	if profile.Followers != 1000 {
		t.Errorf("expected the higher existing follower count kept, got %d", profile.Followers)
	}
}

func TestMergeLanguageTagsRanksByFrequencyAndCapsAtFive(t *testing.T) {
	profile := &models.GitHubProfile{}
	histogram := map[string]int{
		"Go": 5, "Rust": 4, "TypeScript": 3, "Python": 2, "Solidity": 1, "Haskell": 1,
	}

	mergeLanguageTags(profile, histogram)

	if len(profile.EcosystemTags) != 5 {
		t.Fatalf("expected top 5 languages, got %v", profile.EcosystemTags)
	}
	if profile.EcosystemTags[0] != "Go" || profile.EcosystemTags[1] != "Rust" {
		t.Errorf("expected descending-frequency order, got %v", profile.EcosystemTags)
	}
}

func TestMergeLanguageTagsDoesNotDuplicateExistingTags(t *testing.T) {
	profile := &models.GitHubProfile{EcosystemTags: models.StringSlice{"Go"}}
	mergeLanguageTags(profile, map[string]int{"Go": 10, "Rust": 3})

	count := 0
	for _, tag := range profile.EcosystemTags {
		if tag == "Go" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected Go to appear exactly once, got %d occurrences in %v", count, profile.EcosystemTags)
	}
}

// TestFetchUserWithCacheSkipsSecondLiveRequest verifies that a second
// fetchUser call for the same username within userCacheTTL is served from
// the shared cache instead of hitting GitHub again.
func TestFetchUserWithCacheSkipsSecondLiveRequest(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"login":"octocat","name":"The Octocat"}`)
	}))
	defer server.Close()

	client := githubapi.NewClient(githubapi.Config{RequestDelay: time.Millisecond, RetryBackoffBase: time.Millisecond})
	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	githubapi.SetBaseURLForTesting(client, base)

	ctx := context.Background()
	cacheClient, err := cache.NewClient(ctx, testCacheHost, testCachePort, "")
	if err != nil {
		t.Skipf("shared redis unavailable, skipping cache test: %v", err)
	}
	defer cacheClient.Close()
	key := cache.ProfileCacheKey("octocat-fetchuser-cache-test")
	defer cacheClient.Delete(ctx, key)

	e := New(client, nil, nil, 0).WithCache(cacheClient)

	for i := 0; i < 2; i++ {
		user, err := e.fetchUser(ctx, "octocat-fetchuser-cache-test")
		if err != nil {
			t.Fatalf("fetchUser() iteration %d error: %v", i, err)
		}
		if user.GetLogin() != "octocat" {
			t.Errorf("iteration %d: GetLogin() = %q, want octocat", i, user.GetLogin())
		}
	}

	if got := atomic.LoadInt32(&requests); got != 1 {
		t.Errorf("expected exactly 1 live GitHub request, got %d", got)
	}
}
