package models

import (
	"testing"
	"time"
)

func TestStringSliceRoundTrip(t *testing.T) {
	original := StringSlice{"ethereum", "defi"}

	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var scanned StringSlice
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	if len(scanned) != len(original) {
		t.Fatalf("got %v, want %v", scanned, original)
	}
	for i := range original {
		if scanned[i] != original[i] {
			t.Fatalf("got %v, want %v", scanned, original)
		}
	}
}

func TestStringSliceScanNil(t *testing.T) {
	s := StringSlice{"x"}
	if err := s.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error: %v", err)
	}
	if s != nil {
		t.Fatalf("expected nil slice after scanning nil, got %v", s)
	}
}

func TestSharedRepoListRoundTrip(t *testing.T) {
	original := SharedRepoList{
		{RepoName: "uniswap/v4-core", Contributions: 50},
		{RepoName: "foundry-rs/foundry", Contributions: 12},
	}

	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var scanned SharedRepoList
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(scanned) != 2 || scanned[0].RepoName != "uniswap/v4-core" || scanned[1].Contributions != 12 {
		t.Fatalf("unexpected round-trip result: %+v", scanned)
	}
}

func TestGitHubProfileNeedsEnrichment(t *testing.T) {
	now := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	staleAfter := 30 * 24 * time.Hour

	fresh := now.Add(-5 * 24 * time.Hour)
	stale := now.Add(-45 * 24 * time.Hour)

	cases := []struct {
		name string
		p    *GitHubProfile
		want bool
	}{
		{"never enriched", &GitHubProfile{}, true},
		{"fresh and filled", &GitHubProfile{LastEnriched: &fresh, Bio: "hi", Email: "a@b.com"}, false},
		{"stale watermark", &GitHubProfile{LastEnriched: &stale, Bio: "hi", Email: "a@b.com"}, true},
		{"fresh but empty bio and email", &GitHubProfile{LastEnriched: &fresh}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.p.NeedsEnrichment(now, staleAfter); got != c.want {
				t.Errorf("NeedsEnrichment() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestGitHubRepositoryIsStale(t *testing.T) {
	now := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	window := 30 * 24 * time.Hour

	synced := now.Add(-10 * 24 * time.Hour)
	old := now.Add(-31 * 24 * time.Hour)

	if (&GitHubRepository{}).IsStale(now, window) != true {
		t.Error("never-synced repo should be stale")
	}
	if (&GitHubRepository{LastContributorSync: &synced}).IsStale(now, window) {
		t.Error("recently synced repo should not be stale")
	}
	if !(&GitHubRepository{LastContributorSync: &old}).IsStale(now, window) {
		t.Error("repo synced past the window should be stale")
	}
}
