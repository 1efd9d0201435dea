package collab

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ckerr6/talentgraph/internal/checkpoint"
	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

func newBuilderTestDeps(t *testing.T) (*storage.SQLiteStore, *checkpoint.Store) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "collab.db"), logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cps, err := checkpoint.Open(filepath.Join(t.TempDir(), "collab-checkpoints.db"))
	if err != nil {
		t.Fatalf("checkpoint.Open() error: %v", err)
	}
	t.Cleanup(func() { cps.Close() })

	return store, cps
}

// TestRunDerivesEdgeStrength reproduces the worked collaboration-strength
// example: two people who co-contributed to one repo, 50 combined
// contributions, a three-month overlap window.
func TestRunDerivesEdgeStrength(t *testing.T) {
	store, cps := newBuilderTestDeps(t)
	ctx := context.Background()

	repoID, err := store.UpsertRepository(ctx, &models.GitHubRepository{
		FullName: "ethereum/go-ethereum", ContributorCount: 2,
	})
	if err != nil {
		t.Fatalf("UpsertRepository() error: %v", err)
	}

	p1, err := store.CreatePerson(ctx, &models.Person{FullName: "Alice A", FirstName: "Alice"})
	if err != nil {
		t.Fatalf("CreatePerson() error: %v", err)
	}
	p2, err := store.CreatePerson(ctx, &models.Person{FullName: "Bob B", FirstName: "Bob"})
	if err != nil {
		t.Fatalf("CreatePerson() error: %v", err)
	}

	profile1, err := store.UpsertProfile(ctx, &models.GitHubProfile{GitHubUsername: "alice", PersonID: &p1})
	if err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}
	profile2, err := store.UpsertProfile(ctx, &models.GitHubProfile{GitHubUsername: "bob", PersonID: &p2})
	if err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(90 * 24 * time.Hour)

	if _, err := store.UpsertContribution(ctx, &models.GitHubContribution{
		GitHubProfileID: profile1, RepoID: repoID, ContributionCount: 30,
		FirstContributionDate: &start, LastContributionDate: &end,
	}); err != nil {
		t.Fatalf("UpsertContribution() error: %v", err)
	}
	if _, err := store.UpsertContribution(ctx, &models.GitHubContribution{
		GitHubProfileID: profile2, RepoID: repoID, ContributionCount: 20,
		FirstContributionDate: &start, LastContributionDate: &end,
	}); err != nil {
		t.Fatalf("UpsertContribution() error: %v", err)
	}

	b := New(store, cps)
	stats, err := b.Run(ctx, 2, "", 0)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.ReposProcessed != 1 || stats.EdgesUpserted != 1 || stats.StrengthsComputed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	edges, err := store.ListCollaborationEdgesUpdatedSince(ctx, start.Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("ListCollaborationEdgesUpdatedSince() error: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	edge := edges[0]

	if edge.SharedRepos != 1 {
		t.Errorf("SharedRepos = %d, want 1", edge.SharedRepos)
	}
	if edge.SharedContributions != 50 {
		t.Errorf("SharedContributions = %d, want 50", edge.SharedContributions)
	}
	if edge.CollaborationMonths != 3 {
		t.Errorf("CollaborationMonths = %v, want 3", edge.CollaborationMonths)
	}
	if edge.CollaborationStrength == nil {
		t.Fatal("expected collaboration_strength to be set")
	}
	const want = 0.2275
	if got := *edge.CollaborationStrength; got < want-0.0001 || got > want+0.0001 {
		t.Errorf("CollaborationStrength = %v, want %v", got, want)
	}
}

func TestRunSkipsRepositoriesBelowMinContributors(t *testing.T) {
	store, cps := newBuilderTestDeps(t)
	ctx := context.Background()

	if _, err := store.UpsertRepository(ctx, &models.GitHubRepository{
		FullName: "small/repo", ContributorCount: 1,
	}); err != nil {
		t.Fatalf("UpsertRepository() error: %v", err)
	}

	b := New(store, cps)
	stats, err := b.Run(ctx, 2, "", 0)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.ReposProcessed != 0 || stats.EdgesUpserted != 0 {
		t.Fatalf("expected no repos processed, got %+v", stats)
	}
}
