package reconcile

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

func newReconcileTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "reconcile.db"), logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestRunDeletesPersonWithNoContributions mirrors spec.md scenario 6's
// deletion branch: a flagged person who never contributed to anything
// is removed outright.
func TestRunDeletesPersonWithNoContributions(t *testing.T) {
	store := newReconcileTestStore(t)
	ctx := context.Background()

	personID, err := store.CreatePerson(ctx, &models.Person{FullName: "Ghost Account", FirstName: "Ghost"})
	if err != nil {
		t.Fatalf("CreatePerson() error: %v", err)
	}

	csv := "person_id,full_name,error\n" + personID + ",Ghost Account,No Linkedin profile found for ghost-account\n"

	decisions, stats, err := Run(ctx, store, strings.NewReader(csv), false)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.Deleted != 1 || stats.FlaggedReview != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(decisions) != 1 || decisions[0].Action != ActionDeleted {
		t.Fatalf("unexpected decisions: %+v", decisions)
	}

	if _, err := store.GetPerson(ctx, personID); err != storage.ErrNotFound {
		t.Fatalf("expected person to be deleted, GetPerson() error = %v", err)
	}
}

// TestRunFlagsPersonWithContributions mirrors the safety-valve branch:
// a flagged person with real contribution history is never deleted,
// only flagged for manual review.
func TestRunFlagsPersonWithContributions(t *testing.T) {
	store := newReconcileTestStore(t)
	ctx := context.Background()

	personID, err := store.CreatePerson(ctx, &models.Person{FullName: "Active Dev", FirstName: "Active"})
	if err != nil {
		t.Fatalf("CreatePerson() error: %v", err)
	}
	profileID, err := store.UpsertProfile(ctx, &models.GitHubProfile{GitHubUsername: "activedev", PersonID: &personID})
	if err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}
	repoID, err := store.UpsertRepository(ctx, &models.GitHubRepository{FullName: "acme/repo"})
	if err != nil {
		t.Fatalf("UpsertRepository() error: %v", err)
	}
	if _, err := store.UpsertContribution(ctx, &models.GitHubContribution{
		GitHubProfileID: profileID, RepoID: repoID, ContributionCount: 5,
	}); err != nil {
		t.Fatalf("UpsertContribution() error: %v", err)
	}

	csv := "person_id,full_name,error\n" + personID + ",Active Dev,No Linkedin profile found for active-dev\n"

	decisions, stats, err := Run(ctx, store, strings.NewReader(csv), false)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.FlaggedReview != 1 || stats.Deleted != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(decisions) != 1 || decisions[0].Action != ActionFlaggedReview {
		t.Fatalf("unexpected decisions: %+v", decisions)
	}

	if _, err := store.GetPerson(ctx, personID); err != nil {
		t.Fatalf("expected person to survive, GetPerson() error = %v", err)
	}
}

func TestRunDryRunMakesNoWrites(t *testing.T) {
	store := newReconcileTestStore(t)
	ctx := context.Background()

	personID, err := store.CreatePerson(ctx, &models.Person{FullName: "Ghost Account", FirstName: "Ghost"})
	if err != nil {
		t.Fatalf("CreatePerson() error: %v", err)
	}

	csv := "person_id,full_name,error\n" + personID + ",Ghost Account,No Linkedin profile found for ghost-account\n"

	decisions, stats, err := Run(ctx, store, strings.NewReader(csv), true)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.Deleted != 1 {
		t.Fatalf("expected the decision to be computed even in dry-run, got %+v", stats)
	}
	if len(decisions) != 1 {
		t.Fatalf("unexpected decisions: %+v", decisions)
	}

	if _, err := store.GetPerson(ctx, personID); err != nil {
		t.Fatalf("expected dry-run to leave the person untouched, GetPerson() error = %v", err)
	}
}

func TestRunSkipsRowsWithoutTheFlag(t *testing.T) {
	store := newReconcileTestStore(t)
	ctx := context.Background()

	personID, err := store.CreatePerson(ctx, &models.Person{FullName: "Fine Person", FirstName: "Fine"})
	if err != nil {
		t.Fatalf("CreatePerson() error: %v", err)
	}

	csv := "person_id,full_name,error\n" + personID + ",Fine Person,\n"

	decisions, stats, err := Run(ctx, store, strings.NewReader(csv), false)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.SkippedNoFlag != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(decisions) != 0 {
		t.Fatalf("expected no decisions for an unflagged row, got %+v", decisions)
	}
}

func TestRunSkipsMissingPerson(t *testing.T) {
	store := newReconcileTestStore(t)
	ctx := context.Background()

	csv := "person_id,full_name,error\nnonexistent,Nobody,No Linkedin profile found for nobody\n"

	decisions, stats, err := Run(ctx, store, strings.NewReader(csv), false)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.SkippedMissing != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(decisions) != 1 || decisions[0].Action != ActionSkippedMissing {
		t.Fatalf("unexpected decisions: %+v", decisions)
	}
}

func TestFormatDiffRendersEachAction(t *testing.T) {
	out := FormatDiff([]Decision{
		{PersonID: "p1", FullName: "Alice", Action: ActionDeleted, Reason: "no linkedin"},
		{PersonID: "p2", FullName: "Bob", Action: ActionFlaggedReview, Reason: "no linkedin"},
		{PersonID: "p3", Action: ActionSkippedMissing},
	})
	if !strings.Contains(out, "DELETE  p1") || !strings.Contains(out, "FLAG    p2") || !strings.Contains(out, "SKIP    p3") {
		t.Fatalf("unexpected diff output:\n%s", out)
	}
}
