package skills

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

func TestProficiencyFormula(t *testing.T) {
	cases := []struct {
		name               string
		repos              int
		totalContributions int
		mergedPRs          int
		want               float64
	}{
		{"no evidence", 0, 0, 0, 30},
		{"repos cap at 3", 3, 0, 0, 60},
		{"repos cap kicks in above 3", 5, 0, 0, 60},
		{"contributions below cap", 0, 500, 0, 35},
		{"contributions above cap", 0, 5000, 0, 50},
		{"merged PRs below cap", 0, 0, 5, 40},
		{"merged PRs above cap", 0, 0, 20, 50},
		{"everything maxed clamps at 100", 10, 10000, 50, 100},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := proficiency(c.repos, c.totalContributions, c.mergedPRs); got != c.want {
				t.Errorf("proficiency(%d, %d, %d) = %v, want %v", c.repos, c.totalContributions, c.mergedPRs, got, c.want)
			}
		})
	}
}

func TestCapAt(t *testing.T) {
	if got := capAt(5, 10); got != 5 {
		t.Errorf("capAt(5, 10) = %v, want 5", got)
	}
	if got := capAt(15, 10); got != 10 {
		t.Errorf("capAt(15, 10) = %v, want 10", got)
	}
}

func newMapperTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "skills.db"), logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTagRepositoriesMatchesCatalogByLanguage(t *testing.T) {
	store := newMapperTestStore(t)
	ctx := context.Background()

	if _, err := SeedCatalog(ctx, store); err != nil {
		t.Fatalf("SeedCatalog() error: %v", err)
	}

	rustRepo, err := store.UpsertRepository(ctx, &models.GitHubRepository{FullName: "paradigmxyz/reth", Language: "Rust"})
	if err != nil {
		t.Fatalf("UpsertRepository() error: %v", err)
	}
	unknownRepo, err := store.UpsertRepository(ctx, &models.GitHubRepository{FullName: "acme/cobol-lib", Language: "COBOL"})
	if err != nil {
		t.Fatalf("UpsertRepository() error: %v", err)
	}

	m := New(store)
	stats, err := m.TagRepositories(ctx, 10)
	if err != nil {
		t.Fatalf("TagRepositories() error: %v", err)
	}
	if stats.ReposTagged != 1 {
		t.Fatalf("expected 1 repo tagged, got %d", stats.ReposTagged)
	}
	if stats.ReposUnknownLang != 1 {
		t.Fatalf("expected 1 unknown language, got %d", stats.ReposUnknownLang)
	}

	remaining, err := store.RepositoriesMissingSkill(ctx, 10)
	if err != nil {
		t.Fatalf("RepositoriesMissingSkill() error: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != unknownRepo {
		t.Fatalf("expected only the unknown-language repo left untagged, got %+v", remaining)
	}
	_ = rustRepo
}

func TestDerivePersonSkillsAggregatesContributions(t *testing.T) {
	store := newMapperTestStore(t)
	ctx := context.Background()

	if _, err := SeedCatalog(ctx, store); err != nil {
		t.Fatalf("SeedCatalog() error: %v", err)
	}

	personID, err := store.CreatePerson(ctx, &models.Person{FullName: "Dana Dev", FirstName: "Dana", LastName: "Dev"})
	if err != nil {
		t.Fatalf("CreatePerson() error: %v", err)
	}

	repoID, err := store.UpsertRepository(ctx, &models.GitHubRepository{FullName: "ethereum/go-ethereum", Language: "Go"})
	if err != nil {
		t.Fatalf("UpsertRepository() error: %v", err)
	}

	m := New(store)
	if _, err := m.TagRepositories(ctx, 10); err != nil {
		t.Fatalf("TagRepositories() error: %v", err)
	}

	profileID, err := store.UpsertProfile(ctx, &models.GitHubProfile{GitHubUsername: "danadev", PersonID: &personID})
	if err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}
	if _, err := store.UpsertContribution(ctx, &models.GitHubContribution{
		GitHubProfileID:   profileID,
		RepoID:            repoID,
		ContributionCount: 150,
		MergedPRCount:     8,
	}); err != nil {
		t.Fatalf("UpsertContribution() error: %v", err)
	}

	stats, err := m.DerivePersonSkills(ctx, 10)
	if err != nil {
		t.Fatalf("DerivePersonSkills() error: %v", err)
	}
	if stats.PersonsProcessed != 1 || stats.PersonSkillsWritten != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	evidence, err := store.AggregateSkillEvidenceForPerson(ctx, personID)
	if err != nil {
		t.Fatalf("AggregateSkillEvidenceForPerson() error: %v", err)
	}
	if len(evidence) != 1 || evidence[0].RepoCount != 1 || evidence[0].TotalContributions != 150 || evidence[0].MergedPRs != 8 {
		t.Fatalf("unexpected evidence: %+v", evidence)
	}
}
