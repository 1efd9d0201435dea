package taxonomy

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/ckerr6/talentgraph/internal/storage"
)

func newImporterTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, _ := newImporterTestStoreWithPath(t)
	return store
}

// newImporterTestStoreWithPath also returns the backing file path, for
// tests that need a second raw connection to read columns the Store
// interface doesn't expose a getter for (e.g. an ecosystem's
// priority_score).
func newImporterTestStoreWithPath(t *testing.T) (*storage.SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taxonomy.db")
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := storage.NewSQLiteStore(path, logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestPriorityScoreKnownAndUnknownEcosystems(t *testing.T) {
	// Uniswap is pinned to tier 2, matching spec.md §8 scenario 1's
	// Ecosystem("Uniswap", priority=2) assertion (see DESIGN.md).
	if got := priorityScore("Uniswap"); got != 2 {
		t.Errorf("priorityScore(Uniswap) = %d, want 2", got)
	}
	if got := priorityScore("Uniswap Labs"); got != 2 {
		t.Errorf("priorityScore(Uniswap Labs) = %d, want 2", got)
	}
	if got := priorityScore("Ethereum"); got != 1 {
		t.Errorf("priorityScore(Ethereum) = %d, want 1", got)
	}
	if got := priorityScore("Solana"); got != 2 {
		t.Errorf("priorityScore(Solana) = %d, want 2", got)
	}
	if got := priorityScore("Some Random Chain"); got != defaultPriorityTier {
		t.Errorf("priorityScore(unknown) = %d, want %d", got, defaultPriorityTier)
	}
}

func TestParseRepoURL(t *testing.T) {
	owner, name, full, ok := parseRepoURL("https://github.com/Uniswap/v4-core")
	if !ok || owner != "Uniswap" || name != "v4-core" || full != "Uniswap/v4-core" {
		t.Fatalf("unexpected parse result: %q %q %q %v", owner, name, full, ok)
	}
	if _, _, _, ok := parseRepoURL("not-a-url"); ok {
		t.Fatal("expected non-github URL to fail parsing")
	}
	if _, _, _, ok := parseRepoURL("https://github.com/onlyowner"); ok {
		t.Fatal("expected a URL missing the repo segment to fail parsing")
	}
}

// TestImportUniswapTaxonomy mirrors spec.md scenario 1: importing the
// Uniswap ecosystem creates a tier-2 ecosystem (per spec.md §8 scenario 1's
// explicit priority=2 assertion), a sub-ecosystem branch, and links every
// well-formed repo URL while counting malformed ones.
func TestImportUniswapTaxonomy(t *testing.T) {
	store, path := newImporterTestStoreWithPath(t)
	ctx := context.Background()

	jsonl := strings.Join([]string{
		`{"eco_name":"Uniswap","repo_url":"https://github.com/Uniswap/v4-core","branch":["Uniswap Labs"],"tags":["defi","amm"]}`,
		`{"eco_name":"Uniswap","repo_url":"https://github.com/Uniswap/v3-periphery","branch":["Uniswap Labs"],"tags":["defi"]}`,
		`{"eco_name":"Uniswap","repo_url":"not-a-valid-url","branch":[],"tags":[]}`,
		`{"eco_name":"Solana","repo_url":"https://github.com/solana-labs/solana","branch":[],"tags":["l1"]}`,
	}, "\n")

	imp := New(store)
	stats, err := imp.Import(ctx, strings.NewReader(jsonl), false)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}

	if stats.LinesParsed != 4 {
		t.Errorf("LinesParsed = %d, want 4", stats.LinesParsed)
	}
	if stats.MalformedURLs != 1 {
		t.Errorf("MalformedURLs = %d, want 1", stats.MalformedURLs)
	}
	if stats.ReposLinked != 3 {
		t.Errorf("ReposLinked = %d, want 3", stats.ReposLinked)
	}
	// Uniswap + Uniswap Labs sub-ecosystem + Solana = 3.
	if stats.EcosystemsUpserted != 3 {
		t.Errorf("EcosystemsUpserted = %d, want 3", stats.EcosystemsUpserted)
	}

	cache, err := store.LoadEcosystemCache(ctx)
	if err != nil {
		t.Fatalf("LoadEcosystemCache() error: %v", err)
	}
	uniswapID, ok := cache["uniswap"]
	if !ok {
		t.Fatal("expected a cached ecosystem for uniswap")
	}

	seed, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		t.Fatalf("seed connection error: %v", err)
	}
	defer seed.Close()
	var priority int
	if err := seed.Get(&priority, `SELECT priority_score FROM crypto_ecosystems WHERE id = ?`, uniswapID); err != nil {
		t.Fatalf("read priority_score: %v", err)
	}
	if priority != 2 {
		t.Errorf("Uniswap priority_score = %d, want 2 (spec.md §8 scenario 1)", priority)
	}

	repoCache, err := store.LoadRepositoryCache(ctx)
	if err != nil {
		t.Fatalf("LoadRepositoryCache() error: %v", err)
	}
	repoID, ok := repoCache["uniswap/v4-core"]
	if !ok {
		t.Fatal("expected uniswap/v4-core to be linked")
	}
	repo, err := store.GetRepository(ctx, repoID)
	if err != nil {
		t.Fatalf("GetRepository() error: %v", err)
	}
	found := false
	for _, id := range repo.EcosystemIDs {
		if id == uniswapID {
			found = true
		}
	}
	if !found {
		t.Errorf("expected uniswap/v4-core attached to the uniswap ecosystem, got %v", repo.EcosystemIDs)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	store := newImporterTestStore(t)
	ctx := context.Background()

	jsonl := `{"eco_name":"Uniswap","repo_url":"https://github.com/Uniswap/v4-core","branch":[],"tags":["defi"]}`

	imp := New(store)
	if _, err := imp.Import(ctx, strings.NewReader(jsonl), false); err != nil {
		t.Fatalf("first Import() error: %v", err)
	}
	if _, err := imp.Import(ctx, strings.NewReader(jsonl), false); err != nil {
		t.Fatalf("second Import() error: %v", err)
	}

	repoCache, err := store.LoadRepositoryCache(ctx)
	if err != nil {
		t.Fatalf("LoadRepositoryCache() error: %v", err)
	}
	if len(repoCache) != 1 {
		t.Fatalf("expected re-import to not duplicate repos, got %d", len(repoCache))
	}
}

func TestImportPriorityOnlySkipsLowTierEcosystems(t *testing.T) {
	store := newImporterTestStore(t)
	ctx := context.Background()

	jsonl := strings.Join([]string{
		`{"eco_name":"Uniswap","repo_url":"https://github.com/Uniswap/v4-core","branch":[],"tags":[]}`,
		`{"eco_name":"SomeObscureChain","repo_url":"https://github.com/obscure/chain","branch":[],"tags":[]}`,
	}, "\n")

	imp := New(store)
	stats, err := imp.Import(ctx, strings.NewReader(jsonl), true)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if stats.ReposLinked != 1 {
		t.Fatalf("expected only the tier-2-or-higher-priority ecosystem's repo linked, got %d", stats.ReposLinked)
	}
}
