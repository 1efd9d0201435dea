package enrichqueue

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ckerr6/talentgraph/internal/models"
	"github.com/ckerr6/talentgraph/internal/storage"
)

func newQueueTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "queue.db"), logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestScoreWeighting(t *testing.T) {
	cases := []struct {
		name string
		p    *models.GitHubProfile
		want int
	}{
		{"bare profile", &models.GitHubProfile{}, 0},
		{"email only", &models.GitHubProfile{Email: "a@b.com"}, 10},
		{"email + location", &models.GitHubProfile{Email: "a@b.com", Location: "NYC"}, 15},
		{"low followers", &models.GitHubProfile{Followers: 100}, 4},
		{"high followers", &models.GitHubProfile{Followers: 5000}, 8},
		{"below follower tier", &models.GitHubProfile{Followers: 50}, 0},
		{"bio only", &models.GitHubProfile{Bio: "hacker"}, 3},
		{"fully populated", &models.GitHubProfile{
			Email: "a@b.com", Location: "NYC", Followers: 2000, Bio: "hacker",
		}, 10 + 5 + 8 + 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Score(c.p); got != c.want {
				t.Errorf("Score() = %d, want %d", got, c.want)
			}
		})
	}
}

func TestGetBatchOrdersByScoreThenFollowers(t *testing.T) {
	store := newQueueTestStore(t)
	ctx := context.Background()

	lowScore, err := store.UpsertProfile(ctx, &models.GitHubProfile{GitHubUsername: "lowscore", Followers: 9000})
	if err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}
	highScoreLowFollowers, err := store.UpsertProfile(ctx, &models.GitHubProfile{
		GitHubUsername: "highscore", Email: "a@b.com", Location: "NYC", Bio: "hi", Followers: 10,
	})
	if err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}
	tieBreakHigh, err := store.UpsertProfile(ctx, &models.GitHubProfile{
		GitHubUsername: "tiehigh", Email: "c@d.com", Location: "SF", Bio: "hi", Followers: 500,
	})
	if err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}
	tieBreakLow, err := store.UpsertProfile(ctx, &models.GitHubProfile{
		GitHubUsername: "tielow", Email: "e@f.com", Location: "LA", Bio: "hi", Followers: 50,
	})
	if err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}

	q := New(store, 0)
	batch, err := q.GetBatch(ctx, 10)
	if err != nil {
		t.Fatalf("GetBatch() error: %v", err)
	}
	if len(batch) != 4 {
		t.Fatalf("expected 4 profiles, got %d", len(batch))
	}

	order := make([]string, len(batch))
	for i, p := range batch {
		order[i] = p.ID
	}
	want := []string{tieBreakHigh, tieBreakLow, highScoreLowFollowers, lowScore}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("unexpected order: got %v, want %v", order, want)
		}
	}
}

func TestGetBatchRespectsLimit(t *testing.T) {
	store := newQueueTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.UpsertProfile(ctx, &models.GitHubProfile{GitHubUsername: string(rune('a' + i))}); err != nil {
			t.Fatalf("UpsertProfile() error: %v", err)
		}
	}

	q := New(store, 0)
	batch, err := q.GetBatch(ctx, 2)
	if err != nil {
		t.Fatalf("GetBatch() error: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected batch capped at 2, got %d", len(batch))
	}
}

func TestMarkEnrichedAdvancesWatermark(t *testing.T) {
	store := newQueueTestStore(t)
	ctx := context.Background()

	id, err := store.UpsertProfile(ctx, &models.GitHubProfile{GitHubUsername: "alice"})
	if err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}

	q := New(store, 0)
	if err := q.MarkEnriched(ctx, id, true); err != nil {
		t.Fatalf("MarkEnriched() error: %v", err)
	}

	p, err := store.GetProfile(ctx, id)
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if p.LastEnriched == nil {
		t.Fatal("expected last_enriched to be stamped")
	}
}
