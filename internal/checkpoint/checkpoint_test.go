package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/ckerr6/talentgraph/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "checkpoints.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	cp := &models.Checkpoint{
		Subsystem:       "discovery_crawler",
		LastProcessedID: "repo-123",
		Tier:            2,
		Counters:        map[string]int{"contributors_upserted": 40},
	}
	if err := s.Save(cp); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := s.Load("discovery_crawler")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a checkpoint, got nil")
	}
	if loaded.LastProcessedID != "repo-123" || loaded.Tier != 2 || loaded.Counters["contributors_upserted"] != 40 {
		t.Fatalf("unexpected checkpoint contents: %+v", loaded)
	}
	if loaded.UpdatedAt.IsZero() {
		t.Fatal("expected UpdatedAt to be stamped by Save")
	}
}

func TestLoadMissingSubsystemReturnsNil(t *testing.T) {
	s := openTestStore(t)

	loaded, err := s.Load("never_run")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected nil for a subsystem with no checkpoint, got %+v", loaded)
	}
}

func TestSaveOverwritesPriorCheckpoint(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save(&models.Checkpoint{Subsystem: "collab_builder", LastProcessedID: "repo-1"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := s.Save(&models.Checkpoint{Subsystem: "collab_builder", LastProcessedID: "repo-2"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := s.Load("collab_builder")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.LastProcessedID != "repo-2" {
		t.Fatalf("expected the latest checkpoint to win, got %q", loaded.LastProcessedID)
	}
}

func TestDeleteAndList(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save(&models.Checkpoint{Subsystem: "enrichment_engine", LastProcessedID: "u1"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := s.Save(&models.Checkpoint{Subsystem: "collab_builder", LastProcessedID: "r1"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	names, err := s.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 checkpoints, got %v", names)
	}

	if err := s.Delete("enrichment_engine"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	names, err = s.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(names) != 1 || names[0] != "collab_builder" {
		t.Fatalf("expected only collab_builder to remain, got %v", names)
	}
}
