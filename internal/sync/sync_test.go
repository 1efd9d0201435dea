package sync

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ckerr6/talentgraph/internal/checkpoint"
)

func openTestCheckpoints(t *testing.T) *checkpoint.Store {
	t.Helper()
	s, err := checkpoint.Open(filepath.Join(t.TempDir(), "checkpoints.db"))
	if err != nil {
		t.Fatalf("checkpoint.Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCursorRoundTripsThroughCheckpointStore(t *testing.T) {
	cps := openTestCheckpoints(t)
	s := &GraphSyncer{checkpoints: cps}

	zero, err := s.cursor(subsystemPersons)
	if err != nil {
		t.Fatalf("cursor() error on unseeded subsystem: %v", err)
	}
	if !zero.IsZero() {
		t.Fatalf("expected zero cursor before any save, got %v", zero)
	}

	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.saveCursor(subsystemPersons, want); err != nil {
		t.Fatalf("saveCursor() error: %v", err)
	}

	got, err := s.cursor(subsystemPersons)
	if err != nil {
		t.Fatalf("cursor() error: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("cursor() = %v, want %v", got, want)
	}
}

func TestCursorsAreIndependentPerSubsystem(t *testing.T) {
	cps := openTestCheckpoints(t)
	s := &GraphSyncer{checkpoints: cps}

	persons := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	edges := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	if err := s.saveCursor(subsystemPersons, persons); err != nil {
		t.Fatalf("saveCursor(persons) error: %v", err)
	}
	if err := s.saveCursor(subsystemEdges, edges); err != nil {
		t.Fatalf("saveCursor(edges) error: %v", err)
	}

	gotPersons, err := s.cursor(subsystemPersons)
	if err != nil {
		t.Fatalf("cursor(persons) error: %v", err)
	}
	gotEdges, err := s.cursor(subsystemEdges)
	if err != nil {
		t.Fatalf("cursor(edges) error: %v", err)
	}
	gotSkills, err := s.cursor(subsystemSkills)
	if err != nil {
		t.Fatalf("cursor(skills) error: %v", err)
	}

	if !gotPersons.Equal(persons) {
		t.Fatalf("persons cursor = %v, want %v", gotPersons, persons)
	}
	if !gotEdges.Equal(edges) {
		t.Fatalf("edges cursor = %v, want %v", gotEdges, edges)
	}
	if !gotSkills.IsZero() {
		t.Fatalf("expected skills cursor to remain zero, got %v", gotSkills)
	}
}
