// Package reconcile applies the deletion/review-flag policy driven by
// an externally produced CSV of persons whose LinkedIn re-scrape came
// back empty.
package reconcile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ckerr6/talentgraph/internal/logging"
	"github.com/ckerr6/talentgraph/internal/storage"
)

// noLinkedInPrefix is the error-column flag that triggers the deletion
// path; the CSV carries the matched slug after it, which isn't needed
// here since the row already identifies the person directly.
const noLinkedInPrefix = "No Linkedin profile found for"

// Action is what Reconcile did (or would do, in dry-run) for one row.
type Action string

const (
	ActionDeleted        Action = "deleted"
	ActionFlaggedReview  Action = "flagged_for_review"
	ActionSkippedNoFlag  Action = "skipped_no_flag"
	ActionSkippedMissing Action = "skipped_missing_person"
)

// Decision is one row's outcome, used both for the dry-run diff and the
// applied-run summary.
type Decision struct {
	PersonID string
	FullName string
	Action   Action
	Reason   string
}

// Stats tallies the outcomes of one reconciliation run.
type Stats struct {
	Deleted        int
	FlaggedReview  int
	SkippedNoFlag  int
	SkippedMissing int
}

// Run reads the CSV (header must name person_id and error; full_name and
// any other columns are ignored) and applies the deletion policy to every row
// flagged with the "no LinkedIn profile found" error. When dryRun is
// true, no writes occur; the decisions are still returned so the caller
// can print a diff.
func Run(ctx context.Context, store storage.Store, r io.Reader, dryRun bool) ([]Decision, Stats, error) {
	log := logging.With("component", "reconcile")

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read csv header: %w", err)
	}
	idx := columnIndex(header)

	personCol, ok := idx["person_id"]
	if !ok {
		return nil, Stats{}, fmt.Errorf("csv missing required column: person_id")
	}
	errorCol, ok := idx["error"]
	if !ok {
		return nil, Stats{}, fmt.Errorf("csv missing required column: error")
	}

	var decisions []Decision
	var stats Stats

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return decisions, stats, fmt.Errorf("read csv row: %w", err)
		}

		personID := field(row, personCol)
		errVal := field(row, errorCol)

		if personID == "" || !strings.HasPrefix(errVal, noLinkedInPrefix) {
			stats.SkippedNoFlag++
			continue
		}

		person, err := store.GetPerson(ctx, personID)
		if err == storage.ErrNotFound || person == nil {
			stats.SkippedMissing++
			decisions = append(decisions, Decision{PersonID: personID, Action: ActionSkippedMissing, Reason: "person not found"})
			continue
		}
		if err != nil {
			return decisions, stats, fmt.Errorf("get person %s: %w", personID, err)
		}

		hasContributions, err := store.PersonHasContributions(ctx, personID)
		if err != nil {
			return decisions, stats, fmt.Errorf("check contributions for %s: %w", personID, err)
		}

		if hasContributions {
			decision := Decision{PersonID: personID, FullName: person.FullName, Action: ActionFlaggedReview, Reason: errVal}
			stats.FlaggedReview++
			if !dryRun {
				if err := store.FlagPersonForReview(ctx, personID, errVal); err != nil {
					return decisions, stats, fmt.Errorf("flag person %s: %w", personID, err)
				}
				log.Info("flagged person for review", "person", personID, "name", person.FullName)
			}
			decisions = append(decisions, decision)
			continue
		}

		decision := Decision{PersonID: personID, FullName: person.FullName, Action: ActionDeleted, Reason: errVal}
		stats.Deleted++
		if !dryRun {
			if err := store.DeletePersonCascade(ctx, personID); err != nil {
				return decisions, stats, fmt.Errorf("delete person %s: %w", personID, err)
			}
			log.Info("deleted person", "person", personID, "name", person.FullName)
		}
		decisions = append(decisions, decision)
	}

	return decisions, stats, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return idx
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// FormatDiff renders decisions as a human-readable dry-run report.
func FormatDiff(decisions []Decision) string {
	var b strings.Builder
	for _, d := range decisions {
		switch d.Action {
		case ActionDeleted:
			fmt.Fprintf(&b, "DELETE  %s (%s) — %s\n", d.PersonID, d.FullName, d.Reason)
		case ActionFlaggedReview:
			fmt.Fprintf(&b, "FLAG    %s (%s) — %s\n", d.PersonID, d.FullName, d.Reason)
		case ActionSkippedMissing:
			fmt.Fprintf(&b, "SKIP    %s — person not found\n", d.PersonID)
		}
	}
	return b.String()
}
