package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ckerr6/talentgraph/internal/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Person deletion/review reconciliation driven by a LinkedIn re-scrape CSV",
}

var reconcilePersonsCmd = &cobra.Command{
	Use:   "persons --csv <path>",
	Short: "Apply the deletion-safety policy to persons flagged in a re-scrape CSV",
	Long: `Reads a CSV (columns: person_id, full_name, error, plus any extras)
produced by an external LinkedIn re-scrape. For every row whose error
column starts with "No Linkedin profile found for", deletes the person
(cascading emails, employment, and GitHub profile links) if they have no
GitHub contributions on record, or flags them for review otherwise.

Usage:
  talentgraph reconcile persons --csv rescrape.csv --dry-run
  talentgraph reconcile persons --csv rescrape.csv`,
	RunE: runReconcilePersons,
}

func init() {
	reconcilePersonsCmd.Flags().String("csv", "", "path to the re-scrape CSV (required)")
	reconcilePersonsCmd.Flags().Bool("dry-run", false, "print the diff without deleting or flagging anything")
	reconcilePersonsCmd.MarkFlagRequired("csv")
	reconcileCmd.AddCommand(reconcilePersonsCmd)
}

func runReconcilePersons(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	csvPath, _ := cmd.Flags().GetString("csv")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	mode := "applying"
	if dryRun {
		mode = "dry-run"
	}
	fmt.Printf("🔄 Reconciling persons from %s (%s)\n", csvPath, mode)

	decisions, stats, err := reconcile.Run(ctx, store, f, dryRun)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	fmt.Print(reconcile.FormatDiff(decisions))
	fmt.Printf("✅ Reconciliation complete\n")
	fmt.Printf("   Deleted: %d | Flagged for review: %d | Skipped (no flag): %d | Skipped (missing person): %d\n",
		stats.Deleted, stats.FlaggedReview, stats.SkippedNoFlag, stats.SkippedMissing)
	return nil
}
