package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ckerr6/talentgraph/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Ecosystem taxonomy import operations",
}

var taxonomyImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import an ecosystem taxonomy export (JSONL) into the store",
	Long: `Reads a line-delimited JSON export of crypto ecosystems and their
repository URLs, upserting each ecosystem and linking its repositories.

Usage:
  talentgraph taxonomy import --jsonl taxonomy.jsonl
  talentgraph taxonomy import --jsonl taxonomy.jsonl --priority-only`,
	RunE: runTaxonomyImport,
}

func init() {
	taxonomyImportCmd.Flags().String("jsonl", "", "path to the taxonomy JSONL export (required)")
	taxonomyImportCmd.Flags().Bool("priority-only", false, "only import tier 1/2 ecosystems")
	taxonomyImportCmd.MarkFlagRequired("jsonl")
	taxonomyCmd.AddCommand(taxonomyImportCmd)
}

func runTaxonomyImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	path, _ := cmd.Flags().GetString("jsonl")
	priorityOnly, _ := cmd.Flags().GetBool("priority-only")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open jsonl: %w", err)
	}
	defer f.Close()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	imp := taxonomy.New(store)
	stats, err := imp.Import(ctx, f, priorityOnly)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("✅ Taxonomy import complete\n")
	fmt.Printf("   Ecosystems upserted: %d\n", stats.EcosystemsUpserted)
	fmt.Printf("   Repositories linked: %d (created: %d, skipped: %d)\n",
		stats.ReposLinked, stats.ReposCreated, stats.ReposSkipped)
	fmt.Printf("   Malformed URLs skipped: %d\n", stats.MalformedURLs)
	return nil
}
