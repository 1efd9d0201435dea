package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ckerr6/talentgraph/internal/collab"
	"github.com/ckerr6/talentgraph/internal/resolution"
)

var collabCmd = &cobra.Command{
	Use:   "collab",
	Short: "Collaboration graph derivation",
}

var collabBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Derive weighted collaboration edges from repository co-contribution",
	Long: `For every repository with at least --min-contributors linked
contributors, derives or updates a CollaborationEdge for each pair of
persons who co-contributed, then computes collaboration_strength for
any edge still missing it.

Usage:
  talentgraph collab build --min-contributors 3
  talentgraph collab build --ecosystem ethereum --limit 200`,
	RunE: runCollabBuild,
}

func init() {
	collabBuildCmd.Flags().String("ecosystem", "", "restrict to repos attached to this ecosystem")
	collabBuildCmd.Flags().Int("min-contributors", 2, "minimum linked contributors a repo needs to be processed")
	collabBuildCmd.Flags().Int("limit", 0, "cap the number of repos processed (0 = no cap)")
	collabCmd.AddCommand(collabBuildCmd)
}

func runCollabBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ecosystem, _ := cmd.Flags().GetString("ecosystem")
	minContributors, _ := cmd.Flags().GetInt("min-contributors")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	checkpoints, err := openCheckpoints(cfg)
	if err != nil {
		return fmt.Errorf("open checkpoints: %w", err)
	}
	defer checkpoints.Close()

	ecosystemID := ""
	if ecosystem != "" {
		cache, err := store.LoadEcosystemCache(ctx)
		if err != nil {
			return fmt.Errorf("load ecosystem cache: %w", err)
		}
		ecosystemID = cache[resolution.NormalizeCompany(ecosystem)]
		if ecosystemID == "" {
			return fmt.Errorf("unknown ecosystem %q", ecosystem)
		}
	}

	fmt.Printf("🔄 Building collaboration graph (min-contributors=%d, ecosystem=%q)\n", minContributors, ecosystem)
	builder := collab.New(store, checkpoints)
	stats, err := builder.Run(ctx, minContributors, ecosystemID, limit)
	if err != nil {
		return fmt.Errorf("collaboration build failed: %w", err)
	}

	fmt.Printf("✅ Collaboration build complete\n")
	fmt.Printf("   Repos processed: %d\n", stats.ReposProcessed)
	fmt.Printf("   Edges upserted: %d\n", stats.EdgesUpserted)
	fmt.Printf("   Strengths computed: %d\n", stats.StrengthsComputed)
	return nil
}
