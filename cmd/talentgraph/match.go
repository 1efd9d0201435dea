package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ckerr6/talentgraph/internal/resolution"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Profile-to-person resolution",
}

var matchProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Run the match cascade against enriched, unlinked GitHub profiles",
	Long: `Runs the email / LinkedIn-bio / name+company / name+location /
fuzzy-name+company cascade against every enriched profile without a
linked person, writing a link wherever confidence clears the threshold.

Usage:
  talentgraph match profiles --limit 500
  talentgraph match profiles --all --aggressive
  talentgraph match profiles --all --create-persons`,
	RunE: runMatchProfiles,
}

func init() {
	matchProfilesCmd.Flags().Int("limit", 500, "maximum profiles to consider")
	matchProfilesCmd.Flags().Bool("all", false, "consider every unmatched profile, ignoring --limit")
	matchProfilesCmd.Flags().Bool("aggressive", false, "use the lower aggressive-mode confidence threshold")
	matchProfilesCmd.Flags().Bool("create-persons", false, "create a new Person from high-quality profiles the cascade can't match")
	matchCmd.AddCommand(matchProfilesCmd)
}

func runMatchProfiles(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	limit, _ := cmd.Flags().GetInt("limit")
	all, _ := cmd.Flags().GetBool("all")
	aggressive, _ := cmd.Flags().GetBool("aggressive")
	createPersons, _ := cmd.Flags().GetBool("create-persons")
	if all {
		limit = 1_000_000
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	profiles, err := store.ListUnmatchedProfiles(ctx, limit)
	if err != nil {
		return fmt.Errorf("list unmatched profiles: %w", err)
	}
	fmt.Printf("🔄 Matching %d unlinked profiles (aggressive=%v, create-persons=%v)\n", len(profiles), aggressive, createPersons)

	resolver := resolution.New(store, aggressive || cfg.Matching.Mode == "aggressive").WithCreatePersons(createPersons)

	counts := map[resolution.Strategy]int{}
	for _, p := range profiles {
		res, err := resolver.ResolveAndLink(ctx, p)
		if err != nil {
			fmt.Printf("  ⚠️  %s: %v\n", p.GitHubUsername, err)
			continue
		}
		counts[res.Strategy]++
	}

	fmt.Printf("✅ Matching complete\n")
	for _, s := range []resolution.Strategy{
		resolution.StrategyEmail, resolution.StrategyLinkedIn, resolution.StrategyNameCompanyExact,
		resolution.StrategyNameCompanyFuzzy, resolution.StrategyNameLocation, resolution.StrategyFuzzyNameCompany,
		resolution.StrategyCreated, resolution.StrategyNoMatch,
	} {
		if counts[s] > 0 {
			fmt.Printf("   %s: %d\n", s, counts[s])
		}
	}
	return nil
}
