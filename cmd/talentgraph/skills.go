package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ckerr6/talentgraph/internal/skills"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Skill derivation",
}

var skillsExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Tag repositories by language and derive person proficiency",
	Long: `Seeds the static skills catalog, tags repositories with a primary
skill derived from their dominant language (Phase A), then aggregates
each person's contribution evidence across tagged repos into a
proficiency score per skill (Phase B).

Usage:
  talentgraph skills extract --limit 500
  talentgraph skills extract --repos-only --all`,
	RunE: runSkillsExtract,
}

func init() {
	skillsExtractCmd.Flags().Bool("repos-only", false, "run Phase A (repo tagging) only, skip person proficiency")
	skillsExtractCmd.Flags().Int("limit", 500, "maximum repos/persons to process per phase")
	skillsExtractCmd.Flags().Bool("all", false, "process every eligible repo/person, ignoring --limit")
	skillsCmd.AddCommand(skillsExtractCmd)
}

func runSkillsExtract(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	reposOnly, _ := cmd.Flags().GetBool("repos-only")
	limit, _ := cmd.Flags().GetInt("limit")
	all, _ := cmd.Flags().GetBool("all")
	if all {
		limit = 1_000_000
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	seeded, err := skills.SeedCatalog(ctx, store)
	if err != nil {
		return fmt.Errorf("seed skills catalog: %w", err)
	}
	fmt.Printf("🔄 Skills catalog seeded (%d entries)\n", seeded)

	mapper := skills.New(store)

	fmt.Printf("[1/2] Tagging repositories by language...\n")
	repoStats, err := mapper.TagRepositories(ctx, limit)
	if err != nil {
		return fmt.Errorf("tag repositories: %w", err)
	}
	fmt.Printf("  ✓ Tagged %d repos (%d unknown language)\n", repoStats.ReposTagged, repoStats.ReposUnknownLang)

	if reposOnly {
		fmt.Printf("\n[2/2] Skipped (--repos-only)\n")
		return nil
	}

	fmt.Printf("\n[2/2] Deriving person proficiency...\n")
	personStats, err := mapper.DerivePersonSkills(ctx, limit)
	if err != nil {
		return fmt.Errorf("derive person skills: %w", err)
	}
	fmt.Printf("  ✓ Processed %d persons, wrote %d person_skills rows\n",
		personStats.PersonsProcessed, personStats.PersonSkillsWritten)

	fmt.Printf("\n✅ Skill extraction complete\n")
	return nil
}
