package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/spf13/cobra"

	"github.com/ckerr6/talentgraph/internal/discovery"
	"github.com/ckerr6/talentgraph/internal/models"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Repository and contributor discovery",
}

var discoverReposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Register repositories from an org, a single repo, or a priority tier",
	Long: `Fetches repository metadata from GitHub (for --org/--repo) or reads
already-known repositories back out of the store (for --priority-tier),
upserting each into github_repositories.

Usage:
  talentgraph discover repos --org ethereum
  talentgraph discover repos --repo ethereum/go-ethereum
  talentgraph discover repos --priority-tier 1 --limit 50`,
	RunE: runDiscoverRepos,
}

var discoverContributorsCmd = &cobra.Command{
	Use:   "contributors",
	Short: "Crawl contributor lists of priority-tier repositories",
	RunE:  runDiscoverContributors,
}

func init() {
	discoverReposCmd.Flags().String("org", "", "GitHub organization to register all repos from")
	discoverReposCmd.Flags().String("repo", "", "single owner/name repository to register")
	discoverReposCmd.Flags().Int("priority-tier", 0, "list already-registered repos at this ecosystem priority tier (1..5)")
	discoverReposCmd.Flags().Int("limit", 0, "limit the number of repos processed (0 = no limit)")

	discoverContributorsCmd.Flags().Int("priority-tier", 0, "ecosystem priority tier to crawl (1..5, required)")
	discoverContributorsCmd.Flags().Int("limit", 0, "limit the number of repos crawled (0 = no limit)")
	discoverContributorsCmd.Flags().Bool("dry-run", false, "report what would be upserted without writing")
	discoverContributorsCmd.MarkFlagRequired("priority-tier")

	discoverCmd.AddCommand(discoverReposCmd)
	discoverCmd.AddCommand(discoverContributorsCmd)
}

func runDiscoverRepos(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	org, _ := cmd.Flags().GetString("org")
	repoArg, _ := cmd.Flags().GetString("repo")
	tier, _ := cmd.Flags().GetInt("priority-tier")
	limit, _ := cmd.Flags().GetInt("limit")

	set := 0
	for _, v := range []bool{org != "", repoArg != "", tier != 0} {
		if v {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one of --org, --repo, --priority-tier is required")
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if tier != 0 {
		if limit <= 0 {
			limit = 1000
		}
		repos, err := store.ListRepositoriesByPriorityTier(ctx, tier, limit)
		if err != nil {
			return fmt.Errorf("list repositories by tier: %w", err)
		}
		fmt.Printf("✅ %d repositories at priority tier %d already registered\n", len(repos), tier)
		return nil
	}

	client := openGitHubClient(cfg)

	var fetched []*models.GitHubRepository
	if org != "" {
		fmt.Printf("🔄 Fetching repositories for org %s\n", org)
		repos, err := client.ListOrgRepos(ctx, org)
		if err != nil {
			return fmt.Errorf("list org repos: %w", err)
		}
		for _, r := range repos {
			fetched = append(fetched, repoFromGitHub(org, r))
		}
	} else {
		owner, name, ok := splitOwnerRepo(repoArg)
		if !ok {
			return fmt.Errorf("--repo must be owner/name, got %q", repoArg)
		}
		fmt.Printf("🔄 Fetching repository %s\n", repoArg)
		r, err := client.GetRepo(ctx, owner, name)
		if err != nil {
			return fmt.Errorf("get repo: %w", err)
		}
		fetched = append(fetched, repoFromGitHub(owner, r))
	}

	if limit > 0 && len(fetched) > limit {
		fetched = fetched[:limit]
	}

	upserted := 0
	for _, repo := range fetched {
		if _, err := store.UpsertRepository(ctx, repo); err != nil {
			return fmt.Errorf("upsert repository %s: %w", repo.FullName, err)
		}
		upserted++
	}

	fmt.Printf("✅ Registered %d repositories\n", upserted)
	return nil
}

func runDiscoverContributors(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	tier, _ := cmd.Flags().GetInt("priority-tier")
	limit, _ := cmd.Flags().GetInt("limit")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

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

	client := openGitHubClient(cfg)

	if limit <= 0 {
		limit = 1000
	}
	repos, err := store.ListRepositoriesByPriorityTier(ctx, tier, limit)
	if err != nil {
		return fmt.Errorf("list repositories: %w", err)
	}
	sort.SliceStable(repos, func(i, j int) bool { return repos[i].Stars > repos[j].Stars })

	fmt.Printf("🔄 Crawling contributors for %d tier-%d repositories\n", len(repos), tier)

	crawler := discovery.New(client, store, checkpoints, cfg.Discovery.FreshnessWindow)
	if cache, err := openCache(ctx, cfg); err != nil {
		fmt.Printf("  ⚠️  shared cache unavailable, continuing without it: %v\n", err)
	} else if cache != nil {
		defer cache.Close()
		crawler.WithCache(cache)
	}

	stats, err := crawler.Run(ctx, repos, dryRun)
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	fmt.Printf("✅ Discovery complete\n")
	fmt.Printf("   Repos processed: %d (skipped fresh: %d)\n", stats.ReposProcessed, stats.ReposSkippedFresh)
	fmt.Printf("   Contributors upserted: %d (new profiles: %d)\n", stats.ContributorsUpserted, stats.ProfilesCreated)
	return nil
}

// repoFromGitHub maps a go-github Repository into the store's model.
// ownerFallback covers the org-listing path, where the repo's own
// Owner field is reliably populated but kept explicit for parity with
// the single-repo fetch path.
func repoFromGitHub(ownerFallback string, r *github.Repository) *models.GitHubRepository {
	owner := r.GetOwner().GetLogin()
	if owner == "" {
		owner = ownerFallback
	}

	var createdAt, updatedAt *time.Time
	if r.CreatedAt != nil {
		t := r.GetCreatedAt().Time
		createdAt = &t
	}
	if r.UpdatedAt != nil {
		t := r.GetUpdatedAt().Time
		updatedAt = &t
	}

	return &models.GitHubRepository{
		FullName:        r.GetFullName(),
		OwnerUsername:   owner,
		Description:     r.GetDescription(),
		Language:        r.GetLanguage(),
		Stars:           r.GetStargazersCount(),
		Forks:           r.GetForksCount(),
		IsFork:          r.GetFork(),
		HomepageURL:     r.GetHomepage(),
		GitHubCreatedAt: createdAt,
		GitHubUpdatedAt: updatedAt,
	}
}

func splitOwnerRepo(s string) (owner, name string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			owner, name = s[:i], s[i+1:]
			return owner, name, owner != "" && name != ""
		}
	}
	return "", "", false
}
