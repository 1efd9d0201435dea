package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ckerr6/talentgraph/internal/enrichment"
	"github.com/ckerr6/talentgraph/internal/enrichqueue"
	"github.com/ckerr6/talentgraph/internal/resolution"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "GitHub profile enrichment",
}

var enrichGithubCmd = &cobra.Command{
	Use:   "github",
	Short: "Fetch detailed GitHub data for queued profiles and write it back",
	Long: `Pulls the highest-priority profiles due for enrichment from the
queue, fetches each one's GitHub user record, repos, and top-language
breakdown, and merges the result back into the profile store.

Usage:
  talentgraph enrich github --batch-size 100
  talentgraph enrich github --continuous --with-matching
  talentgraph enrich github --status-only`,
	RunE: runEnrichGithub,
}

func init() {
	enrichGithubCmd.Flags().Int("batch-size", 0, "profiles per batch (default from config)")
	enrichGithubCmd.Flags().Bool("continuous", false, "keep pulling batches until the queue is empty")
	enrichGithubCmd.Flags().Bool("with-matching", false, "run the resolver against each enriched profile")
	enrichGithubCmd.Flags().Bool("status-only", false, "print queue/rate-limit status and exit without enriching")
	enrichCmd.AddCommand(enrichGithubCmd)
}

func runEnrichGithub(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	batchSize, _ := cmd.Flags().GetInt("batch-size")
	continuous, _ := cmd.Flags().GetBool("continuous")
	withMatching, _ := cmd.Flags().GetBool("with-matching")
	statusOnly, _ := cmd.Flags().GetBool("status-only")
	if batchSize <= 0 {
		batchSize = cfg.Enrichment.BatchSize
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	client := openGitHubClient(cfg)

	if statusOnly {
		status := client.CheckRateLimit()
		fmt.Printf("📊 Enrichment status\n")
		fmt.Printf("   Rate limit remaining: %d (resets %s)\n", status.Remaining, status.ResetAt.Format(time.RFC3339))
		return nil
	}

	checkpoints, err := openCheckpoints(cfg)
	if err != nil {
		return fmt.Errorf("open checkpoints: %w", err)
	}
	defer checkpoints.Close()

	queue := enrichqueue.New(store, int(cfg.Enrichment.StaleAfter.Hours()/24))
	engine := enrichment.New(client, store, checkpoints, cfg.GitHub.RequestDelay)
	if sharedCache, err := openCache(ctx, cfg); err != nil {
		fmt.Printf("⚠️  shared cache unavailable, continuing without it: %v\n", err)
	} else if sharedCache != nil {
		defer sharedCache.Close()
		engine.WithCache(sharedCache)
	}

	var resolver *resolution.Resolver
	if withMatching {
		resolver = resolution.New(store, cfg.Matching.Mode == "aggressive")
	}

	total := &enrichment.Stats{}
	round := 0
	for {
		round++
		batch, err := queue.GetBatch(ctx, batchSize)
		if err != nil {
			return fmt.Errorf("get batch: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		fmt.Printf("🔄 Batch %d: enriching %d profiles\n", round, len(batch))
		stats, err := engine.RunBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("enrichment batch failed: %w", err)
		}
		accumulate(total, stats)
		fmt.Printf("  ✓ Enriched %d, user gone %d, failed %d\n", stats.Enriched, stats.UserGone, stats.Failed)

		if resolver != nil {
			for _, profile := range batch {
				if _, err := resolver.ResolveAndLink(ctx, profile); err != nil {
					fmt.Printf("  ⚠️  match failed for %s: %v\n", profile.GitHubUsername, err)
				}
			}
		}

		if !continuous {
			break
		}
	}

	fmt.Printf("✅ Enrichment complete\n")
	fmt.Printf("   Attempted: %d | Enriched: %d | User gone: %d | Failed: %d\n",
		total.Attempted, total.Enriched, total.UserGone, total.Failed)
	return nil
}

func accumulate(total, batch *enrichment.Stats) {
	total.Attempted += batch.Attempted
	total.Enriched += batch.Enriched
	total.UserGone += batch.UserGone
	total.Failed += batch.Failed
}
