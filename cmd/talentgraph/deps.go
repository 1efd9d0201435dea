package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ckerr6/talentgraph/internal/cache"
	"github.com/ckerr6/talentgraph/internal/checkpoint"
	"github.com/ckerr6/talentgraph/internal/config"
	"github.com/ckerr6/talentgraph/internal/githubapi"
	"github.com/ckerr6/talentgraph/internal/graph"
	"github.com/ckerr6/talentgraph/internal/storage"
)

// openStore connects to the backend named by cfg.Storage.Type.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Type {
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, fmt.Errorf("storage.type is postgres but no postgres_dsn/DB_DSN is set")
		}
		return storage.NewPostgresStore(cfg.Storage.PostgresDSN, logger)
	case "sqlite", "":
		return storage.NewSQLiteStore(cfg.Storage.LocalPath, logger)
	default:
		return nil, fmt.Errorf("unknown storage.type %q", cfg.Storage.Type)
	}
}

// openCheckpoints opens the bbolt checkpoint file under cfg.Checkpoint.Directory.
func openCheckpoints(cfg *config.Config) (*checkpoint.Store, error) {
	if err := os.MkdirAll(cfg.Checkpoint.Directory, 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	return checkpoint.Open(filepath.Join(cfg.Checkpoint.Directory, "checkpoints.db"))
}

// openGitHubClient builds the rate-limited GitHub API client from
// config and the GITHUB_TOKEN environment variable.
func openGitHubClient(cfg *config.Config) *githubapi.Client {
	return githubapi.NewClient(githubapi.Config{
		Token:            cfg.GitHub.Token,
		RequestDelay:     cfg.GitHub.RequestDelay,
		RateLimitBuffer:  cfg.GitHub.RateLimitBuffer,
		MaxRetries:       cfg.GitHub.MaxRetries,
		RetryBackoffBase: cfg.GitHub.RetryBackoff,
	})
}

// openCache connects to the shared Redis cache when cfg.Cache.SharedCacheURL
// is set, returning (nil, nil) when caching isn't configured so callers can
// wire it into the discovery/enrichment passes optionally.
func openCache(ctx context.Context, cfg *config.Config) (*cache.Client, error) {
	if cfg.Cache.SharedCacheURL == "" {
		return nil, nil
	}
	return cache.NewClientFromURL(ctx, cfg.Cache.SharedCacheURL)
}

// openGraphMirror connects to the Neo4j mirror described by cfg.Neo4j.
func openGraphMirror(ctx context.Context, cfg *config.Config) (*graph.Mirror, error) {
	return graph.NewMirror(ctx, cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password, cfg.Neo4j.Database)
}
