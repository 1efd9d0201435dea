package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every subsystem's settings, constructed once at startup
// and passed to subsystems by pointer.
type Config struct {
	Mode string `yaml:"mode"` // "enterprise", "team", "oss", "local"

	Storage     StorageConfig     `yaml:"storage"`
	GitHub      GitHubConfig      `yaml:"github"`
	Cache       CacheConfig       `yaml:"cache"`
	Neo4j       Neo4jConfig       `yaml:"neo4j"`
	Checkpoint  CheckpointConfig  `yaml:"checkpoint"`
	Enrichment  EnrichmentConfig  `yaml:"enrichment"`
	Matching    MatchingConfig    `yaml:"matching"`
	Discovery   DiscoveryConfig   `yaml:"discovery"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type StorageConfig struct {
	Type        string `yaml:"type"` // "postgres", "sqlite"
	PostgresDSN string `yaml:"postgres_dsn"`
	LocalPath   string `yaml:"local_path"`
}

type GitHubConfig struct {
	Token            string        `yaml:"token"`
	RateLimitBuffer  int           `yaml:"rate_limit_buffer"`
	RequestDelay     time.Duration `yaml:"request_delay"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
}

type CacheConfig struct {
	SharedCacheURL string        `yaml:"shared_cache_url"`
	TTL            time.Duration `yaml:"ttl"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type CheckpointConfig struct {
	Directory string `yaml:"directory"`
}

type EnrichmentConfig struct {
	BatchSize        int           `yaml:"batch_size"`
	MaxProfilesPerRun int          `yaml:"max_profiles_per_run"`
	StaleAfter       time.Duration `yaml:"stale_after"`
}

type MatchingConfig struct {
	AutoMatchThreshold float64 `yaml:"auto_match_threshold"`
	Mode               string  `yaml:"mode"` // "normal" | "aggressive"
}

type DiscoveryConfig struct {
	FreshnessWindow time.Duration `yaml:"freshness_window"`
}

type LoggingConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the spec's documented defaults.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Mode: "team",
		Storage: StorageConfig{
			Type:      "sqlite",
			LocalPath: filepath.Join(homeDir, ".talentgraph", "local.db"),
		},
		GitHub: GitHubConfig{
			RateLimitBuffer: 100,
			RequestDelay:    720 * time.Millisecond,
			MaxRetries:      3,
			RetryBackoff:    2 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 15 * time.Minute,
		},
		Neo4j: Neo4jConfig{
			URI:      "neo4j://localhost:7687",
			Database: "neo4j",
		},
		Checkpoint: CheckpointConfig{
			Directory: filepath.Join(homeDir, ".talentgraph", "checkpoints"),
		},
		Enrichment: EnrichmentConfig{
			BatchSize:         100,
			MaxProfilesPerRun: 10000,
			StaleAfter:        30 * 24 * time.Hour,
		},
		Matching: MatchingConfig{
			AutoMatchThreshold: 0.70,
			Mode:               "normal",
		},
		Discovery: DiscoveryConfig{
			FreshnessWindow: 30 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Dir: "logs",
		},
	}
}

// Load builds a Config from .env files, an optional YAML config file,
// and environment variables, in that ascending order of precedence.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("storage", cfg.Storage)
	v.SetDefault("github", cfg.GitHub)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("neo4j", cfg.Neo4j)
	v.SetDefault("checkpoint", cfg.Checkpoint)
	v.SetDefault("enrichment", cfg.Enrichment)
	v.SetDefault("matching", cfg.Matching)
	v.SetDefault("discovery", cfg.Discovery)
	v.SetDefault("logging", cfg.Logging)

	v.SetEnvPrefix("TALENTGRAPH")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".talentgraph")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".talentgraph"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// loadEnvFiles loads .env files in ascending order of precedence:
// .env.example as fallback, then .env, then .env.local wins last.
func loadEnvFiles() {
	envFiles := []string{".env.example", ".env", ".env.local"}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Overload(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".talentgraph", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies the spec's named environment variables,
// which take precedence over both the config file and viper's
// TALENTGRAPH_-prefixed automatic binding (used for anything not named
// explicitly here).
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if buf := os.Getenv("RATE_LIMIT_BUFFER"); buf != "" {
		if n, err := strconv.Atoi(buf); err == nil {
			cfg.GitHub.RateLimitBuffer = n
		}
	}
	if delay := os.Getenv("REQUEST_DELAY_SECONDS"); delay != "" {
		if f, err := strconv.ParseFloat(delay, 64); err == nil {
			cfg.GitHub.RequestDelay = time.Duration(f * float64(time.Second))
		}
	}
	if retries := os.Getenv("MAX_RETRIES"); retries != "" {
		if n, err := strconv.Atoi(retries); err == nil {
			cfg.GitHub.MaxRetries = n
		}
	}
	if backoff := os.Getenv("RETRY_BACKOFF"); backoff != "" {
		if f, err := strconv.ParseFloat(backoff, 64); err == nil {
			cfg.GitHub.RetryBackoff = time.Duration(f * float64(time.Second))
		}
	}

	if storageType := os.Getenv("STORAGE_TYPE"); storageType != "" {
		cfg.Storage.Type = storageType
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if path := os.Getenv("DB_LOCAL_PATH"); path != "" {
		cfg.Storage.LocalPath = expandPath(path)
	}

	if url := os.Getenv("SHARED_CACHE_URL"); url != "" {
		cfg.Cache.SharedCacheURL = url
	}

	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		cfg.Neo4j.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		cfg.Neo4j.User = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		cfg.Neo4j.Password = pass
	}

	if dir := os.Getenv("CHECKPOINT_DIR"); dir != "" {
		cfg.Checkpoint.Directory = expandPath(dir)
	}

	if batch := os.Getenv("BATCH_SIZE"); batch != "" {
		if n, err := strconv.Atoi(batch); err == nil {
			cfg.Enrichment.BatchSize = n
		}
	}
	if maxRun := os.Getenv("MAX_PROFILES_PER_RUN"); maxRun != "" {
		if n, err := strconv.Atoi(maxRun); err == nil {
			cfg.Enrichment.MaxProfilesPerRun = n
		}
	}
	if stale := os.Getenv("STALE_DAYS"); stale != "" {
		if n, err := strconv.Atoi(stale); err == nil {
			cfg.Enrichment.StaleAfter = time.Duration(n) * 24 * time.Hour
			cfg.Discovery.FreshnessWindow = time.Duration(n) * 24 * time.Hour
		}
	}

	if threshold := os.Getenv("AUTO_MATCH_THRESHOLD"); threshold != "" {
		if f, err := strconv.ParseFloat(threshold, 64); err == nil {
			cfg.Matching.AutoMatchThreshold = f
		}
	}
	if mode := os.Getenv("MATCH_MODE"); mode != "" {
		cfg.Matching.Mode = mode
	}

	if dir := os.Getenv("LOG_DIR"); dir != "" {
		cfg.Logging.Dir = expandPath(dir)
	}

	if mode := os.Getenv("TALENTGRAPH_MODE"); mode != "" {
		cfg.Mode = mode
	}
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, path[1:])
}

// Save writes the config to a YAML file, creating parent directories as
// needed.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("mode", c.Mode)
	v.Set("storage", c.Storage)
	v.Set("github", c.GitHub)
	v.Set("cache", c.Cache)
	v.Set("neo4j", c.Neo4j)
	v.Set("checkpoint", c.Checkpoint)
	v.Set("enrichment", c.Enrichment)
	v.Set("matching", c.Matching)
	v.Set("discovery", c.Discovery)
	v.Set("logging", c.Logging)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// EffectiveMatchThreshold returns the effective threshold for the current
// match mode: the configured AutoMatchThreshold in normal mode, 0.60 in
// aggressive mode, per the resolver's two documented operating points.
func (c *Config) EffectiveMatchThreshold() float64 {
	if c.Matching.Mode == "aggressive" {
		return 0.60
	}
	return c.Matching.AutoMatchThreshold
}
