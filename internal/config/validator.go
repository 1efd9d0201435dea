package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ckerr6/talentgraph/internal/errors"
)

// ValidationContext names the operation whose prerequisites are being
// checked, so each CLI subcommand validates only what it touches.
type ValidationContext string

const (
	ValidationContextTaxonomy  ValidationContext = "taxonomy"
	ValidationContextDiscover  ValidationContext = "discover"
	ValidationContextEnrich    ValidationContext = "enrich"
	ValidationContextMatch     ValidationContext = "match"
	ValidationContextSkills    ValidationContext = "skills"
	ValidationContextCollab    ValidationContext = "collab"
	ValidationContextReconcile ValidationContext = "reconcile"
	ValidationContextGraphSync ValidationContext = "graph_sync"
	ValidationContextAll       ValidationContext = "all"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result.
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result.
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors.
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message.
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  ! %s\n", warn))
		}
	}

	return sb.String()
}

// Validate validates configuration for the given context with
// auto-detected deployment mode.
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	mode := DetectMode()
	return c.ValidateWithMode(ctx, mode)
}

// ValidateWithMode validates configuration for the given operation and
// deployment mode.
func (c *Config) ValidateWithMode(ctx ValidationContext, mode DeploymentMode) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextTaxonomy:
		c.validateStorage(result, true, mode)
	case ValidationContextDiscover:
		c.validateGitHub(result, true)
		c.validateStorage(result, true, mode)
	case ValidationContextEnrich:
		c.validateGitHub(result, true)
		c.validateStorage(result, true, mode)
		c.validateCache(result)
	case ValidationContextMatch:
		c.validateStorage(result, true, mode)
	case ValidationContextSkills:
		c.validateStorage(result, true, mode)
	case ValidationContextCollab:
		c.validateStorage(result, true, mode)
		c.validateNeo4j(result, false, mode)
	case ValidationContextReconcile:
		c.validateStorage(result, true, mode)
	case ValidationContextGraphSync:
		c.validateStorage(result, true, mode)
		c.validateNeo4j(result, true, mode)
	case ValidationContextAll:
		c.validateGitHub(result, true)
		c.validateStorage(result, true, mode)
		c.validateNeo4j(result, false, mode)
		c.validateCache(result)
	}

	return result
}

// ValidateOrFatal validates configuration and exits if invalid
// (auto-detects mode).
func (c *Config) ValidateOrFatal(ctx ValidationContext) {
	mode := DetectMode()
	c.ValidateOrFatalWithMode(ctx, mode)
}

// ValidateOrFatalWithMode validates configuration with explicit mode and
// panics with a fatal config error if invalid.
func (c *Config) ValidateOrFatalWithMode(ctx ValidationContext, mode DeploymentMode) {
	result := c.ValidateWithMode(ctx, mode)
	if result.HasErrors() {
		fmt.Println(result.Error())
		fmt.Printf("\nDeployment mode: %s (%s)\n", mode, mode.Description())
		panic(errors.ConfigError(result.Error()))
	}

	if len(result.Warnings) > 0 {
		fmt.Println("Configuration warnings:")
		for _, warn := range result.Warnings {
			fmt.Printf("  ! %s\n", warn)
		}
		fmt.Printf("\nDeployment mode: %s\n", mode)
	}
}

func (c *Config) validateNeo4j(result *ValidationResult, required bool, mode DeploymentMode) {
	if c.Neo4j.URI == "" {
		if required {
			result.AddError("NEO4J_URI is required but not set")
		} else {
			result.AddWarning("NEO4J_URI is not set; the talent graph mirror will be skipped")
		}
		return
	}

	if _, err := url.Parse(c.Neo4j.URI); err != nil {
		result.AddError("NEO4J_URI is invalid: %v", err)
	}

	if strings.Contains(c.Neo4j.URI, "localhost") && mode.RequiresSecureCredentials() {
		result.AddError("Neo4j URI uses localhost. In %s mode (%s), provide a remote database URI.", mode, mode.Description())
	}

	if c.Neo4j.User == "" {
		result.AddError("NEO4J_USER is required when NEO4J_URI is set")
	}
	if c.Neo4j.Password == "" {
		result.AddError("NEO4J_PASSWORD is required when NEO4J_URI is set")
	} else if mode.RequiresSecureCredentials() {
		insecure := []string{"password", "neo4j", "talentgraph123"}
		for _, p := range insecure {
			if c.Neo4j.Password == p {
				result.AddError("NEO4J_PASSWORD is an insecure default; not allowed in %s mode", mode)
			}
		}
	}
}

func (c *Config) validateStorage(result *ValidationResult, required bool, mode DeploymentMode) {
	switch c.Storage.Type {
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			result.AddError("DB_DSN is required when storage type is postgres")
			return
		}
		if !strings.HasPrefix(c.Storage.PostgresDSN, "postgres://") && !strings.HasPrefix(c.Storage.PostgresDSN, "postgresql://") {
			result.AddError("DB_DSN must start with postgres:// or postgresql://")
		}
		if strings.Contains(c.Storage.PostgresDSN, "sslmode=disable") && mode.RequiresSecureCredentials() {
			result.AddError("DB_DSN has sslmode=disable; not allowed in %s mode", mode)
		}
	case "sqlite", "":
		if c.Storage.LocalPath == "" && required {
			result.AddError("DB_LOCAL_PATH is required when storage type is sqlite")
		}
	default:
		result.AddError("unknown storage type %q (expected postgres or sqlite)", c.Storage.Type)
	}
}

func (c *Config) validateCache(result *ValidationResult) {
	if c.Cache.SharedCacheURL == "" {
		result.AddWarning("SHARED_CACHE_URL is not set; cross-run dedupe cache is disabled")
	}
}

func (c *Config) validateGitHub(result *ValidationResult, required bool) {
	if c.GitHub.Token == "" {
		if required {
			result.AddError("GITHUB_TOKEN is required but not set")
		} else {
			result.AddWarning("GITHUB_TOKEN is not set; rate limit collapses to ~60 req/hr")
		}
	}
	if c.GitHub.RateLimitBuffer <= 0 {
		result.AddWarning("RATE_LIMIT_BUFFER is invalid, will use default (100)")
	}
}

// RequireNeo4j checks Neo4j configuration and returns an error if it is
// invalid, for callers (e.g. the collab CLI) that need it only
// conditionally.
func (c *Config) RequireNeo4j() error {
	result := &ValidationResult{Valid: true}
	mode := DetectMode()
	c.validateNeo4j(result, true, mode)

	if result.HasErrors() {
		return errors.ConfigError(result.Error())
	}
	return nil
}
