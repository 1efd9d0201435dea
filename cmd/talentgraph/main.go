package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ckerr6/talentgraph/internal/config"
	"github.com/ckerr6/talentgraph/internal/errors"
	"github.com/ckerr6/talentgraph/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if cfgErr, ok := r.(*errors.Error); ok && cfgErr.IsFatal() {
				// ValidateOrFatalWithMode already printed the diagnostic.
				os.Exit(1)
			}
			panic(r)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "talentgraph",
	Short: "Builds a talent graph from GitHub contribution activity",
	Long: `talentgraph discovers contributor-heavy repositories across crypto
ecosystems, enriches their contributors' GitHub profiles, resolves those
profiles to known persons, derives skills from contribution history, and
builds a weighted collaboration graph between resolved persons.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logrus.New()
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Error("failed to load config")
			fmt.Fprintf(os.Stderr, "Fatal: invalid configuration: %v\n", err)
			os.Exit(1)
		}

		logCfg := logging.DefaultConfig(verbose)
		logCfg.OutputFile = ""
		if cfg.Logging.Dir != "" {
			logCfg.OutputFile = cfg.Logging.Dir + "/talentgraph.log"
		}
		if err := logging.Initialize(logCfg); err != nil {
			logger.WithError(err).Warn("failed to initialize structured logger")
		}

		// Abort startup on missing DB credentials, an invalid token, or
		// any other prerequisite the invoked subcommand needs, per the
		// fatal-configuration policy (spec.md §7).
		cfg.ValidateOrFatalWithMode(validationContextFor(cmd), config.DetectMode())
	},
}

// validationContextFor maps the command actually invoked back to its
// top-level subcommand (e.g. "enrich github" -> "enrich") so
// PersistentPreRun validates only what that subcommand touches.
func validationContextFor(cmd *cobra.Command) config.ValidationContext {
	top := cmd
	for top.Parent() != nil && top.Parent() != rootCmd {
		top = top.Parent()
	}

	switch top.Name() {
	case "taxonomy":
		return config.ValidationContextTaxonomy
	case "discover":
		return config.ValidationContextDiscover
	case "enrich":
		return config.ValidationContextEnrich
	case "match":
		return config.ValidationContextMatch
	case "skills":
		return config.ValidationContextSkills
	case "collab":
		return config.ValidationContextCollab
	case "reconcile":
		return config.ValidationContextReconcile
	case "graph-sync":
		return config.ValidationContextGraphSync
	default:
		return config.ValidationContextAll
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .talentgraph/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`talentgraph {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(taxonomyCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(collabCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(graphSyncCmd)
}
