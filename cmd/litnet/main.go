// Package main provides the litnet CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gladstone-institutes/bibliometrics/internal/config"
	"github.com/gladstone-institutes/bibliometrics/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	logJSON     bool
	verbose     bool
	configPath  string

	logger = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "litnet",
	Short: "Build and analyze bibliometric networks",
	Long: `litnet builds directed networks of articles, authors, institutions,
grant agencies, MeSH terms, drugs and clinical trials from PubMed,
ClinicalTrials.gov and local reference files.

Networks are saved as XGMML (for Cytoscape) or as compressed snapshots
(.litnet, .json.gz) that other litnet commands read back.
All commands output JSON by default; use --human for text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is normal.
		_ = godotenv.Load()
		if configPath != "" {
			config.SetGlobalConfigPath(configPath)
		}
		logger = logging.New(logJSON, verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug messages")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/litnet/config.yml)")
	rootCmd.Version = Version
}

// mustLoadConfig loads the global config or exits.
func mustLoadConfig() *config.GlobalConfig {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}
