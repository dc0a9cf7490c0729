package main

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/gladstone-institutes/bibliometrics/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  litnet config                          # Show all config
  litnet config email                    # Get specific value
  litnet config email me@example.org     # Set value
  litnet config pubmed_rate ""           # Clear value

Keys:
  ncbi_api_key  NCBI API key (raises the PubMed rate limit to 10/s)
  email         Contact address sent to NCBI
  tool          Tool name sent to NCBI (default litnet)
  cache_path    Response cache database (default $XDG_CACHE_HOME/litnet/cache.db)
  pubmed_rate   PubMed requests per second
  trials_rate   ClinicalTrials.gov requests per second

Environment variables NCBI_API_KEY, LITNET_CACHE and LITNET_PUBMED_RATE
override the file when reading.`,
	Args: cobra.MaximumNArgs(2),
	Run:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) {
	// No args: show all config
	if len(args) == 0 {
		cfg := mustLoadConfig()
		values := map[string]string{}
		for _, k := range config.Keys() {
			v, _ := cfg.Get(k)
			values[k] = v
		}
		if humanOutput {
			for _, k := range config.Keys() {
				fmt.Printf("%-13s %s\n", k+":", values[k])
			}
		} else {
			outputJSON(values)
		}
		return
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		v, err := mustLoadConfig().Get(key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Println(v)
		} else {
			outputJSON(map[string]string{key: v})
		}
		return
	}

	// Two args: set value in the file, without environment overrides
	path := config.GlobalConfigPath()
	cfg, err := config.ReadGlobalConfig(path)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := cfg.Set(key, args[1]); err != nil {
		code := ExitError
		if !errors.Is(err, config.ErrUnknownKey) {
			code = ExitDataError
		}
		exitWithError(code, "%v", err)
	}
	if err := cfg.Save(path); err != nil {
		exitWithError(ExitConfigError, "saving config: %v", err)
	}
	config.ResetGlobalConfigCache()

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, args[1])
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: args[1]})
	}
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// normalizeKey converts key formats (pubmed-rate, PUBMED_RATE) to the file's snake case.
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "-", "_")
}
