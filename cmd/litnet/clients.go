package main

import (
	"os"
	"path/filepath"

	"github.com/gladstone-institutes/bibliometrics/internal/cache"
	"github.com/gladstone-institutes/bibliometrics/internal/clinicaltrials"
	"github.com/gladstone-institutes/bibliometrics/internal/config"
	"github.com/gladstone-institutes/bibliometrics/internal/pubmed"
)

var noCache bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Do not read or store cached API responses")
}

// sources holds the remote clients of one command run.
type sources struct {
	cache  *cache.Cache
	pubmed *pubmed.Client
	trials *clinicaltrials.Client
}

func (s *sources) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

// mustOpenSources builds the PubMed and ClinicalTrials.gov clients from the
// global config, sharing one response cache.
func mustOpenSources() *sources {
	cfg := mustLoadConfig()
	s := &sources{}

	if !noCache {
		path := config.ExpandPath(cfg.ResolvedCachePath())
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			exitWithError(ExitConfigError, "creating cache directory: %v", err)
		}
		ch, err := cache.Open(path)
		if err != nil {
			exitWithError(ExitConfigError, "opening cache %s: %v", path, err)
		}
		s.cache = ch
	}

	pmOpts := []pubmed.ClientOption{
		pubmed.WithLogger(logger.Named("pubmed")),
		pubmed.WithRate(cfg.PubmedRate),
	}
	if cfg.NCBIAPIKey != "" {
		pmOpts = append(pmOpts, pubmed.WithAPIKey(cfg.NCBIAPIKey))
	}
	if cfg.Tool != "" || cfg.Email != "" {
		tool := cfg.Tool
		if tool == "" {
			tool = "litnet"
		}
		pmOpts = append(pmOpts, pubmed.WithIdentity(tool, cfg.Email))
	}
	ctOpts := []clinicaltrials.ClientOption{
		clinicaltrials.WithLogger(logger.Named("clinicaltrials")),
		clinicaltrials.WithRate(cfg.TrialsRate),
	}
	if s.cache != nil {
		pmOpts = append(pmOpts, pubmed.WithCache(s.cache))
		ctOpts = append(ctOpts, clinicaltrials.WithCache(s.cache))
	}

	s.pubmed = pubmed.NewClient(pmOpts...)
	s.trials = clinicaltrials.NewClient(ctOpts...)
	return s
}
