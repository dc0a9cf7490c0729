// Package config handles the litnet global configuration.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/litnet/config.yml.
type GlobalConfig struct {
	NCBIAPIKey string  `yaml:"ncbi_api_key,omitempty"`
	Email      string  `yaml:"email,omitempty"`
	Tool       string  `yaml:"tool,omitempty"`
	CachePath  string  `yaml:"cache_path,omitempty"`
	PubmedRate float64 `yaml:"pubmed_rate,omitempty"`
	TrialsRate float64 `yaml:"trials_rate,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "litnet"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// EnvAPIKey overrides ncbi_api_key.
	EnvAPIKey = "NCBI_API_KEY"
	// EnvCache overrides cache_path.
	EnvCache = "LITNET_CACHE"
	// EnvPubmedRate overrides pubmed_rate.
	EnvPubmedRate = "LITNET_PUBMED_RATE"
)

var (
	// globalConfigCache caches the loaded global config.
	globalConfigCache *GlobalConfig
	// globalConfigPath overrides the default location when set.
	globalConfigPath string
)

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/litnet/config.yml.
func GlobalConfigPath() string {
	if globalConfigPath != "" {
		return globalConfigPath
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// SetGlobalConfigPath makes LoadGlobalConfig read path instead of the
// default location and drops any cached config.
func SetGlobalConfigPath(path string) {
	globalConfigPath = ExpandPath(path)
	globalConfigCache = nil
}

// LoadGlobalConfig loads the global configuration file and applies
// environment overrides. A missing file yields an empty config, not an
// error. The result is cached.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg, err := ReadGlobalConfig(GlobalConfigPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	globalConfigCache = cfg
	return cfg, nil
}

// ReadGlobalConfig parses the config file at path without environment
// overrides. A missing file yields an empty config.
func ReadGlobalConfig(path string) (*GlobalConfig, error) {
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, errors.Wrap(err, "reading global config")
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing global config")
	}
	if cfg.CachePath != "" {
		cfg.CachePath = ExpandPath(cfg.CachePath)
	}
	return &cfg, nil
}

func (c *GlobalConfig) applyEnv() error {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.NCBIAPIKey = v
	}
	if v := os.Getenv(EnvCache); v != "" {
		c.CachePath = ExpandPath(v)
	}
	if v := os.Getenv(EnvPubmedRate); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", EnvPubmedRate)
		}
		c.PubmedRate = r
	}
	return nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}
