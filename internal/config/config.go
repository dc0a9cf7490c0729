package config

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ErrUnknownKey is returned by Get and Set for names that are not settings.
var ErrUnknownKey = errors.New("unknown config key")

// CacheFile is the default response cache file name.
const CacheFile = "cache.db"

// DefaultCachePath returns $XDG_CACHE_HOME/litnet/cache.db, falling back to
// ~/.cache.
func DefaultCachePath() string {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, GlobalConfigDir, CacheFile)
}

// ResolvedCachePath returns the configured cache path or the default.
func (c *GlobalConfig) ResolvedCachePath() string {
	if c.CachePath != "" {
		return c.CachePath
	}
	return DefaultCachePath()
}

type field struct {
	get func(*GlobalConfig) string
	set func(*GlobalConfig, string) error
}

func stringField(p func(*GlobalConfig) *string) field {
	return field{
		get: func(c *GlobalConfig) string { return *p(c) },
		set: func(c *GlobalConfig, v string) error { *p(c) = v; return nil },
	}
}

func rateField(p func(*GlobalConfig) *float64) field {
	return field{
		get: func(c *GlobalConfig) string {
			if *p(c) == 0 {
				return ""
			}
			return strconv.FormatFloat(*p(c), 'g', -1, 64)
		},
		set: func(c *GlobalConfig, v string) error {
			if v == "" {
				*p(c) = 0
				return nil
			}
			r, err := strconv.ParseFloat(v, 64)
			if err != nil || r < 0 {
				return errors.Newf("invalid rate %q: want a non-negative number", v)
			}
			*p(c) = r
			return nil
		},
	}
}

var fields = map[string]field{
	"ncbi_api_key": stringField(func(c *GlobalConfig) *string { return &c.NCBIAPIKey }),
	"email":        stringField(func(c *GlobalConfig) *string { return &c.Email }),
	"tool":         stringField(func(c *GlobalConfig) *string { return &c.Tool }),
	"cache_path":   stringField(func(c *GlobalConfig) *string { return &c.CachePath }),
	"pubmed_rate":  rateField(func(c *GlobalConfig) *float64 { return &c.PubmedRate }),
	"trials_rate":  rateField(func(c *GlobalConfig) *float64 { return &c.TrialsRate }),
}

// Keys lists the setting names in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a setting as a string.
func (c *GlobalConfig) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", errors.Wrapf(ErrUnknownKey, "%q", key)
	}
	return f.get(c), nil
}

// Set parses and stores a setting. An empty value clears it.
func (c *GlobalConfig) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return errors.Wrapf(ErrUnknownKey, "%q", key)
	}
	return f.set(c, value)
}

// Save writes the config as YAML to path, creating parent directories.
func (c *GlobalConfig) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(err, "writing config")
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
