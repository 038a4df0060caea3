package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jimezsa/jobcollector/internal/models"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName         = "jobcollector"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"
	DataDirName     = "data"
)

// SourceOverride adjusts one registered source. Nil fields keep the
// registered value.
type SourceOverride struct {
	Enabled   *bool `json:"enabled,omitempty"`
	Priority  *int  `json:"priority,omitempty"`
	RateLimit *int  `json:"rate_limit,omitempty"`
}

type Collection struct {
	MaxJobsPerSource       int `json:"max_jobs_per_source"`
	DelayBetweenRequestsMs int `json:"delay_between_requests_ms"`
	RetryAttempts          int `json:"retry_attempts"`
	RetryBaseMs            int `json:"retry_base_ms"`
	TimeoutMs              int `json:"timeout_ms"`
}

type Adzuna struct {
	AppID   string `json:"app_id"`
	AppKey  string `json:"app_key"`
	Country string `json:"country,omitempty"`
}

// Config contains collection, storage and search settings.
type Config struct {
	DataDir          string                    `json:"data_dir"`
	Store            string                    `json:"store"`
	Collection       Collection                `json:"collection"`
	Queries          []string                  `json:"queries"`
	Locations        []string                  `json:"locations"`
	Sources          map[string]SourceOverride `json:"sources,omitempty"`
	Adzuna           Adzuna                    `json:"adzuna"`
	SearchSources    []string                  `json:"search_sources"`
	SearchTimeoutSec int                       `json:"search_timeout_sec"`
	Schedule         string                    `json:"schedule"`
}

var DefaultQueries = []string{
	"DevOps engineer",
	"Site Reliability Engineer",
	"DevSecOps engineer",
	"Cloud engineer",
	"Infrastructure engineer",
}

func DefaultConfig() Config {
	defaults := models.DefaultCollectionConfig()
	return Config{
		DataDir: envString("JOBCOLLECTOR_DATA_DIR", ""),
		Store:   envString("JOBCOLLECTOR_STORE", "json"),
		Collection: Collection{
			MaxJobsPerSource:       envInt("JOBCOLLECTOR_MAX_JOBS_PER_SOURCE", defaults.MaxJobsPerSource),
			DelayBetweenRequestsMs: envInt("JOBCOLLECTOR_DELAY_MS", int(defaults.DelayBetweenRequests.Milliseconds())),
			RetryAttempts:          envInt("JOBCOLLECTOR_RETRY_ATTEMPTS", defaults.RetryAttempts),
			RetryBaseMs:            envInt("JOBCOLLECTOR_RETRY_BASE_MS", 1000),
			TimeoutMs:              envInt("JOBCOLLECTOR_TIMEOUT_MS", int(defaults.Timeout.Milliseconds())),
		},
		Queries:   append([]string(nil), DefaultQueries...),
		Locations: splitCSV(envString("JOBCOLLECTOR_LOCATIONS", "")),
		Adzuna: Adzuna{
			AppID:   envString("JOBCOLLECTOR_ADZUNA_APP_ID", ""),
			AppKey:  envString("JOBCOLLECTOR_ADZUNA_APP_KEY", ""),
			Country: envString("JOBCOLLECTOR_ADZUNA_COUNTRY", "us"),
		},
		SearchSources:    []string{"linkedin", "upwork"},
		SearchTimeoutSec: envInt("JOBCOLLECTOR_SEARCH_TIMEOUT", 30),
		Schedule:         envString("JOBCOLLECTOR_SCHEDULE", "@every 6h"),
	}
}

// CollectionConfig converts the file settings into the run config, filling
// zero values from the defaults.
func (c Config) CollectionConfig() models.CollectionConfig {
	cfg := models.DefaultCollectionConfig()
	if c.Collection.MaxJobsPerSource > 0 {
		cfg.MaxJobsPerSource = c.Collection.MaxJobsPerSource
	}
	if c.Collection.DelayBetweenRequestsMs >= 0 {
		cfg.DelayBetweenRequests = time.Duration(c.Collection.DelayBetweenRequestsMs) * time.Millisecond
	}
	if c.Collection.RetryAttempts > 0 {
		cfg.RetryAttempts = c.Collection.RetryAttempts
	}
	if c.Collection.TimeoutMs > 0 {
		cfg.Timeout = time.Duration(c.Collection.TimeoutMs) * time.Millisecond
	}
	return cfg
}

// RetryBase is the unit of the exponential retry backoff.
func (c Config) RetryBase() time.Duration {
	if c.Collection.RetryBaseMs <= 0 {
		return time.Second
	}
	return time.Duration(c.Collection.RetryBaseMs) * time.Millisecond
}

func (c Config) SearchTimeout() time.Duration {
	if c.SearchTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.SearchTimeoutSec) * time.Second
}

// ConfigDir is $JOBCOLLECTOR_CONFIG_DIR, or jobcollector under the user
// config directory.
func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("JOBCOLLECTOR_CONFIG_DIR")); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func ProxiesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProxiesFileName), nil
}

// ResolveDataDir returns the configured data directory, defaulting to a
// data folder inside the config directory.
func (c Config) ResolveDataDir(configDir string) string {
	if strings.TrimSpace(c.DataDir) != "" {
		return c.DataDir
	}
	return filepath.Join(configDir, DataDirName)
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults. A missing or empty file yields the
// defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	if err := json5.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// InitDir writes default config.json and proxies.txt into dir if they don't
// already exist.
func InitDir(dir string) ([]string, error) {
	var created []string

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, DefaultConfig()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	proxiesPath := filepath.Join(dir, ProxiesFileName)
	if _, err := os.Stat(proxiesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(proxiesPath, []byte(""), 0o644); err != nil {
			return created, err
		}
		created = append(created, proxiesPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func LoadProxies(flagValue string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv("JOBCOLLECTOR_PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	path, err := ProxiesPath()
	if err != nil {
		return nil, err
	}
	return readProxiesFile(path)
}

func readProxiesFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
