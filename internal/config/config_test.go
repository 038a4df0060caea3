package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	run := cfg.CollectionConfig()
	if run.MaxJobsPerSource != 100 || run.RetryAttempts != 3 {
		t.Fatalf("unexpected defaults: %+v", run)
	}
	if run.DelayBetweenRequests != 2*time.Second || run.Timeout != 30*time.Second {
		t.Fatalf("unexpected default timings: %+v", run)
	}
	if len(cfg.Queries) != len(DefaultQueries) {
		t.Fatalf("expected default queries, got %v", cfg.Queries)
	}
}

func TestLoadFileAcceptsJSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	body := `{
  // sqlite keeps the corpus transactional
  store: "sqlite",
  collection: {max_jobs_per_source: 25, retry_attempts: 5,},
  queries: ["Platform engineer"],
  sources: {glassdoor: {enabled: false}, itviec: {priority: 1, rate_limit: 5}},
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Store != "sqlite" {
		t.Fatalf("Store = %q, want sqlite", cfg.Store)
	}
	run := cfg.CollectionConfig()
	if run.MaxJobsPerSource != 25 || run.RetryAttempts != 5 {
		t.Fatalf("unexpected collection config: %+v", run)
	}
	if len(cfg.Queries) != 1 || cfg.Queries[0] != "Platform engineer" {
		t.Fatalf("unexpected queries: %v", cfg.Queries)
	}
	glassdoor := cfg.Sources["glassdoor"]
	if glassdoor.Enabled == nil || *glassdoor.Enabled {
		t.Fatalf("expected glassdoor disabled: %+v", glassdoor)
	}
	itviec := cfg.Sources["itviec"]
	if itviec.Priority == nil || *itviec.Priority != 1 || itviec.RateLimit == nil || *itviec.RateLimit != 5 {
		t.Fatalf("unexpected itviec override: %+v", itviec)
	}
}

func TestInitDirWritesOnce(t *testing.T) {
	dir := t.TempDir()
	created, err := InitDir(dir)
	if err != nil {
		t.Fatalf("InitDir() error = %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 files, got %v", created)
	}
	created, err = InitDir(dir)
	if err != nil {
		t.Fatalf("InitDir() error = %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("expected no new files, got %v", created)
	}

	cfg, err := LoadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Schedule != "@every 6h" {
		t.Fatalf("Schedule = %q", cfg.Schedule)
	}
}

func TestLoadProxiesPrefersFlag(t *testing.T) {
	t.Setenv("JOBCOLLECTOR_PROXIES", "http://env:1")
	proxies, err := LoadProxies(" http://a:1 , http://b:2 ")
	if err != nil {
		t.Fatalf("LoadProxies() error = %v", err)
	}
	if len(proxies) != 2 || proxies[1] != "http://b:2" {
		t.Fatalf("unexpected proxies: %v", proxies)
	}

	proxies, err = LoadProxies("")
	if err != nil {
		t.Fatalf("LoadProxies() error = %v", err)
	}
	if len(proxies) != 1 || proxies[0] != "http://env:1" {
		t.Fatalf("unexpected env proxies: %v", proxies)
	}
}

func TestReadProxiesFileSkipsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProxiesFileName)
	if err := os.WriteFile(path, []byte("# list\nhttp://a:1\n\n  http://b:2  \n"), 0o644); err != nil {
		t.Fatalf("write proxies: %v", err)
	}
	proxies, err := readProxiesFile(path)
	if err != nil {
		t.Fatalf("readProxiesFile() error = %v", err)
	}
	if len(proxies) != 2 || proxies[1] != "http://b:2" {
		t.Fatalf("unexpected proxies: %v", proxies)
	}
}

func TestConfigDirHonorsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("JOBCOLLECTOR_CONFIG_DIR", dir)

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if got != dir {
		t.Fatalf("ConfigDir() = %q, want %q", got, dir)
	}
	path, err := ProxiesPath()
	if err != nil || path != filepath.Join(dir, ProxiesFileName) {
		t.Fatalf("ProxiesPath() = %q, %v", path, err)
	}
}

func TestRetryBase(t *testing.T) {
	var cfg Config
	if got := cfg.RetryBase(); got != time.Second {
		t.Fatalf("RetryBase() = %v, want 1s", got)
	}
	cfg.Collection.RetryBaseMs = 250
	if got := cfg.RetryBase(); got != 250*time.Millisecond {
		t.Fatalf("RetryBase() = %v, want 250ms", got)
	}
}
