package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobwatch/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[backend]
base_url = "https://backend.test/api/"
`)
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Backend.BaseURL != "https://backend.test/api" {
		t.Fatalf("base url not normalized: %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.RequestTimeout != 30 || cfg.Backend.ExtendedTimeout != 600 {
		t.Fatalf("timeout defaults not applied: %+v", cfg.Backend)
	}
	if cfg.Polling.IntervalMS != 3000 || cfg.Polling.MaxAttempts != 400 {
		t.Fatalf("polling defaults not applied: %+v", cfg.Polling)
	}
	if !cfg.History.Enabled {
		t.Fatal("history should default to enabled")
	}
	if !filepath.IsAbs(cfg.Paths.LogDir) || !filepath.IsAbs(cfg.Paths.StateDir) {
		t.Fatalf("paths not expanded: %+v", cfg.Paths)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			"missing base url",
			``,
			"backend.base_url is required",
		},
		{
			"bad scheme",
			"[backend]\nbase_url = \"ftp://backend.test\"\n",
			"scheme",
		},
		{
			"extended below request",
			"[backend]\nbase_url = \"https://backend.test\"\nrequest_timeout = 60\nextended_timeout = 30\n",
			"extended_timeout",
		},
		{
			"zero interval",
			"[backend]\nbase_url = \"https://backend.test\"\n[polling]\ninterval_ms = -5\n",
			"interval_ms",
		},
		{
			"bad log format",
			"[backend]\nbase_url = \"https://backend.test\"\n[logging]\nformat = \"xml\"\n",
			"logging.format",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestAPITokenFromEnvironment(t *testing.T) {
	t.Setenv("JOBWATCH_API_TOKEN", " env-token ")
	path := writeConfig(t, "[backend]\nbase_url = \"https://backend.test\"\n")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.APIToken != "env-token" {
		t.Fatalf("expected env token, got %q", cfg.Backend.APIToken)
	}
}

func TestEnsureDirectoriesAndHistoryPath(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, "[backend]\nbase_url = \"https://backend.test\"\n[paths]\nlog_dir = \""+
		filepath.Join(base, "logs")+"\"\nstate_dir = \""+filepath.Join(base, "state")+"\"\n")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("directory %q missing: %v", dir, err)
		}
	}
	if got := cfg.HistoryDBPath(); got != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history path: %q", got)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to be found")
	}
	if cfg.Backend.BaseURL == "" {
		t.Fatal("sample config missing base url")
	}
}
