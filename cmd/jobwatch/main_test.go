package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

type cliTestEnv struct {
	server     *httptest.Server
	requests   *atomic.Int64
	configPath string
	baseDir    string
}

// setupCLITestEnv stands up a fake status backend that reports one
// in-progress snapshot and then completion, plus a config file pointing at
// it with temp directories for logs and state.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/status/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if requests.Add(1) == 1 {
			fmt.Fprint(w, `{"status":"processing","overall_progress":0.5,"stage_states":{"upload":{"status":"completed","progress":1},"analysis":{"status":"in_progress","progress":0.5,"message":"scanning"}}}`)
			return
		}
		fmt.Fprint(w, `{"status":"completed","overall_progress":1,"stage_states":{"completion":{"status":"completed","progress":1}}}`)
	}))
	t.Cleanup(server.Close)

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	contents := fmt.Sprintf(`[backend]
base_url = %q
api_token = "test-token"

[polling]
interval_ms = 1
max_attempts = 50

[paths]
log_dir = %q
state_dir = %q
`, server.URL, filepath.Join(base, "logs"), filepath.Join(base, "state"))
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	return &cliTestEnv{
		server:     server,
		requests:   &requests,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestWatchCommandRunsToCompletion(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"watch", "job-cli"}, env.configPath)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if !strings.Contains(out, "Job job-cli completed") {
		t.Fatalf("missing completion line: %q", out)
	}
	if !strings.Contains(out, "Analysis") {
		t.Fatalf("expected stage breakdown in output: %q", out)
	}
	if got := env.requests.Load(); got != 2 {
		t.Fatalf("backend requests = %d, want 2", got)
	}

	out, _, err = runCLI(t, []string{"history", "show", "job-cli"}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	if !strings.Contains(out, "completed") {
		t.Fatalf("expected recorded snapshots: %q", out)
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "job-cli") {
		t.Fatalf("expected job summary: %q", out)
	}
}

func TestWatchCommandSkipsHistoryWhenDisabled(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"watch", "job-nohist", "--no-history"}, env.configPath); err != nil {
		t.Fatalf("watch: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "show", "job-nohist"}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	if !strings.Contains(out, "No snapshots recorded") {
		t.Fatalf("expected empty history: %q", out)
	}
}

func TestStatusCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "job-json", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	for _, want := range []string{`"overall_progress"`, `"current_stage": "analysis"`, `"steps"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("json output missing %s: %q", want, out)
		}
	}
}

func TestStatusCommandTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "job-table"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Analysis") || !strings.Contains(out, "scanning") {
		t.Fatalf("unexpected status output: %q", out)
	}
}

func TestHistoryClear(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"watch", "job-clear"}, env.configPath); err != nil {
		t.Fatalf("watch: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	if !strings.Contains(out, "Removed 2 snapshots") {
		t.Fatalf("unexpected clear output: %q", out)
	}
}

func TestDoctorCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	for _, want := range []string{"Log directory", "State directory", "Backend", "OK"} {
		if !strings.Contains(out, want) {
			t.Fatalf("doctor output missing %s: %q", want, out)
		}
	}
}

func TestStagesCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"stages"}, "")
	if err != nil {
		t.Fatalf("stages: %v", err)
	}
	for _, want := range []string{"Upload", "Insight Generation", "persona_formation"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stages output missing %s: %q", want, out)
		}
	}
}

func TestConfigInit(t *testing.T) {
	env := setupCLITestEnv(t)

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath); err == nil {
		t.Fatal("expected error when config already exists")
	}
}
