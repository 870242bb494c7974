package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tmux-monitor/internal/fault"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if time.Duration(cfg.Monitor.CycleInterval) != 30*time.Second {
		t.Errorf("CycleInterval = %v", time.Duration(cfg.Monitor.CycleInterval))
	}
	if time.Duration(cfg.Monitor.MaxRuntime) != 4*time.Hour {
		t.Errorf("MaxRuntime = %v", time.Duration(cfg.Monitor.MaxRuntime))
	}
	if cfg.Monitor.StartCommand != "cld" {
		t.Errorf("StartCommand = %q", cfg.Monitor.StartCommand)
	}
}

func TestLoadOverridesAndBackfills(t *testing.T) {
	path := writeFile(t, "config.toml", `
session = "dev"

[monitor]
cycle_interval = "10s"
capture_parallelism = 8
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Session != "dev" {
		t.Errorf("Session = %q", cfg.Session)
	}
	if time.Duration(cfg.Monitor.CycleInterval) != 10*time.Second {
		t.Errorf("CycleInterval = %v", time.Duration(cfg.Monitor.CycleInterval))
	}
	if cfg.Monitor.CaptureParallelism != 8 {
		t.Errorf("CaptureParallelism = %d", cfg.Monitor.CaptureParallelism)
	}
	// Unset keys keep defaults.
	if cfg.Monitor.MaxClearRetries != 3 {
		t.Errorf("MaxClearRetries = %d", cfg.Monitor.MaxClearRetries)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeFile(t, "bad.toml", "session = [broken")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !fault.Is(err, fault.InvalidFormat) {
		t.Errorf("kind = %v, want InvalidFormat", fault.KindOf(err))
	}
}

func TestLoadRoleTemplate(t *testing.T) {
	path := writeFile(t, "roles.yaml", `
roles:
  - main
  - secretary
  - worker1
`)
	roles, err := LoadRoleTemplate(path)
	if err != nil {
		t.Fatalf("LoadRoleTemplate: %v", err)
	}
	want := []string{"main", "secretary", "worker1"}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("roles = %v, want %v", roles, want)
		}
	}
}

func TestLoadRoleTemplateEmpty(t *testing.T) {
	path := writeFile(t, "roles.yaml", "roles: []\n")
	_, err := LoadRoleTemplate(path)
	if !fault.Is(err, fault.EmptyInput) {
		t.Errorf("kind = %v, want EmptyInput", fault.KindOf(err))
	}
}

func TestOptionsFrom(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session = "dev"
	cfg.Roles.Template = []string{"main", "worker1"}

	opts, err := OptionsFrom(cfg)
	if err != nil {
		t.Fatalf("OptionsFrom: %v", err)
	}
	if !opts.Continuous {
		t.Error("Continuous should default to true")
	}
	if opts.Session != "dev" {
		t.Errorf("Session = %q", opts.Session)
	}
	if len(opts.RoleTemplate) != 2 {
		t.Errorf("RoleTemplate = %v", opts.RoleTemplate)
	}
	if opts.IsAdminAction() {
		t.Error("no admin action requested")
	}
}
