package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendCorrelator {
		t.Errorf("backend = %q", cfg.Backend)
	}
	if len(cfg.Endpoints) != 1 || cfg.Endpoints[0] != "etcdv3service:2379" {
		t.Errorf("endpoints = %v", cfg.Endpoints)
	}
	if cfg.StaleFactor != 3 {
		t.Errorf("stale factor = %d", cfg.StaleFactor)
	}
	if cfg.DelaySeconds != 30 {
		t.Errorf("delay = %d", cfg.DelaySeconds)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
backend = "recorder"
endpoints = ["etcd-a:2379", "etcd-b:2379"]
recorder = "lwastorage"
stale_factor = 5
delay = 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendRecorder {
		t.Errorf("backend = %q", cfg.Backend)
	}
	if len(cfg.Endpoints) != 2 {
		t.Errorf("endpoints = %v", cfg.Endpoints)
	}
	if cfg.Recorder != "lwastorage" {
		t.Errorf("recorder = %q", cfg.Recorder)
	}
	if cfg.StaleFactor != 5 || cfg.DelaySeconds != 10 {
		t.Errorf("stale_factor = %d, delay = %d", cfg.StaleFactor, cfg.DelaySeconds)
	}
}

func TestLoadPartialKeepsOtherDefaults(t *testing.T) {
	path := writeConfig(t, `delay = 15`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DelaySeconds != 15 {
		t.Errorf("delay = %d", cfg.DelaySeconds)
	}
	if cfg.Backend != BackendCorrelator || cfg.StaleFactor != 3 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `backend = "carrier-pigeon"`)
	if _, err := Load(path); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := writeConfig(t, `delay = `)
	if _, err := Load(path); err == nil {
		t.Error("malformed toml accepted")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	got, err := expandPath("~/.config/spectui/config.toml")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if want := filepath.Join(home, ".config/spectui/config.toml"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
