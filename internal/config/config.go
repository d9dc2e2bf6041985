// Package config loads the spectui configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything spectui needs to reach its spectrum sources.
type Config struct {
	// Backend selects the live source: "correlator" (etcd bus) or
	// "recorder" (sftp spectrometer files).
	Backend string
	// Endpoints are the correlator's etcd endpoints.
	Endpoints []string
	// Recorder is the data recorder hostname for the recorder backend.
	Recorder string
	// IdentityFile is the ssh private key used for the recorder backend.
	IdentityFile string
	// StaleFactor scales the poll interval into the staleness window: a
	// slot turns stale once its data is older than StaleFactor polls.
	StaleFactor int
	// DelaySeconds is the default poll interval when --delay is omitted.
	DelaySeconds int
	// LogFile receives structured logs; empty discards them.
	LogFile string
}

const (
	defaultConfigPath  = "~/.config/spectui/config.toml"
	defaultEndpoint    = "etcdv3service:2379"
	defaultStaleFactor = 3
	defaultDelay       = 30
)

// BackendCorrelator and BackendRecorder are the accepted Backend values.
const (
	BackendCorrelator = "correlator"
	BackendRecorder   = "recorder"
)

// Load reads the config at path, falling back to defaults when the file is
// missing. An empty path means the default location.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	var raw struct {
		Backend      string   `toml:"backend"`
		Endpoints    []string `toml:"endpoints"`
		Recorder     string   `toml:"recorder"`
		IdentityFile string   `toml:"identity_file"`
		StaleFactor  int      `toml:"stale_factor"`
		Delay        int      `toml:"delay"`
		LogFile      string   `toml:"log_file"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if backend := strings.TrimSpace(raw.Backend); backend != "" {
		if backend != BackendCorrelator && backend != BackendRecorder {
			return Config{}, fmt.Errorf("unknown backend %q", backend)
		}
		cfg.Backend = backend
	}
	if len(raw.Endpoints) > 0 {
		cfg.Endpoints = raw.Endpoints
	}
	if rec := strings.TrimSpace(raw.Recorder); rec != "" {
		cfg.Recorder = rec
	}
	if id := strings.TrimSpace(raw.IdentityFile); id != "" {
		cfg.IdentityFile = mustExpand(id)
	}
	if raw.StaleFactor > 0 {
		cfg.StaleFactor = raw.StaleFactor
	}
	if raw.Delay > 0 {
		cfg.DelaySeconds = raw.Delay
	}
	if lf := strings.TrimSpace(raw.LogFile); lf != "" {
		cfg.LogFile = mustExpand(lf)
	}

	return cfg, nil
}

func defaults() Config {
	return Config{
		Backend:      BackendCorrelator,
		Endpoints:    []string{defaultEndpoint},
		StaleFactor:  defaultStaleFactor,
		DelaySeconds: defaultDelay,
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
