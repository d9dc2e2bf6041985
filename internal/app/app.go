// Package app wires the config, the spectrum source, the poll scheduler, and
// the terminal viewer together.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"spectui/internal/config"
	"spectui/internal/frame"
	"spectui/internal/poll"
	"spectui/internal/source"
	"spectui/internal/spectra"
	"spectui/internal/ui"
)

// LiveOptions configure a live polling session.
type LiveOptions struct {
	ConfigPath string
	// LogFile overrides the configured log destination.
	LogFile  string
	Antennas []string
	// Delay overrides the configured poll interval when positive.
	Delay time.Duration
}

// FileOptions configure a static view of a monitor dump.
type FileOptions struct {
	ConfigPath string
	LogFile    string
	Path       string
	// NSpectra is the number of antenna stands to read from the dump.
	NSpectra int
}

// RunLive opens the configured backend and runs the viewer until quit. The
// context cancels any fetch still in flight once the viewer exits.
func RunLive(ctx context.Context, opts LiveOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(firstNonEmpty(opts.LogFile, cfg.LogFile))
	if err != nil {
		return err
	}
	defer closeLog()

	delay := time.Duration(cfg.DelaySeconds) * time.Second
	if opts.Delay > 0 {
		delay = opts.Delay
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	src, title, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	buf := frame.New(time.Duration(cfg.StaleFactor) * delay)
	for _, name := range opts.Antennas {
		if name = strings.TrimSpace(name); name != "" {
			buf.Add(name)
		}
	}

	if c, ok := src.(*source.Correlator); ok {
		known := make(map[string]struct{})
		for _, name := range c.Antennas() {
			known[name] = struct{}{}
		}
		for _, name := range buf.Watched() {
			if _, ok := known[name]; !ok {
				log.WithField("antenna", name).Warn("antenna not in correlator layout")
			}
		}
	}

	log.WithFields(log.Fields{
		"backend":  cfg.Backend,
		"delay":    delay,
		"antennas": buf.Len(),
	}).Info("starting live view")

	err = ui.Run(ui.Options{
		Context:     ctx,
		Scheduler:   poll.New(src, fetchTimeout(cfg.StaleFactor, delay)),
		Buffer:      buf,
		Title:       title,
		Delay:       delay,
		StaleFactor: cfg.StaleFactor,
	})
	// Abandon in-flight fetches before closing the source.
	cancel()
	return err
}

// RunFile loads a monitor dump and shows it without polling.
func RunFile(opts FileOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(firstNonEmpty(opts.LogFile, cfg.LogFile))
	if err != nil {
		return err
	}
	defer closeLog()

	specs, err := spectra.LoadMonitorDump(opts.Path, opts.NSpectra)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.Path, err)
	}
	if len(specs) == 0 {
		return fmt.Errorf("%s holds no usable spectra", opts.Path)
	}

	// Staleness never applies to a static file.
	buf := frame.New(time.Duration(1<<62) - 1)
	for _, spec := range specs {
		buf.Add(spec.Antenna)
		buf.Apply(spec.Antenna, spec, nil)
	}

	log.WithFields(log.Fields{
		"path":    opts.Path,
		"spectra": buf.Len(),
	}).Info("starting static view")

	return ui.Run(ui.Options{
		Buffer: buf,
		Title:  filepath.Base(opts.Path),
		Static: true,
	})
}

// fetchTimeout caps one fetch at the staleness window rather than a single
// poll interval. A fetch slower than the interval may still land its result
// late; the frame buffer's capture-timestamp rule decides whether it is kept.
// The scheduler keeps at most one in flight per antenna meanwhile.
func fetchTimeout(staleFactor int, delay time.Duration) time.Duration {
	if staleFactor < 1 {
		staleFactor = 1
	}
	return time.Duration(staleFactor) * delay
}

// openSource builds the backend named by the config.
func openSource(ctx context.Context, cfg config.Config) (source.Source, string, error) {
	switch cfg.Backend {
	case config.BackendCorrelator:
		src, err := source.NewCorrelator(ctx, cfg.Endpoints)
		if err != nil {
			return nil, "", fmt.Errorf("connect correlator: %w", err)
		}
		return src, "correlator " + strings.Join(cfg.Endpoints, ","), nil
	case config.BackendRecorder:
		if cfg.Recorder == "" {
			return nil, "", fmt.Errorf("recorder backend needs a recorder host in the config")
		}
		src, err := source.NewRecorder(cfg.Recorder, cfg.IdentityFile)
		if err != nil {
			return nil, "", fmt.Errorf("connect recorder %s: %w", cfg.Recorder, err)
		}
		return src, "recorder " + cfg.Recorder, nil
	default:
		return nil, "", fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// setupLogging sends structured logs to path, or discards them when path is
// empty. Stderr is never used while the viewer owns the terminal.
func setupLogging(path string) (func(), error) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(file)
	log.SetLevel(log.DebugLevel)
	return func() { _ = file.Close() }, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
