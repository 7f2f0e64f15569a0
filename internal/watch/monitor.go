// Package watch observes the input directory and admits files into the
// processing queue.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mercadoapps/filemonitor/internal/async"
	"github.com/mercadoapps/filemonitor/internal/common"
)

// IdempotencyChecker reports whether a file's (path, lastModified) identity
// still needs processing.
type IdempotencyChecker interface {
	ShouldProcess(ctx context.Context, path string) bool
}

// Monitor watches the input directory. Filesystem events are drained on a
// fixed polling interval; an initial scan catches files present before the
// watcher started.
type Monitor struct {
	cfg      common.MonitorConfig
	inflight *InFlight
	checker  IdempotencyChecker
	queue    async.Dispatcher
	logger   *slog.Logger

	watcher *fsnotify.Watcher
}

func NewMonitor(
	cfg common.MonitorConfig,
	inflight *InFlight,
	checker IdempotencyChecker,
	queue async.Dispatcher,
	logger *slog.Logger,
) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		cfg:      cfg,
		inflight: inflight,
		checker:  checker,
		queue:    queue,
		logger:   logger,
	}
}

// Start sets up directories, registers the watcher, scans for files already
// present, and launches the poll loop. The loop stops when ctx is done.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.setupDirectories(); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		m.logger.Error("failed to create fsnotify watcher", "error", err)
		return err
	}
	if err := w.Add(m.cfg.InputDir); err != nil {
		m.logger.Error("failed to watch input directory", "dir", m.cfg.InputDir, "error", err)
		_ = w.Close()
		return err
	}
	m.watcher = w

	m.scanExisting(ctx)

	go m.loop(ctx)

	m.logger.Info("file monitoring started",
		"input_dir", m.cfg.InputDir,
		"pattern", m.cfg.FilePattern,
		"poll_interval", m.cfg.PollInterval,
	)
	return nil
}

func (m *Monitor) setupDirectories() error {
	for _, dir := range []string{m.cfg.InputDir, m.cfg.OutputDir, m.cfg.ProductOutputDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	m.logger.Info("directories ready", "input", m.cfg.InputDir, "output", m.cfg.OutputDir)
	return nil
}

func (m *Monitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	defer func() {
		if err := m.watcher.Close(); err != nil {
			m.logger.Warn("closing watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("file monitoring stopped")
			return
		case <-ticker.C:
			m.drainEvents(ctx)
		}
	}
}

// drainEvents consumes whatever the watcher has accumulated since the last
// tick without blocking.
func (m *Monitor) drainEvents(ctx context.Context) {
	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			m.Dispatch(ctx, ev.Name)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("watcher error", "error", err)
		default:
			return
		}
	}
}

func (m *Monitor) scanExisting(ctx context.Context) {
	err := filepath.WalkDir(m.cfg.InputDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if admitted, _ := m.Dispatch(ctx, path); admitted {
			m.logger.Info("existing file found", "path", path)
		}
		return nil
	})
	if err != nil {
		m.logger.Error("initial directory scan failed", "dir", m.cfg.InputDir, "error", err)
	}
}

// Dispatch applies the admission predicate to path and, when it passes,
// marks the file in-flight and hands it to the queue. The in-flight entry is
// released by the queue when processing ends, success or failure. Returns
// whether the file was admitted and a reason when it was not.
func (m *Monitor) Dispatch(ctx context.Context, path string) (bool, string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false, "not a regular file"
	}

	name := filepath.Base(path)
	if matched, err := filepath.Match(m.cfg.FilePattern, name); err != nil || !matched {
		return false, "name does not match pattern"
	}

	if m.inflight.Contains(name) {
		m.logger.Debug("file already being processed", "file", name)
		return false, "already being processed"
	}

	if !m.checker.ShouldProcess(ctx, path) {
		m.logger.Debug("file already processed for its current identity", "file", name)
		return false, "already processed"
	}

	// TryAdd is the atomic gate: concurrent triggers for the same name
	// collapse to a single dispatch here.
	if !m.inflight.TryAdd(name) {
		return false, "already being processed"
	}

	m.logger.Info("dispatching file for processing", "path", path)
	if err := m.queue.Enqueue(ctx, async.Job{Path: path, SubmittedAt: time.Now().UTC()}); err != nil {
		m.inflight.Remove(name)
		m.logger.Error("enqueue failed", "path", path, "error", err)
		return false, "enqueue failed"
	}
	return true, ""
}

// Release frees an in-flight entry by path.
func (m *Monitor) Release(path string) {
	m.inflight.Remove(filepath.Base(path))
}
