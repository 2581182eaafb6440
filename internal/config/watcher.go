package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/askdoc/askdoc/internal/core/domain"
	"github.com/askdoc/askdoc/internal/logger"
)

// debounceWindow coalesces the burst of events editors emit per save.
const debounceWindow = 200 * time.Millisecond

// Watcher reloads the tuning section when the config file changes on
// disk. Only tuning is hot-reloaded; backend selection requires a
// restart.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	apply   func(domain.Tuning) error
	done    chan struct{}
}

// Watch starts watching the config file at path and calls apply with
// the new tuning after each change. Invalid tuning is logged and the
// previous values stay in effect.
func Watch(path string, apply func(domain.Tuning) error) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files on save,
	// which would drop a watch on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching config directory: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		path:    path,
		apply:   apply,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceWindow, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		logger.Warn("Config reload failed, keeping previous tuning: %v", err)
		return
	}

	tuning := cfg.Tuning.DomainTuning()
	if err := w.apply(tuning); err != nil {
		logger.Warn("Rejected tuning from %s: %v", w.path, err)
		return
	}
	logger.Info("Reloaded tuning from %s (alpha=%.2f, k1=%.2f, b=%.2f, top-k=%d)",
		w.path, tuning.Alpha, tuning.BM25K1, tuning.BM25B, tuning.TopK)
}
