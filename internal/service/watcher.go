package service

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the event bursts editors and package managers
// produce when writing a script (create, chmod, several writes).
const reloadDebounce = 250 * time.Millisecond

// Watcher reloads a registry whenever its scripts directory changes, so a
// script dropped into the folder becomes a manageable service without a
// restart.
type Watcher struct {
	registry *Registry
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
	onReload func()
	wg       sync.WaitGroup
}

// NewWatcher starts watching dir. onReload, if non-nil, is called after each
// completed reload (used by the CLI to print a notice, and by tests to
// synchronize). Close must be called to stop the background goroutine.
func NewWatcher(registry *Registry, dir string, logger *slog.Logger, onReload func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("service: create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("service: watch %s: %w", dir, err)
	}

	w := &Watcher{
		registry: registry,
		logger:   logger.With("component", "watcher"),
		fsw:      fsw,
		onReload: onReload,
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}
			if !ev.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			w.logger.Debug("scripts dir changed, scheduling reload", "file", ev.Name, "op", ev.Op)
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					<-timerC
				}
				timer.Reset(reloadDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.registry.Reload()
			if w.onReload != nil {
				w.onReload()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Close stops the watcher and waits for the background goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
