package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reparses files under the root as they change on disk until ctx is
// done. Bursts of events for one file are debounced.
func (w *Workspace) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.watchTree(watcher, w.root); err != nil {
		return err
	}

	d := &debouncer{delay: w.cfg.Debounce, timers: make(map[string]*time.Timer)}
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warningf("watch error: %s", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, d, ev)
		}
	}
}

func (w *Workspace) watchTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.excluded(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Workspace) handleEvent(watcher *fsnotify.Watcher, d *debouncer, ev fsnotify.Event) {
	path := ev.Name
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.watchTree(watcher, path); err != nil {
				log.Warningf("%s", err)
			}
			return
		}
	}
	if !w.Matches(path) {
		return
	}

	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		d.cancel(path)
		w.RemoveFile(path)
		w.changed(path)
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		d.trigger(path, func() {
			if err := w.ScanFile(path); err != nil {
				log.Warningf("%s", err)
				return
			}
			w.changed(path)
		})
	}
}

func (w *Workspace) changed(path string) {
	log.Debugf("updated %s", path)
	if w.notify != nil {
		w.notify(path)
	}
}

type debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
}

func (d *debouncer) trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = t
}

func (d *debouncer) cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
