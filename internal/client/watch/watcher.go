// Package watch notices credential changes made by other processes sharing
// the same credential database and triggers a session recheck. It monitors
// the directory holding the database file so journal rollovers and
// atomic rewrites are caught as well.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/medcareai/medcare-client/internal/logging"
)

// Watcher monitors the credential database for external modifications and
// invokes onChange after a debounce window. Events for unrelated files in
// the same directory are ignored.
type Watcher struct {
	dbPath   string
	debounce time.Duration
	log      logging.Logger
	onChange func(context.Context)

	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu        sync.Mutex
	pending   bool
	pendingAt time.Time
}

// NewWatcher creates a watcher for the database at dbPath. onChange is
// invoked from the watcher goroutine; it must not block for long.
func NewWatcher(dbPath string, debounce time.Duration, log logging.Logger, onChange func(context.Context)) *Watcher {
	return &Watcher{
		dbPath:   dbPath,
		debounce: debounce,
		log:      log,
		onChange: onChange,
		done:     make(chan struct{}),
	}
}

// Start begins watching. The directory is watched rather than the file
// itself so rename-over rewrites keep being observed.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("credential watcher: %w", err)
	}
	w.fsw = fsw

	dir := filepath.Dir(w.dbPath)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("credential watcher: watch %s: %w", dir, err)
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop terminates the watcher and waits for the background goroutine to
// exit. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	tick := w.debounce / 2
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			w.mu.Lock()
			w.pending = true
			w.pendingAt = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error(context.Background(), "credential watcher error", "error", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

// relevant reports whether name refers to the database file or one of its
// sqlite sidecar files (-wal, -shm, -journal).
func (w *Watcher) relevant(name string) bool {
	base := filepath.Base(w.dbPath)
	return strings.HasPrefix(filepath.Base(name), base)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	fire := w.pending && time.Since(w.pendingAt) >= w.debounce
	if fire {
		w.pending = false
	}
	w.mu.Unlock()

	if !fire {
		return
	}

	ctx := context.Background()
	w.log.Debug(ctx, "credential database changed externally, rechecking session")
	w.onChange(ctx)
}
