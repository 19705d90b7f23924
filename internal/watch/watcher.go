// Package watch monitors a directory of workflow definitions and
// reruns or revalidates them when the files change on disk.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// workflowExtensions are the file extensions the watcher reacts to.
// Everything else (editor swap files, backups) is ignored.
var workflowExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
}

// Handler is invoked for each workflow file after the debounce window
// closes. The path is absolute.
type Handler func(ctx context.Context, path string) error

// Event records one handled change, kept for status reporting.
type Event struct {
	Path    string    `json:"path"`
	Op      string    `json:"op"`
	Time    time.Time `json:"time"`
	Error   string    `json:"error,omitempty"`
	Handled bool      `json:"handled"`
}

// Watcher watches a workflow directory and debounces change bursts so
// an editor writing a file several times triggers the handler once.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	Handler  Handler

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timers   map[string]*time.Timer
	events   []Event
	handled  int
	started  time.Time
	logger   *log.Logger
	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher prepares a watcher over dir. The default debounce window
// is 500ms, which covers editors that write-then-rename on save.
func NewWatcher(dir string, handler Handler) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("could not watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("could not watch %s: not a directory", dir)
	}
	return &Watcher{
		Dir:      dir,
		Debounce: 500 * time.Millisecond,
		Handler:  handler,
		timers:   make(map[string]*time.Timer),
		logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching and blocks until ctx is cancelled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	if err := fw.Add(w.Dir); err != nil {
		fw.Close()
		return fmt.Errorf("could not watch %s: %w", w.Dir, err)
	}

	w.mu.Lock()
	w.watcher = fw
	w.started = time.Now()
	w.mu.Unlock()

	w.logger.Printf("watching %s for workflow changes", w.Dir)

	defer fw.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.dispatch(ctx, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("watch error: %v", err)
		}
	}
}

// Stop ends the watch loop. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Watcher) dispatch(ctx context.Context, ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	if !IsWorkflowFile(ev.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[ev.Name]; ok {
		t.Stop()
	}
	path := ev.Name
	op := ev.Op.String()
	w.timers[path] = time.AfterFunc(w.Debounce, func() {
		w.fire(ctx, path, op)
	})
}

func (w *Watcher) fire(ctx context.Context, path, op string) {
	w.mu.Lock()
	delete(w.timers, path)
	w.mu.Unlock()

	// The debounce window may outlive the file (save then delete).
	if _, err := os.Stat(path); err != nil {
		return
	}

	event := Event{Path: path, Op: op, Time: time.Now()}
	if w.Handler != nil {
		if err := w.Handler(ctx, path); err != nil {
			event.Error = err.Error()
			w.logger.Printf("%s: %v", filepath.Base(path), err)
		} else {
			event.Handled = true
			w.logger.Printf("%s: handled", filepath.Base(path))
		}
	}

	w.mu.Lock()
	w.events = append(w.events, event)
	if event.Handled {
		w.handled++
	}
	// Keep the event log bounded for long-running sessions.
	if len(w.events) > 200 {
		w.events = w.events[len(w.events)-200:]
	}
	w.mu.Unlock()
}

// Status summarizes a running watcher.
type Status struct {
	Dir     string    `json:"dir"`
	Started time.Time `json:"started"`
	Events  int       `json:"events"`
	Handled int       `json:"handled"`
}

// Status reports the watch session so far.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Dir:     w.Dir,
		Started: w.started,
		Events:  len(w.events),
		Handled: w.handled,
	}
}

// Events returns a copy of the recent event log, newest last.
func (w *Watcher) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Event, len(w.events))
	copy(out, w.events)
	return out
}

// IsWorkflowFile reports whether path looks like a workflow
// definition. Hidden files are skipped so editor artifacts like
// .goutputstream or .#name.yaml never trigger the handler.
func IsWorkflowFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "#") {
		return false
	}
	return workflowExtensions[strings.ToLower(filepath.Ext(base))]
}

const pidFile = ".sheetkit-watch.pid"

// WritePIDFile records the current process so a second invocation can
// tell a watcher is already running in this directory.
func WritePIDFile(dir string) error {
	path := filepath.Join(dir, pidFile)
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// ReadPIDFile returns the recorded watcher PID, or 0 when none exists.
func ReadPIDFile(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, pidFile))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("could not parse pid file: %w", err)
	}
	return pid, nil
}

// RemovePIDFile cleans up after a watcher shuts down.
func RemovePIDFile(dir string) error {
	err := os.Remove(filepath.Join(dir, pidFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
