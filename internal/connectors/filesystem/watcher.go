// Package filesystem keeps a directory of PDFs ingested.
//
// A Watcher ingests every PDF under its root once (Sync) and then follows
// fsnotify events, re-ingesting files that are created or rewritten.
// Vector ids are derived from content, so re-ingesting an unchanged file
// overwrites its vectors in place.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned when the watcher has been closed.
var ErrClosed = errors.New("watcher closed")

// Result reports the outcome of ingesting one file.
type Result struct {
	// Path is the file that was ingested.
	Path string

	// Upload is set on success.
	Upload *domain.UploadResult

	// Err is set on failure.
	Err error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a changed file is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher ingests PDFs found under a root directory.
type Watcher struct {
	root     string
	uploader driving.UploadService
	debounce time.Duration

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// New creates a watcher for root.
func New(root string, uploader driving.UploadService, opts ...Option) *Watcher {
	w := &Watcher{
		root:     filepath.Clean(root),
		uploader: uploader,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Sync ingests every PDF under the root, in lexical order.
// A failing file is reported in the results and does not stop the walk.
func (w *Watcher) Sync(ctx context.Context) ([]Result, error) {
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	var results []Result
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != w.root && isHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isCandidate(path) {
			return nil
		}
		results = append(results, w.ingest(ctx, path))
		return nil
	})
	if err != nil {
		return results, fmt.Errorf("walk %s: %w", w.root, err)
	}
	return results, nil
}

// Watch follows changes under the root until ctx is cancelled.
// The returned channel is closed when watching stops.
func (w *Watcher) Watch(ctx context.Context) (<-chan Result, error) {
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	w.watcher = fsw
	w.mu.Unlock()

	if err := w.addTree(fsw, w.root); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	results := make(chan Result)
	go w.loop(ctx, fsw, results)
	return results, nil
}

// Close stops an active Watch and prevents new ones.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, results chan<- Result) {
	defer close(results)
	defer fsw.Close()

	ready := make(chan string)
	done := make(chan struct{})
	defer close(done)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(event.Name) {
					if err := w.addTree(fsw, event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			path, ok := w.handleFsEvent(event)
			if !ok {
				continue
			}
			if t, exists := timers[path]; exists {
				t.Reset(w.debounce)
				continue
			}
			timers[path] = time.AfterFunc(w.debounce, func() {
				select {
				case ready <- path:
				case <-done:
				}
			})

		case path := <-ready:
			delete(timers, path)
			result := w.ingest(ctx, path)
			select {
			case results <- result:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("file watcher: %v", err)
		}
	}
}

// handleFsEvent returns the PDF path an event should trigger an ingest for.
// Removals and renames are logged only; vectors are never deleted.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !isCandidate(event.Name) {
		return "", false
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return "", false
		}
		return event.Name, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		logger.Debug("%s removed; its vectors stay in the index", event.Name)
	}
	return "", false
}

func (w *Watcher) ingest(ctx context.Context, path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path, Err: fmt.Errorf("read %s: %w", path, err)}
	}

	logger.Info("Ingesting %s", path)
	upload, err := w.uploader.Upload(ctx, path, data)
	if err != nil {
		logger.Warn("ingest %s: %v", path, err)
		return Result{Path: path, Err: err}
	}
	return Result{Path: path, Upload: upload}
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && isHidden(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) checkRoot() error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return domain.InvalidArgument("%s is not a directory", w.root)
	}
	return nil
}

// isCandidate reports whether path names a visible PDF file.
func isCandidate(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf") && !isHidden(path)
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
