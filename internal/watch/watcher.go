package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc reloads the page. It is called once on start and again after
// every debounced burst of source changes.
type RunFunc func(ctx context.Context) (*RunResult, error)

// RunResult is the outcome of one reload.
type RunResult struct {
	RunCount int
	Changes  []RunChange
}

// Options configures Run.
type Options struct {
	// Path is a manifest file or a directory watched recursively.
	Path string

	// ExtraFiles are watched in addition to Path, e.g. the config file.
	ExtraFiles []string

	Debounce time.Duration

	Logger *slog.Logger

	// Out receives one status line per reload.
	Out io.Writer
}

// DefaultOptions returns Options with a 500ms debounce that report to
// stderr.
func DefaultOptions() Options {
	return Options{
		Debounce: 500 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run reloads through fn until ctx is done. A failing reload is reported
// and watching continues.
func Run(ctx context.Context, opts Options, fn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	sw, err := newSourceWatcher(opts.Path, opts.ExtraFiles)
	if err != nil {
		return err
	}
	defer sw.Close()

	// Debounced reloads fire on timer goroutines and must not overlap.
	var mu sync.Mutex

	reload := func(trigger string) {
		mu.Lock()
		defer mu.Unlock()

		stamp := time.Now().Format(time.TimeOnly)

		result, err := fn(ctx)
		if err != nil {
			opts.Logger.Warn("reload failed", slog.String("trigger", trigger), slog.Any("error", err))
			fmt.Fprintf(opts.Out, "[%s] %s: reload failed: %v\n", stamp, trigger, err)

			return
		}

		fmt.Fprintf(opts.Out, "[%s] %s: %d pipelineruns\n", stamp, trigger, result.RunCount)

		if len(result.Changes) > 0 {
			fmt.Fprintf(opts.Out, "  runs: %s\n", RunDiffSummary(result.Changes))
		}
	}

	fmt.Fprintf(opts.Out, "watching %s (debounce %s)\n", opts.Path, opts.Debounce)
	reload("initial load")

	debouncer := NewDebouncer(opts.Debounce, func(path string, events int) {
		reload(describeTrigger(path, events))
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(opts.Out, "watch stopped")
			return nil

		case event, ok := <-sw.fs.Events:
			if !ok {
				return nil
			}

			if !sw.accepts(event) {
				continue
			}

			// New directories under a watched tree are watched too.
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if err := sw.addTree(event.Name); err != nil {
						opts.Logger.Warn("watching new directory", slog.String("path", event.Name), slog.Any("error", err))
					}
				}
			}

			opts.Logger.Debug("source changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			debouncer.Trigger(event.Name)

		case err, ok := <-sw.fs.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

func describeTrigger(path string, events int) string {
	if events <= 1 {
		return path
	}

	return fmt.Sprintf("%s (+%d more)", path, events-1)
}

// sourceWatcher watches a run source. For a single manifest it watches the
// parent directory, so editors that replace the file on save are seen, and
// only accepts events for the manifest itself and the extra files.
type sourceWatcher struct {
	fs *fsnotify.Watcher

	// only is nil when every file under the tree counts.
	only map[string]bool

	// extra files are always accepted, hidden or not.
	extra map[string]bool
}

func newSourceWatcher(path string, extra []string) (*sourceWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	sw := &sourceWatcher{fs: fsw, extra: make(map[string]bool, len(extra))}

	if err := sw.addSource(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching source: %w", err)
	}

	for _, f := range extra {
		abs, err := filepath.Abs(f)
		if err == nil {
			err = fsw.Add(abs)
		}

		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching file %q: %w", f, err)
		}

		sw.extra[abs] = true
	}

	return sw, nil
}

func (sw *sourceWatcher) Close() error { return sw.fs.Close() }

func (sw *sourceWatcher) addSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return sw.addTree(path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	sw.only = map[string]bool{abs: true}

	return sw.fs.Add(filepath.Dir(abs))
}

// addTree watches root and every directory below it except hidden ones.
func (sw *sourceWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case !d.IsDir():
			return nil
		case path != root && strings.HasPrefix(d.Name(), "."):
			return filepath.SkipDir
		default:
			return sw.fs.Add(path)
		}
	})
}

// accepts reports whether event can change the run list.
func (sw *sourceWatcher) accepts(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	if sw.extra[abs] {
		return true
	}

	name := filepath.Base(abs)

	// Hidden files and editor temporaries.
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "#") ||
		strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") {
		return false
	}

	return sw.only == nil || sw.only[abs]
}
