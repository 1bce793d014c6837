package fileservice

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/logging"
	"github.com/grovetools/launchsync/pkg/event"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"
)

// Options configures a Local file service.
type Options struct {
	// BatchWindow coalesces raw events into one ChangeBatch.
	BatchWindow time.Duration
	// Ignore holds patternmatcher patterns. A change is dropped when its base
	// name or its full path matches.
	Ignore []string
}

// Local implements the file service on the local disk with fsnotify.
type Local struct {
	watcher *fsnotify.Watcher
	ignore  *patternmatcher.PatternMatcher
	window  time.Duration
	logger  *logrus.Entry

	changes event.Emitter[ChangeBatch]

	mu      sync.Mutex
	watched map[string]int // directory -> reference count
	pending []Change
	index   map[string]int // path -> position in pending
	timer   *time.Timer
	closed  bool
}

// NewLocal creates a Local file service. Call Run to start delivering events.
func NewLocal(opts Options) (*Local, error) {
	pm, err := patternmatcher.New(opts.Ignore)
	if err != nil {
		return nil, errors.ConfigInvalid("invalid ignore pattern").WithDetail("ignore", opts.Ignore)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create file watcher")
	}

	window := opts.BatchWindow
	if window <= 0 {
		window = 50 * time.Millisecond
	}

	return &Local{
		watcher: watcher,
		ignore:  pm,
		window:  window,
		logger:  logging.NewLogger("fileservice"),
		watched: make(map[string]int),
		index:   make(map[string]int),
	}, nil
}

// CreateFolder creates path and any missing parents. Existing folders are fine.
func (l *Local) CreateFolder(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.FolderCreateFailed(path, err)
	}
	return nil
}

// Read returns the file content. A missing file yields a FILE_NOT_FOUND error.
func (l *Local) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound(path, err)
		}
		return nil, errors.IOFailure("read", path, err)
	}
	return data, nil
}

// Write replaces the file atomically using a temp file and rename.
func (l *Local) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.IOFailure("write", path, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.IOFailure("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.IOFailure("write", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return errors.IOFailure("write", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.IOFailure("write", path, err)
	}
	return nil
}

// Watch starts watching a directory. The returned function stops the watch;
// directories are reference counted so nested users may share one.
func (l *Local) Watch(dir string) (func(), error) {
	dir = filepath.Clean(dir)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, errors.New(errors.ErrCodeInternal, "file service is closed")
	}
	if l.watched[dir] == 0 {
		if err := l.watcher.Add(dir); err != nil {
			return nil, errors.IOFailure("watch", dir, err)
		}
		l.logger.WithField("dir", dir).Debug("Watching directory")
	}
	l.watched[dir]++

	var once sync.Once
	return func() {
		once.Do(func() { l.unwatch(dir) })
	}, nil
}

func (l *Local) unwatch(dir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.watched[dir]--
	if l.watched[dir] > 0 {
		return
	}
	delete(l.watched, dir)
	if l.closed {
		return
	}
	if err := l.watcher.Remove(dir); err != nil {
		l.logger.WithError(err).WithField("dir", dir).Debug("Failed to remove watch")
	}
}

// OnDidFilesChange registers a listener for change batches.
func (l *Local) OnDidFilesChange(fn func(ChangeBatch)) func() {
	return l.changes.On(fn)
}

// Run delivers fsnotify events until ctx is cancelled or Close is called.
func (l *Local) Run(ctx context.Context) {
	for {
		select {
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			l.logger.Debugf("fsnotify event: %s op=%v", ev.Name, ev.Op)
			if change, ok := l.translate(ev); ok {
				l.enqueue(change)
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			l.Close()
			return
		}
	}
}

func (l *Local) translate(ev fsnotify.Event) (Change, bool) {
	var typ ChangeType
	switch {
	case ev.Op&fsnotify.Create != 0:
		typ = Added
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		typ = Deleted
	case ev.Op&fsnotify.Write != 0:
		typ = Updated
	default:
		return Change{}, false
	}

	path := filepath.Clean(ev.Name)
	if l.ignored(path) {
		return Change{}, false
	}
	return Change{Path: path, Type: typ}, true
}

func (l *Local) ignored(path string) bool {
	if matched, err := l.ignore.MatchesOrParentMatches(filepath.Base(path)); err == nil && matched {
		return true
	}
	rel := strings.TrimLeft(filepath.ToSlash(path), "/")
	matched, err := l.ignore.MatchesOrParentMatches(rel)
	return err == nil && matched
}

// enqueue adds a change to the current batch, starting the batch timer on the
// first change. A later change to the same path replaces its type.
func (l *Local) enqueue(c Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if i, ok := l.index[c.Path]; ok {
		l.pending[i].Type = mergeType(l.pending[i].Type, c.Type)
	} else {
		l.index[c.Path] = len(l.pending)
		l.pending = append(l.pending, c)
	}
	if l.timer == nil {
		l.timer = time.AfterFunc(l.window, l.flush)
	}
}

// mergeType keeps Added for a file created and then written in one batch.
func mergeType(prev, next ChangeType) ChangeType {
	if prev == Added && next == Updated {
		return Added
	}
	return next
}

func (l *Local) flush() {
	l.mu.Lock()
	batch := ChangeBatch{Changes: l.pending}
	l.pending = nil
	l.index = make(map[string]int)
	l.timer = nil
	closed := l.closed
	l.mu.Unlock()

	if closed || len(batch.Changes) == 0 {
		return
	}
	l.changes.Fire(batch)
}

// Close stops watching and drops undelivered changes.
func (l *Local) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	if l.timer != nil {
		l.timer.Stop()
	}
	l.mu.Unlock()

	l.changes.Dispose()
	return l.watcher.Close()
}
