package launchconfig

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/grovetools/launchsync/pkg/event"
	"github.com/grovetools/launchsync/pkg/fileservice"
	"github.com/grovetools/launchsync/pkg/launch"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"
)

// Watcher re-reads the launch file when a change batch touches it.
type Watcher struct {
	files  FileService
	reader *Reader
	logger *logrus.Entry

	mu      sync.Mutex
	ctx     context.Context
	folder  TempFolder
	target  bool
	unsub   func()
	unwatch func()

	changed event.Emitter[launch.Content]
	reads   int
}

// NewWatcher creates an idle Watcher. Nothing is watched until Install.
func NewWatcher(files FileService, reader *Reader, logger *logrus.Entry) *Watcher {
	return &Watcher{files: files, reader: reader, logger: logger}
}

// Install subscribes to change batches, once, and watches folder. Calling it
// again moves the watch to a new folder.
func (w *Watcher) Install(ctx context.Context, folder TempFolder) error {
	unwatch, err := w.files.Watch(folder.Path)
	if err != nil {
		w.logger.WithError(err).WithField("folder", folder.Path).Error("Failed to watch temp folder")
		return err
	}

	w.mu.Lock()
	prev := w.unwatch
	w.ctx = ctx
	w.folder = folder
	w.target = true
	w.unwatch = unwatch
	if w.unsub == nil {
		w.unsub = w.files.OnDidFilesChange(w.handleBatch)
	}
	w.mu.Unlock()

	if prev != nil {
		prev()
	}
	w.logger.WithField("folder", folder.Path).Debug("Watching temp folder")
	return nil
}

// Uninstall drops the watch target. Change batches are ignored until the
// next Install.
func (w *Watcher) Uninstall() {
	w.mu.Lock()
	unwatch, folder := w.unwatch, w.folder
	w.unwatch = nil
	w.folder = TempFolder{}
	w.target = false
	w.mu.Unlock()

	if unwatch != nil {
		unwatch()
		w.logger.WithField("folder", folder.Path).Debug("Stopped watching temp folder")
	}
}

// Installed reports whether the watcher has a target.
func (w *Watcher) Installed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.target
}

// Folder returns the current watch target.
func (w *Watcher) Folder() (TempFolder, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.folder, w.target
}

func (w *Watcher) handleBatch(batch fileservice.ChangeBatch) {
	w.mu.Lock()
	ctx, folder, ok := w.ctx, w.folder, w.target
	w.mu.Unlock()
	if !ok {
		return
	}

	for _, change := range batch.Changes {
		if !w.matches(change.Path, folder) {
			continue
		}
		w.reread(ctx, folder, change)
		// Only one launch file is watched
		break
	}
}

// matches compares the exact file name and the parent folder name without
// regard to case or Unicode composition.
func (w *Watcher) matches(path string, folder TempFolder) bool {
	path = filepath.Clean(path)
	if filepath.Base(path) != w.reader.FileName() {
		return false
	}
	parent := filepath.Base(filepath.Dir(path))
	return strings.EqualFold(norm.NFC.String(parent), norm.NFC.String(folder.Name()))
}

func (w *Watcher) reread(ctx context.Context, folder TempFolder, change fileservice.Change) {
	w.mu.Lock()
	w.reads++
	w.mu.Unlock()

	content, err := w.reader.Read(ctx, folder)
	if err != nil {
		// Already logged by the reader
		return
	}
	if content.Missing {
		w.logger.WithField("change", change.Type.String()).Debug("Launch file removed")
		return
	}
	w.changed.Fire(content)
}

// Reads returns how many re-reads matching changes have caused.
func (w *Watcher) Reads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reads
}

// OnTempContentDidChange registers fn for re-read launch content.
func (w *Watcher) OnTempContentDidChange(fn func(launch.Content)) func() {
	return w.changed.On(fn)
}

// Subscribe returns a channel of re-read launch content.
func (w *Watcher) Subscribe(buffer int) chan launch.Content {
	return w.changed.Subscribe(buffer)
}

// Unsubscribe closes a channel returned by Subscribe.
func (w *Watcher) Unsubscribe(ch chan launch.Content) {
	w.changed.Unsubscribe(ch)
}

// Close stops watching and drops listeners.
func (w *Watcher) Close() {
	w.mu.Lock()
	unsub, unwatch := w.unsub, w.unwatch
	w.unsub, w.unwatch = nil, nil
	w.target = false
	w.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if unwatch != nil {
		unwatch()
	}
	w.changed.Dispose()
}
