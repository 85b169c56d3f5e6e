package store

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher rehydrates Assignments when another process rewrites the
// backing file of a FileKV.
type FileWatcher struct {
	fsw         *fsnotify.Watcher
	assignments *Assignments
	path        string
	logger      *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
}

// NewFileWatcher prepares a watcher for path. Nothing is watched until
// Start is called.
func NewFileWatcher(assignments *Assignments, path string, logger *slog.Logger) (*FileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &FileWatcher{
		fsw:         fsw,
		assignments: assignments,
		path:        path,
		logger:      logger,
		stop:        make(chan struct{}),
	}, nil
}

// Start watches the store's directory. FileKV replaces the file by
// rename, so watching the file itself would lose track after one write.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.started || fw.stopped {
		return nil
	}
	if err := fw.fsw.Add(filepath.Dir(fw.path)); err != nil {
		return err
	}
	fw.started = true

	go fw.loop(filepath.Base(fw.path))
	fw.logger.Debug("store watcher started", "path", fw.path)
	return nil
}

func (fw *FileWatcher) loop(name string) {
	for {
		select {
		case <-fw.stop:
			return

		case err, ok := <-fw.fsw.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("store watcher error", "error", err)

		case ev, ok := <-fw.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name || !touchesContent(ev) {
				continue
			}
			fw.logger.Debug("assignment store changed on disk", "path", fw.path, "op", ev.Op.String())
			fw.assignments.Hydrate()
		}
	}
}

func touchesContent(ev fsnotify.Event) bool {
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove)
}

// Stop ends watching. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.stopped {
		return nil
	}
	fw.stopped = true
	close(fw.stop)
	return fw.fsw.Close()
}
