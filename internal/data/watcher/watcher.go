package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-cloud-cost-explorer/internal/core/model"
	"github.com/penwyp/go-cloud-cost-explorer/internal/util"
)

// FileWatcher reports writes to cost export files. Directories are watched
// recursively; a file path is watched through its parent directory and only
// its own events are reported.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]struct{}
	dirs    map[string]struct{}
	events  chan model.FileEvent
	done    chan struct{}
	once    sync.Once
}

func NewFileWatcher(paths []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		files:   make(map[string]struct{}),
		dirs:    make(map[string]struct{}),
		events:  make(chan model.FileEvent, 100),
		done:    make(chan struct{}),
	}

	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) addPath(path string) error {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		fw.files[path] = struct{}{}
		return fw.watcher.Add(filepath.Dir(path))
	}

	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			fw.dirs[p] = struct{}{}
			return fw.watcher.Add(p)
		}
		return nil
	})
}

// relevant reports whether an event on name should be forwarded.
func (fw *FileWatcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if _, ok := fw.files[name]; ok {
		return true
	}
	if _, ok := fw.dirs[filepath.Dir(name)]; !ok {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".csv":
		return true
	}
	return false
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod || !fw.relevant(event.Name) {
				continue
			}

			fileEvent := model.FileEvent{Path: event.Name, Operation: event.Op.String()}
			select {
			case fw.events <- fileEvent:
			case <-fw.done:
				return
			default:
				// The consumer refetches everything anyway; a full buffer
				// already guarantees one more refresh.
				util.LogDebug("File event buffer full, dropping " + event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())

		case <-fw.done:
			return
		}
	}
}

// Events delivers relevant file events. It is closed after Close.
func (fw *FileWatcher) Events() <-chan model.FileEvent {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}
