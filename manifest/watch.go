package manifest

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 100 * time.Millisecond

// Watcher reports changes to manifests, maps, tilesets and scripts in a set
// of directories. Events and Errors are closed after Close.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once

	mu   sync.Mutex
	dirs []string
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dirs = uniqueDirs(dirs)
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
		dirs:    dirs,
	}
	go watcher.run()
	return watcher, nil
}

// Dirs returns the watched directories.
func (w *Watcher) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.dirs))
	copy(out, w.dirs)
	return out
}

// SetDirs replaces the watched directories, keeping the ones that appear in
// both sets. On error the watcher keeps every directory it could add.
func (w *Watcher) SetDirs(dirs ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs = uniqueDirs(dirs)
	want := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		want[d] = true
	}
	have := make(map[string]bool, len(w.dirs))
	var kept []string
	for _, d := range w.dirs {
		have[d] = true
		if want[d] {
			kept = append(kept, d)
			continue
		}
		// a directory that no longer exists is already unwatched
		_ = w.watcher.Remove(d)
	}
	for _, d := range dirs {
		if have[d] {
			continue
		}
		if err := w.watcher.Add(d); err != nil {
			w.dirs = kept
			return err
		}
		kept = append(kept, d)
	}
	w.dirs = kept
	return nil
}

func uniqueDirs(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Events)
		close(w.Errors)
		close(w.done)
	}()

	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !IsWatched(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < debounce {
				continue
			}
			last[event.Name] = now
			select {
			case w.Events <- event.Name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

// IsWatched reports whether a change to path should trigger a reload.
func IsWatched(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".tmx", ".tsx", ".tengo":
		return true
	}
	return false
}
