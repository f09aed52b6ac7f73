package editorui

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// Reloader reports changes to one file. The parent directory is watched
// so files replaced by rename are still seen.
type Reloader struct {
	watcher *fsnotify.Watcher
	name    string
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

func NewReloader(path string) (*Reloader, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}

	r := &Reloader{
		watcher: w,
		name:    abs,
		Events:  make(chan string, 1),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go r.run()
	return r, nil
}

func (r *Reloader) Close() error {
	var err error
	r.once.Do(func() {
		close(r.closeCh)
		err = r.watcher.Close()
	})
	return err
}

func (r *Reloader) run() {
	var last time.Time
	for {
		select {
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != r.name {
				continue
			}
			now := time.Now()
			if now.Sub(last) < reloadDebounce {
				continue
			}
			last = now
			select {
			case r.Events <- event.Name:
			default:
				// a reload is already pending
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			select {
			case r.Errors <- err:
			default:
			}
		case <-r.closeCh:
			return
		}
	}
}
