// Package watch reports changes to a fixed set of files.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher delivers the path of every watched file that was written or
// recreated. Bursts of events for one file within Debounce collapse into one.
type Watcher struct {
	Debounce time.Duration

	w     *fsnotify.Watcher
	files map[string]struct{}
}

// New watches paths. Directories are watched so that editors replacing a
// file by rename are still seen.
func New(paths []string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &Watcher{Debounce: 100 * time.Millisecond, w: w, files: make(map[string]struct{})}
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		fw.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return fw, nil
}

func (fw *Watcher) Close() error { return fw.w.Close() }

// Run calls onChange for each changed file until ctx is done or the watcher
// fails. onChange runs on the Run goroutine.
func (fw *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(fw.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if _, ok := fw.files[filepath.Clean(ev.Name)]; !ok {
				continue
			}
			pending[filepath.Clean(ev.Name)] = struct{}{}
			timer.Reset(fw.Debounce)
		case err, ok := <-fw.w.Errors:
			if !ok {
				return nil
			}
			return err
		case <-timer.C:
			for p := range pending {
				onChange(p)
			}
			clear(pending)
		}
	}
}
