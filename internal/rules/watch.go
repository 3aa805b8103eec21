package rules

import (
	"os"
	"slices"
	"sync"
	"time"
)

// FileWatcher polls file modification times and triggers a callback on change.
// Files appearing or disappearing count as changes too.
type FileWatcher struct {
	Paths    []string
	Interval time.Duration
	// Discover, if set, is asked for extra paths on every scan so files
	// created after Start are picked up.
	Discover  func() []string
	onChange  func(string) // called with path that changed
	stopCh    chan struct{}
	stopOnce  sync.Once
	primed    bool
	lastMTime map[string]time.Time // zero time = missing
}

// NewFileWatcher creates a watcher for given paths and interval.
func NewFileWatcher(paths []string, interval time.Duration, onChange func(string)) *FileWatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &FileWatcher{
		Paths:     paths,
		Interval:  interval,
		onChange:  onChange,
		stopCh:    make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// Start primes the mtime cache and begins polling in a goroutine.
func (w *FileWatcher) Start() {
	w.scan()
	w.primed = true
	ticker := time.NewTicker(w.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.scan()
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher. Safe to call more than once.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// targets is the sorted union of configured, discovered and previously seen paths.
func (w *FileWatcher) targets() []string {
	paths := slices.Clone(w.Paths)
	if w.Discover != nil {
		paths = append(paths, w.Discover()...)
	}
	for p := range w.lastMTime {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}

// scan checks mtimes and invokes onChange for files that changed since last scan.
// Before the watcher is primed it only records what it finds.
func (w *FileWatcher) scan() {
	for _, p := range w.targets() {
		var mt time.Time
		if fi, err := os.Stat(p); err == nil {
			mt = fi.ModTime()
		}
		last := w.lastMTime[p]
		w.lastMTime[p] = mt
		if !w.primed {
			continue
		}
		if !mt.Equal(last) && w.onChange != nil {
			w.onChange(p)
		}
	}
}
