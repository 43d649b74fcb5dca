package tui

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// ThemeChangedMsg carries styles rebuilt after the theme file changed.
type ThemeChangedMsg struct {
	Styles *Styles
}

// ThemeWatcher reports edits to the theme file as ThemeChangedMsg.
type ThemeWatcher struct {
	watcher *fsnotify.Watcher
	path    string
}

// WatchTheme watches path's directory, since editors and theme switchers
// usually replace the file rather than write it in place. It returns nil
// when path is empty or its directory does not exist.
func WatchTheme(path string) (*ThemeWatcher, error) {
	if path == "" {
		return nil, nil
	}
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err != nil {
		return nil, nil //nolint:nilerr // nothing to watch yet
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	return &ThemeWatcher{watcher: w, path: path}, nil
}

// Path returns the watched theme file.
func (w *ThemeWatcher) Path() string {
	return w.path
}

// Wait returns a command that blocks until the theme file changes. The
// command yields nil once the watcher is closed.
func (w *ThemeWatcher) Wait() tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(ev.Name) != w.path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				return ThemeChangedMsg{Styles: NewStyles()}
			case _, ok := <-w.watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

// Close stops watching.
func (w *ThemeWatcher) Close() error {
	if w == nil {
		return nil
	}
	return w.watcher.Close()
}
