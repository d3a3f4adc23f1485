package schema

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/gommon/log"
)

// Watch reloads the rules file at path into h each time it is written or
// replaced, until ctx is done. A file that fails to load is logged and the
// previous schema stays in effect.
func Watch(ctx context.Context, path string, h *Holder, l *log.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch schema rules: %w", err)
	}
	defer w.Close()

	// Editors often save by renaming over the file, so watch the directory.
	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch schema rules: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if err := reload(path, h); err != nil {
				l.Warnf("schema rules not reloaded: %s", err)
				continue
			}
			l.Infof("schema rules reloaded from %s", path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.Warnf("schema watch: %s", err)
		}
	}
}

func reload(path string, h *Holder) error {
	rules, err := LoadFile(path)
	if err != nil {
		return err
	}
	s, err := New(rules)
	if err != nil {
		return err
	}
	h.Store(s)
	return nil
}
