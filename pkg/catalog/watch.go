package catalog

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads m from path whenever the file is written or replaced, until
// ctx is done. It loads the file once before watching. A reload that fails
// to parse is logged and the previous products are kept.
//
// The directory is watched rather than the file so editors that save by
// rename keep triggering reloads.
func Watch(ctx context.Context, m *Memory, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	products, err := LoadFile(abs)
	if err != nil {
		return err
	}
	m.Replace(products)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				products, err := LoadFile(abs)
				if err != nil {
					logger.Warn("catalog reload failed, keeping previous products", "path", abs, "error", err)
					continue
				}
				m.Replace(products)
				logger.Info("catalog reloaded", "path", abs, "products", len(products))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("catalog watcher error", "error", err)
			}
		}
	}()
	return nil
}
