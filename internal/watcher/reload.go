package watcher

import (
	"context"

	"go.uber.org/zap"
)

// Reloader rebuilds in-memory state from a file.
type Reloader interface {
	Reload(ctx context.Context, path string) error
}

// NewReloadWatcher returns a watcher that calls r.Reload whenever path
// changes. Reload errors are logged; the reloader keeps its previous state.
func NewReloadWatcher(ctx context.Context, r Reloader, path string, opts ...WatcherOption) *Watcher {
	var w *Watcher
	w = NewWatcher([]string{path}, func(p string) {
		if err := r.Reload(ctx, p); err != nil {
			w.logger.Error("Reload failed", zap.String("path", p), zap.Error(err))
		}
	}, opts...)
	return w
}
