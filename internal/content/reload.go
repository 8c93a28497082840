package content

import (
	"context"
	"errors"

	"github.com/mimirswell/mimirswell-server/internal/watcher"
)

// Follow reloads the catalog whenever the watcher reports that the catalog
// file settled after a change. It blocks until ctx is done or the watcher
// stops. A failed reload keeps the previous catalog.
func (c *Catalog) Follow(ctx context.Context, w *watcher.Watcher) error {
	if c.path == "" {
		return errors.New("embedded catalog cannot be followed")
	}
	if err := w.Watch(c.path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.Events():
			if !ok {
				return nil
			}
			if evt.Type == watcher.EventRemoved {
				c.logger.Warn("catalog file removed, keeping current catalog", "path", evt.Path)
				continue
			}
			if err := c.Reload(); err != nil {
				c.logger.Error("catalog reload failed", "path", evt.Path, "error", err)
			}
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			c.logger.Warn("catalog watcher error", "error", err)
		}
	}
}
