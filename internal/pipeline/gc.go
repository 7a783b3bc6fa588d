package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// runGC periodically collects unreferenced artifacts. Collection is cheap
// and idempotent, so it runs on a plain ticker rather than on store signals.
func (p *Pipeline) runGC(ctx context.Context) error {
	ticker := time.NewTicker(p.opts.GC)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.CollectGarbage(ctx); err != nil {
				slog.Warn("gc pass failed", "err", err)
			}
		}
	}
}

// CollectGarbage runs one full collection pass: orphaned share sessions,
// file rows no satellite record references, and on-disk artifacts the files
// table does not know about (left by crashed transitions).
func (p *Pipeline) CollectGarbage(ctx context.Context) error {
	if n, err := p.store.DeleteOrphanShareSessions(ctx); err != nil {
		return err
	} else if n > 0 {
		slog.Debug("orphan share sessions deleted", "count", n)
	}

	removed, err := p.store.DeleteUselessFiles(ctx)
	if err != nil {
		return err
	}
	if len(removed) > 0 {
		if err := p.files.Remove(removed); err != nil {
			return err
		}
		slog.Info("unreferenced artifacts removed", "count", len(removed))
	}

	referenced, err := p.store.ReferencedPaths(ctx)
	if err != nil {
		return err
	}
	swept, err := p.files.Sweep(referenced)
	if err != nil {
		return err
	}
	if len(swept) > 0 {
		slog.Info("stray artifacts swept", "count", len(swept))
	}
	return nil
}
