package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/pagemill/pagemill/internal/store"
)

// watch is the reactive loop every coordinator runs on. It re-evaluates the
// query whenever the store signals a write (or the poll ticker fires as a
// cross-process fallback), diffs the batch by value against the previous
// emission, and on any change cancels the in-flight batch and fans out one
// job per item. Latest batch wins: a job observing a canceled context must
// abandon its work without committing.
//
// Job errors never stop the loop. ErrStale and context cancellation mean the
// job was superseded and are dropped silently; everything else is logged and
// retried on a later emission.
func watch[T comparable](
	ctx context.Context,
	p *Pipeline,
	name string,
	query func(context.Context) ([]T, error),
	job func(context.Context, T) error,
) error {
	signals, unsubscribe := p.store.Watch()
	defer unsubscribe()

	ticker := time.NewTicker(p.opts.Poll)
	defer ticker.Stop()

	var last []T
	seen := false

	// retry is set by failed jobs so the next evaluation re-dispatches an
	// otherwise unchanged batch.
	var retry atomic.Bool

	cancelBatch := func() {}
	defer func() { cancelBatch() }()

	evaluate := func() {
		batch, err := query(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("watcher query failed", "watcher", name, "err", err)
			}
			return
		}
		if seen && !retry.Swap(false) && slices.Equal(batch, last) {
			return
		}
		last, seen = batch, true

		cancelBatch()
		bctx, cancel := context.WithCancel(ctx)
		cancelBatch = cancel

		if len(batch) > 0 {
			slog.Debug("watcher batch", "watcher", name, "items", len(batch))
		}
		for _, item := range batch {
			go func() {
				err := job(bctx, item)
				switch {
				case err == nil:
				case errors.Is(err, context.Canceled), errors.Is(err, store.ErrStale):
					// Superseded by a newer batch or a newer write.
				default:
					slog.Warn("watcher job failed", "watcher", name, "err", err)
					retry.Store(true)
				}
			}()
		}
	}

	evaluate()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-signals:
			evaluate()
		case <-ticker.C:
			evaluate()
		}
	}
}
