// Package pipeline is the reactive orchestrator. It owns a set of stage
// watchers that subscribe to the store, react to page batches, and commit
// one-stage transitions, plus the recognition coordinator, the export
// coordinator and the artifact garbage collector. All processing state lives
// in the store; the pipeline itself is stateless and resumes from whatever
// the database holds at startup.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pagemill/pagemill/internal/artifact"
	"github.com/pagemill/pagemill/internal/scan"
	"github.com/pagemill/pagemill/internal/store"
)

// Options are the processing parameters the watchers run with.
type Options struct {
	// PreviewSize bounds the longest edge of preview artifacts, in pixels.
	PreviewSize int

	// DetectorData is the engine's orientation detector model path; empty
	// disables text-orientation detection.
	DetectorData string

	// Languages is the comma-separated default OCR language set, used when
	// a page carries no override.
	Languages string

	// ShareDir receives export files.
	ShareDir string

	// Poll is the safety re-evaluation interval. Store writes wake the
	// watchers immediately; the ticker only covers writes from other
	// processes sharing the database.
	Poll time.Duration

	// GC is the garbage collection interval.
	GC time.Duration
}

func (o Options) withDefaults() Options {
	if o.PreviewSize <= 0 {
		o.PreviewSize = 512
	}
	if o.Languages == "" {
		o.Languages = "eng"
	}
	if o.Poll <= 0 {
		o.Poll = 2 * time.Second
	}
	if o.GC <= 0 {
		o.GC = 30 * time.Second
	}
	return o
}

// Pipeline wires the store, the artifact store, the imaging engine and the
// recognizer together. Construct one per process with New; there is no
// package-level instance.
type Pipeline struct {
	store      *store.Store
	files      *artifact.Store
	engine     scan.Engine
	recognizer scan.Recognizer
	opts       Options

	events chan ExportEvent
}

// New assembles a pipeline. The recognizer may be nil, in which case
// Recognize jobs settle as canceled.
func New(st *store.Store, files *artifact.Store, engine scan.Engine, recognizer scan.Recognizer, opts Options) *Pipeline {
	return &Pipeline{
		store:      st,
		files:      files,
		engine:     engine,
		recognizer: recognizer,
		opts:       opts.withDefaults(),
		events:     make(chan ExportEvent, 16),
	}
}

// Events delivers export completion notifications. The channel is buffered;
// events are dropped, not blocked on, when nobody listens.
func (p *Pipeline) Events() <-chan ExportEvent {
	return p.events
}

// Run starts every watcher and blocks until ctx is canceled. A clean
// shutdown returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	slog.Info("pipeline starting",
		"poll", p.opts.Poll,
		"gc", p.opts.GC,
		"preview_size", p.opts.PreviewSize)

	g, ctx := errgroup.WithContext(ctx)

	transitions := []struct {
		name string
		from scan.Status
		job  func(context.Context, store.PageRow) error
	}{
		{"input", scan.StatusInitial, p.toInput},
		{"original", scan.StatusInput, p.toOriginal},
		{"pending", scan.StatusOriginal, p.toPending},
		{"complete", scan.StatusPending, p.toComplete},
		{"output", scan.StatusComplete, p.toOutput},
	}
	for _, t := range transitions {
		g.Go(func() error {
			query := func(ctx context.Context) ([]store.PageRow, error) {
				return p.store.PagesInStatus(ctx, t.from)
			}
			return watch(ctx, p, t.name, query, t.job)
		})
	}

	g.Go(func() error {
		return watch(ctx, p, "recognition", p.store.RecognitionQueue, p.runRecognition)
	})
	g.Go(func() error {
		return watch(ctx, p, "share", p.store.ReadyShareSessions, p.exportSession)
	})
	g.Go(func() error {
		return p.runGC(ctx)
	})

	err := g.Wait()
	slog.Info("pipeline stopped")
	return err
}

// fail moves a page to the terminal Invalid state after an unrecoverable
// transition error. Context cancellation is not a page failure: the error is
// passed through so the watcher treats the job as superseded.
func (p *Pipeline) fail(ctx context.Context, id int64, op string, cause error) error {
	if errors.Is(cause, context.Canceled) {
		return cause
	}
	slog.Warn("page failed", "page", id, "op", op, "err", cause)
	return p.store.FailPage(context.WithoutCancel(ctx), id, fmt.Sprintf("%s: %v", op, cause))
}

// loadPicture reads a stage artifact through the store's picture cache.
func (p *Pipeline) loadPicture(ctx context.Context, fileID int64) (*scan.Picture, error) {
	row, err := p.store.File(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return p.files.LoadPicture(row.Path, func(data []byte) (*scan.Picture, error) {
		return p.engine.Decode(bytes.NewReader(data))
	})
}
