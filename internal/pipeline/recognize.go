package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pagemill/pagemill/internal/scan"
	"github.com/pagemill/pagemill/internal/store"
)

// runRecognition takes one queued page, executes its job and settles the
// counter. The counter value captured here guards the settle: if a newer
// request bumps it while the job runs, the settle fails with ErrStale and
// the result is discarded.
func (p *Pipeline) runRecognition(ctx context.Context, page store.PageRow) error {
	task := page.Task()
	result := store.TextResult{Job: task.Job}

	switch task.Job {
	case scan.JobModify:
		result.Modified = task.ModifiedText
	case scan.JobRecognize:
		text, err := p.recognizePage(ctx, page, task)
		switch {
		case err == nil:
			result.Original, result.Modified = text, text
		case errors.Is(err, scan.ErrRecognitionCanceled) && ctx.Err() != nil:
			// Superseded mid-run; the batch holding the new request
			// settles the page.
			return err
		default:
			slog.Warn("recognition failed", "page", page.ID, "err", err)
			result.Job = scan.JobCancel
		}
	}

	if err := p.store.SettleRecognition(ctx, page.ID, task.Counter, result); err != nil {
		return err
	}
	slog.Debug("recognition settled", "page", page.ID, "job", result.Job)
	return nil
}

// recognizePage runs OCR over the page's refined image at its current
// orientation, streaming progress into the telemetry row.
func (p *Pipeline) recognizePage(ctx context.Context, page store.PageRow, task scan.RecognitionTask) (scan.Text, error) {
	if p.recognizer == nil {
		return "", fmt.Errorf("no recognizer configured")
	}
	complete, err := p.store.CompleteFor(ctx, page.ID)
	if err != nil {
		return "", err
	}
	pic, err := p.loadPicture(ctx, complete.ImageFileID)
	if err != nil {
		return "", err
	}

	languages := task.Languages
	if languages == "" {
		languages = p.opts.Languages
	}

	if err := p.store.ResetTelemetry(ctx, page.ID); err != nil {
		return "", err
	}
	progress := func(_, percent int, lookup scan.Box) bool {
		if ctx.Err() != nil {
			return false
		}
		t := store.Telemetry{PageID: page.ID, Progress: percent}
		if !lookup.Empty() {
			t.Lookup = scan.EncodeBox(lookup)
		}
		if err := p.store.UpdateTelemetry(ctx, t); err != nil {
			slog.Debug("telemetry update failed", "page", page.ID, "err", err)
		}
		return true
	}

	return p.recognizer.Recognize(ctx,
		pic.WithOrientation(page.Orientation),
		strings.Split(languages, ","),
		progress)
}
