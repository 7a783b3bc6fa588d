package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pagemill/pagemill/internal/artifact"
	"github.com/pagemill/pagemill/internal/scan"
	"github.com/pagemill/pagemill/internal/store"
)

// expandFraction is how far an Expand cutout grows beyond the detected box,
// relative to each edge length.
const expandFraction = 0.1

// stagedFile couples a reserved file row with its staged, not yet published
// artifact bytes.
type stagedFile struct {
	row    store.FileRow
	staged artifact.Staged
}

func (f stagedFile) publish() error { return f.staged.Publish(f.row.Path) }

// stageBytes writes data into the staging area and reserves a file row whose
// path is derived from the assigned id. The file row is visible immediately;
// if the transition later aborts, the unreferenced row is garbage collected.
func (p *Pipeline) stageBytes(ctx context.Context, pageID int64, data []byte, ext string) (stagedFile, error) {
	staged, err := p.files.Stage(data)
	if err != nil {
		return stagedFile{}, err
	}
	row, err := p.store.CreateFile(ctx, func(id int64) string {
		return artifact.PagePath(pageID, id, ext)
	})
	if err != nil {
		staged.Discard()
		return stagedFile{}, err
	}
	return stagedFile{row: row, staged: staged}, nil
}

// stagePicture PNG-encodes pic and stages it.
func (p *Pipeline) stagePicture(ctx context.Context, pageID int64, pic *scan.Picture) (stagedFile, error) {
	var buf bytes.Buffer
	if err := pic.Write(&buf); err != nil {
		return stagedFile{}, err
	}
	return p.stageBytes(ctx, pageID, buf.Bytes(), "png")
}

// stagePair stages a full-size image and its preview together.
func (p *Pipeline) stagePair(ctx context.Context, pageID int64, pic *scan.Picture) (image, preview stagedFile, err error) {
	prev, err := p.engine.Preview(pic, p.opts.PreviewSize)
	if err != nil {
		return stagedFile{}, stagedFile{}, err
	}
	image, err = p.stagePicture(ctx, pageID, pic)
	if err != nil {
		return stagedFile{}, stagedFile{}, err
	}
	preview, err = p.stagePicture(ctx, pageID, prev)
	if err != nil {
		image.staged.Discard()
		return stagedFile{}, stagedFile{}, err
	}
	return image, preview, nil
}

func publishPair(image, preview stagedFile) store.PublishFunc {
	return func() error {
		if err := image.publish(); err != nil {
			return err
		}
		return preview.publish()
	}
}

func discardPair(image, preview stagedFile) {
	image.staged.Discard()
	preview.staged.Discard()
}

// toInput decodes the source locator, auto-detects the content cutout and
// commits the Input record. Decode failures are terminal for the page;
// storage failures leave it Initial for a retry.
func (p *Pipeline) toInput(ctx context.Context, page store.PageRow) error {
	data, err := os.ReadFile(page.Source)
	if err != nil {
		return p.fail(ctx, page.ID, "read source", err)
	}
	pic, err := p.engine.Decode(bytes.NewReader(data))
	if err != nil {
		return p.fail(ctx, page.ID, "decode source", err)
	}
	cut, err := p.engine.DetectCutout(pic)
	if err != nil {
		return p.fail(ctx, page.ID, "detect cutout", err)
	}

	image, preview, err := p.stagePair(ctx, page.ID, pic)
	if err != nil {
		return err
	}
	cutStr := ""
	if cut.Defined {
		cutStr = scan.EncodeCutout(cut)
	}
	row := store.InputRow{
		PageID:        page.ID,
		ImageFileID:   image.row.ID,
		PreviewFileID: preview.row.ID,
		Orientation:   pic.Orientation,
		Cutout:        cutStr,
	}
	if err := p.store.CommitInput(ctx, row, publishPair(image, preview)); err != nil {
		discardPair(image, preview)
		return err
	}
	slog.Debug("page decoded", "page", page.ID, "cutout", cutStr != "")
	return nil
}

// workingCutout derives the cutout the rectification should use from the
// page's policy and the auto-detected box recorded on the Input row.
func workingCutout(page store.PageRow, input store.InputRow) (cut scan.Cutout, undefined bool, err error) {
	detected := scan.Cutout{}
	if input.Cutout != "" {
		if detected, err = scan.DecodeCutout(input.Cutout); err != nil {
			return scan.Cutout{}, false, fmt.Errorf("detected cutout: %w", err)
		}
	}
	switch page.CutoutPolicy {
	case scan.CutoutSetup:
		if cut, err = scan.DecodeCutout(page.Cutout); err != nil {
			return scan.Cutout{}, false, fmt.Errorf("page cutout: %w", err)
		}
		return cut, false, nil
	case scan.CutoutExpand:
		return detected.Expand(expandFraction), false, nil
	default:
		return detected, !detected.Defined, nil
	}
}

// toOriginal rectifies the input image with the working cutout, optionally
// runs text-orientation detection, and commits the Original record.
func (p *Pipeline) toOriginal(ctx context.Context, page store.PageRow) error {
	input, err := p.store.InputFor(ctx, page.ID)
	if err != nil {
		return err
	}
	pic, err := p.loadPicture(ctx, input.ImageFileID)
	if err != nil {
		return err
	}

	cut, undefined, err := workingCutout(page, input)
	if err != nil {
		return p.fail(ctx, page.ID, "derive cutout", err)
	}
	rectified, err := p.engine.Rectify(pic, cut)
	if err != nil {
		return p.fail(ctx, page.ID, "rectify", err)
	}

	if page.AutoOrient && p.opts.DetectorData != "" {
		detected, err := p.engine.DetectOrientation(rectified, p.opts.DetectorData)
		if err != nil {
			slog.Warn("orientation detection failed", "page", page.ID, "err", err)
		} else if detected {
			if err := p.store.SetDetectedOrientation(ctx, page.ID, rectified.Orientation); err != nil {
				return err
			}
			slog.Debug("orientation detected", "page", page.ID, "orientation", rectified.Orientation)
		}
	}

	image, preview, err := p.stagePair(ctx, page.ID, rectified)
	if err != nil {
		return err
	}
	row := store.StageRow{
		PageID:        page.ID,
		ImageFileID:   image.row.ID,
		PreviewFileID: preview.row.ID,
	}
	cutStr := ""
	if cut.Defined {
		cutStr = scan.EncodeCutout(cut)
	}
	if err := p.store.CommitOriginal(ctx, row, cutStr, undefined, publishPair(image, preview)); err != nil {
		discardPair(image, preview)
		return err
	}
	slog.Debug("page rectified", "page", page.ID)
	return nil
}

// toPending promotes the page into the refinement queue. No new artifacts:
// the Pending record aliases the Original files until refinement replaces
// them.
func (p *Pipeline) toPending(ctx context.Context, page store.PageRow) error {
	orig, err := p.store.OriginalFor(ctx, page.ID)
	if err != nil {
		return err
	}
	return p.store.CommitPending(ctx, store.StageRow{
		PageID:        page.ID,
		ImageFileID:   orig.ImageFileID,
		PreviewFileID: orig.PreviewFileID,
	})
}

// toComplete refines the pending image with the page's color profile and
// shadow setting and commits the presentation-ready result.
func (p *Pipeline) toComplete(ctx context.Context, page store.PageRow) error {
	pending, err := p.store.PendingFor(ctx, page.ID)
	if err != nil {
		return err
	}
	pic, err := p.loadPicture(ctx, pending.ImageFileID)
	if err != nil {
		return err
	}
	refined, err := p.engine.Refine(pic, scan.Refine{
		Profile:       page.Profile,
		StrongShadows: page.StrongShadows,
	})
	if err != nil {
		return p.fail(ctx, page.ID, "refine", err)
	}

	image, preview, err := p.stagePair(ctx, page.ID, refined)
	if err != nil {
		return err
	}
	row := store.CompleteRow{
		StageRow: store.StageRow{
			PageID:        page.ID,
			ImageFileID:   image.row.ID,
			PreviewFileID: preview.row.ID,
		},
		ModifiedAt: time.Now().Unix(),
	}
	if err := p.store.CommitComplete(ctx, row, publishPair(image, preview)); err != nil {
		discardPair(image, preview)
		return err
	}
	slog.Debug("page refined", "page", page.ID, "profile", page.Profile)
	return nil
}

// toOutput renders the refined image onto the configured paper at the page's
// orientation and commits the final artifact.
func (p *Pipeline) toOutput(ctx context.Context, page store.PageRow) error {
	complete, err := p.store.CompleteFor(ctx, page.ID)
	if err != nil {
		return err
	}
	pic, err := p.loadPicture(ctx, complete.ImageFileID)
	if err != nil {
		return err
	}
	data, err := p.engine.Encode(pic.WithOrientation(page.Orientation), page.Paper(), page.PaperOrient)
	if err != nil {
		return p.fail(ctx, page.ID, "encode output", err)
	}

	out, err := p.stageBytes(ctx, page.ID, data, "png")
	if err != nil {
		return err
	}
	row := store.OutputRow{
		PageID:        page.ID,
		FileID:        out.row.ID,
		Orientation:   page.Orientation,
		EstimatedSize: int64(len(data)),
	}
	if err := p.store.CommitOutput(ctx, row, out.publish); err != nil {
		out.staged.Discard()
		return err
	}
	slog.Info("page rendered", "page", page.ID, "paper", page.Paper(), "size", len(data))
	return nil
}
