package pipeline

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pagemill/pagemill/internal/export"
	"github.com/pagemill/pagemill/internal/scan"
	"github.com/pagemill/pagemill/internal/store"
)

// ExportEvent announces a finished export.
type ExportEvent struct {
	SessionID int64
	Format    scan.ShareFormat

	// Paths are the written files, absolute.
	Paths []string
}

// exportSession writes one ready session to the share directory. The session
// row is deleted in the same call, so each session exports exactly once; a
// failure leaves it queued for the next emission.
func (p *Pipeline) exportSession(ctx context.Context, session store.ShareSessionRow) error {
	items, err := p.store.ShareItems(ctx, session.ID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return p.store.DeleteShareSession(ctx, session.ID)
	}

	pages := make([]export.Page, 0, len(items))
	for _, item := range items {
		pg, err := p.exportPage(ctx, item.PageID, session.Format)
		if err != nil {
			return fmt.Errorf("prepare page %d: %w", item.PageID, err)
		}
		pages = append(pages, pg)
	}

	writer, err := export.ForFormat(session.Format)
	if err != nil {
		return err
	}
	title := exportTitle()
	paths, err := writer.Write(p.opts.ShareDir, title, pages)
	if err != nil {
		return fmt.Errorf("write %v export: %w", session.Format, err)
	}
	if err := p.store.DeleteShareSession(ctx, session.ID); err != nil {
		return err
	}

	slog.Info("session exported",
		"session", session.ID,
		"format", session.Format,
		"pages", len(pages),
		"files", len(paths))
	select {
	case p.events <- ExportEvent{SessionID: session.ID, Format: session.Format, Paths: paths}:
	default:
	}
	return nil
}

// exportPage assembles the per-page export inputs. Only what the format's
// writer consumes is loaded: the existing output artifact for PNG, a fresh
// paper rendering for TIFF and PDF, and text for every format that carries
// it.
func (p *Pipeline) exportPage(ctx context.Context, pageID int64, format scan.ShareFormat) (export.Page, error) {
	page, err := p.store.Page(ctx, pageID)
	if err != nil {
		return export.Page{}, err
	}

	var pg export.Page
	if text, ok, err := p.store.TextFor(ctx, pageID); err != nil {
		return export.Page{}, err
	} else if ok && page.Task().Ready() {
		pg.Text = text.Modified
	}

	switch format {
	case scan.SharePNG:
		out, err := p.store.OutputFor(ctx, pageID)
		if err != nil {
			return export.Page{}, err
		}
		file, err := p.store.File(ctx, out.FileID)
		if err != nil {
			return export.Page{}, err
		}
		pg.OutputPath = p.files.AbsPath(file.Path)

	case scan.ShareTIFF, scan.SharePDF:
		complete, err := p.store.CompleteFor(ctx, pageID)
		if err != nil {
			return export.Page{}, err
		}
		pic, err := p.loadPicture(ctx, complete.ImageFileID)
		if err != nil {
			return export.Page{}, err
		}
		oriented := pic.WithOrientation(page.Orientation)
		rendered, err := p.engine.Encode(oriented, page.Paper(), page.PaperOrient)
		if err != nil {
			return export.Page{}, err
		}
		size, ok := page.Paper().Predefined()
		if !ok {
			return export.Page{}, fmt.Errorf("custom paper %v has no dimensions", page.Paper())
		}
		pg.Rendered = rendered
		pg.WidthMM, pg.HeightMM = size.Dimensions()
		if landscapeExport(page.PaperOrient, oriented) {
			pg.WidthMM, pg.HeightMM = pg.HeightMM, pg.WidthMM
		}
	}
	return pg, nil
}

// landscapeExport mirrors the engine's paper rotation rule: an explicit
// orientation wins, Auto follows the oriented image's aspect.
func landscapeExport(o scan.PaperOrientation, pic *scan.Picture) bool {
	switch o {
	case scan.PaperLandscape:
		return true
	case scan.PaperAuto:
		b := pic.Image.Bounds()
		w, h := b.Dx(), b.Dy()
		if pic.Orientation == scan.OrientationRotate90 || pic.Orientation == scan.OrientationRotate270 {
			w, h = h, w
		}
		return w > h
	default:
		return false
	}
}

// exportTitle derives a fresh collision-free basename for an export batch.
func exportTitle() string {
	u := uuid.New()
	return "pagemill-" + strings.ToUpper(hex.EncodeToString(u[:4]))
}
