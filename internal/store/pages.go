package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pagemill/pagemill/internal/scan"
)

// PageRow is the persisted form of a page. All fields are plain comparable
// values so watcher batches can be diffed with slices.Equal.
type PageRow struct {
	ID              int64
	Status          scan.Status
	Source          string
	OrderIndex      int
	ErrorMessage    string
	Orientation     scan.Orientation
	Cutout          string // encoded scan.Cutout, "" when undefined
	CutoutUndefined bool
	CutoutPolicy    scan.CutoutPolicy
	StrongShadows   bool
	Profile         scan.ColorProfile
	AutoOrient      bool
	PaperCode       int64
	PaperOrient     scan.PaperOrientation
	RecCounter      int
	RecJob          scan.RecognitionJob
	RecLanguages    string
	RecModifiedText string
}

// Paper decodes the persisted paper code.
func (p PageRow) Paper() scan.Paper {
	return scan.PaperFromCode(p.PaperCode)
}

// Task assembles the page's recognition sub-record.
func (p PageRow) Task() scan.RecognitionTask {
	return scan.RecognitionTask{
		Counter:      p.RecCounter,
		Job:          p.RecJob,
		Languages:    p.RecLanguages,
		ModifiedText: scan.Text(p.RecModifiedText),
	}
}

// PageDefaults are the processing parameters applied to newly inserted pages.
type PageDefaults struct {
	Profile       scan.ColorProfile
	StrongShadows bool
	AutoOrient    bool
	Paper         scan.Paper
	PaperOrient   scan.PaperOrientation
}

const pageColumns = `
	page_id, status, source, order_index, error_message, orientation,
	cutout, cutout_undefined, cutout_policy, strong_shadows, color_profile,
	auto_orient, paper_code, paper_orientation,
	rec_counter, rec_job, rec_languages, rec_modified_text`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPageRow(r rowScanner) (PageRow, error) {
	var p PageRow
	var status, policy, prof, paperOrient, job string
	err := r.Scan(
		&p.ID, &status, &p.Source, &p.OrderIndex, &p.ErrorMessage, &p.Orientation,
		&p.Cutout, &p.CutoutUndefined, &policy, &p.StrongShadows, &prof,
		&p.AutoOrient, &p.PaperCode, &paperOrient,
		&p.RecCounter, &job, &p.RecLanguages, &p.RecModifiedText,
	)
	if err != nil {
		return PageRow{}, err
	}
	if p.Status, err = scan.ParseStatus(status); err != nil {
		return PageRow{}, fmt.Errorf("page %d: %w", p.ID, err)
	}
	if p.CutoutPolicy, err = scan.ParseCutoutPolicy(policy); err != nil {
		return PageRow{}, fmt.Errorf("page %d: %w", p.ID, err)
	}
	if p.Profile, err = scan.ParseColorProfile(prof); err != nil {
		return PageRow{}, fmt.Errorf("page %d: %w", p.ID, err)
	}
	if p.PaperOrient, err = scan.ParsePaperOrientation(paperOrient); err != nil {
		return PageRow{}, fmt.Errorf("page %d: %w", p.ID, err)
	}
	if p.RecJob, err = scan.ParseRecognitionJob(job); err != nil {
		return PageRow{}, fmt.Errorf("page %d: %w", p.ID, err)
	}
	return p, nil
}

func collectPages(rows *sql.Rows) ([]PageRow, error) {
	defer rows.Close()
	var pages []PageRow
	for rows.Next() {
		p, err := scanPageRow(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Page fetches a single page by id.
func (s *Store) Page(ctx context.Context, id int64) (PageRow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE page_id = ?`, id)
	p, err := scanPageRow(row)
	if err == sql.ErrNoRows {
		return PageRow{}, fmt.Errorf("page %d: %w", id, err)
	}
	return p, err
}

// Pages returns every page in presentation order.
func (s *Store) Pages(ctx context.Context) ([]PageRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages ORDER BY order_index`)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	return collectPages(rows)
}

// PagesInStatus returns the pages currently sitting in the given stage,
// ordered by id for stable batch comparison.
func (s *Store) PagesInStatus(ctx context.Context, status scan.Status) ([]PageRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE status = ? ORDER BY page_id`,
		status.String())
	if err != nil {
		return nil, fmt.Errorf("query pages in %s: %w", status, err)
	}
	return collectPages(rows)
}

// RecognitionQueue returns pages with an outstanding recognition request:
// settled far enough in the pipeline and counter past the ready checkpoint.
func (s *Store) RecognitionQueue(ctx context.Context) ([]PageRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages
		 WHERE status IN ('Complete', 'Output') AND rec_counter > 1
		 ORDER BY page_id`)
	if err != nil {
		return nil, fmt.Errorf("query recognition queue: %w", err)
	}
	return collectPages(rows)
}

// InsertPages adds one Initial page per source locator, starting at the
// anchor page's position (after it when after is set) or at the list tail
// when anchor is 0. Later pages are shifted to keep order_index contiguous.
func (s *Store) InsertPages(ctx context.Context, sources []string, anchor int64, after bool, def PageDefaults) ([]int64, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	var ids []int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		start, err := insertStart(tx, anchor, after)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`UPDATE pages SET order_index = order_index + ? WHERE order_index >= ?`,
			len(sources), start); err != nil {
			return fmt.Errorf("offset order: %w", err)
		}
		for i, src := range sources {
			res, err := tx.Exec(`
				INSERT INTO pages
				(status, source, order_index, strong_shadows, color_profile,
				 auto_orient, paper_code, paper_orientation)
				VALUES ('Initial', ?, ?, ?, ?, ?, ?, ?)`,
				src, start+i, def.StrongShadows, def.Profile.String(),
				def.AutoOrient, def.Paper.Code(), def.PaperOrient.String())
			if err != nil {
				return fmt.Errorf("insert page: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("insert page: %w", err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func insertStart(tx *sql.Tx, anchor int64, after bool) (int, error) {
	if anchor == 0 {
		if !after {
			return 0, nil
		}
		var top int
		if err := tx.QueryRow(`SELECT COALESCE(MAX(order_index), -1) FROM pages`).Scan(&top); err != nil {
			return 0, fmt.Errorf("top order: %w", err)
		}
		return top + 1, nil
	}
	var order int
	if err := tx.QueryRow(`SELECT order_index FROM pages WHERE page_id = ?`, anchor).Scan(&order); err != nil {
		return 0, fmt.Errorf("anchor order: %w", err)
	}
	if after {
		order++
	}
	return order, nil
}

// DeletePages removes the given pages (satellite rows cascade) and compacts
// the remaining order back to 0..N-1. Orphaned artifacts are left for the GC.
func (s *Store) DeletePages(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.Exec(`DELETE FROM pages WHERE page_id = ?`, id); err != nil {
				return fmt.Errorf("delete page %d: %w", id, err)
			}
		}
		return compactOrder(tx)
	})
}

// MovePage moves page from to the position currently held by page to,
// shifting the pages in between.
func (s *Store) MovePage(ctx context.Context, from, to int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var orderTo int
		if err := tx.QueryRow(`SELECT order_index FROM pages WHERE page_id = ?`, to).Scan(&orderTo); err != nil {
			return fmt.Errorf("move target %d: %w", to, err)
		}
		if _, err := tx.Exec(
			`UPDATE pages SET order_index = order_index + 1 WHERE order_index >= ?`, orderTo); err != nil {
			return fmt.Errorf("shift order: %w", err)
		}
		if _, err := tx.Exec(
			`UPDATE pages SET order_index = ? WHERE page_id = ?`, orderTo, from); err != nil {
			return fmt.Errorf("place page %d: %w", from, err)
		}
		return compactOrder(tx)
	})
}

// ReorderPages rewrites the whole presentation order to the given id list.
// Pages not listed keep their relative order after the listed ones.
func (s *Store) ReorderPages(ctx context.Context, ids []int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i, id := range ids {
			if _, err := tx.Exec(
				`UPDATE pages SET order_index = ? WHERE page_id = ?`, i, id); err != nil {
				return fmt.Errorf("reorder page %d: %w", id, err)
			}
		}
		return compactOrder(tx)
	})
}

// compactOrder rewrites order_index to a contiguous 0..N-1 sequence keeping
// the current relative order.
func compactOrder(tx *sql.Tx) error {
	rows, err := tx.Query(`SELECT page_id FROM pages ORDER BY order_index`)
	if err != nil {
		return fmt.Errorf("compact order: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("compact order: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("compact order: %w", err)
	}
	for i, id := range ids {
		if _, err := tx.Exec(
			`UPDATE pages SET order_index = ? WHERE page_id = ? AND order_index != ?`,
			i, id, i); err != nil {
			return fmt.Errorf("compact order: %w", err)
		}
	}
	return nil
}

// ensureStatus downgrades a page to required, but only when its current
// status is strictly past it. A page that has not yet advanced that far, or
// that regressed further in the meantime, is left alone. This is what makes
// user edits safe against the racing pipeline.
func ensureStatus(tx *sql.Tx, id int64, required scan.Status) error {
	past := required.PastStatuses()
	names := make([]string, len(past))
	args := []any{required.String(), id}
	for i, st := range past {
		names[i] = "?"
		args = append(args, st.String())
	}
	_, err := tx.Exec(
		`UPDATE pages SET status = ? WHERE page_id = ? AND status IN (`+strings.Join(names, ", ")+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("ensure status %s for page %d: %w", required, id, err)
	}
	return nil
}

// EnsureStatus applies the narrowing downgrade outside a larger transaction.
func (s *Store) EnsureStatus(ctx context.Context, id int64, required scan.Status) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return ensureStatus(tx, id, required)
	})
}

// FailPage marks a page Invalid with the captured message regardless of its
// current stage.
func (s *Store) FailPage(ctx context.Context, id int64, msg string) error {
	_, err := s.exec(ctx,
		`UPDATE pages SET status = 'Invalid', error_message = ? WHERE page_id = ?`,
		msg, id)
	if err != nil {
		return fmt.Errorf("fail page %d: %w", id, err)
	}
	return nil
}

// SetCutout stores a user-supplied cutout, switches the derivation policy to
// Setup and regresses the page to Input so rectification reruns.
func (s *Store) SetCutout(ctx context.Context, id int64, cutout scan.Cutout) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`UPDATE pages SET cutout = ?, cutout_policy = ? WHERE page_id = ?`,
			scan.EncodeCutout(cutout), scan.CutoutSetup.String(), id); err != nil {
			return fmt.Errorf("set cutout for page %d: %w", id, err)
		}
		return ensureStatus(tx, id, scan.StatusInput)
	})
}

// ExpandCutout requests re-rectification with the detected cutout grown
// outward, without supplying explicit coordinates.
func (s *Store) ExpandCutout(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`UPDATE pages SET cutout_policy = ? WHERE page_id = ?`,
			scan.CutoutExpand.String(), id); err != nil {
			return fmt.Errorf("expand cutout for page %d: %w", id, err)
		}
		return ensureStatus(tx, id, scan.StatusInput)
	})
}

// SetProfile changes the color profile and regresses to Pending so the
// refine stage reruns.
func (s *Store) SetProfile(ctx context.Context, id int64, profile scan.ColorProfile) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`UPDATE pages SET color_profile = ? WHERE page_id = ?`,
			profile.String(), id); err != nil {
			return fmt.Errorf("set profile for page %d: %w", id, err)
		}
		return ensureStatus(tx, id, scan.StatusPending)
	})
}

// SetShadows toggles strong shadow suppression and regresses to Pending.
func (s *Store) SetShadows(ctx context.Context, id int64, strong bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`UPDATE pages SET strong_shadows = ? WHERE page_id = ?`, strong, id); err != nil {
			return fmt.Errorf("set shadows for page %d: %w", id, err)
		}
		return ensureStatus(tx, id, scan.StatusPending)
	})
}

// SetPaper changes the output paper and regresses to Complete so only the
// final render reruns.
func (s *Store) SetPaper(ctx context.Context, id int64, paper scan.Paper, orient scan.PaperOrientation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`UPDATE pages SET paper_code = ?, paper_orientation = ? WHERE page_id = ?`,
			paper.Code(), orient.String(), id); err != nil {
			return fmt.Errorf("set paper for page %d: %w", id, err)
		}
		return ensureStatus(tx, id, scan.StatusComplete)
	})
}

// SetOrientation rotates the page and regresses to Complete: the refined
// image stays valid, only the rendered output is stale.
func (s *Store) SetOrientation(ctx context.Context, id int64, o scan.Orientation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`UPDATE pages SET orientation = ? WHERE page_id = ?`, int(o), id); err != nil {
			return fmt.Errorf("set orientation for page %d: %w", id, err)
		}
		return ensureStatus(tx, id, scan.StatusComplete)
	})
}

// SetDetectedOrientation records an engine-detected rotation. Detection is
// switched off at the same time so the guess never overrides a later manual
// choice. No stage change: the caller applies this mid-transition.
func (s *Store) SetDetectedOrientation(ctx context.Context, id int64, o scan.Orientation) error {
	_, err := s.exec(ctx,
		`UPDATE pages SET orientation = ?, auto_orient = 0 WHERE page_id = ?`, int(o), id)
	if err != nil {
		return fmt.Errorf("set detected orientation for page %d: %w", id, err)
	}
	return nil
}

// SetAutoOrient toggles text-orientation auto-detection for future passes.
func (s *Store) SetAutoOrient(ctx context.Context, id int64, enabled bool) error {
	_, err := s.exec(ctx,
		`UPDATE pages SET auto_orient = ? WHERE page_id = ?`, enabled, id)
	if err != nil {
		return fmt.Errorf("set auto orient for page %d: %w", id, err)
	}
	return nil
}
