package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pagemill/pagemill/internal/scan"
)

// Satellite rows, one per completed stage. File ids reference the files
// table; the rows themselves cascade away with their page.

type InputRow struct {
	PageID        int64
	ImageFileID   int64
	PreviewFileID int64

	// Orientation the source was delivered with, before the page's own
	// orientation was reset to Undefined.
	Orientation scan.Orientation

	// Cutout found by auto-detection, "" when detection found nothing.
	Cutout string
}

type StageRow struct {
	PageID        int64
	ImageFileID   int64
	PreviewFileID int64
}

type CompleteRow struct {
	StageRow
	ModifiedAt int64
}

type OutputRow struct {
	PageID        int64
	FileID        int64
	Orientation   scan.Orientation
	EstimatedSize int64
}

// PublishFunc atomically publishes the stage's artifacts. It runs inside the
// committing transaction, after the row writes succeed; returning an error
// aborts the whole transition.
type PublishFunc func() error

func noPublish() error { return nil }

func runPublish(publish PublishFunc) error {
	if publish == nil {
		publish = noPublish
	}
	return publish()
}

// advanceStatus bumps a page one stage forward, guarded on it still being in
// the source stage. The guard makes commits safe against user regressions
// racing the pipeline: a page that moved on is reported as ErrStale.
func advanceStatus(tx *sql.Tx, id int64, from scan.Status, extra string, args ...any) error {
	set := `status = ?`
	if extra != "" {
		set += ", " + extra
	}
	args = append([]any{from.Next().String()}, args...)
	args = append(args, id, from.String())
	res, err := tx.Exec(
		`UPDATE pages SET `+set+` WHERE page_id = ? AND status = ?`, args...)
	if err != nil {
		return fmt.Errorf("advance page %d from %s: %w", id, from, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance page %d from %s: %w", id, from, err)
	}
	if n == 0 {
		return fmt.Errorf("advance page %d from %s: %w", id, from, ErrStale)
	}
	return nil
}

// CommitInput records the decode result: the Input satellite row, the source
// orientation, and the page's own orientation reset to Undefined. The page
// advances Initial -> Input only if it is still Initial.
func (s *Store) CommitInput(ctx context.Context, row InputRow, publish PublishFunc) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO inputs (page_id, image_file_id, preview_file_id, orientation, cutout)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(page_id) DO UPDATE SET
				image_file_id = excluded.image_file_id,
				preview_file_id = excluded.preview_file_id,
				orientation = excluded.orientation,
				cutout = excluded.cutout`,
			row.PageID, row.ImageFileID, row.PreviewFileID, int(row.Orientation), row.Cutout,
		); err != nil {
			return fmt.Errorf("upsert input for page %d: %w", row.PageID, err)
		}
		if err := advanceStatus(tx, row.PageID, scan.StatusInitial,
			`orientation = 0, source = ''`); err != nil {
			return err
		}
		return runPublish(publish)
	})
}

// CommitOriginal records the rectification result and the cutout it used.
// The derivation policy collapses back to Reset and any recognition result
// is cleared: the text no longer matches the new crop.
func (s *Store) CommitOriginal(ctx context.Context, row StageRow, cutout string, undefined bool, publish PublishFunc) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := upsertStage(tx, "originals", row); err != nil {
			return err
		}
		if err := advanceStatus(tx, row.PageID, scan.StatusInput,
			`cutout = ?, cutout_undefined = ?, cutout_policy = ?, rec_counter = ?`,
			cutout, undefined, scan.CutoutReset.String(), scan.CounterNothing,
		); err != nil {
			return err
		}
		return runPublish(publish)
	})
}

// CommitPending promotes Original -> Pending by copying the image references.
// No artifacts are produced; the Pending row just seeds reprocessing.
func (s *Store) CommitPending(ctx context.Context, row StageRow) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := upsertStage(tx, "pendings", row); err != nil {
			return err
		}
		return advanceStatus(tx, row.PageID, scan.StatusOriginal, "")
	})
}

// CommitComplete records the refine result and re-seeds the Pending row with
// the freshly produced image, so the next parameter change reprocesses from
// it. Recognition results are cleared along with the superseded pixels.
func (s *Store) CommitComplete(ctx context.Context, row CompleteRow, publish PublishFunc) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO completes (page_id, image_file_id, preview_file_id, modified_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(page_id) DO UPDATE SET
				image_file_id = excluded.image_file_id,
				preview_file_id = excluded.preview_file_id,
				modified_at = excluded.modified_at`,
			row.PageID, row.ImageFileID, row.PreviewFileID, row.ModifiedAt,
		); err != nil {
			return fmt.Errorf("upsert complete for page %d: %w", row.PageID, err)
		}
		if err := upsertStage(tx, "pendings", row.StageRow); err != nil {
			return err
		}
		if err := advanceStatus(tx, row.PageID, scan.StatusPending,
			`rec_counter = ?`, scan.CounterNothing); err != nil {
			return err
		}
		return runPublish(publish)
	})
}

// CommitOutput records the rendered artifact and the orientation it was
// written at.
func (s *Store) CommitOutput(ctx context.Context, row OutputRow, publish PublishFunc) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO outputs (page_id, file_id, orientation, estimated_size)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(page_id) DO UPDATE SET
				file_id = excluded.file_id,
				orientation = excluded.orientation,
				estimated_size = excluded.estimated_size`,
			row.PageID, row.FileID, int(row.Orientation), row.EstimatedSize,
		); err != nil {
			return fmt.Errorf("upsert output for page %d: %w", row.PageID, err)
		}
		if err := advanceStatus(tx, row.PageID, scan.StatusComplete, ""); err != nil {
			return err
		}
		return runPublish(publish)
	})
}

func upsertStage(tx *sql.Tx, table string, row StageRow) error {
	_, err := tx.Exec(`
		INSERT INTO `+table+` (page_id, image_file_id, preview_file_id)
		VALUES (?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET
			image_file_id = excluded.image_file_id,
			preview_file_id = excluded.preview_file_id`,
		row.PageID, row.ImageFileID, row.PreviewFileID)
	if err != nil {
		return fmt.Errorf("upsert %s for page %d: %w", table, row.PageID, err)
	}
	return nil
}

// InputFor fetches the Input satellite row. sql.ErrNoRows signals the
// invariant violation of a page past Input with no row.
func (s *Store) InputFor(ctx context.Context, id int64) (InputRow, error) {
	var row InputRow
	var orientation int
	err := s.db.QueryRowContext(ctx, `
		SELECT page_id, image_file_id, preview_file_id, orientation, cutout
		FROM inputs WHERE page_id = ?`, id).
		Scan(&row.PageID, &row.ImageFileID, &row.PreviewFileID, &orientation, &row.Cutout)
	if err != nil {
		return InputRow{}, fmt.Errorf("input for page %d: %w", id, err)
	}
	row.Orientation = scan.Orientation(orientation)
	return row, nil
}

// OriginalFor fetches the Original satellite row.
func (s *Store) OriginalFor(ctx context.Context, id int64) (StageRow, error) {
	return s.stageFor(ctx, "originals", id)
}

// PendingFor fetches the Pending satellite row.
func (s *Store) PendingFor(ctx context.Context, id int64) (StageRow, error) {
	return s.stageFor(ctx, "pendings", id)
}

// CompleteFor fetches the Complete satellite row.
func (s *Store) CompleteFor(ctx context.Context, id int64) (CompleteRow, error) {
	var row CompleteRow
	err := s.db.QueryRowContext(ctx, `
		SELECT page_id, image_file_id, preview_file_id, modified_at
		FROM completes WHERE page_id = ?`, id).
		Scan(&row.PageID, &row.ImageFileID, &row.PreviewFileID, &row.ModifiedAt)
	if err != nil {
		return CompleteRow{}, fmt.Errorf("complete for page %d: %w", id, err)
	}
	return row, nil
}

// OutputFor fetches the Output satellite row.
func (s *Store) OutputFor(ctx context.Context, id int64) (OutputRow, error) {
	var row OutputRow
	var orientation int
	err := s.db.QueryRowContext(ctx, `
		SELECT page_id, file_id, orientation, estimated_size
		FROM outputs WHERE page_id = ?`, id).
		Scan(&row.PageID, &row.FileID, &orientation, &row.EstimatedSize)
	if err != nil {
		return OutputRow{}, fmt.Errorf("output for page %d: %w", id, err)
	}
	row.Orientation = scan.Orientation(orientation)
	return row, nil
}

func (s *Store) stageFor(ctx context.Context, table string, id int64) (StageRow, error) {
	var row StageRow
	err := s.db.QueryRowContext(ctx, `
		SELECT page_id, image_file_id, preview_file_id
		FROM `+table+` WHERE page_id = ?`, id).
		Scan(&row.PageID, &row.ImageFileID, &row.PreviewFileID)
	if err != nil {
		return StageRow{}, fmt.Errorf("%s for page %d: %w", table, id, err)
	}
	return row, nil
}
