package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pagemill/pagemill/internal/scan"
)

// TextRow is the persisted recognition result pair.
type TextRow struct {
	PageID   int64
	Original scan.Text
	Modified scan.Text
}

// Telemetry is the transient per-page OCR progress row.
type Telemetry struct {
	PageID   int64
	Progress int    // -1 outside an active run
	Lookup   string // encoded scan.Box, "" when idle
}

// StartRecognition queues a recognition job on the page. The counter bump by
// 2 is what marks the request outstanding (and supersedes any running job,
// whose settle will fail its counter check).
func (s *Store) StartRecognition(ctx context.Context, id int64, job scan.RecognitionJob, languages string, modified scan.Text) error {
	_, err := s.exec(ctx, `
		UPDATE pages SET
			rec_job = ?,
			rec_languages = ?,
			rec_modified_text = ?,
			rec_counter = rec_counter + 2
		WHERE page_id = ?`,
		job.String(), languages, string(modified), id)
	if err != nil {
		return fmt.Errorf("start recognition for page %d: %w", id, err)
	}
	return nil
}

// EnsureRecognition reconciles the page's text presence with hasText,
// starting a Recognize or Clear job only when they disagree. Idempotent.
func (s *Store) EnsureRecognition(ctx context.Context, id int64, hasText bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var counter int
		err := tx.QueryRow(`SELECT rec_counter FROM pages WHERE page_id = ?`, id).Scan(&counter)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ensure recognition for page %d: %w", id, err)
		}
		pageHasText := counter > scan.CounterNothing
		if hasText == pageHasText {
			return nil
		}
		job := scan.JobRecognize
		if !hasText {
			job = scan.JobClear
		}
		_, err = tx.Exec(`
			UPDATE pages SET
				rec_job = ?,
				rec_languages = '',
				rec_modified_text = '',
				rec_counter = rec_counter + 2
			WHERE page_id = ?`,
			job.String(), id)
		if err != nil {
			return fmt.Errorf("ensure recognition for page %d: %w", id, err)
		}
		return nil
	})
}

// TextResult is the settle outcome of a recognition job.
type TextResult struct {
	Job scan.RecognitionJob

	// Original and Modified are applied per Job: JobRecognize writes both,
	// JobModify only Modified, JobClear wipes both, JobCancel touches
	// neither.
	Original scan.Text
	Modified scan.Text
}

// SettleRecognition applies a finished job's result and collapses the
// counter to Ready or Nothing. startCounter is the counter value captured
// when the job was taken; a mismatch at commit time means a newer request
// superseded this job and the result is discarded with ErrStale.
func (s *Store) SettleRecognition(ctx context.Context, id int64, startCounter int, result TextResult) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO texts (page_id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("seed text for page %d: %w", id, err)
		}

		var ready bool
		switch result.Job {
		case scan.JobCancel:
			// Keep the stored text; ready iff a previous run left some.
			var original string
			if err := tx.QueryRow(
				`SELECT original FROM texts WHERE page_id = ?`, id).Scan(&original); err != nil {
				return fmt.Errorf("read text for page %d: %w", id, err)
			}
			ready = scan.Text(original).Ready()
		case scan.JobClear:
			if _, err := tx.Exec(
				`UPDATE texts SET original = '', modified = '' WHERE page_id = ?`, id); err != nil {
				return fmt.Errorf("clear text for page %d: %w", id, err)
			}
			ready = false
		case scan.JobModify:
			if _, err := tx.Exec(
				`UPDATE texts SET modified = ? WHERE page_id = ?`,
				string(result.Modified), id); err != nil {
				return fmt.Errorf("modify text for page %d: %w", id, err)
			}
			ready = result.Modified.Ready()
		case scan.JobRecognize:
			if _, err := tx.Exec(
				`UPDATE texts SET original = ?, modified = ? WHERE page_id = ?`,
				string(result.Original), string(result.Modified), id); err != nil {
				return fmt.Errorf("write text for page %d: %w", id, err)
			}
			ready = result.Original.Ready()
		default:
			return fmt.Errorf("settle recognition for page %d: unknown job %v", id, result.Job)
		}

		settled := scan.SettledTask(ready)
		res, err := tx.Exec(`
			UPDATE pages SET rec_counter = ?, rec_job = ?
			WHERE page_id = ? AND rec_counter = ?`,
			settled.Counter, settled.Job.String(), id, startCounter)
		if err != nil {
			return fmt.Errorf("settle recognition for page %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("settle recognition for page %d: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("settle recognition for page %d: %w", id, ErrStale)
		}

		return resetTelemetry(tx, id)
	})
}

// TextFor returns the stored text pair. The second result is false when the
// page never had a text row.
func (s *Store) TextFor(ctx context.Context, id int64) (TextRow, bool, error) {
	var row TextRow
	var original, modified string
	err := s.db.QueryRowContext(ctx,
		`SELECT page_id, original, modified FROM texts WHERE page_id = ?`, id).
		Scan(&row.PageID, &original, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return TextRow{}, false, nil
	}
	if err != nil {
		return TextRow{}, false, fmt.Errorf("text for page %d: %w", id, err)
	}
	row.Original = scan.Text(original)
	row.Modified = scan.Text(modified)
	return row, true, nil
}

// PagesHaveText reports whether any of the pages carries recognized text or
// an outstanding recognition request.
func (s *Store) PagesHaveText(ctx context.Context, ids []int64) (bool, error) {
	for _, id := range ids {
		var counter int
		err := s.db.QueryRowContext(ctx,
			`SELECT rec_counter FROM pages WHERE page_id = ?`, id).Scan(&counter)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("text presence for page %d: %w", id, err)
		}
		if counter > scan.CounterNothing {
			return true, nil
		}
	}
	return false, nil
}

// UpdateTelemetry publishes OCR progress for UI consumption.
func (s *Store) UpdateTelemetry(ctx context.Context, t Telemetry) error {
	_, err := s.exec(ctx, `
		INSERT INTO recognitions (page_id, progress, lookup)
		VALUES (?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET
			progress = excluded.progress,
			lookup = excluded.lookup`,
		t.PageID, t.Progress, t.Lookup)
	if err != nil {
		return fmt.Errorf("telemetry for page %d: %w", t.PageID, err)
	}
	return nil
}

// ResetTelemetry clears the progress row before a run starts and after a
// task settles.
func (s *Store) ResetTelemetry(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return resetTelemetry(tx, id)
	})
}

func resetTelemetry(tx *sql.Tx, id int64) error {
	_, err := tx.Exec(`
		INSERT INTO recognitions (page_id, progress, lookup)
		VALUES (?, -1, '')
		ON CONFLICT(page_id) DO UPDATE SET progress = -1, lookup = ''`, id)
	if err != nil {
		return fmt.Errorf("reset telemetry for page %d: %w", id, err)
	}
	return nil
}

// TelemetryFor returns the current progress row, zero-valued (progress -1)
// when none exists.
func (s *Store) TelemetryFor(ctx context.Context, id int64) (Telemetry, error) {
	t := Telemetry{PageID: id, Progress: -1}
	err := s.db.QueryRowContext(ctx,
		`SELECT progress, lookup FROM recognitions WHERE page_id = ?`, id).
		Scan(&t.Progress, &t.Lookup)
	if errors.Is(err, sql.ErrNoRows) {
		return t, nil
	}
	if err != nil {
		return Telemetry{}, fmt.Errorf("telemetry for page %d: %w", id, err)
	}
	return t, nil
}
