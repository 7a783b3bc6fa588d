package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CheckPages sets the check mark on the given pages for one named view.
func (s *Store) CheckPages(ctx context.Context, representative string, checked bool, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.Exec(`
				INSERT INTO checks (page_id, representative, checked)
				VALUES (?, ?, ?)
				ON CONFLICT(page_id, representative) DO UPDATE SET checked = excluded.checked`,
				id, representative, checked); err != nil {
				return fmt.Errorf("check page %d: %w", id, err)
			}
		}
		return nil
	})
}

// CheckAllPages sets every page's check mark for one named view.
func (s *Store) CheckAllPages(ctx context.Context, representative string, checked bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO checks (page_id, representative, checked)
			SELECT page_id, ?, ? FROM pages
			ON CONFLICT(page_id, representative) DO UPDATE SET checked = excluded.checked`,
			representative, checked); err != nil {
			return fmt.Errorf("check all pages: %w", err)
		}
		return nil
	})
}

// CheckedPages returns the checked page ids for one view, in presentation
// order.
func (s *Store) CheckedPages(ctx context.Context, representative string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pages.page_id FROM checks
		JOIN pages ON checks.page_id = pages.page_id
		WHERE checks.representative = ? AND checks.checked != 0
		ORDER BY pages.order_index`, representative)
	if err != nil {
		return nil, fmt.Errorf("query checked pages: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan checked page: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteCheckedPages removes every checked page for one view and compacts
// the order.
func (s *Store) DeleteCheckedPages(ctx context.Context, representative string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			DELETE FROM pages WHERE page_id IN (
				SELECT page_id FROM checks
				WHERE representative = ? AND checked != 0
			)`, representative); err != nil {
			return fmt.Errorf("delete checked pages: %w", err)
		}
		return compactOrder(tx)
	})
}
