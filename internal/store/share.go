package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pagemill/pagemill/internal/scan"
)

// ShareSessionRow is one queued export batch.
type ShareSessionRow struct {
	ID     int64
	Format scan.ShareFormat
}

// ShareItemRow is one page's membership in a session, ordered by Order.
type ShareItemRow struct {
	SessionID int64
	Order     int
	PageID    int64
}

// CreateShareSession queues an export of the given pages in the given order.
func (s *Store) CreateShareSession(ctx context.Context, format scan.ShareFormat, pageIDs ...int64) (int64, error) {
	var sessionID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`INSERT INTO share_sessions (format) VALUES (?)`, format.String())
		if err != nil {
			return fmt.Errorf("create share session: %w", err)
		}
		sessionID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("create share session: %w", err)
		}
		for i, pageID := range pageIDs {
			if _, err := tx.Exec(
				`INSERT INTO share_items (session_id, item_order, page_id) VALUES (?, ?, ?)`,
				sessionID, i, pageID); err != nil {
				return fmt.Errorf("add page %d to session %d: %w", pageID, sessionID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sessionID, nil
}

// DeleteShareSession removes a session and its items.
func (s *Store) DeleteShareSession(ctx context.Context, id int64) error {
	_, err := s.exec(ctx, `DELETE FROM share_sessions WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete share session %d: %w", id, err)
	}
	return nil
}

// PendingShareCount returns the number of a session's pages not yet
// exportable: anything short of Output, or with an outstanding recognition
// request. Zero means the session is ready.
func (s *Store) PendingShareCount(ctx context.Context, id int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM share_items
		JOIN pages ON share_items.page_id = pages.page_id
		WHERE share_items.session_id = ?
			AND (pages.status != 'Output' OR pages.rec_counter > 1)`,
		id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("pending count for session %d: %w", id, err)
	}
	return count, nil
}

// ReadyShareSessions returns sessions whose every page is in Output with no
// recognition work outstanding. Sessions with no items at all are excluded;
// they are orphans, not ready work.
func (s *Store) ReadyShareSessions(ctx context.Context) ([]ShareSessionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, format FROM share_sessions
		WHERE EXISTS (
			SELECT 1 FROM share_items WHERE share_items.session_id = share_sessions.session_id
		)
		AND NOT EXISTS (
			SELECT 1 FROM share_items
			JOIN pages ON share_items.page_id = pages.page_id
			WHERE share_items.session_id = share_sessions.session_id
				AND (pages.status != 'Output' OR pages.rec_counter > 1)
		)
		ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("query ready sessions: %w", err)
	}
	defer rows.Close()
	var sessions []ShareSessionRow
	for rows.Next() {
		var row ShareSessionRow
		var format string
		if err := rows.Scan(&row.ID, &format); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if row.Format, err = scan.ParseShareFormat(format); err != nil {
			return nil, fmt.Errorf("session %d: %w", row.ID, err)
		}
		sessions = append(sessions, row)
	}
	return sessions, rows.Err()
}

// ShareItems returns a session's items in export order.
func (s *Store) ShareItems(ctx context.Context, sessionID int64) ([]ShareItemRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, item_order, page_id FROM share_items
		WHERE session_id = ? ORDER BY item_order`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query items for session %d: %w", sessionID, err)
	}
	defer rows.Close()
	var items []ShareItemRow
	for rows.Next() {
		var it ShareItemRow
		if err := rows.Scan(&it.SessionID, &it.Order, &it.PageID); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteOrphanShareSessions sweeps sessions whose member pages were all
// independently deleted (item rows cascade with pages).
func (s *Store) DeleteOrphanShareSessions(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `
		DELETE FROM share_sessions
		WHERE NOT EXISTS (
			SELECT 1 FROM share_items WHERE share_items.session_id = share_sessions.session_id
		)`)
	if err != nil {
		return 0, fmt.Errorf("sweep orphan sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep orphan sessions: %w", err)
	}
	return n, nil
}
