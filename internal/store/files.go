package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// FileRow is the metadata for one on-disk artifact.
type FileRow struct {
	ID   int64
	Path string
}

// uselessFiles selects file rows no satellite row references anymore.
const uselessFiles = `
	SELECT file_id, path FROM files WHERE file_id NOT IN (
		SELECT image_file_id FROM inputs UNION
		SELECT preview_file_id FROM inputs UNION
		SELECT image_file_id FROM originals UNION
		SELECT preview_file_id FROM originals UNION
		SELECT image_file_id FROM pendings UNION
		SELECT preview_file_id FROM pendings UNION
		SELECT image_file_id FROM completes UNION
		SELECT preview_file_id FROM completes UNION
		SELECT file_id FROM outputs
	)`

// CreateFile reserves a file id, then records the path the caller derives
// from it. The two-step shape lets artifact paths embed their own id.
func (s *Store) CreateFile(ctx context.Context, makePath func(id int64) string) (FileRow, error) {
	var row FileRow
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO files (path) VALUES ('')`)
		if err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		path := makePath(id)
		if _, err := tx.Exec(
			`UPDATE files SET path = ? WHERE file_id = ?`, path, id); err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		row = FileRow{ID: id, Path: path}
		return nil
	})
	if err != nil {
		return FileRow{}, err
	}
	return row, nil
}

// File returns the metadata row for a file id.
func (s *Store) File(ctx context.Context, id int64) (FileRow, error) {
	var row FileRow
	err := s.db.QueryRowContext(ctx,
		`SELECT file_id, path FROM files WHERE file_id = ?`, id).
		Scan(&row.ID, &row.Path)
	if err != nil {
		return FileRow{}, fmt.Errorf("file %d: %w", id, err)
	}
	return row, nil
}

// Files returns every known file row.
func (s *Store) Files(ctx context.Context) ([]FileRow, error) {
	return s.collectFiles(ctx, `SELECT file_id, path FROM files`)
}

// UselessFiles returns file rows no longer referenced by any satellite row.
func (s *Store) UselessFiles(ctx context.Context) ([]FileRow, error) {
	return s.collectFiles(ctx, uselessFiles)
}

// DeleteUselessFiles drops the metadata of unreferenced files and returns
// the paths it removed, so the caller can delete the bytes.
func (s *Store) DeleteUselessFiles(ctx context.Context) ([]string, error) {
	var paths []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.Query(uselessFiles)
		if err != nil {
			return fmt.Errorf("query useless files: %w", err)
		}
		var ids []int64
		for rows.Next() {
			var id int64
			var path string
			if err := rows.Scan(&id, &path); err != nil {
				rows.Close()
				return fmt.Errorf("scan useless file: %w", err)
			}
			ids = append(ids, id)
			paths = append(paths, path)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("query useless files: %w", err)
		}
		for _, id := range ids {
			if _, err := tx.Exec(`DELETE FROM files WHERE file_id = ?`, id); err != nil {
				return fmt.Errorf("delete file %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// ReferencedPaths returns the relative paths of every file some satellite
// row still points at.
func (s *Store) ReferencedPaths(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path FROM files WHERE file_id IN (
			SELECT image_file_id FROM inputs UNION
			SELECT preview_file_id FROM inputs UNION
			SELECT image_file_id FROM originals UNION
			SELECT preview_file_id FROM originals UNION
			SELECT image_file_id FROM pendings UNION
			SELECT preview_file_id FROM pendings UNION
			SELECT image_file_id FROM completes UNION
			SELECT preview_file_id FROM completes UNION
			SELECT file_id FROM outputs
		)`)
	if err != nil {
		return nil, fmt.Errorf("query referenced paths: %w", err)
	}
	defer rows.Close()
	paths := make(map[string]bool)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan referenced path: %w", err)
		}
		paths[p] = true
	}
	return paths, rows.Err()
}

func (s *Store) collectFiles(ctx context.Context, query string) ([]FileRow, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()
	var files []FileRow
	for rows.Next() {
		var f FileRow
		if err := rows.Scan(&f.ID, &f.Path); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// ErrNoRows re-exports the sentinel callers check for missing rows.
var ErrNoRows = sql.ErrNoRows

// IsNotFound reports whether err stems from a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
