// Package artifact owns the on-disk binary files the pipeline produces:
// page-scoped images under a content root, staged to a temp area first and
// atomically renamed into place only when the owning transaction commits.
package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pagemill/pagemill/internal/scan"
)

const tempDir = ".tmp"

// Store manages artifacts under a single content root. Relative paths are
// the identity the entity store records; nothing outside this package builds
// them by hand.
type Store struct {
	root  string
	cache *pictureCache
}

// New prepares the content root and its staging area.
func New(root string, cacheBytes int64) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, tempDir), 0o755); err != nil {
		return nil, fmt.Errorf("create content root: %w", err)
	}
	return &Store{root: root, cache: newPictureCache(cacheBytes)}, nil
}

// Root returns the absolute content root.
func (s *Store) Root() string { return s.root }

// PagePath builds the relative path for a page-owned artifact. The per-page
// directory keeps one page's files enumerable and lets the sweep drop the
// whole directory once the page is gone.
func PagePath(pageID, fileID int64, ext string) string {
	return filepath.Join(
		fmt.Sprintf("page-%08x", pageID),
		fmt.Sprintf("file-%d.%s", fileID, ext))
}

// Stage writes data to a not-yet-referenced temp location and returns a
// handle used to publish or discard it. A staged file is invisible to reads
// and to the sweep accounting until published.
func (s *Store) Stage(data []byte) (Staged, error) {
	name := filepath.Join(tempDir, uuid.NewString())
	abs := filepath.Join(s.root, name)
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return Staged{}, fmt.Errorf("stage artifact: %w", err)
	}
	return Staged{store: s, temp: abs}, nil
}

// Staged is a written-but-unpublished artifact.
type Staged struct {
	store *Store
	temp  string
}

// Publish renames the staged file to its final relative path, creating the
// page directory as needed. Meant to run inside the committing transaction:
// the rename is atomic, so a satellite row never references a half-written
// file.
func (st Staged) Publish(rel string) error {
	abs := filepath.Join(st.store.root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("publish %s: %w", rel, err)
	}
	if err := os.Rename(st.temp, abs); err != nil {
		return fmt.Errorf("publish %s: %w", rel, err)
	}
	st.store.cache.drop(rel)
	return nil
}

// Discard removes a staged file that will not be published.
func (st Staged) Discard() {
	os.Remove(st.temp)
}

// Read returns the raw bytes of a published artifact.
func (s *Store) Read(rel string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", rel, err)
	}
	return data, nil
}

// LoadPicture decodes a published image artifact through the in-memory
// cache. The orientation is the caller's to apply; cached pictures always
// carry Undefined.
func (s *Store) LoadPicture(rel string, decode func([]byte) (*scan.Picture, error)) (*scan.Picture, error) {
	if p, ok := s.cache.get(rel); ok {
		return p, nil
	}
	data, err := s.Read(rel)
	if err != nil {
		return nil, err
	}
	p, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", rel, err)
	}
	s.cache.put(rel, p)
	return p, nil
}

// CopyTo copies a published artifact verbatim to an absolute destination.
func (s *Store) CopyTo(rel, dst string) error {
	data, err := s.Read(rel)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("copy artifact %s: %w", rel, err)
	}
	return nil
}

// AbsPath resolves a relative artifact path against the root.
func (s *Store) AbsPath(rel string) string {
	return filepath.Join(s.root, rel)
}

// Remove deletes specific published artifacts by relative path, pruning
// their page directories when emptied. Missing files are ignored.
func (s *Store) Remove(rels []string) error {
	for _, rel := range rels {
		abs := filepath.Join(s.root, rel)
		if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove artifact %s: %w", rel, err)
		}
		s.cache.drop(rel)
		// Prune the page dir if this was its last file.
		os.Remove(filepath.Dir(abs))
	}
	return nil
}

// Sweep walks the content root and deletes every file not in referenced,
// then drops emptied page directories. The staging area is skipped: staged
// files belong to in-flight transitions. Returns the relative paths removed.
func (s *Store) Sweep(referenced map[string]bool) ([]string, error) {
	var removed []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && filepath.Base(path) == tempDir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		if referenced[rel] {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("sweep %s: %w", rel, err)
		}
		s.cache.drop(rel)
		removed = append(removed, rel)
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("sweep: %w", err)
	}

	// Second pass: drop now-empty page directories.
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return removed, fmt.Errorf("sweep: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == tempDir {
			continue
		}
		// Remove fails on non-empty directories, which is exactly the check.
		os.Remove(filepath.Join(s.root, e.Name()))
	}
	return removed, nil
}
