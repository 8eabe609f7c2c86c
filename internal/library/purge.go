package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"slide-archive/internal/archive"
	"slide-archive/internal/domain"
	"slide-archive/internal/identity"
	"slide-archive/internal/logging"
)

// Purge removes an item from the live archive while preserving full
// provenance: the file moves into the purge directory under a
// collision-safe name, the metadata record is deleted, every slideshow
// reference to the item is stripped, the cached thumbnail is dropped and a
// record is appended to the purge log.
//
// override, when non-nil, is snapshotted into the log instead of the last
// persisted metadata (the caller's in-memory edit may be newer than the
// last save). Returns the log record and the number of slideshow slides
// removed.
func (l *Library) Purge(a *archive.Archive, id string, override *domain.Metadata) (*domain.PurgedRecord, int, error) {
	relPath, err := identity.Decode(id)
	if err != nil {
		return nil, 0, err
	}
	absSource, ok := a.SafeJoin(relPath)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrNotFound, relPath)
	}
	if _, err := os.Stat(absSource); err != nil {
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrNotFound, relPath)
	}

	purgedRelPath := uniqueRelPath(a.PurgedDir, relPath)
	absDest := filepath.Join(a.PurgedDir, filepath.FromSlash(purgedRelPath))
	if err := os.MkdirAll(filepath.Dir(absDest), 0o755); err != nil {
		return nil, 0, fmt.Errorf("prepare purge destination: %w", err)
	}
	if err := moveFile(absSource, absDest); err != nil {
		return nil, 0, fmt.Errorf("move %s to purge directory: %w", relPath, err)
	}

	snapshot := domain.NewMetadata()
	metaStore := l.metaStores[a.Key]
	err = metaStore.Mutate(func(records map[string]domain.Metadata) (bool, error) {
		if known, ok := records[id]; ok {
			snapshot = known
		}
		delete(records, id)
		return true, nil
	})
	if err != nil {
		return nil, 0, err
	}
	if override != nil {
		snapshot = *override
	}
	snapshot.Normalize()
	if snapshot.Tags == nil {
		snapshot.Tags = []string{}
	}

	removed, err := l.shows.RemoveEverywhere(domain.SlideRef{Archive: a.Key, ID: id})
	if err != nil {
		return nil, 0, err
	}

	l.thumbs.Remove(a, relPath)

	rec := domain.PurgedRecord{
		ID:              id,
		OriginalRelPath: relPath,
		PurgedRelPath:   purgedRelPath,
		PurgedAt:        time.Now().UTC(),
		Metadata:        snapshot,
	}
	if err := l.purgeLogs[a.Key].Append(rec); err != nil {
		return nil, 0, err
	}

	logging.Info("library: purged %s/%s (removed from %d slides)", a.Key, relPath, removed)
	return &rec, removed, nil
}

// uniqueRelPath returns relPath, or relPath with "-2", "-3", ... appended
// before the extension, whichever is first free under rootDir.
func uniqueRelPath(rootDir, relPath string) string {
	ext := path.Ext(relPath)
	stem := strings.TrimSuffix(relPath, ext)
	next := relPath
	for index := 1; ; index++ {
		if index > 1 {
			next = fmt.Sprintf("%s-%d%s", stem, index, ext)
		}
		if _, err := os.Stat(filepath.Join(rootDir, filepath.FromSlash(next))); os.IsNotExist(err) {
			return next
		}
	}
}

// moveFile renames from to to, falling back to copy-then-delete when the
// rename crosses filesystems.
func moveFile(from, to string) error {
	err := os.Rename(from, to)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(to)
		return err
	}
	if err := dst.Close(); err != nil {
		os.Remove(to)
		return err
	}
	return os.Remove(from)
}
