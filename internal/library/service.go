// Package library keeps the on-disk archives, their metadata stores and the
// thumbnail cache mutually consistent, and assembles the display-ready
// state consumed by the presentation layer and the export engine.
package library

import (
	"errors"
	"fmt"
	"os"
	"time"

	"slide-archive/internal/archive"
	"slide-archive/internal/domain"
	"slide-archive/internal/identity"
	"slide-archive/internal/logging"
	"slide-archive/internal/metrics"
	"slide-archive/internal/slideshow"
	"slide-archive/internal/store"
	"slide-archive/internal/thumbs"
)

// Library is the single-writer service coordinating archives, stores,
// thumbnails and slideshows.
type Library struct {
	registry   *archive.Registry
	thumbs     *thumbs.Cache
	slideStore *store.SlideshowStore
	shows      *slideshow.Service
	bundleDir  string

	metaStores map[string]*store.MetadataStore
	purgeLogs  map[string]*store.PurgeLog
}

// New wires a library over the configured archives.
func New(reg *archive.Registry, cache *thumbs.Cache, slideStore *store.SlideshowStore, shows *slideshow.Service, bundleDir string) *Library {
	l := &Library{
		registry:   reg,
		thumbs:     cache,
		slideStore: slideStore,
		shows:      shows,
		bundleDir:  bundleDir,
		metaStores: make(map[string]*store.MetadataStore),
		purgeLogs:  make(map[string]*store.PurgeLog),
	}
	for _, a := range reg.All() {
		l.metaStores[a.Key] = store.NewMetadataStore(a.DBFile)
		l.purgeLogs[a.Key] = store.NewPurgeLog(a.PurgedDBFile)
	}
	return l
}

// Bootstrap creates every archive's directory layout and seeds missing
// store documents, so first reads find well-formed files on disk.
func (l *Library) Bootstrap() error {
	for _, a := range l.registry.All() {
		if err := a.EnsureDirs(); err != nil {
			return fmt.Errorf("prepare archive %s: %w", a.Key, err)
		}
		if _, err := os.Stat(a.DBFile); errors.Is(err, os.ErrNotExist) {
			if err := l.metaStores[a.Key].Save(map[string]domain.Metadata{}); err != nil {
				return err
			}
		}
	}

	if _, err := os.Stat(l.slideStore.Path()); errors.Is(err, os.ErrNotExist) {
		doc, err := l.slideStore.Load()
		if err != nil {
			return err
		}
		return l.slideStore.Save(doc)
	}
	return nil
}

// MetadataStore returns the metadata store for an archive.
func (l *Library) MetadataStore(a *archive.Archive) *store.MetadataStore {
	return l.metaStores[a.Key]
}

// PurgeLog returns the purge log for an archive.
func (l *Library) PurgeLog(a *archive.Archive) *store.PurgeLog {
	return l.purgeLogs[a.Key]
}

// Reconcile scans an archive root and brings its metadata store in line
// with what is actually on disk: new files receive default records, records
// for vanished files are pruned, blank records may adopt field-bundle
// metadata. The store is only rewritten when something changed, so running
// Reconcile twice in a row is a no-op. Files themselves are never touched.
//
// It returns the scanned relative paths (in walk order) and the resulting
// records.
func (l *Library) Reconcile(a *archive.Archive) ([]string, map[string]domain.Metadata, error) {
	start := time.Now()
	relFiles, err := a.Scan()
	metrics.ScanDuration.WithLabelValues(a.Key).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ScansTotal.WithLabelValues(a.Key, "error").Inc()
		return nil, nil, fmt.Errorf("scan %s: %w", a.Key, err)
	}
	metrics.ScansTotal.WithLabelValues(a.Key, "success").Inc()

	var catalog bundleCatalog
	if a.AdoptBundles {
		catalog = loadBundleCatalog(l.bundleDir)
	}

	var result map[string]domain.Metadata
	err = l.metaStores[a.Key].Mutate(func(records map[string]domain.Metadata) (bool, error) {
		changed := false

		for _, relPath := range relFiles {
			id := identity.Encode(relPath)
			rec, exists := records[id]
			if !exists {
				rec = domain.NewMetadata()
				records[id] = rec
				changed = true
				metrics.ReconcileChangesTotal.WithLabelValues(a.Key, "added").Inc()
			}
			if a.AdoptBundles && rec.Blank() {
				if adopted, ok := catalog.metadataFor(relPath); ok {
					records[id] = adopted
					changed = true
					metrics.ReconcileChangesTotal.WithLabelValues(a.Key, "adopted").Inc()
					logging.Debug("library: adopted bundle metadata for %s/%s", a.Key, relPath)
				}
			}
		}

		for id := range records {
			relPath, err := identity.Decode(id)
			if err == nil {
				if abs, ok := a.SafeJoin(relPath); ok {
					if _, statErr := os.Stat(abs); statErr == nil {
						continue
					}
				}
			}
			delete(records, id)
			changed = true
			metrics.ReconcileChangesTotal.WithLabelValues(a.Key, "pruned").Inc()
		}

		result = records
		return changed, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return relFiles, result, nil
}

// Update replaces an item's metadata record. The item must still exist on
// disk; otherwise the update fails with domain.ErrNotFound.
func (l *Library) Update(a *archive.Archive, id string, meta domain.Metadata) error {
	relPath, err := identity.Decode(id)
	if err != nil {
		return err
	}
	abs, ok := a.SafeJoin(relPath)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, relPath)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, relPath)
	}

	meta.Normalize()
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	return l.metaStores[a.Key].Mutate(func(records map[string]domain.Metadata) (bool, error) {
		records[id] = meta
		return true, nil
	})
}
