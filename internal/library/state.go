package library

import (
	"net/url"
	"os"
	"strings"

	"slide-archive/internal/archive"
	"slide-archive/internal/domain"
	"slide-archive/internal/identity"
	"slide-archive/internal/logging"
	"slide-archive/internal/slideshow"
)

// BuildState reconciles the active archive and produces the full display
// view: its items, every slideshow resolved against the item sets of every
// archive it references, and the shared slide-item lookup.
func (l *Library) BuildState(active *archive.Archive) (*domain.State, error) {
	items, byID, err := l.itemsFor(active)
	if err != nil {
		return nil, err
	}

	doc, err := l.slideStore.Load()
	if err != nil {
		return nil, err
	}

	itemsByArchive := map[string]map[string]domain.Item{active.Key: byID}

	// Slideshows may reference items outside the active archive; load the
	// item sets of every archive they touch.
	for _, show := range doc.Slideshows {
		for _, ref := range show.Slides {
			if _, loaded := itemsByArchive[ref.Archive]; loaded {
				continue
			}
			other, ok := l.registry.Lookup(ref.Archive)
			if !ok {
				continue
			}
			_, otherByID, err := l.itemsFor(other)
			if err != nil {
				return nil, err
			}
			itemsByArchive[other.Key] = otherByID
		}
	}

	shows, slideItems := slideshow.Resolve(doc, itemsByArchive)

	var infos []domain.ArchiveInfo
	for _, a := range l.registry.All() {
		infos = append(infos, domain.ArchiveInfo{Key: a.Key, Label: a.Label})
	}

	return &domain.State{
		ActiveArchive:      active.Key,
		Archives:           infos,
		Items:              items,
		SlideItems:         slideItems,
		Slideshows:         shows,
		CurrentSlideshowID: doc.CurrentSlideshowID,
		LibraryPath:        active.LibraryDir,
	}, nil
}

// itemsFor reconciles one archive and builds its display items in scan
// order. A file that disappears between scan and stat is skipped rather
// than failing the whole read.
func (l *Library) itemsFor(a *archive.Archive) ([]domain.Item, map[string]domain.Item, error) {
	relFiles, records, err := l.Reconcile(a)
	if err != nil {
		return nil, nil, err
	}

	items := make([]domain.Item, 0, len(relFiles))
	byID := make(map[string]domain.Item, len(relFiles))

	for _, relPath := range relFiles {
		abs, ok := a.SafeJoin(relPath)
		if !ok {
			continue
		}
		st, err := os.Stat(abs)
		if err != nil {
			logging.Debug("library: skipping %s/%s: %v", a.Key, relPath, err)
			continue
		}

		id := identity.Encode(relPath)
		meta := records[id]

		item := domain.Item{
			ID:         id,
			Archive:    a.Key,
			RelPath:    relPath,
			URL:        libraryURL(a, relPath),
			ThumbURL:   l.thumbs.URL(a, relPath, st.ModTime()),
			Title:      meta.DisplayTitle(relPath),
			Artist:     meta.Artist,
			Year:       meta.Year,
			Medium:     meta.Medium,
			Gallery:    meta.Gallery,
			Size:       meta.Size,
			Tags:       meta.Tags,
			SourceName: relPath,
			ModTime:    st.ModTime(),
		}
		if item.Tags == nil {
			item.Tags = []string{}
		}
		items = append(items, item)
		byID[id] = item
	}

	return items, byID, nil
}

// libraryURL builds the serveable path for an item, escaping each path
// segment while keeping the separators.
func libraryURL(a *archive.Archive, relPath string) string {
	segments := strings.Split(relPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "/library/" + a.Key + "/" + strings.Join(segments, "/")
}
