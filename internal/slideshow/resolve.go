package slideshow

import (
	"sort"

	"slide-archive/internal/domain"
	"slide-archive/internal/store"
)

// Resolve produces the display view of every slideshow: each reference list
// filtered down to targets that still exist in their owning archive's item
// set. The persisted document is never mutated here; a reference whose file
// reappears later is picked back up on the next reconcile.
//
// The second return value maps SlideRef keys to the resolved items, shared
// across slideshows.
func Resolve(doc *store.SlideshowDoc, itemsByArchive map[string]map[string]domain.Item) ([]domain.Slideshow, map[string]domain.Item) {
	ids := make([]string, 0, len(doc.Slideshows))
	for id := range doc.Slideshows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	shows := make([]domain.Slideshow, 0, len(ids))
	slideItems := make(map[string]domain.Item)

	for _, id := range ids {
		rec := doc.Slideshows[id]
		resolved := make([]domain.SlideRef, 0, len(rec.Slides))
		for _, ref := range rec.Slides {
			item, ok := itemsByArchive[ref.Archive][ref.ID]
			if !ok {
				continue
			}
			resolved = append(resolved, ref)
			if _, seen := slideItems[ref.Key()]; !seen {
				slideItems[ref.Key()] = item
			}
		}
		shows = append(shows, domain.Slideshow{ID: id, Name: rec.Name, Slides: resolved})
	}
	return shows, slideItems
}
