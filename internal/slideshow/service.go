// Package slideshow manages the named, ordered slide lists and the
// current-slideshow pointer, and resolves stored references against archive
// item sets.
package slideshow

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"slide-archive/internal/domain"
	"slide-archive/internal/store"
)

// Service applies slideshow operations to the persisted slideshow document.
type Service struct {
	store *store.SlideshowStore
}

// NewService returns a service over the given store.
func NewService(st *store.SlideshowStore) *Service {
	return &Service{store: st}
}

// Create adds a new empty slideshow and makes it current. It returns the
// generated slideshow id.
func (s *Service) Create(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled Slideshow"
	}
	id := newID()
	err := s.store.Mutate(func(doc *store.SlideshowDoc) (bool, error) {
		doc.Slideshows[id] = &store.SlideshowRecord{Name: name, Slides: []domain.SlideRef{}}
		doc.CurrentSlideshowID = id
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Rename changes a slideshow's display name.
func (s *Service) Rename(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled Slideshow"
	}
	return s.store.Mutate(func(doc *store.SlideshowDoc) (bool, error) {
		show, ok := doc.Slideshows[id]
		if !ok {
			return false, fmt.Errorf("%w: slideshow %q", domain.ErrNotFound, id)
		}
		show.Name = name
		return true, nil
	})
}

// Delete removes a slideshow. Deleting the last remaining slideshow is
// rejected with domain.ErrConflict. When the current slideshow is deleted
// the pointer is reassigned to the lexically first remaining one; the
// returned id is the current slideshow after deletion.
func (s *Service) Delete(id string) (string, error) {
	current := ""
	err := s.store.Mutate(func(doc *store.SlideshowDoc) (bool, error) {
		if _, ok := doc.Slideshows[id]; !ok {
			return false, fmt.Errorf("%w: slideshow %q", domain.ErrNotFound, id)
		}
		if len(doc.Slideshows) <= 1 {
			return false, fmt.Errorf("%w: cannot delete the only slideshow", domain.ErrConflict)
		}
		delete(doc.Slideshows, id)
		if doc.CurrentSlideshowID == id {
			doc.CurrentSlideshowID = firstID(doc.Slideshows)
		}
		current = doc.CurrentSlideshowID
		return true, nil
	})
	if err != nil {
		return "", err
	}
	return current, nil
}

// SetCurrent points the current-slideshow pointer at id.
func (s *Service) SetCurrent(id string) error {
	return s.store.Mutate(func(doc *store.SlideshowDoc) (bool, error) {
		if _, ok := doc.Slideshows[id]; !ok {
			return false, fmt.Errorf("%w: slideshow %q", domain.ErrNotFound, id)
		}
		doc.CurrentSlideshowID = id
		return true, nil
	})
}

// ReplaceOrder overwrites a slideshow's reference list wholesale, as after
// a drag-reorder. Malformed references are dropped.
func (s *Service) ReplaceOrder(id string, refs []domain.SlideRef) error {
	return s.store.Mutate(func(doc *store.SlideshowDoc) (bool, error) {
		show, ok := doc.Slideshows[id]
		if !ok {
			return false, fmt.Errorf("%w: slideshow %q", domain.ErrNotFound, id)
		}
		slides := make([]domain.SlideRef, 0, len(refs))
		for _, ref := range refs {
			ref.ID = strings.TrimSpace(ref.ID)
			if ref.ID == "" {
				continue
			}
			slides = append(slides, ref)
		}
		show.Slides = slides
		return true, nil
	})
}

// Toggle adds or removes a single reference. Adding a duplicate and
// removing an absent reference are both no-ops.
func (s *Service) Toggle(id string, ref domain.SlideRef, selected bool) error {
	return s.store.Mutate(func(doc *store.SlideshowDoc) (bool, error) {
		show, ok := doc.Slideshows[id]
		if !ok {
			return false, fmt.Errorf("%w: slideshow %q", domain.ErrNotFound, id)
		}
		next := make([]domain.SlideRef, 0, len(show.Slides)+1)
		for _, existing := range show.Slides {
			if existing == ref {
				continue
			}
			next = append(next, existing)
		}
		if selected {
			next = append(next, ref)
		}
		changed := len(next) != len(show.Slides)
		show.Slides = next
		return changed, nil
	})
}

// RemoveEverywhere strips a reference from every slideshow and returns the
// number of slides removed. Used when an item is purged.
func (s *Service) RemoveEverywhere(ref domain.SlideRef) (int, error) {
	removed := 0
	err := s.store.Mutate(func(doc *store.SlideshowDoc) (bool, error) {
		for _, show := range doc.Slideshows {
			kept := show.Slides[:0]
			for _, existing := range show.Slides {
				if existing == ref {
					removed++
					continue
				}
				kept = append(kept, existing)
			}
			show.Slides = kept
		}
		return removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// firstID returns the lexically smallest slideshow id.
func firstID(shows map[string]*store.SlideshowRecord) string {
	first := ""
	for id := range shows {
		if first == "" || id < first {
			first = id
		}
	}
	return first
}

// newID generates a slideshow id from the creation time plus a short random
// suffix, e.g. "ss_mf0q3k2p_x1c9ab".
func newID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return "ss_" + strconv.FormatInt(time.Now().UnixMilli(), 36) + "_" + string(suffix)
}
