package store

import (
	"strings"
	"sync"

	"slide-archive/internal/domain"
)

// DefaultSlideshowID is the id of the slideshow seeded into an empty store.
const DefaultSlideshowID = "default"

// defaultSlideshowName names the seeded slideshow.
const defaultSlideshowName = "Current Slideshow"

// SlideshowRecord is the persisted form of one slideshow (the id is the
// document key).
type SlideshowRecord struct {
	Name   string            `json:"name"`
	Slides []domain.SlideRef `json:"slides"`
}

// SlideshowDoc is the global slideshow document: every slideshow plus the
// current-slideshow pointer.
type SlideshowDoc struct {
	Slideshows         map[string]*SlideshowRecord `json:"slideshows"`
	CurrentSlideshowID string                      `json:"currentSlideshowId"`
}

// SlideshowStore persists the global slideshow document. Reads always return
// a normalized document: at least one slideshow exists and the current
// pointer resolves to one of them.
type SlideshowStore struct {
	path string
	mu   sync.Mutex

	// canonicalKey maps a stored archive key to a configured one, folding
	// references to unknown archives onto the default archive.
	canonicalKey func(string) string
}

// NewSlideshowStore returns a store backed by the document at path.
// canonicalKey normalizes archive keys of loaded references.
func NewSlideshowStore(path string, canonicalKey func(string) string) *SlideshowStore {
	if canonicalKey == nil {
		canonicalKey = func(key string) string { return key }
	}
	return &SlideshowStore{path: path, canonicalKey: canonicalKey}
}

// Path returns the document's file path.
func (s *SlideshowStore) Path() string {
	return s.path
}

// Load reads and normalizes the full document.
func (s *SlideshowStore) Load() (*SlideshowDoc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *SlideshowStore) load() (*SlideshowDoc, error) {
	doc := &SlideshowDoc{}
	if _, err := readDocument(s.path, doc); err != nil {
		return nil, err
	}
	s.normalize(doc)
	return doc, nil
}

// Save rewrites the full document.
func (s *SlideshowStore) Save(doc *SlideshowDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(doc)
}

func (s *SlideshowStore) save(doc *SlideshowDoc) error {
	return writeDocument("slideshows", s.path, doc)
}

// Mutate runs fn against the normalized document under the store lock and
// persists the result only when fn reports a change.
func (s *SlideshowStore) Mutate(fn func(doc *SlideshowDoc) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(doc)
}

// normalize repairs a loaded document: drops malformed references, fills
// empty names, guarantees at least one slideshow and re-points a dangling
// current pointer at an existing one.
func (s *SlideshowStore) normalize(doc *SlideshowDoc) {
	if doc.Slideshows == nil {
		doc.Slideshows = make(map[string]*SlideshowRecord)
	}
	for id, show := range doc.Slideshows {
		if show == nil {
			delete(doc.Slideshows, id)
			continue
		}
		show.Name = strings.TrimSpace(show.Name)
		if show.Name == "" {
			show.Name = "Untitled Slideshow"
		}
		slides := make([]domain.SlideRef, 0, len(show.Slides))
		for _, ref := range show.Slides {
			refID := strings.TrimSpace(ref.ID)
			if refID == "" {
				continue
			}
			slides = append(slides, domain.SlideRef{
				Archive: s.canonicalKey(ref.Archive),
				ID:      refID,
			})
		}
		show.Slides = slides
	}

	if len(doc.Slideshows) == 0 {
		doc.Slideshows[DefaultSlideshowID] = &SlideshowRecord{
			Name:   defaultSlideshowName,
			Slides: []domain.SlideRef{},
		}
	}

	if _, ok := doc.Slideshows[strings.TrimSpace(doc.CurrentSlideshowID)]; !ok {
		doc.CurrentSlideshowID = firstSlideshowID(doc.Slideshows)
	} else {
		doc.CurrentSlideshowID = strings.TrimSpace(doc.CurrentSlideshowID)
	}
}

// firstSlideshowID returns the lexically smallest slideshow id, making
// pointer reassignment deterministic.
func firstSlideshowID(shows map[string]*SlideshowRecord) string {
	first := ""
	for id := range shows {
		if first == "" || id < first {
			first = id
		}
	}
	return first
}
