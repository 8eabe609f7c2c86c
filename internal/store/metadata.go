package store

import (
	"sync"

	"slide-archive/internal/domain"
)

// metadataDoc is the on-disk shape of a per-archive metadata document.
type metadataDoc struct {
	Metadata map[string]domain.Metadata `json:"metadata"`
}

// MetadataStore is the persisted id→record mapping for one archive.
type MetadataStore struct {
	path string
	mu   sync.Mutex
}

// NewMetadataStore returns a store backed by the document at path.
func NewMetadataStore(path string) *MetadataStore {
	return &MetadataStore{path: path}
}

// Load reads the full document. A missing file yields an empty mapping.
func (s *MetadataStore) Load() (map[string]domain.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *MetadataStore) load() (map[string]domain.Metadata, error) {
	doc := metadataDoc{}
	if _, err := readDocument(s.path, &doc); err != nil {
		return nil, err
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]domain.Metadata)
	}
	return doc.Metadata, nil
}

// Save rewrites the full document.
func (s *MetadataStore) Save(records map[string]domain.Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(records)
}

func (s *MetadataStore) save(records map[string]domain.Metadata) error {
	return writeDocument("metadata", s.path, metadataDoc{Metadata: records})
}

// Mutate runs fn against the current records under the store lock and
// persists the result only when fn reports a change.
func (s *MetadataStore) Mutate(fn func(records map[string]domain.Metadata) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	changed, err := fn(records)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(records)
}
