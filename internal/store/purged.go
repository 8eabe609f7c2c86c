package store

import (
	"sync"

	"slide-archive/internal/domain"
)

// purgedDoc is the on-disk shape of a per-archive purge log.
type purgedDoc struct {
	Items []domain.PurgedRecord `json:"items"`
}

// PurgeLog is the append-only provenance log of purged items for one
// archive.
type PurgeLog struct {
	path string
	mu   sync.Mutex
}

// NewPurgeLog returns a log backed by the document at path.
func NewPurgeLog(path string) *PurgeLog {
	return &PurgeLog{path: path}
}

// Records returns every purge record in append order.
func (l *PurgeLog) Records() ([]domain.PurgedRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc := purgedDoc{}
	if _, err := readDocument(l.path, &doc); err != nil {
		return nil, err
	}
	return doc.Items, nil
}

// Append adds one record to the log.
func (l *PurgeLog) Append(rec domain.PurgedRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc := purgedDoc{}
	if _, err := readDocument(l.path, &doc); err != nil {
		return err
	}
	doc.Items = append(doc.Items, rec)
	return writeDocument("purged", l.path, doc)
}
