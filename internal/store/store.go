// Package store persists the archive's document stores: per-archive
// metadata, the global slideshow index and the per-archive purge log.
//
// Each store is a plain JSON document read fully on each access, mutated in
// memory and rewritten fully. A per-store mutex serializes writers within
// this process; there is no multi-process coordination (single-operator
// tool). Writes go through a temp file and rename so a document is replaced
// all-or-nothing.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"slide-archive/internal/metrics"
)

// readDocument unmarshals the JSON document at path into v. A missing file
// leaves v untouched and returns false; read and parse failures propagate,
// since silently dropping a store is worse than failing loudly.
func readDocument(path string, v interface{}) (bool, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// writeDocument marshals v and atomically replaces the document at path.
func writeDocument(name, path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		metrics.StoreWritesTotal.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	raw = append(raw, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		metrics.StoreWritesTotal.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("write %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		metrics.StoreWritesTotal.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		metrics.StoreWritesTotal.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		metrics.StoreWritesTotal.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		metrics.StoreWritesTotal.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("write %s: %w", path, err)
	}
	metrics.StoreWritesTotal.WithLabelValues(name, "success").Inc()
	return nil
}
