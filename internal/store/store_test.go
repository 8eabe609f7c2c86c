package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slide-archive/internal/domain"
)

func TestMetadataStoreMissingFile(t *testing.T) {
	s := NewMetadataStore(filepath.Join(t.TempDir(), "archive.json"))
	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load of missing file failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty records, got %v", records)
	}
}

func TestMetadataStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")
	s := NewMetadataStore(path)

	meta := domain.NewMetadata()
	meta.SetTitle("Sunset")
	meta.Artist = "Unknown"
	meta.Tags = []string{"beach"}

	if err := s.Save(map[string]domain.Metadata{"id1": meta}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	records, err := NewMetadataStore(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, ok := records["id1"]
	if !ok {
		t.Fatal("Expected id1 in loaded records")
	}
	if got.Title == nil || *got.Title != "Sunset" || got.Artist != "Unknown" {
		t.Errorf("Loaded record mismatch: %+v", got)
	}
}

func TestMetadataStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := NewMetadataStore(path).Load(); err == nil {
		t.Error("Expected error for corrupt document")
	}
}

func TestMetadataStoreMutateSkipsUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")
	s := NewMetadataStore(path)

	err := s.Mutate(func(records map[string]domain.Metadata) (bool, error) {
		return false, nil
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected no document written for an unchanged mutation")
	}

	err = s.Mutate(func(records map[string]domain.Metadata) (bool, error) {
		records["id1"] = domain.NewMetadata()
		return true, nil
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected document after changed mutation: %v", err)
	}
}

func TestSlideshowStoreSeedsDefault(t *testing.T) {
	s := NewSlideshowStore(filepath.Join(t.TempDir(), "slideshows.json"), nil)

	doc, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	show, ok := doc.Slideshows[DefaultSlideshowID]
	if !ok {
		t.Fatalf("Expected default slideshow, got %v", doc.Slideshows)
	}
	if show.Name != "Current Slideshow" {
		t.Errorf("Expected default name, got %q", show.Name)
	}
	if doc.CurrentSlideshowID != DefaultSlideshowID {
		t.Errorf("Expected current pointer at default, got %q", doc.CurrentSlideshowID)
	}
}

func TestSlideshowStoreNormalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slideshows.json")
	raw := map[string]any{
		"slideshows": map[string]any{
			"b_show": map[string]any{
				"name": "  ",
				"slides": []map[string]string{
					{"archive": "ghost", "id": "ref1"},
					{"archive": "slide_library", "id": "  "},
					{"archive": "excursions", "id": "ref2"},
				},
			},
			"a_show": map[string]any{"name": "First", "slides": []any{}},
		},
		"currentSlideshowId": "vanished",
	}
	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	canonical := func(key string) string {
		if key == "slide_library" || key == "excursions" {
			return key
		}
		return "slide_library"
	}
	doc, err := NewSlideshowStore(path, canonical).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if doc.CurrentSlideshowID != "a_show" {
		t.Errorf("Expected dangling pointer repaired to lexically first, got %q", doc.CurrentSlideshowID)
	}

	b := doc.Slideshows["b_show"]
	if b.Name != "Untitled Slideshow" {
		t.Errorf("Expected blank name replaced, got %q", b.Name)
	}
	if len(b.Slides) != 2 {
		t.Fatalf("Expected empty-id reference dropped, got %v", b.Slides)
	}
	if b.Slides[0].Archive != "slide_library" {
		t.Errorf("Expected unknown archive folded to default, got %q", b.Slides[0].Archive)
	}
	if b.Slides[1].Archive != "excursions" || b.Slides[1].ID != "ref2" {
		t.Errorf("Expected known reference kept intact, got %+v", b.Slides[1])
	}
}

func TestPurgeLogAppend(t *testing.T) {
	l := NewPurgeLog(filepath.Join(t.TempDir(), "purged.json"))

	records, err := l.Records()
	if err != nil {
		t.Fatalf("Records on missing file failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty log, got %v", records)
	}

	for _, id := range []string{"one", "two"} {
		if err := l.Append(domain.PurgedRecord{ID: id, OriginalRelPath: id + ".jpg"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	records, err = l.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 2 || records[0].ID != "one" || records[1].ID != "two" {
		t.Errorf("Expected append-only order [one two], got %v", records)
	}
}
