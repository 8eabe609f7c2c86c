package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDisplayTitle(t *testing.T) {
	var unset Metadata
	if got := unset.DisplayTitle("trips/FB_Prado_2021_IMG_7.jpg"); got != "FB_Prado_2021_IMG_7" {
		t.Errorf("Expected filename stem, got %q", got)
	}

	var cleared Metadata
	cleared.SetTitle("")
	if got := cleared.DisplayTitle("trips/photo.jpg"); got != "" {
		t.Errorf("Expected empty title for cleared record, got %q", got)
	}

	var set Metadata
	set.SetTitle("  The Night Watch ")
	if got := set.DisplayTitle("anything.jpg"); got != "The Night Watch" {
		t.Errorf("Expected trimmed explicit title, got %q", got)
	}
}

func TestTitleProvenanceSurvivesJSON(t *testing.T) {
	var cleared Metadata
	cleared.SetTitle("")

	for _, tt := range []struct {
		name    string
		meta    Metadata
		wantNil bool
	}{
		{"unset", NewMetadata(), true},
		{"cleared", cleared, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.meta)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			var got Metadata
			if err := json.Unmarshal(raw, &got); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if (got.Title == nil) != tt.wantNil {
				t.Errorf("Title nil = %v after round-trip, want %v (json %s)",
					got.Title == nil, tt.wantNil, raw)
			}
		})
	}
}

func TestBlank(t *testing.T) {
	meta := NewMetadata()
	if !meta.Blank() {
		t.Error("Expected fresh record to be blank")
	}

	meta.SetTitle("")
	if !meta.Blank() {
		t.Error("Expected record with cleared title to still count as blank")
	}

	meta.Artist = "Rembrandt"
	if meta.Blank() {
		t.Error("Expected record with artist to be non-blank")
	}
}

func TestNormalize(t *testing.T) {
	meta := Metadata{
		Artist: "  Vermeer ",
		Year:   " 1665",
		Tags:   []string{" oil ", "oil", "Oil", "", "canvas"},
	}
	meta.Normalize()

	if meta.Artist != "Vermeer" || meta.Year != "1665" {
		t.Errorf("Expected trimmed fields, got artist=%q year=%q", meta.Artist, meta.Year)
	}
	want := []string{"oil", "Oil", "canvas"}
	if !reflect.DeepEqual(meta.Tags, want) {
		t.Errorf("Expected tags %v (case-sensitive dedupe), got %v", want, meta.Tags)
	}
}

func TestSlideRefKey(t *testing.T) {
	ref := SlideRef{Archive: "excursions", ID: "abc123"}
	if ref.Key() != "excursions:abc123" {
		t.Errorf("Expected excursions:abc123, got %s", ref.Key())
	}
}
