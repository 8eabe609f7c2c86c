package domain

import (
	"path"
	"strings"
	"time"
)

// Metadata is the persisted, user-editable record for one archive item.
//
// Title is a pointer so that "never set" (nil, display falls back to the
// filename stem) survives round-trips distinctly from "deliberately cleared"
// (non-nil empty string).
type Metadata struct {
	Title   *string  `json:"title,omitempty"`
	Artist  string   `json:"artist"`
	Year    string   `json:"year"`
	Medium  string   `json:"medium"`
	Gallery string   `json:"gallery"`
	Size    string   `json:"size"`
	Tags    []string `json:"tags"`
}

// NewMetadata returns the default record written when a file is first
// discovered. The title is left unset so the display name stays derived
// from the filename until the user edits it.
func NewMetadata() Metadata {
	return Metadata{Tags: []string{}}
}

// SetTitle marks the title as explicitly set, even when value is empty.
func (m *Metadata) SetTitle(value string) {
	v := strings.TrimSpace(value)
	m.Title = &v
}

// DisplayTitle returns the explicit title if one was ever stored, otherwise
// the filename stem of relPath.
func (m Metadata) DisplayTitle(relPath string) string {
	if m.Title != nil {
		return strings.TrimSpace(*m.Title)
	}
	base := path.Base(relPath)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Blank reports whether the record carries no user-entered data at all.
func (m Metadata) Blank() bool {
	if m.Title != nil && strings.TrimSpace(*m.Title) != "" {
		return false
	}
	return m.Artist == "" && m.Year == "" && m.Medium == "" &&
		m.Gallery == "" && m.Size == "" && len(m.Tags) == 0
}

// Normalize trims all string fields, drops empty tags and deduplicates the
// rest case-sensitively. Case-insensitive folding is a presentation concern
// and deliberately not applied here.
func (m *Metadata) Normalize() {
	if m.Title != nil {
		m.SetTitle(*m.Title)
	}
	m.Artist = strings.TrimSpace(m.Artist)
	m.Year = strings.TrimSpace(m.Year)
	m.Medium = strings.TrimSpace(m.Medium)
	m.Gallery = strings.TrimSpace(m.Gallery)
	m.Size = strings.TrimSpace(m.Size)

	seen := make(map[string]bool, len(m.Tags))
	tags := make([]string, 0, len(m.Tags))
	for _, tag := range m.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	m.Tags = tags
}

// Item is one discovered image file together with its display-ready metadata.
type Item struct {
	ID         string    `json:"id"`
	Archive    string    `json:"archive"`
	RelPath    string    `json:"relPath"`
	URL        string    `json:"url"`
	ThumbURL   string    `json:"thumbUrl"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	Year       string    `json:"year"`
	Medium     string    `json:"medium"`
	Gallery    string    `json:"gallery"`
	Size       string    `json:"size"`
	Tags       []string  `json:"tags"`
	SourceName string    `json:"sourceName"`
	ModTime    time.Time `json:"modTime"`
}

// SlideRef identifies one slide as an (archive, item id) pair. A reference
// may point into an archive other than the currently active one.
type SlideRef struct {
	Archive string `json:"archive"`
	ID      string `json:"id"`
}

// Key returns the map key used for cross-archive slide lookups.
func (r SlideRef) Key() string {
	return r.Archive + ":" + r.ID
}

// Slideshow is a named ordered list of slide references. In a resolved view
// the Slides list contains only references whose target item still exists.
type Slideshow struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Slides []SlideRef `json:"slides"`
}

// PurgedRecord is the append-only provenance entry written when an item is
// purged from its archive.
type PurgedRecord struct {
	ID              string    `json:"id"`
	OriginalRelPath string    `json:"originalRelPath"`
	PurgedRelPath   string    `json:"purgedRelPath"`
	PurgedAt        time.Time `json:"purgedAt"`
	Metadata        Metadata  `json:"metadata"`
}

// ArchiveInfo is the display descriptor for one configured archive.
type ArchiveInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// State is the full display-ready view of one archive plus every slideshow,
// produced by a reconciling state read.
type State struct {
	ActiveArchive      string          `json:"activeArchive"`
	Archives           []ArchiveInfo   `json:"archives"`
	Items              []Item          `json:"items"`
	SlideItems         map[string]Item `json:"slideItems"`
	Slideshows         []Slideshow     `json:"slideshows"`
	CurrentSlideshowID string          `json:"currentSlideshowId"`
	LibraryPath        string          `json:"libraryPath"`
}
