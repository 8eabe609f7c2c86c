package library

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"slide-archive/internal/domain"
	"slide-archive/internal/logging"
)

// Field bundles are JSON catalogs of photo metadata dropped next to the
// archive (one file per excursion). During reconciliation a still-blank
// record may adopt the bundle entry matching its filename, so bulk imports
// arrive pre-captioned without overwriting anything a user typed.

// bundleFields mirrors one catalog entry. The id may appear under several
// historical key names.
type bundleFields struct {
	ID       string `json:"id"`
	ImageID  string `json:"imageId"`
	PhotoID  string `json:"photoId"`
	FileID   string `json:"fileId"`
	Filename string `json:"filename"`
	FileName string `json:"fileName"`

	Title   string   `json:"title"`
	Artist  string   `json:"artist"`
	Year    string   `json:"year"`
	Medium  string   `json:"medium"`
	Gallery string   `json:"gallery"`
	Size    string   `json:"size"`
	Tags    []string `json:"tags"`
}

func (f bundleFields) entryID() string {
	for _, candidate := range []string{f.ID, f.ImageID, f.PhotoID, f.FileID, f.Filename, f.FileName} {
		if id := strings.TrimSpace(candidate); id != "" {
			return id
		}
	}
	return ""
}

func (f bundleFields) metadata() domain.Metadata {
	meta := domain.NewMetadata()
	meta.SetTitle(f.Title)
	meta.Artist = f.Artist
	meta.Year = f.Year
	meta.Medium = f.Medium
	meta.Gallery = f.Gallery
	meta.Size = f.Size
	meta.Tags = f.Tags
	meta.Normalize()
	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	return meta
}

type bundle struct {
	sourceFile    string
	excursionSlug string
	byID          map[string]domain.Metadata
}

type bundleCatalog []bundle

// loadBundleCatalog reads every parseable .json bundle under dir.
// Unreadable or malformed files are skipped.
func loadBundleCatalog(dir string) bundleCatalog {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var catalog bundleCatalog
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			logging.Debug("library: skipping bundle %s: %v", entry.Name(), err)
			continue
		}
		byID := parseBundleEntries(raw)
		if len(byID) == 0 {
			continue
		}

		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		stem = stripPrefixFold(stem, "photo_metadata_")
		catalog = append(catalog, bundle{
			sourceFile:    entry.Name(),
			excursionSlug: normalizeSlug(stem),
			byID:          byID,
		})
	}
	return catalog
}

// parseBundleEntries accepts both catalog shapes: {"items": [entry, ...]}
// and {"<id>": {fields}, ...}. Entries are keyed by id exactly and
// lowercased.
func parseBundleEntries(raw []byte) map[string]domain.Metadata {
	byID := make(map[string]domain.Metadata)
	add := func(id string, fields bundleFields) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		meta := fields.metadata()
		byID[id] = meta
		byID[strings.ToLower(id)] = meta
	}

	var itemsForm struct {
		Items []bundleFields `json:"items"`
	}
	if err := json.Unmarshal(raw, &itemsForm); err == nil && itemsForm.Items != nil {
		for _, fields := range itemsForm.Items {
			add(fields.entryID(), fields)
		}
		return byID
	}

	var mapForm map[string]json.RawMessage
	if err := json.Unmarshal(raw, &mapForm); err != nil {
		return nil
	}
	for key, value := range mapForm {
		var fields bundleFields
		if err := json.Unmarshal(value, &fields); err != nil {
			continue
		}
		add(key, fields)
	}
	return byID
}

// metadataFor finds the bundle entry for an image, matching bundles by the
// excursion slug parsed from the filename and entries by the filename
// itself (exact first, then lowercased).
func (c bundleCatalog) metadataFor(relPath string) (domain.Metadata, bool) {
	if len(c) == 0 {
		return domain.Metadata{}, false
	}
	base := path.Base(strings.ReplaceAll(relPath, "\\", "/"))
	if base == "" || base == "." {
		return domain.Metadata{}, false
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	slug := normalizeSlug(extractExcursion(stem))
	if slug == "" {
		return domain.Metadata{}, false
	}

	for _, b := range c {
		if b.excursionSlug != slug {
			continue
		}
		for _, candidate := range []string{base, strings.ToLower(base)} {
			if meta, ok := b.byID[candidate]; ok {
				return meta, true
			}
		}
	}
	return domain.Metadata{}, false
}

// extractExcursion parses the excursion name out of an "FB_" filename stem.
// "FB_Louvre_2019_IMG_0042" yields "Louvre_2019"; without an "_IMG_" marker
// the final underscore-delimited token is treated as the image part.
func extractExcursion(stem string) string {
	if !strings.HasPrefix(stem, "FB_") {
		return ""
	}
	rest := stem[len("FB_"):]
	if marker := strings.Index(rest, "_IMG_"); marker >= 0 {
		return rest[:marker]
	}
	cut := strings.LastIndex(rest, "_")
	if cut <= 0 {
		return rest
	}
	return rest[:cut]
}

var slugRE = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeSlug(value string) string {
	slug := slugRE.ReplaceAllString(strings.ToLower(value), "_")
	return strings.Trim(slug, "_")
}

func stripPrefixFold(s, prefix string) string {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):]
	}
	return s
}
