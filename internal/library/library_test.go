package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slide-archive/internal/archive"
	"slide-archive/internal/config"
	"slide-archive/internal/domain"
	"slide-archive/internal/identity"
	"slide-archive/internal/slideshow"
	"slide-archive/internal/store"
	"slide-archive/internal/thumbs"
)

// testEnv wires a library over two temp archives, the second one adopting
// field bundles.
type testEnv struct {
	lib      *Library
	registry *archive.Registry
	shows    *slideshow.Service
	main     *archive.Archive
	trips    *archive.Archive
	dataDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dataDir := t.TempDir()

	cfg := &config.Config{
		DataDir:       dataDir,
		ActiveArchive: "slide_library",
		Archives: []config.ArchiveConfig{
			{Key: "slide_library", Label: "Main"},
			{Key: "excursions", Label: "Excursions", AdoptBundles: true},
		},
	}
	for i := range cfg.Archives {
		a := &cfg.Archives[i]
		a.LibraryDir = filepath.Join(dataDir, a.Key+"_library")
		a.DBFile = filepath.Join(dataDir, a.Key+"_archive.json")
		a.ThumbsDir = filepath.Join(dataDir, "thumbs", a.Key)
		a.PurgedDir = filepath.Join(dataDir, a.Key+"_purged")
		a.PurgedDBFile = filepath.Join(dataDir, a.Key+"_purged_archive.json")
	}

	registry := archive.NewRegistry(cfg.Archives)
	for _, a := range registry.All() {
		if err := a.EnsureDirs(); err != nil {
			t.Fatalf("EnsureDirs failed: %v", err)
		}
	}

	cache := thumbs.NewCache(360, 1)
	slideStore := store.NewSlideshowStore(filepath.Join(dataDir, "slideshows.json"), registry.CanonicalKey)
	shows := slideshow.NewService(slideStore)
	lib := New(registry, cache, slideStore, shows, filepath.Join(dataDir, "field_bundle_archive"))

	main, _ := registry.Lookup("slide_library")
	trips, _ := registry.Lookup("excursions")
	return &testEnv{lib: lib, registry: registry, shows: shows, main: main, trips: trips, dataDir: dataDir}
}

func (e *testEnv) addImage(t *testing.T, a *archive.Archive, relPath string) string {
	t.Helper()
	abs := filepath.Join(a.LibraryDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(abs, []byte("image-bytes"), 0o644); err != nil {
		t.Fatalf("Failed to write image: %v", err)
	}
	return identity.Encode(relPath)
}

func TestBootstrapSeedsStores(t *testing.T) {
	e := newTestEnv(t)
	if err := e.lib.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	for _, a := range []string{"slide_library", "excursions"} {
		dbFile := filepath.Join(e.dataDir, a+"_archive.json")
		if _, err := os.Stat(dbFile); err != nil {
			t.Errorf("Expected seeded metadata document for %s: %v", a, err)
		}
	}
	if _, err := os.Stat(filepath.Join(e.dataDir, "slideshows.json")); err != nil {
		t.Errorf("Expected seeded slideshow document: %v", err)
	}

	// A second bootstrap must leave an existing slideshow document alone.
	id, err := e.shows.Create("Keep Me")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := e.lib.Bootstrap(); err != nil {
		t.Fatalf("Second bootstrap failed: %v", err)
	}
	state, err := e.lib.BuildState(e.main)
	if err != nil {
		t.Fatalf("BuildState failed: %v", err)
	}
	if state.CurrentSlideshowID != id {
		t.Errorf("Expected slideshow document untouched, current = %q", state.CurrentSlideshowID)
	}
}

func TestReconcileAddsAndPrunes(t *testing.T) {
	e := newTestEnv(t)
	id := e.addImage(t, e.main, "gallery/a.jpg")

	_, records, err := e.lib.Reconcile(e.main)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	rec, ok := records[id]
	if !ok {
		t.Fatalf("Expected record for new file, got %v", records)
	}
	if rec.Title != nil {
		t.Error("Expected new record with unset title")
	}

	// Running again with nothing changed must not rewrite the store.
	before, err := os.Stat(e.main.DBFile)
	if err != nil {
		t.Fatalf("Expected store document: %v", err)
	}
	if _, _, err := e.lib.Reconcile(e.main); err != nil {
		t.Fatalf("Second reconcile failed: %v", err)
	}
	after, err := os.Stat(e.main.DBFile)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) || after.Size() != before.Size() {
		t.Error("Expected idempotent reconcile to leave the store untouched")
	}

	// Deleting the file prunes its record on the next reconcile.
	if err := os.Remove(filepath.Join(e.main.LibraryDir, "gallery", "a.jpg")); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	_, records, err = e.lib.Reconcile(e.main)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if _, ok := records[id]; ok {
		t.Error("Expected record pruned for vanished file")
	}
}

func TestReconcileKeepsUserEdits(t *testing.T) {
	e := newTestEnv(t)
	id := e.addImage(t, e.main, "a.jpg")
	if _, _, err := e.lib.Reconcile(e.main); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	meta := domain.NewMetadata()
	meta.Artist = "Hokusai"
	if err := e.lib.Update(e.main, id, meta); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	_, records, err := e.lib.Reconcile(e.main)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if records[id].Artist != "Hokusai" {
		t.Errorf("Expected user edit preserved, got %+v", records[id])
	}
}

func TestUpdateNormalizes(t *testing.T) {
	e := newTestEnv(t)
	id := e.addImage(t, e.main, "a.jpg")

	meta := domain.NewMetadata()
	meta.SetTitle("  Wave  ")
	meta.Artist = " Hokusai "
	meta.Tags = []string{" print ", "print", ""}
	if err := e.lib.Update(e.main, id, meta); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	records, err := e.lib.MetadataStore(e.main).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got := records[id]
	if got.Title == nil || *got.Title != "Wave" || got.Artist != "Hokusai" {
		t.Errorf("Expected trimmed fields, got %+v", got)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "print" {
		t.Errorf("Expected deduplicated tags, got %v", got.Tags)
	}
}

func TestUpdateVanishedFile(t *testing.T) {
	e := newTestEnv(t)
	id := identity.Encode("never-existed.jpg")
	err := e.lib.Update(e.main, id, domain.NewMetadata())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	err = e.lib.Update(e.main, "!!!not-an-id!!!", domain.NewMetadata())
	if !errors.Is(err, domain.ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
}

func TestPurge(t *testing.T) {
	e := newTestEnv(t)
	id := e.addImage(t, e.main, "gallery/a.jpg")
	if _, _, err := e.lib.Reconcile(e.main); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	meta := domain.NewMetadata()
	meta.Artist = "Monet"
	if err := e.lib.Update(e.main, id, meta); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	ref := domain.SlideRef{Archive: "slide_library", ID: id}
	if err := e.shows.Toggle(store.DefaultSlideshowID, ref, true); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	thumbPath := thumbs.Path(e.main, "gallery/a.jpg")
	if err := os.WriteFile(thumbPath, []byte("thumb"), 0o644); err != nil {
		t.Fatalf("Failed to write thumbnail: %v", err)
	}

	rec, removed, err := e.lib.Purge(e.main, id, nil)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}

	if rec.OriginalRelPath != "gallery/a.jpg" || rec.PurgedRelPath != "gallery/a.jpg" {
		t.Errorf("Unexpected record paths: %+v", rec)
	}
	if rec.Metadata.Artist != "Monet" {
		t.Errorf("Expected metadata snapshot in record, got %+v", rec.Metadata)
	}
	if removed != 1 {
		t.Errorf("Expected 1 slideshow slide removed, got %d", removed)
	}

	if _, err := os.Stat(filepath.Join(e.main.LibraryDir, "gallery", "a.jpg")); !os.IsNotExist(err) {
		t.Error("Expected source file moved out of the library")
	}
	if _, err := os.Stat(filepath.Join(e.main.PurgedDir, "gallery", "a.jpg")); err != nil {
		t.Errorf("Expected file in purge directory: %v", err)
	}
	if _, err := os.Stat(thumbPath); !os.IsNotExist(err) {
		t.Error("Expected cached thumbnail removed")
	}

	records, err := e.lib.MetadataStore(e.main).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := records[id]; ok {
		t.Error("Expected metadata record deleted")
	}

	logged, err := e.lib.PurgeLog(e.main).Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(logged) != 1 || logged[0].ID != id {
		t.Errorf("Expected one purge log entry, got %v", logged)
	}
}

func TestPurgeCollisionSuffix(t *testing.T) {
	e := newTestEnv(t)

	for i, want := range []string{"a.jpg", "a-2.jpg", "a-3.jpg"} {
		id := e.addImage(t, e.main, "a.jpg")
		rec, _, err := e.lib.Purge(e.main, id, nil)
		if err != nil {
			t.Fatalf("Purge %d failed: %v", i, err)
		}
		if rec.PurgedRelPath != want {
			t.Errorf("Purge %d: PurgedRelPath = %q, want %q", i, rec.PurgedRelPath, want)
		}
	}
}

func TestPurgeMissing(t *testing.T) {
	e := newTestEnv(t)
	_, _, err := e.lib.Purge(e.main, identity.Encode("ghost.jpg"), nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	_, _, err = e.lib.Purge(e.main, "***", nil)
	if !errors.Is(err, domain.ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
}

func TestPurgeOverrideMetadata(t *testing.T) {
	e := newTestEnv(t)
	id := e.addImage(t, e.main, "a.jpg")
	if _, _, err := e.lib.Reconcile(e.main); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	override := domain.NewMetadata()
	override.Artist = "  Turner "
	rec, _, err := e.lib.Purge(e.main, id, &override)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if rec.Metadata.Artist != "Turner" {
		t.Errorf("Expected normalized override snapshot, got %+v", rec.Metadata)
	}
}

func TestBuildState(t *testing.T) {
	e := newTestEnv(t)
	mainID := e.addImage(t, e.main, "a.jpg")
	tripID := e.addImage(t, e.trips, "FB_Prado_2021_IMG_1.jpg")

	// The current slideshow references both archives plus one dead item.
	for _, ref := range []domain.SlideRef{
		{Archive: "slide_library", ID: mainID},
		{Archive: "excursions", ID: tripID},
		{Archive: "slide_library", ID: identity.Encode("gone.jpg")},
	} {
		if err := e.shows.Toggle(store.DefaultSlideshowID, ref, true); err != nil {
			t.Fatalf("Toggle failed: %v", err)
		}
	}

	state, err := e.lib.BuildState(e.main)
	if err != nil {
		t.Fatalf("BuildState failed: %v", err)
	}

	if state.ActiveArchive != "slide_library" {
		t.Errorf("ActiveArchive = %q", state.ActiveArchive)
	}
	if len(state.Items) != 1 || state.Items[0].ID != mainID {
		t.Fatalf("Expected only the active archive's items, got %v", state.Items)
	}
	if state.Items[0].Title != "a" {
		t.Errorf("Expected filename-stem title, got %q", state.Items[0].Title)
	}
	if state.Items[0].URL != "/library/slide_library/a.jpg" {
		t.Errorf("Unexpected item URL %q", state.Items[0].URL)
	}

	if len(state.Slideshows) != 1 {
		t.Fatalf("Expected 1 slideshow, got %d", len(state.Slideshows))
	}
	slides := state.Slideshows[0].Slides
	if len(slides) != 2 {
		t.Fatalf("Expected dead reference dropped from view, got %v", slides)
	}
	if _, ok := state.SlideItems["excursions:"+tripID]; !ok {
		t.Error("Expected cross-archive slide item resolved")
	}
	if state.CurrentSlideshowID != store.DefaultSlideshowID {
		t.Errorf("CurrentSlideshowID = %q", state.CurrentSlideshowID)
	}
}

func TestLibraryURLEscaping(t *testing.T) {
	e := newTestEnv(t)
	got := libraryURL(e.main, "summer trip/my photo.jpg")
	want := "/library/slide_library/summer%20trip/my%20photo.jpg"
	if got != want {
		t.Errorf("libraryURL = %q, want %q", got, want)
	}
}
