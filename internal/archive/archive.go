// Package archive models the on-disk layout of one image archive (library
// root, thumbnail cache, purge holding area, store documents) and the
// registry of all configured archives.
package archive

import (
	"os"
	"path/filepath"
	"strings"

	"slide-archive/internal/config"
)

// ImageExtensions maps lowercase file extensions to whether they are part
// of the supported image set. Only files with these extensions become items.
var ImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".svg": true, ".tif": true,
	".tiff": true, ".avif": true,
}

// IsImage reports whether name has a supported image extension.
func IsImage(name string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Archive is one named root directory of images plus its sibling stores.
type Archive struct {
	Key          string
	Label        string
	LibraryDir   string
	DBFile       string
	ThumbsDir    string
	PurgedDir    string
	PurgedDBFile string
	AdoptBundles bool
}

// New builds an Archive from its resolved configuration.
func New(cfg config.ArchiveConfig) *Archive {
	return &Archive{
		Key:          cfg.Key,
		Label:        cfg.Label,
		LibraryDir:   cfg.LibraryDir,
		DBFile:       cfg.DBFile,
		ThumbsDir:    cfg.ThumbsDir,
		PurgedDir:    cfg.PurgedDir,
		PurgedDBFile: cfg.PurgedDBFile,
		AdoptBundles: cfg.AdoptBundles,
	}
}

// EnsureDirs creates the library, purge and thumbnail directories.
func (a *Archive) EnsureDirs() error {
	for _, dir := range []string{a.LibraryDir, a.PurgedDir, a.ThumbsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// SafeJoin resolves relPath against the library root and rejects paths that
// escape it. The second return value reports whether the path is safe.
func (a *Archive) SafeJoin(relPath string) (string, bool) {
	return safeJoin(a.LibraryDir, relPath)
}

func safeJoin(root, relPath string) (string, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	resolved := filepath.Join(absRoot, filepath.FromSlash(relPath))
	if resolved != absRoot && !strings.HasPrefix(resolved, absRoot+string(filepath.Separator)) {
		return "", false
	}
	return resolved, true
}

// Scan walks the library root recursively and returns the slash-separated
// relative paths of every supported image file, in lexical walk order.
// Hidden entries are skipped. A missing library root yields an empty scan.
func (a *Archive) Scan() ([]string, error) {
	var files []string
	err := filepath.WalkDir(a.LibraryDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == a.LibraryDir && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != a.LibraryDir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsImage(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(a.LibraryDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Registry holds every configured archive and resolves archive keys, falling
// back to the default archive for unknown keys the way stored references
// are normalized.
type Registry struct {
	archives   map[string]*Archive
	order      []string
	defaultKey string
}

// NewRegistry builds a registry from the configured archives. The first
// archive is the fallback default.
func NewRegistry(cfgs []config.ArchiveConfig) *Registry {
	r := &Registry{archives: make(map[string]*Archive, len(cfgs))}
	for _, cfg := range cfgs {
		if _, dup := r.archives[cfg.Key]; dup || cfg.Key == "" {
			continue
		}
		r.archives[cfg.Key] = New(cfg)
		r.order = append(r.order, cfg.Key)
	}
	if len(r.order) > 0 {
		r.defaultKey = r.order[0]
	}
	return r
}

// Lookup returns the archive for key, if configured.
func (r *Registry) Lookup(key string) (*Archive, bool) {
	a, ok := r.archives[key]
	return a, ok
}

// Get returns the archive for key, falling back to the default archive when
// the key is unknown.
func (r *Registry) Get(key string) *Archive {
	if a, ok := r.archives[strings.TrimSpace(key)]; ok {
		return a
	}
	return r.archives[r.defaultKey]
}

// CanonicalKey returns key when it names a configured archive, otherwise the
// default archive key.
func (r *Registry) CanonicalKey(key string) string {
	if _, ok := r.archives[strings.TrimSpace(key)]; ok {
		return strings.TrimSpace(key)
	}
	return r.defaultKey
}

// All returns the configured archives in configuration order.
func (r *Registry) All() []*Archive {
	out := make([]*Archive, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.archives[key])
	}
	return out
}
