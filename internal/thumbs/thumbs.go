// Package thumbs maintains the on-demand thumbnail cache: one bounded-size
// JPEG preview per source image, regenerated asynchronously whenever the
// cached copy is missing or older than its source.
package thumbs

import (
	"bytes"
	"image/jpeg"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"slide-archive/internal/archive"
	"slide-archive/internal/identity"
	"slide-archive/internal/logging"
	"slide-archive/internal/metrics"
	"slide-archive/internal/workers"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Cache generates and serves thumbnails for archive items. Generation work
// is deduplicated per (archive, relPath): a request arriving while a job for
// the same file is in flight does not enqueue a second one, it simply picks
// the result up on a later freshness check.
type Cache struct {
	maxEdge int

	mu       sync.Mutex
	inflight map[string]struct{}
	sem      chan struct{}

	// generateFn is swapped out by tests.
	generateFn func(a *archive.Archive, relPath string) error
}

// NewCache returns a cache producing thumbnails with the given maximum edge
// length. maxWorkers caps concurrent generation jobs.
func NewCache(maxEdge, maxWorkers int) *Cache {
	c := &Cache{
		maxEdge:  maxEdge,
		inflight: make(map[string]struct{}),
		sem:      make(chan struct{}, workers.ForIO(maxWorkers)),
	}
	c.generateFn = c.generate
	return c
}

// Name returns the cache file name for an archive-relative source path.
func Name(relPath string) string {
	return identity.Encode(relPath) + ".jpg"
}

// Path returns the absolute cache file path for a source path.
func Path(a *archive.Archive, relPath string) string {
	return filepath.Join(a.ThumbsDir, Name(relPath))
}

// URL returns a serveable reference to an existing thumbnail, or "" when no
// thumbnail exists yet (the caller serves the original image instead). In
// either case, a stale or missing thumbnail enqueues regeneration.
func (c *Cache) URL(a *archive.Archive, relPath string, sourceMod time.Time) string {
	st, err := os.Stat(Path(a, relPath))
	fresh := err == nil && !st.ModTime().Before(sourceMod)
	if !fresh {
		c.ensure(a, relPath)
	}
	if err != nil {
		return ""
	}
	return "/thumbs/" + a.Key + "/" + url.PathEscape(Name(relPath))
}

// Remove deletes the cached thumbnail for a source path, if present.
func (c *Cache) Remove(a *archive.Archive, relPath string) {
	if err := os.Remove(Path(a, relPath)); err != nil && !os.IsNotExist(err) {
		logging.Warn("thumbs: failed to remove %s: %v", Path(a, relPath), err)
	}
}

// ensure starts a regeneration job for the file unless one is already in
// flight. It reports whether a new job was started.
func (c *Cache) ensure(a *archive.Archive, relPath string) bool {
	key := a.Key + ":" + relPath

	c.mu.Lock()
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		metrics.ThumbnailJobsTotal.WithLabelValues("deduped").Inc()
		return false
	}
	c.inflight[key] = struct{}{}
	c.mu.Unlock()

	metrics.ThumbnailJobsTotal.WithLabelValues("started").Inc()
	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.inflight, key)
			c.mu.Unlock()
		}()

		c.sem <- struct{}{}
		defer func() { <-c.sem }()

		start := time.Now()
		err := c.generateFn(a, relPath)
		metrics.ThumbnailJobDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			// Non-fatal: the item keeps serving its original image
			// until a later request finds conditions changed.
			metrics.ThumbnailJobsTotal.WithLabelValues("failure").Inc()
			logging.Debug("thumbs: generation failed for %s/%s: %v", a.Key, relPath, err)
			return
		}
		metrics.ThumbnailJobsTotal.WithLabelValues("success").Inc()
	}()
	return true
}

// generate renders and writes one thumbnail, preferring libvips and falling
// back to pure-Go decoding.
func (c *Cache) generate(a *archive.Archive, relPath string) error {
	abs, ok := a.SafeJoin(relPath)
	if !ok {
		return os.ErrNotExist
	}

	img, err := loadImage(abs, c.maxEdge)
	if err != nil {
		return err
	}

	thumb := imaging.Fit(img, c.maxEdge, c.maxEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return err
	}

	if err := os.MkdirAll(a.ThumbsDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(Path(a, relPath), buf.Bytes(), 0o644)
}
