package thumbs

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"slide-archive/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsMu          sync.Mutex
	vipsInitialized bool
	vipsAvailable   bool
)

// InitVips initializes libvips. Call once at startup; the cache degrades to
// pure-Go decoding when this is never called or libvips is unusable.
func InitVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsInitialized {
		return
	}

	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		if level >= vips.LogLevelError {
			logging.Warn("[%s] %s", domain, msg)
		}
	}, vips.LogLevelError)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
	}
}

func isVipsAvailable() bool {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	return vipsAvailable
}

// loadImage decodes a source image for thumbnailing, shrinking at decode
// time through libvips when available.
func loadImage(path string, maxEdge int) (image.Image, error) {
	if isVipsAvailable() {
		img, err := loadWithVips(path, maxEdge)
		if err == nil {
			return img, nil
		}
		logging.Debug("thumbs: vips load failed for %s: %v, falling back", path, err)
	}
	return imaging.Open(path, imaging.AutoOrientation(true))
}

func loadWithVips(path string, maxEdge int) (image.Image, error) {
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	defer ref.Close()

	if err := ref.Thumbnail(maxEdge, maxEdge, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips thumbnail: %w", err)
	}

	raw, _, err := ref.ExportJpeg(&vips.JpegExportParams{Quality: 95, OptimizeCoding: true})
	if err != nil {
		return nil, fmt.Errorf("vips export: %w", err)
	}
	return imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
}
