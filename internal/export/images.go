package export

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	// Register decoders for formats re-encoded to JPEG before embedding.
	_ "golang.org/x/image/webp"

	"slide-archive/internal/domain"
)

// sourceImage is one image ready for embedding: a byte stream in a format
// the document writer accepts plus its pixel dimensions.
type sourceImage struct {
	reader io.Reader
	format string
	width  int
	height int
}

// openImage loads an item's file from its archive. JPEG and PNG bytes are
// passed through untouched; every other supported format is decoded and
// re-encoded as JPEG. Errors leave the page's image area blank.
func (e *Engine) openImage(item domain.Item) (*sourceImage, error) {
	a, ok := e.registry.Lookup(item.Archive)
	if !ok {
		return nil, fmt.Errorf("unknown archive %q", item.Archive)
	}
	abs, ok := a.SafeJoin(item.RelPath)
	if !ok {
		return nil, fmt.Errorf("unsafe path %q", item.RelPath)
	}

	switch strings.ToLower(filepath.Ext(item.RelPath)) {
	case ".jpg", ".jpeg":
		return openRaw(abs, "JPG")
	case ".png":
		return openRaw(abs, "PNG")
	}

	img, err := imaging.Open(abs, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", item.RelPath, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("re-encode %s: %w", item.RelPath, err)
	}
	bounds := img.Bounds()
	return &sourceImage{
		reader: &buf,
		format: "JPG",
		width:  bounds.Dx(),
		height: bounds.Dy(),
	}, nil
}

// openRaw reads a file the writer can embed as-is and probes its dimensions
// without a full decode.
func openRaw(abs, format string) (*sourceImage, error) {
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", filepath.Base(abs), err)
	}
	return &sourceImage{
		reader: bytes.NewReader(raw),
		format: format,
		width:  cfg.Width,
		height: cfg.Height,
	}, nil
}
