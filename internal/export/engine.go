// Package export renders a resolved slideshow into a paginated document:
// one page per slide, the image scaled to fit its frame and the caption fit
// to the content width using real font metrics.
package export

import (
	"fmt"
	"io"

	"slide-archive/internal/archive"
	"slide-archive/internal/domain"
	"slide-archive/internal/logging"
	"slide-archive/internal/metrics"
)

// Layout holds the fixed page geometry, all in points.
type Layout struct {
	PageWidth  float64
	PageHeight float64

	FramePadTop    float64
	FramePadSide   float64
	FramePadBottom float64
	FrameGap       float64 // gap between image area and caption band
	FrameRadius    float64
	BorderWidth    float64

	CaptionHeight   float64
	CaptionFontSize float64

	PageFill     RGB
	BorderColor  RGB
	CaptionColor RGB
}

// DefaultLayout returns the standard 11"x8.5" landscape slide layout.
func DefaultLayout(pageWidth, pageHeight float64) Layout {
	return Layout{
		PageWidth:  pageWidth,
		PageHeight: pageHeight,

		FramePadTop:    13.5,
		FramePadSide:   15,
		FramePadBottom: 6,
		FrameGap:       2.25,
		FrameRadius:    6,
		BorderWidth:    0.75,

		CaptionHeight:   18,
		CaptionFontSize: 11,

		PageFill:     RGB{0, 0, 0},
		BorderColor:  RGB{18, 23, 41},
		CaptionColor: RGB{209, 214, 219},
	}
}

// Engine lays out slideshow export documents.
type Engine struct {
	registry *archive.Registry
	layout   Layout

	// newWriter is swapped out by tests.
	newWriter func(pageWidth, pageHeight float64) DocumentWriter
}

// NewEngine returns an engine rendering through the PDF writer.
func NewEngine(reg *archive.Registry, layout Layout) *Engine {
	return &Engine{
		registry: reg,
		layout:   layout,
		newWriter: func(pageWidth, pageHeight float64) DocumentWriter {
			return NewPDFWriter(pageWidth, pageHeight)
		},
	}
}

// Export renders the slideshow with the given id from a resolved state and
// writes the document to out. A missing slideshow, or one that resolved to
// zero slides, fails with domain.ErrEmptySlideshow; a single slide whose
// image cannot be read still emits its page with a blank image area.
func (e *Engine) Export(out io.Writer, state *domain.State, slideshowID string) error {
	var show *domain.Slideshow
	for i := range state.Slideshows {
		if state.Slideshows[i].ID == slideshowID {
			show = &state.Slideshows[i]
			break
		}
	}
	if show == nil || len(show.Slides) == 0 {
		metrics.ExportsTotal.WithLabelValues("empty").Inc()
		return fmt.Errorf("%w: %q", domain.ErrEmptySlideshow, slideshowID)
	}

	doc := e.newWriter(e.layout.PageWidth, e.layout.PageHeight)
	pages := 0
	for _, ref := range show.Slides {
		item, ok := state.SlideItems[ref.Key()]
		if !ok {
			continue
		}
		e.renderPage(doc, item)
		pages++
	}
	if pages == 0 {
		metrics.ExportsTotal.WithLabelValues("empty").Inc()
		return fmt.Errorf("%w: %q", domain.ErrEmptySlideshow, slideshowID)
	}

	if err := doc.Output(out); err != nil {
		metrics.ExportsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("write export document: %w", err)
	}
	metrics.ExportsTotal.WithLabelValues("success").Inc()
	metrics.ExportPagesTotal.Add(float64(pages))
	return nil
}

// renderPage emits one slide page: full-bleed frame, contain-scaled image
// centered in the image area, caption runs centered in the caption band.
func (e *Engine) renderPage(doc DocumentWriter, item domain.Item) {
	l := e.layout
	doc.AddPage()
	doc.Rect(0, 0, l.PageWidth, l.PageHeight, l.PageFill, l.BorderColor, l.BorderWidth, l.FrameRadius)

	contentX := l.FramePadSide
	contentW := l.PageWidth - 2*l.FramePadSide
	contentTop := l.FramePadTop
	contentH := l.PageHeight - l.FramePadTop - l.FramePadBottom
	imageAreaH := contentH - l.CaptionHeight - l.FrameGap

	if src, err := e.openImage(item); err != nil {
		logging.Debug("export: blank image area for %s/%s: %v", item.Archive, item.RelPath, err)
	} else {
		fitW, fitH := FitContain(float64(src.width), float64(src.height), contentW, imageAreaH)
		x := contentX + (contentW-fitW)/2
		y := contentTop + (imageAreaH-fitH)/2
		if err := doc.Image(src.reader, src.format, x, y, fitW, fitH); err != nil {
			logging.Debug("export: embed failed for %s/%s: %v", item.Archive, item.RelPath, err)
		}
	}

	parts := BuildCaptionParts(item)
	fitted := FitCaption(parts, contentW, doc, l.CaptionFontSize)

	var prefixW, titleW, suffixW, ellipsisW float64
	if fitted.Prefix != "" {
		prefixW = doc.TextWidth(fitted.Prefix, StylePlain, l.CaptionFontSize)
	}
	if fitted.Title != "" {
		titleW = doc.TextWidth(fitted.Title, StyleEmphasis, l.CaptionFontSize)
	}
	if fitted.Suffix != "" {
		suffixW = doc.TextWidth(fitted.Suffix, StylePlain, l.CaptionFontSize)
	}
	if fitted.Ellipsis {
		ellipsisW = doc.TextWidth(Ellipsis, StylePlain, l.CaptionFontSize)
	}
	totalW := prefixW + titleW + suffixW + ellipsisW

	x := contentX
	if totalW < contentW {
		x += (contentW - totalW) / 2
	}
	baseline := l.PageHeight - l.FramePadBottom - (l.CaptionHeight-l.CaptionFontSize)/2

	if fitted.Prefix != "" {
		doc.Text(fitted.Prefix, x, baseline, StylePlain, l.CaptionFontSize, l.CaptionColor)
		x += prefixW
	}
	if fitted.Title != "" {
		doc.Text(fitted.Title, x, baseline, StyleEmphasis, l.CaptionFontSize, l.CaptionColor)
		x += titleW
	}
	if fitted.Suffix != "" {
		doc.Text(fitted.Suffix, x, baseline, StylePlain, l.CaptionFontSize, l.CaptionColor)
		x += suffixW
	}
	if fitted.Ellipsis {
		doc.Text(Ellipsis, x, baseline, StylePlain, l.CaptionFontSize, l.CaptionColor)
	}
}

// FitContain returns the largest size with the source aspect ratio that
// fits entirely inside maxW x maxH: the scale is the minimum of the two
// axis ratios, never a crop.
func FitContain(srcW, srcH, maxW, maxH float64) (float64, float64) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0
	}
	scale := maxW / srcW
	if s := maxH / srcH; s < scale {
		scale = s
	}
	return srcW * scale, srcH * scale
}
