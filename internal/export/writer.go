package export

import "io"

// Style selects a caption font face.
type Style string

const (
	// StylePlain is the regular caption face.
	StylePlain Style = ""
	// StyleEmphasis is the oblique face used for titles.
	StyleEmphasis Style = "I"
)

// RGB is an 8-bit-per-channel color.
type RGB struct {
	R, G, B int
}

// TextMeasurer measures rendered text width in page units for a given face
// and size. Widths must come from real font metrics: the plain and emphasis
// faces have different glyph widths, so estimating by character count would
// mis-fit captions.
type TextMeasurer interface {
	TextWidth(text string, style Style, size float64) float64
}

// DocumentWriter is the contract the layout engine needs from a document
// library: fixed-size pages, filled/bordered rectangles, embedded raster
// images, positioned text runs and width measurement. The engine depends on
// nothing else about the output format.
type DocumentWriter interface {
	TextMeasurer

	// AddPage starts a new page.
	AddPage()

	// Rect draws a filled, bordered rectangle with rounded corners.
	Rect(x, y, w, h float64, fill, border RGB, borderWidth, cornerRadius float64)

	// Image embeds a JPEG ("JPG") or PNG ("PNG") read from r.
	Image(r io.Reader, format string, x, y, w, h float64) error

	// Text draws one run with its baseline at y.
	Text(text string, x, y float64, style Style, size float64, color RGB)

	// Output finalizes the document and writes it to w.
	Output(w io.Writer) error
}
