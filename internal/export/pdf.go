package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// captionFontFamily is the core font used for captions; the oblique style
// maps to its slanted face.
const captionFontFamily = "Helvetica"

// PDFWriter implements DocumentWriter on top of fpdf.
type PDFWriter struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
	images    int
}

// NewPDFWriter returns a writer producing pages of the given size in
// points.
func NewPDFWriter(pageWidth, pageHeight float64) *PDFWriter {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	return &PDFWriter{
		pdf: pdf,
		// Core fonts are cp1252; the translator maps UTF-8 text
		// (notably the ellipsis glyph) onto it.
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// AddPage starts a new page.
func (w *PDFWriter) AddPage() {
	w.pdf.AddPage()
}

// Rect draws a filled, bordered, rounded rectangle.
func (w *PDFWriter) Rect(x, y, wd, ht float64, fill, border RGB, borderWidth, cornerRadius float64) {
	w.pdf.SetFillColor(fill.R, fill.G, fill.B)
	w.pdf.SetDrawColor(border.R, border.G, border.B)
	w.pdf.SetLineWidth(borderWidth)
	w.pdf.RoundedRect(x, y, wd, ht, cornerRadius, "1234", "FD")
}

// Image embeds one raster image.
func (w *PDFWriter) Image(r io.Reader, format string, x, y, wd, ht float64) error {
	w.images++
	name := fmt.Sprintf("img-%d", w.images)
	opts := fpdf.ImageOptions{ImageType: format}
	w.pdf.RegisterImageOptionsReader(name, opts, r)
	if w.pdf.Err() {
		err := w.pdf.Error()
		// Clear the sticky error so one bad image does not poison the
		// rest of the document.
		w.pdf.SetError(nil)
		return err
	}
	w.pdf.ImageOptions(name, x, y, wd, ht, false, opts, 0, "")
	return nil
}

// Text draws one run with its baseline at y.
func (w *PDFWriter) Text(text string, x, y float64, style Style, size float64, color RGB) {
	w.pdf.SetFont(captionFontFamily, string(style), size)
	w.pdf.SetTextColor(color.R, color.G, color.B)
	w.pdf.Text(x, y, w.translate(text))
}

// TextWidth measures text in the given face at the given size.
func (w *PDFWriter) TextWidth(text string, style Style, size float64) float64 {
	w.pdf.SetFont(captionFontFamily, string(style), size)
	return w.pdf.GetStringWidth(w.translate(text))
}

// Output finalizes the document.
func (w *PDFWriter) Output(out io.Writer) error {
	return w.pdf.Output(out)
}
