package export

import (
	"strings"

	"slide-archive/internal/domain"
)

// Ellipsis is the truncation glyph appended to shortened captions,
// measured and drawn in the plain face.
const Ellipsis = "…"

const (
	unknownArtistLabel = "Unknown artist"
	unknownTitleLabel  = "(title unknown)"
)

// CaptionParts are the three runs of a slide caption: a plain artist
// prefix, the emphasized title and a plain detail suffix.
type CaptionParts struct {
	Prefix string
	Title  string
	Suffix string
}

// BuildCaptionParts composes the caption runs for one item. Year, medium
// and size are omitted individually when blank, with separators adjusted so
// no empty ", " fragments appear; the minimal suffix is a lone period.
func BuildCaptionParts(item domain.Item) CaptionParts {
	artist := strings.TrimSpace(item.Artist)
	if artist == "" {
		artist = unknownArtistLabel
	}
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = unknownTitleLabel
	}

	suffix := "."
	if year := strings.TrimSpace(item.Year); year != "" {
		suffix = ", " + year + "."
	}
	var tail []string
	for _, part := range []string{strings.TrimSpace(item.Medium), strings.TrimSpace(item.Size)} {
		if part != "" {
			tail = append(tail, part)
		}
	}
	if len(tail) > 0 {
		suffix += " " + strings.Join(tail, ", ") + "."
	}

	return CaptionParts{
		Prefix: artist + ", ",
		Title:  title,
		Suffix: suffix,
	}
}

// FittedCaption is the portion of a caption that fits the content width.
// When Ellipsis is set the runs were shortened and a trailing ellipsis must
// be drawn after them.
type FittedCaption struct {
	Prefix   string
	Title    string
	Suffix   string
	Ellipsis bool
}

// FitCaption fits the caption runs into maxWidth at the given font size.
//
// If the full caption measures within maxWidth it is returned unchanged.
// Otherwise candidate total character counts are tried from the full length
// down to zero, each count split greedily across prefix, then title, then
// suffix, and re-measured with the trailing ellipsis; the first (longest)
// candidate that fits wins. The scan is linear rather than binary because
// width is not guaranteed monotonic in character count once the split point
// crosses between the two faces.
func FitCaption(parts CaptionParts, maxWidth float64, m TextMeasurer, size float64) FittedCaption {
	measure := func(prefix, title, suffix string, withEllipsis bool) float64 {
		w := 0.0
		if prefix != "" {
			w += m.TextWidth(prefix, StylePlain, size)
		}
		if title != "" {
			w += m.TextWidth(title, StyleEmphasis, size)
		}
		if suffix != "" {
			w += m.TextWidth(suffix, StylePlain, size)
		}
		if withEllipsis {
			w += m.TextWidth(Ellipsis, StylePlain, size)
		}
		return w
	}

	if measure(parts.Prefix, parts.Title, parts.Suffix, false) <= maxWidth {
		return FittedCaption{Prefix: parts.Prefix, Title: parts.Title, Suffix: parts.Suffix}
	}

	prefix := []rune(parts.Prefix)
	title := []rune(parts.Title)
	suffix := []rune(parts.Suffix)

	for keep := len(prefix) + len(title) + len(suffix); keep >= 0; keep-- {
		left := keep
		a := prefix[:min(len(prefix), left)]
		left -= len(a)
		b := title[:min(len(title), left)]
		left -= len(b)
		c := suffix[:min(len(suffix), left)]
		if measure(string(a), string(b), string(c), true) <= maxWidth {
			return FittedCaption{Prefix: string(a), Title: string(b), Suffix: string(c), Ellipsis: true}
		}
	}
	return FittedCaption{Ellipsis: true}
}
