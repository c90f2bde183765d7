package badge

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"
)

// padding is the horizontal space around each half's text.
const padding = 10

// layout is the geometry of a two-part badge.
type layout struct {
	label, value int // half widths
}

func (l layout) total() int { return l.label + l.value }

func (e *Engine) measure(b Badge) layout {
	return layout{
		label: int(math.Round(e.face.width(b.Label))) + padding,
		value: int(math.Round(e.face.width(b.Value))) + padding,
	}
}

// renderSVG produces a flat SVG badge with the font embedded.
func (e *Engine) renderSVG(b Badge) string {
	l := e.measure(b)

	var s strings.Builder
	fmt.Fprintf(&s, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="20">`, l.total())

	s.WriteString(`<defs>`)
	fmt.Fprintf(&s, `<style type="text/css">%s</style>`, fontFaceCSS(e.face))
	s.WriteString(`<linearGradient id="b" x2="0" y2="100%">`)
	s.WriteString(`<stop offset="0" stop-color="#bbb" stop-opacity=".1"/><stop offset="1" stop-opacity=".1"/>`)
	s.WriteString(`</linearGradient></defs>`)

	fmt.Fprintf(&s, `<mask id="a"><rect width="%d" height="20" rx="3" fill="#fff"/></mask>`, l.total())
	s.WriteString(`<g mask="url(#a)">`)
	fmt.Fprintf(&s, `<rect width="%d" height="20" fill="#555"/>`, l.label)
	fmt.Fprintf(&s, `<rect x="%d" width="%d" height="20" fill="%s"/>`, l.label, l.value, xmlEscape(b.Color))
	fmt.Fprintf(&s, `<rect width="%d" height="20" fill="url(#b)"/>`, l.total())
	s.WriteString(`</g>`)

	family := fmt.Sprintf("'%s',Verdana,Geneva,sans-serif", embeddedFamily)
	fmt.Fprintf(&s, `<g fill="#fff" text-anchor="middle" font-family="%s" font-size="%g">`,
		xmlEscape(family), e.face.size)
	writeText(&s, l.label/2, b.Label)
	writeText(&s, l.label+l.value/2, b.Value)
	s.WriteString(`</g></svg>`)
	return s.String()
}

// writeText writes a centered text run with its drop shadow.
func writeText(s *strings.Builder, x int, text string) {
	t := xmlEscape(text)
	fmt.Fprintf(s, `<text x="%d" y="15" fill="#010101" fill-opacity=".3">%s</text>`, x, t)
	fmt.Fprintf(s, `<text x="%d" y="14">%s</text>`, x, t)
}

func fontFaceCSS(f *face) string {
	mime, format := "ttf", "truetype"
	if f.otf {
		mime, format = "otf", "opentype"
	}
	return fmt.Sprintf(`@font-face{font-family:'%s';src:url(data:font/%s;base64,%s) format('%s')}`,
		embeddedFamily, mime, base64.StdEncoding.EncodeToString(f.data), format)
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"'", "&apos;",
	`"`, "&quot;",
)

func xmlEscape(s string) string { return xmlReplacer.Replace(s) }
