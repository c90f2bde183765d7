// Package badge renders the build-status SVG badge with measured font metrics.
package badge

import (
	"bytes"
	"fmt"

	"golang.org/x/image/font/opentype"
)

// embeddedFamily names the @font-face inside the SVG. The font travels with
// the badge, so its own family name never matters.
const embeddedFamily = "pipboy-badge"

// face is a font measured for badge text. Badge strings are a label and
// "passing 12.3s", so only printable ASCII is measured.
type face struct {
	data    []byte
	size    float64
	otf     bool
	ascii   [95]float64 // advances for ' ' through '~'
	average float64     // width used for anything else
}

func loadFace(data []byte, size float64) (*face, error) {
	font, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing badge font: %w", err)
	}
	ff, err := opentype.NewFace(font, &opentype.FaceOptions{Size: size, DPI: 72})
	if err != nil {
		return nil, fmt.Errorf("sizing badge font: %w", err)
	}
	defer ff.Close()

	f := &face{
		data: data,
		size: size,
		otf:  bytes.HasPrefix(data, []byte("OTTO")),
	}
	var missing []int
	var sum float64
	for i := range f.ascii {
		adv, ok := ff.GlyphAdvance(rune(' ' + i))
		if !ok {
			missing = append(missing, i)
			continue
		}
		f.ascii[i] = float64(adv) / 64 // 26.6 fixed point
		sum += f.ascii[i]
	}

	f.average = size * 0.6
	if n := len(f.ascii) - len(missing); n > 0 {
		f.average = sum / float64(n)
	}
	for _, i := range missing {
		f.ascii[i] = f.average
	}
	return f, nil
}

// width is the rendered pixel width of s.
func (f *face) width(s string) float64 {
	var w float64
	for _, r := range s {
		if r >= ' ' && r <= '~' {
			w += f.ascii[r-' ']
		} else {
			w += f.average
		}
	}
	return w
}
