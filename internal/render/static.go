// SPDX-License-Identifier: MIT
package render

import (
	"image"
	"image/color"
	"math"

	"spectrum/internal/config"
)

// octaveDivisions splits the spectrum width for the octave separators.
const octaveDivisions = 11

// staticKey identifies everything the static layer depends on.
type staticKey struct {
	layout                    Layout
	dbRange                   int
	vgrid, hgrid, octave      bool
	background, vcol, hcol, o color.RGBA
}

// staticLayer caches the background and grid lines. It is redrawn only
// when its key changes.
type staticLayer struct {
	img     *image.RGBA
	key     staticKey
	valid   bool
	rebuilt int
}

func newStaticKey(l Layout, cfg *config.Spectrum) staticKey {
	return staticKey{
		layout:     l,
		dbRange:    cfg.DBRange,
		vgrid:      cfg.VGrid,
		hgrid:      cfg.HGrid,
		octave:     cfg.OctaveGrid,
		background: cfg.Colors.Background.RGBA(),
		vcol:       cfg.Colors.VGrid.RGBA(),
		hcol:       cfg.Colors.HGrid.RGBA(),
		o:          cfg.Colors.Octave.RGBA(),
	}
}

func (s *staticLayer) invalidate() { s.valid = false }

// get returns the cached layer for key, redrawing it if needed.
func (s *staticLayer) get(key staticKey) *image.RGBA {
	if s.valid && s.key == key {
		return s.img
	}
	l := key.layout
	if s.img == nil || s.img.Rect.Dx() != l.Width || s.img.Rect.Dy() != l.Height {
		s.img = image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	}
	drawStatic(s.img, key)
	s.key = key
	s.valid = true
	s.rebuilt++
	return s.img
}

func drawStatic(img *image.RGBA, k staticKey) {
	l := k.layout
	fillRect(img, 0, 0, l.Width, l.Height, k.background)

	if k.vgrid {
		for i := 0; i <= l.Bands; i++ {
			x := l.BandX(i)
			if x < l.Width {
				fillRect(img, x, 0, 1, l.Height-1, k.vcol)
			}
		}
	}

	// dB lines every 10 dB.
	lines := k.dbRange / 10
	if k.hgrid && l.Height > 2*lines && l.Width > 1 {
		for i := 1; i < lines; i++ {
			y := int(math.Round(float64(i) / float64(lines) * float64(l.Height)))
			fillRect(img, 0, y, l.Width, 1, k.hcol)
		}
	}

	if k.octave {
		sw := l.SpectrumWidth()
		for i := 1; i < octaveDivisions; i++ {
			x := l.Offset + int(math.Round(float64(i*sw)/octaveDivisions))
			if x < l.Width {
				fillRect(img, x, 0, 1, l.Height, k.o)
			}
		}
	}
}

// fillRect paints a w×h rectangle at (x0, y0), clipped to img.
func fillRect(img *image.RGBA, x0, y0, w, h int, c color.RGBA) {
	r := image.Rect(x0, y0, x0+w, y0+h).Intersect(img.Rect)
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, 0xff
		}
	}
}
