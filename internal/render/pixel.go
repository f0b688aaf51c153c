// SPDX-License-Identifier: MIT
package render

import (
	"image"
	"image/color"
	"math"

	"spectrum/internal/config"
)

// PixelPainter writes bars and peak markers straight into the frame.
type PixelPainter struct{}

func NewPixelPainter() *PixelPainter { return &PixelPainter{} }

func (*PixelPainter) Name() string { return config.RendererPixel }

// Paint draws one gradient column per band from its level down to the
// bottom edge, then a 1 px peak marker.
func (p *PixelPainter) Paint(dst *image.RGBA, sc *Scene) {
	l := sc.Layout
	if sc.DBRange <= 0 || l.Height <= 0 {
		return
	}
	h := l.Height
	scale := float64(h) / sc.DBRange
	n := min(l.Bands, len(sc.Bars), len(sc.Peaks))

	for i := range n {
		x, bw := barSpan(l, i, !sc.BarMode)
		if bw <= 0 {
			continue
		}

		y := max(h-int(math.Round(sc.Bars[i]*scale)), 0)
		p.column(dst, sc, x, y, bw, h-y)

		py := int(float64(h) - sc.Peaks[i]*scale)
		if py < h-1 {
			p.column(dst, sc, x, max(py, 0), bw, 1)
		}
	}
}

// barSpan returns the first column and width of band i. With gap set the
// leftmost column of every band is left to the separator.
func barSpan(l Layout, i int, gap bool) (x, w int) {
	x, w = l.BandX(i), l.BarWidth
	if gap {
		x++
		w--
	}
	if x+w > l.Width {
		w = l.Width - x
	}
	return x, w
}

func (p *PixelPainter) column(dst *image.RGBA, sc *Scene, x, y, w, h int) {
	r := image.Rect(x, y, x+w, y+h).Intersect(dst.Rect)
	if r.Empty() {
		return
	}
	g := sc.Gradient
	for row := r.Min.Y; row < r.Max.Y; row++ {
		pix := dst.Pix[dst.PixOffset(r.Min.X, row):dst.PixOffset(r.Max.X, row)]
		if sc.Orientation == config.OrientVertical {
			c := g.Along(row, sc.Layout.Height)
			for j := 0; j < len(pix); j += 4 {
				put(pix[j:j+4], c)
			}
			continue
		}
		for j, col := 0, r.Min.X; j < len(pix); j, col = j+4, col+1 {
			put(pix[j:j+4], g.Along(col, sc.Layout.Width))
		}
	}
}

func put(px []uint8, c color.RGBA) {
	px[0], px[1], px[2], px[3] = c.R, c.G, c.B, 0xff
}
