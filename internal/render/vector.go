// SPDX-License-Identifier: MIT
package render

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"spectrum/internal/config"
)

// Stroke widths in pixels.
const (
	curveStroke = 1.5
	peakStroke  = 1.0
)

// VectorPainter draws the spectrum as a path through the band tops. The
// path is rasterized into a coverage mask and the mask is painted with
// the gradient.
type VectorPainter struct {
	z    *vector.Rasterizer
	mask *image.Alpha
	pts  []point
}

type point struct{ x, y float32 }

func NewVectorPainter() *VectorPainter {
	return &VectorPainter{z: vector.NewRasterizer(0, 0)}
}

func (*VectorPainter) Name() string { return config.RendererVector }

func (v *VectorPainter) Paint(dst *image.RGBA, sc *Scene) {
	l := sc.Layout
	n := min(l.Bands, len(sc.Bars), len(sc.Peaks))
	if n == 0 || sc.DBRange <= 0 || l.Width <= 0 || l.Height <= 0 {
		return
	}
	if v.mask == nil || v.mask.Rect.Dx() != l.Width || v.mask.Rect.Dy() != l.Height {
		v.mask = image.NewAlpha(image.Rect(0, 0, l.Width, l.Height))
	}

	v.points(sc, sc.Bars, n)
	v.z.Reset(l.Width, l.Height)
	if sc.Fill {
		v.fillPath(float32(l.Height))
	} else {
		v.strokePath(curveStroke)
	}
	v.paint(dst, sc)

	v.points(sc, sc.Peaks, n)
	v.z.Reset(l.Width, l.Height)
	v.strokePath(peakStroke)
	v.paint(dst, sc)
}

// points places one vertex at the top centre of each band.
func (v *VectorPainter) points(sc *Scene, levels []float64, n int) {
	l := sc.Layout
	h := float64(l.Height)
	scale := h / sc.DBRange
	v.pts = v.pts[:0]
	for i := range n {
		x := float64(l.BandX(i)) + float64(l.BarWidth)/2
		y := min(max(h-levels[i]*scale, 0), h)
		v.pts = append(v.pts, point{float32(x), float32(y)})
	}
}

// fillPath closes the curve along the bottom edge.
func (v *VectorPainter) fillPath(bottom float32) {
	first, last := v.pts[0], v.pts[len(v.pts)-1]
	v.z.MoveTo(first.x, bottom)
	for _, p := range v.pts {
		v.z.LineTo(p.x, p.y)
	}
	v.z.LineTo(last.x, bottom)
	v.z.ClosePath()
}

// strokePath outlines every segment with a quad of the given width. All
// quads share a winding so overlaps at the joints do not cancel.
func (v *VectorPainter) strokePath(width float32) {
	half := width / 2
	if len(v.pts) == 1 {
		p := v.pts[0]
		v.quad(point{p.x - half, p.y}, point{p.x + half, p.y}, 0, half)
		return
	}
	for i := 1; i < len(v.pts); i++ {
		a, b := v.pts[i-1], v.pts[i]
		dx, dy := b.x-a.x, b.y-a.y
		d := float32(math.Hypot(float64(dx), float64(dy)))
		if d == 0 {
			continue
		}
		v.quad(a, b, -dy/d*half, dx/d*half)
	}
}

func (v *VectorPainter) quad(a, b point, nx, ny float32) {
	if nx == 0 && ny == 0 {
		return
	}
	v.z.MoveTo(a.x+nx, a.y+ny)
	v.z.LineTo(b.x+nx, b.y+ny)
	v.z.LineTo(b.x-nx, b.y-ny)
	v.z.LineTo(a.x-nx, a.y-ny)
	v.z.ClosePath()
}

// paint rasterizes the pending path into the mask and blends the gradient
// into dst by coverage.
func (v *VectorPainter) paint(dst *image.RGBA, sc *Scene) {
	v.z.DrawOp = draw.Src
	v.z.Draw(v.mask, v.mask.Rect, image.Opaque, image.Point{})

	w, h := sc.Layout.Width, sc.Layout.Height
	for y := range h {
		m := v.mask.Pix[v.mask.PixOffset(0, y) : v.mask.PixOffset(0, y)+w]
		row := dst.Pix[dst.PixOffset(0, y):]
		for x, a := range m {
			if a == 0 {
				continue
			}
			c := sc.Gradient.Along(y, h)
			if sc.Orientation == config.OrientHorizontal {
				c = sc.Gradient.Along(x, w)
			}
			px := row[x*4 : x*4+4]
			if a == 0xff {
				put(px, c)
				continue
			}
			ia := 0xff - uint32(a)
			px[0] = uint8((uint32(px[0])*ia + uint32(c.R)*uint32(a)) / 0xff)
			px[1] = uint8((uint32(px[1])*ia + uint32(c.G)*uint32(a)) / 0xff)
			px[2] = uint8((uint32(px[2])*ia + uint32(c.B)*uint32(a)) / 0xff)
			px[3] = 0xff
		}
	}
}
