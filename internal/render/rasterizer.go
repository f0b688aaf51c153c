// SPDX-License-Identifier: MIT
package render

import (
	"image"
	"image/color"

	"spectrum/internal/config"
)

// Scene is what a Painter draws on top of the static layer.
type Scene struct {
	Bars, Peaks []float64
	DBRange     float64
	Layout      Layout
	Gradient    *GradientTable
	Orientation config.Orientation
	BarMode     bool
	Fill        bool
}

// Painter draws the dynamic part of a frame.
type Painter interface {
	Paint(dst *image.RGBA, sc *Scene)
	Name() string
}

// NewPainter returns the painter registered under name, defaulting to the
// pixel painter.
func NewPainter(name string) Painter {
	if name == config.RendererVector {
		return NewVectorPainter()
	}
	return NewPixelPainter()
}

// Hover highlight strengths.
const (
	bandHighlightAlpha   = 0.35
	octaveHighlightAlpha = 0.12
)

// Rasterizer composes the cached static layer, the painter output and the
// hover highlight into a frame. It is not safe for concurrent use.
type Rasterizer struct {
	cfg      config.Spectrum
	gradient *GradientTable
	painter  Painter
	static   staticLayer
	layout   Layout
	scene    Scene
}

// NewRasterizer configures a rasterizer for cfg.
func NewRasterizer(cfg config.Spectrum) *Rasterizer {
	r := &Rasterizer{gradient: new(GradientTable)}
	r.Configure(cfg)
	return r
}

// Configure applies cfg: the gradient is rebuilt, the painter reselected
// and the static layer invalidated.
func (r *Rasterizer) Configure(cfg config.Spectrum) {
	r.cfg = cfg.Clone()
	r.gradient.Build(r.cfg.Colors.Gradient)
	if r.painter == nil || r.painter.Name() != r.cfg.Renderer {
		r.painter = NewPainter(r.cfg.Renderer)
	}
	r.layout = NewLayout(r.layout.Width, r.layout.Height, r.cfg.Bands, r.cfg.Alignment)
	r.static.invalidate()
}

// Resize sets the frame size. The static layer is redrawn on the next
// Render if the size changed.
func (r *Rasterizer) Resize(width, height int) {
	if width == r.layout.Width && height == r.layout.Height {
		return
	}
	r.layout = NewLayout(width, height, r.cfg.Bands, r.cfg.Alignment)
	r.static.invalidate()
}

// Layout returns the current band layout.
func (r *Rasterizer) Layout() Layout { return r.layout }

// Gradient returns the current gradient table.
func (r *Rasterizer) Gradient() *GradientTable { return r.gradient }

// Painter returns the active painter.
func (r *Rasterizer) Painter() Painter { return r.painter }

// StaticRebuilds returns how many times the static layer has been drawn.
func (r *Rasterizer) StaticRebuilds() int { return r.static.rebuilt }

// Render draws bars and peaks into dst, which must match the size set by
// Resize. hover is the band under the pointer, or -1.
func (r *Rasterizer) Render(dst *image.RGBA, bars, peaks []float64, hover int) {
	if dst.Rect.Dx() != r.layout.Width || dst.Rect.Dy() != r.layout.Height {
		r.Resize(dst.Rect.Dx(), dst.Rect.Dy())
	}
	if r.layout.Width == 0 || r.layout.Height == 0 {
		return
	}

	bg := r.static.get(newStaticKey(r.layout, &r.cfg))
	copy(dst.Pix, bg.Pix)

	r.scene = Scene{
		Bars:        bars,
		Peaks:       peaks,
		DBRange:     float64(r.cfg.DBRange),
		Layout:      r.layout,
		Gradient:    r.gradient,
		Orientation: r.cfg.GradientOrientation,
		BarMode:     r.cfg.BarMode,
		Fill:        r.cfg.Fill,
	}
	r.painter.Paint(dst, &r.scene)

	if r.cfg.Highlight && hover >= 0 && hover < r.layout.Bands {
		r.highlight(dst, hover)
	}
}

// highlight tints the octave containing band and, more strongly, the band
// itself.
func (r *Rasterizer) highlight(dst *image.RGBA, band int) {
	l := r.layout
	c := r.cfg.Colors.Highlight.RGBA()

	first := band - band%12
	last := min(first+12, l.Bands)
	blendRect(dst, l.BandX(first), 0, l.BandX(last)-l.BandX(first), l.Height, c, octaveHighlightAlpha)
	blendRect(dst, l.BandX(band), 0, l.BarWidth, l.Height, c, bandHighlightAlpha)
}

// blendRect mixes c into a w×h rectangle with opacity alpha.
func blendRect(img *image.RGBA, x0, y0, w, h int, c color.RGBA, alpha float64) {
	rect := image.Rect(x0, y0, x0+w, y0+h).Intersect(img.Rect)
	if rect.Empty() {
		return
	}
	a := uint32(alpha * 256)
	ia := 256 - a
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := img.Pix[img.PixOffset(rect.Min.X, y):img.PixOffset(rect.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			row[i] = uint8((uint32(row[i])*ia + uint32(c.R)*a) >> 8)
			row[i+1] = uint8((uint32(row[i+1])*ia + uint32(c.G)*a) >> 8)
			row[i+2] = uint8((uint32(row[i+2])*ia + uint32(c.B)*a) >> 8)
		}
	}
}
