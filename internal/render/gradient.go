// SPDX-License-Identifier: MIT
//
// Package render rasterizes band levels into RGBA frames.
package render

import (
	"image/color"
	"math"

	"spectrum/internal/config"
)

// GradientTableSize is the number of precomputed gradient entries.
const GradientTableSize = 1024

// GradientTable maps a position in [0, 1] to a color interpolated between
// the configured stops.
type GradientTable [GradientTableSize]color.RGBA

// NewGradientTable interpolates stops linearly per channel at position
// slot/1024. Slot 0 is the first stop and the last slot is within one
// slot's step of the last stop. A single stop fills the table. With no
// stops the table is black.
func NewGradientTable(stops []config.Color) *GradientTable {
	g := new(GradientTable)
	g.Build(stops)
	return g
}

// Build recomputes the table in place.
func (g *GradientTable) Build(stops []config.Color) {
	n := len(stops)
	for i := range g {
		switch n {
		case 0:
			g[i] = color.RGBA{A: 0xff}
			continue
		case 1:
			g[i] = stops[0].RGBA()
			continue
		}

		position := float64(i) / GradientTableSize
		m := float64(n-1) * position
		k := int(m)
		f := m - float64(k)
		if k >= n-1 {
			g[i] = stops[n-1].RGBA()
			continue
		}
		a, b := stops[k], stops[k+1]
		g[i] = color.RGBA{
			R: lerp8(a.R, b.R, f),
			G: lerp8(a.G, b.G, f),
			B: lerp8(a.B, b.B, f),
			A: 0xff,
		}
	}
}

// lerp8 interpolates two 16-bit channels and keeps the high byte, the
// same conversion as config.Color.RGBA.
func lerp8(a, b uint16, f float64) uint8 {
	v := math.Round(float64(a) + f*(float64(b)-float64(a)))
	return uint8(uint16(min(max(v, 0), 65535)) >> 8)
}

// At returns slot i clamped into the table.
func (g *GradientTable) At(i int) color.RGBA {
	return g[min(max(i, 0), GradientTableSize-1)]
}

// Along returns the color at pos of total along the gradient axis.
func (g *GradientTable) Along(pos, total int) color.RGBA {
	if total <= 0 {
		return g[0]
	}
	return g.At(int(math.Round(float64(pos) / float64(total) * (GradientTableSize - 1))))
}
