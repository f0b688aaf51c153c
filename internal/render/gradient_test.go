// SPDX-License-Identifier: MIT
package render

import (
	"image/color"
	"testing"

	"spectrum/internal/config"
)

func TestGradientEndpoints(t *testing.T) {
	stops := config.DefaultGradient()
	g := NewGradientTable(stops)

	if got, want := g.At(0), stops[0].RGBA(); got != want {
		t.Errorf("At(0) = %v, want %v", got, want)
	}
	last, want := g.At(GradientTableSize-1), stops[len(stops)-1].RGBA()
	if absDiff(last.R, want.R) > 1 || absDiff(last.G, want.G) > 1 || absDiff(last.B, want.B) > 1 {
		t.Errorf("At(last) = %v, want within 1 of %v", last, want)
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestGradientSlotPosition(t *testing.T) {
	g := NewGradientTable([]config.Color{
		config.MustParseColor("0 0 0"),
		config.MustParseColor("65535 65535 65535"),
	})
	// Slot i sits at i/1024: slot 256 is a quarter of the way.
	if got := g.At(256).R; got != 64 {
		t.Errorf("At(256).R = %d, want 64", got)
	}
	if got := g.At(GradientTableSize - 1).R; got != 255 {
		t.Errorf("At(last).R = %d, want 255", got)
	}
}

func TestGradientChannelConversion(t *testing.T) {
	tests := []struct {
		name string
		c    config.Color
	}{
		{"high byte only", config.MustParseColor("65280 65280 65280")},
		{"low byte set", config.MustParseColor("65535 255 33023")},
		{"mixed", config.MustParseColor("128 32896 65407")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := tt.c.RGBA()
			for _, stops := range [][]config.Color{{tt.c}, {tt.c, tt.c}, {tt.c, tt.c, tt.c}} {
				g := NewGradientTable(stops)
				for i, got := range g {
					if got != want {
						t.Fatalf("%d stops: slot %d = %v, want %v", len(stops), i, got, want)
					}
				}
			}
		})
	}
}

func TestGradientSingleStopIsUniform(t *testing.T) {
	c := config.MustParseColor("1000 40000 65535")
	g := NewGradientTable([]config.Color{c})
	for i, got := range g {
		if got != c.RGBA() {
			t.Fatalf("slot %d = %v, want %v", i, got, c.RGBA())
		}
	}
}

func TestGradientNoStopsIsBlack(t *testing.T) {
	g := NewGradientTable(nil)
	if got := g.At(500); got != (color.RGBA{A: 0xff}) {
		t.Errorf("At(500) = %v, want opaque black", got)
	}
}

func TestGradientMidpoint(t *testing.T) {
	g := NewGradientTable([]config.Color{
		config.MustParseColor("0 0 0"),
		config.MustParseColor("65535 65535 65535"),
	})
	mid := g.At(GradientTableSize / 2)
	if mid.R < 126 || mid.R > 129 || mid.R != mid.G || mid.G != mid.B {
		t.Errorf("midpoint = %v, want a grey near 128", mid)
	}
	for i := 1; i < GradientTableSize; i++ {
		if g[i].R < g[i-1].R {
			t.Fatalf("slot %d decreases: %d < %d", i, g[i].R, g[i-1].R)
		}
	}
}

func TestGradientAlong(t *testing.T) {
	g := NewGradientTable(config.DefaultGradient())
	tests := []struct {
		pos, total, slot int
	}{
		{0, 70, 0},
		{35, 70, 512},
		{70, 70, 1023},
		{100, 70, 1023},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got, want := g.Along(tt.pos, tt.total), g.At(tt.slot); got != want {
			t.Errorf("Along(%d, %d) = %v, want slot %d %v", tt.pos, tt.total, got, tt.slot, want)
		}
	}
}
