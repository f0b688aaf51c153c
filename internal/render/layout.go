// SPDX-License-Identifier: MIT
package render

import "spectrum/internal/config"

// Bar width bounds in pixels.
const (
	MinBarWidth = 2
	MaxBarWidth = 20
)

// Layout places bands horizontally inside a frame.
type Layout struct {
	Width, Height int
	Bands         int
	BarWidth      int
	Offset        int // x of the first band
}

// NewLayout computes the bar width as width/bands clamped to
// [MinBarWidth, MaxBarWidth] and offsets the bars according to align when
// they do not fill the frame.
func NewLayout(width, height, bands int, align config.Alignment) Layout {
	l := Layout{Width: width, Height: height, Bands: bands}
	if bands <= 0 || width <= 0 {
		l.BarWidth = MinBarWidth
		return l
	}
	l.BarWidth = min(max(width/bands, MinBarWidth), MaxBarWidth)

	if slack := width - l.BarWidth*bands; slack > 0 {
		switch align {
		case config.AlignRight:
			l.Offset = slack
		case config.AlignCenter:
			l.Offset = slack / 2
		}
	}
	return l
}

// BandX returns the left edge of band i.
func (l Layout) BandX(i int) int {
	return l.Offset + l.BarWidth*i
}

// SpectrumWidth returns the width covered by all bands.
func (l Layout) SpectrumWidth() int {
	return l.BarWidth * l.Bands
}

// BandAt returns the band under pixel column x. The 1 px separator at the
// left edge of each band belongs to the band before it.
func (l Layout) BandAt(x int) (int, bool) {
	rel := x - l.Offset
	if rel < 0 || rel >= l.SpectrumWidth() || l.Bands == 0 {
		return 0, false
	}
	return min(max((rel-1)/l.BarWidth, 0), l.Bands-1), true
}
