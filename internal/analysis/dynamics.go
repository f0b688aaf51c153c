// SPDX-License-Identifier: MIT
package analysis

import (
	"spectrum/internal/config"
)

// DefaultCalibrationOffset is subtracted from the dB range and the result
// added to every raw band level before clamping.
const DefaultCalibrationOffset = config.DefaultCalibrationOffset

// PlaybackStatus is the host's playback state as seen by the dynamics.
type PlaybackStatus int

const (
	Stopped PlaybackStatus = iota
	Playing
	Paused
)

func (s PlaybackStatus) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// envelope is the per-tick form of one falloff/delay pair.
type envelope struct {
	disabled bool
	decay    float64 // dB per tick
	hold     int     // ticks
}

func newEnvelope(falloff, delay, refresh int) envelope {
	if refresh <= 0 {
		refresh = config.DefaultRefreshInterval
	}
	return envelope{
		disabled: falloff == config.FalloffDisabled,
		decay:    float64(falloff) / 1000 * float64(refresh),
		hold:     delay / refresh,
	}
}

// BandDynamics smooths raw band levels into displayed bars and peaks.
type BandDynamics struct {
	bars      []float64
	peaks     []float64
	barHold   []int
	peakHold  []int
	dbRange   float64
	offset    float64
	bar, peak envelope
}

// NewBandDynamics allocates state for bands bands configured from cfg.
func NewBandDynamics(bands int, cfg config.Spectrum) *BandDynamics {
	d := &BandDynamics{}
	d.Configure(bands, cfg)
	return d
}

// Configure applies cfg. State is kept when the band count is unchanged
// and reset otherwise.
func (d *BandDynamics) Configure(bands int, cfg config.Spectrum) {
	if len(d.bars) != bands {
		d.bars = make([]float64, bands)
		d.peaks = make([]float64, bands)
		d.barHold = make([]int, bands)
		d.peakHold = make([]int, bands)
	}
	d.dbRange = float64(cfg.DBRange)
	d.offset = float64(cfg.DBRange - cfg.CalibrationOffset)
	d.bar = newEnvelope(cfg.BarFalloff, cfg.BarDelay, cfg.RefreshInterval)
	d.peak = newEnvelope(cfg.PeakFalloff, cfg.PeakDelay, cfg.RefreshInterval)
}

// Advance runs one tick. While stopped all state is zeroed and raw is
// ignored; while paused nothing changes. raw holds one dB value per band.
func (d *BandDynamics) Advance(raw []float64, status PlaybackStatus) {
	switch status {
	case Stopped:
		d.Reset()
		return
	case Paused:
		return
	}

	for i := range d.bars {
		x := clamp(raw[i]+d.offset, 0, d.dbRange)
		d.bars[i] = clamp(d.bars[i], 0, d.dbRange)
		d.peaks[i] = clamp(d.peaks[i], 0, d.dbRange)

		d.bar.fall(&d.bars[i], &d.barHold[i])
		d.peak.fall(&d.peaks[i], &d.peakHold[i])

		if x > d.bars[i] {
			d.bars[i] = x
			d.barHold[i] = d.bar.hold
		}
		if x > d.peaks[i] {
			d.peaks[i] = x
			d.peakHold[i] = d.peak.hold
		}
		if d.peaks[i] < d.bars[i] {
			d.peaks[i] = d.bars[i]
		}
	}
}

// fall decays v once its hold counter has run out, or zeroes it when
// smoothing is disabled.
func (e envelope) fall(v *float64, hold *int) {
	if e.disabled {
		*v = 0
		return
	}
	if *hold < 0 {
		*v -= e.decay
	} else {
		*hold--
	}
}

// Reset zeroes bars, peaks and both hold counters.
func (d *BandDynamics) Reset() {
	clear(d.bars)
	clear(d.peaks)
	clear(d.barHold)
	clear(d.peakHold)
}

// Bars returns the displayed bar levels in [0, dB range].
func (d *BandDynamics) Bars() []float64 { return d.bars }

// Peaks returns the peak levels; Peaks()[i] >= Bars()[i].
func (d *BandDynamics) Peaks() []float64 { return d.peaks }

// DBRange returns the configured dB range.
func (d *BandDynamics) DBRange() float64 { return d.dbRange }

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
