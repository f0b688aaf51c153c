// SPDX-License-Identifier: MIT
package analysis

import (
	"math/rand/v2"
	"testing"

	"spectrum/internal/config"
)

func dynamicsConfig(mutate func(*config.Spectrum)) config.Spectrum {
	cfg := config.DefaultSpectrum()
	if mutate != nil {
		mutate(&cfg)
	}
	return cfg
}

func TestBandDynamics_NoPersistenceWhenFalloffDisabled(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		raw    []float64
		want   []float64
	}{
		// Offset equal to the range removes the bias entirely.
		{"Unbiased", config.DefaultDBRange, []float64{20, 0, 0}, []float64{20, 0, 0}},
		// Default bias adds 70-63 = 7 dB.
		{"Default bias", DefaultCalibrationOffset, []float64{13, -7, -50}, []float64{20, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := dynamicsConfig(func(c *config.Spectrum) {
				c.DBRange = 70
				c.BarFalloff = config.FalloffDisabled
				c.BarDelay = 0
				c.CalibrationOffset = tt.offset
			})
			d := NewBandDynamics(1, cfg)

			for tick, raw := range tt.raw {
				d.Advance([]float64{raw}, Playing)
				if got := d.Bars()[0]; got != tt.want[tick] {
					t.Errorf("tick %d: bar = %f, want %f", tick, got, tt.want[tick])
				}
			}
		})
	}
}

func TestBandDynamics_DisabledBarTracksInputOnly(t *testing.T) {
	cfg := dynamicsConfig(func(c *config.Spectrum) { c.BarFalloff = config.FalloffDisabled })
	d := NewBandDynamics(4, cfg)
	offset := float64(cfg.DBRange - cfg.CalibrationOffset)

	rng := rand.New(rand.NewPCG(1, 2))
	raw := make([]float64, 4)
	for tick := range 200 {
		for i := range raw {
			raw[i] = rng.Float64()*120 - 60
		}
		d.Advance(raw, Playing)
		for i := range raw {
			want := clamp(raw[i]+offset, 0, float64(cfg.DBRange))
			if d.Bars()[i] != want {
				t.Fatalf("tick %d band %d: bar = %f, want %f", tick, i, d.Bars()[i], want)
			}
		}
	}
}

func TestBandDynamics_PeakNeverBelowBar(t *testing.T) {
	configs := map[string]config.Spectrum{
		"Defaults": dynamicsConfig(nil),
		"Fast bars": dynamicsConfig(func(c *config.Spectrum) {
			c.BarFalloff = 400
			c.BarDelay = 50
		}),
		"Fast peaks": dynamicsConfig(func(c *config.Spectrum) {
			c.BarFalloff = 30
			c.PeakFalloff = 1000
			c.PeakDelay = 0
		}),
		"Peaks disabled": dynamicsConfig(func(c *config.Spectrum) {
			c.BarFalloff = 60
			c.PeakFalloff = config.FalloffDisabled
		}),
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			d := NewBandDynamics(16, cfg)
			rng := rand.New(rand.NewPCG(7, 11))
			raw := make([]float64, 16)

			for tick := range 500 {
				for i := range raw {
					raw[i] = rng.Float64()*100 - 70
				}
				d.Advance(raw, Playing)
				for i := range raw {
					if d.Peaks()[i] < d.Bars()[i] {
						t.Fatalf("tick %d band %d: peak %f < bar %f", tick, i, d.Peaks()[i], d.Bars()[i])
					}
					if d.Bars()[i] < 0 || d.Bars()[i] > float64(cfg.DBRange) {
						t.Fatalf("tick %d band %d: bar %f outside [0, %d]", tick, i, d.Bars()[i], cfg.DBRange)
					}
				}
			}
		})
	}
}

func TestBandDynamics_StoppedIsIdempotent(t *testing.T) {
	d := NewBandDynamics(3, dynamicsConfig(func(c *config.Spectrum) { c.BarFalloff = 10 }))
	d.Advance([]float64{50, 40, 30}, Playing)

	for range 3 {
		d.Advance([]float64{60, 60, 60}, Stopped)
		for i := range 3 {
			if d.Bars()[i] != 0 || d.Peaks()[i] != 0 || d.barHold[i] != 0 || d.peakHold[i] != 0 {
				t.Fatalf("band %d not zeroed: bar %f peak %f holds %d/%d",
					i, d.Bars()[i], d.Peaks()[i], d.barHold[i], d.peakHold[i])
			}
		}
	}
}

func TestBandDynamics_PausedFreezes(t *testing.T) {
	d := NewBandDynamics(2, dynamicsConfig(func(c *config.Spectrum) { c.BarFalloff = 100 }))
	d.Advance([]float64{40, 20}, Playing)
	bars := append([]float64(nil), d.Bars()...)
	peaks := append([]float64(nil), d.Peaks()...)

	for range 10 {
		d.Advance([]float64{-100, 100}, Paused)
	}
	for i := range bars {
		if d.Bars()[i] != bars[i] || d.Peaks()[i] != peaks[i] {
			t.Errorf("band %d changed while paused", i)
		}
	}
}

func TestBandDynamics_DelayThenDecay(t *testing.T) {
	cfg := dynamicsConfig(func(c *config.Spectrum) {
		c.RefreshInterval = 25
		c.DBRange = 70
		c.CalibrationOffset = 70
		c.BarFalloff = 200 // 5 dB per tick
		c.BarDelay = 100   // 4 ticks
		c.PeakFalloff = config.FalloffDisabled
	})
	d := NewBandDynamics(1, cfg)

	// Attack, then five held ticks (counter 4..0), then decay.
	raw := []float64{50, 0, 0, 0, 0, 0, 0, 0}
	want := []float64{50, 50, 50, 50, 50, 50, 45, 40}
	for tick := range raw {
		d.Advance([]float64{raw[tick]}, Playing)
		if got := d.Bars()[0]; got != want[tick] {
			t.Errorf("tick %d: bar = %f, want %f", tick, got, want[tick])
		}
	}
}

func TestBandDynamics_PeakHoldsLongerThanBar(t *testing.T) {
	cfg := dynamicsConfig(func(c *config.Spectrum) {
		c.CalibrationOffset = c.DBRange
		c.BarFalloff = 400 // 10 dB per tick
		c.BarDelay = 0
	})
	d := NewBandDynamics(1, cfg)

	d.Advance([]float64{60}, Playing)
	for range 5 {
		d.Advance([]float64{0}, Playing)
	}
	if d.Bars()[0] >= 60 {
		t.Errorf("bar did not fall: %f", d.Bars()[0])
	}
	if d.Peaks()[0] != 60 {
		t.Errorf("peak = %f, want held at 60", d.Peaks()[0])
	}
}

func TestBandDynamics_ClampsToRange(t *testing.T) {
	d := NewBandDynamics(2, dynamicsConfig(nil))
	d.Advance([]float64{1000, -1000}, Playing)
	if d.Bars()[0] != 70 || d.Bars()[1] != 0 {
		t.Errorf("bars = %v, want [70 0]", d.Bars())
	}
}

func TestBandDynamics_ConfigureKeepsStateForSameBands(t *testing.T) {
	cfg := dynamicsConfig(func(c *config.Spectrum) { c.BarFalloff = 10 })
	d := NewBandDynamics(2, cfg)
	d.Advance([]float64{30, 30}, Playing)

	d.Configure(2, cfg)
	if d.Bars()[0] == 0 {
		t.Error("state lost on reconfigure with the same band count")
	}
	d.Configure(3, cfg)
	if len(d.Bars()) != 3 || d.Bars()[0] != 0 {
		t.Errorf("state not reset on band count change: %v", d.Bars())
	}
}

func TestAdvanceZeroAllocs(t *testing.T) {
	d := NewBandDynamics(126, dynamicsConfig(nil))
	raw := make([]float64, 126)

	allocs := testing.AllocsPerRun(100, func() {
		d.Advance(raw, Playing)
	})
	if allocs > 0 {
		t.Errorf("Advance allocated %.1f times, want 0", allocs)
	}
}
