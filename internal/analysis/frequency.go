// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
)

// Power below this floor is treated as the floor before taking the log.
const powerFloor = 1e-20

// FrequencyMapper maps a power spectrum onto note-aligned bands. Build must
// be called again whenever the sample rate, transform size or band count
// changes.
type FrequencyMapper struct {
	freq       []float64
	keys       []int // nearest transform bin per band
	lowResEnd  int
	bands      int
	fftSize    int
	sampleRate float64
}

// NewFrequencyMapper builds a mapper; see Build.
func NewFrequencyMapper(sampleRate float64, fftSize, bands int) (*FrequencyMapper, error) {
	m := &FrequencyMapper{}
	if err := m.Build(sampleRate, fftSize, bands); err != nil {
		return nil, err
	}
	return m, nil
}

// Build computes the band frequencies and bins. A sample rate of 0 falls
// back to DefaultSampleRate.
func (m *FrequencyMapper) Build(sampleRate float64, fftSize, bands int) error {
	if bands < 1 || bands > MaxNoteBands {
		return fmt.Errorf("band count %d outside [1, %d]", bands, MaxNoteBands)
	}
	if fftSize <= 0 {
		return fmt.Errorf("fft size must be positive, got %d", fftSize)
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	if cap(m.freq) < bands {
		m.freq = make([]float64, bands)
		m.keys = make([]int, bands)
	}
	m.freq = m.freq[:bands]
	m.keys = m.keys[:bands]
	m.bands = bands
	m.fftSize = fftSize
	m.sampleRate = sampleRate
	m.lowResEnd = 0

	for i := range bands {
		m.freq[i] = NoteFrequency(i)
		m.keys[i] = int(math.Round(m.freq[i] * float64(fftSize) / sampleRate))
		if i > 0 && m.keys[i-1] == m.keys[i] {
			m.lowResEnd = i
		}
	}
	return nil
}

// Bands returns the number of bands.
func (m *FrequencyMapper) Bands() int { return m.bands }

// LowResEnd returns the last band that shares its bin with the band below.
func (m *FrequencyMapper) LowResEnd() int { return m.lowResEnd }

// SampleRate returns the effective sample rate.
func (m *FrequencyMapper) SampleRate() float64 { return m.sampleRate }

// Frequency returns the target frequency of band i.
func (m *FrequencyMapper) Frequency(i int) float64 { return m.freq[i] }

// Bin returns the transform bin nearest to band i.
func (m *FrequencyMapper) Bin(i int) int { return m.keys[i] }

// Interpolated reports whether band i is derived by interpolation rather
// than from a range of bins.
func (m *FrequencyMapper) Interpolated(i int) bool { return i <= m.lowResEnd+1 }

// Value returns the level of band i in dB.
func (m *FrequencyMapper) Value(power []float64, i int) float64 {
	if m.Interpolated(i) {
		return m.interpolate(power, i)
	}
	start, end := m.binRange(i)
	return toDB(maxPower(power, start, end))
}

// ValuesInto writes Value for every band into dst, which must hold Bands
// values.
func (m *FrequencyMapper) ValuesInto(power, dst []float64) {
	for i := range m.bands {
		dst[i] = m.Value(power, i)
	}
}

// interpolate evaluates a 4-point Lagrange polynomial through the levels of
// the bin before the run of bands sharing band i's bin, the run's bin and
// the next two distinct bins. x runs from 1 at the start of the run towards
// 2 at the next bin.
func (m *FrequencyMapper) interpolate(power []float64, i int) float64 {
	keys := m.keys
	last := m.bands - 1

	j := 0
	for i+j < m.bands && keys[i+j] == keys[i] {
		j++
	}
	next := min(i+j, last)

	l := j
	for i+l < m.bands && keys[i+l] == keys[next] {
		l++
	}
	after := min(i+l, last)

	k := 0
	for i+k >= 0 && keys[i+k] == keys[i] {
		j++
		k--
	}
	before := max(i+k, 0)

	v0 := toDB(binPower(power, keys[before]))
	v1 := toDB(binPower(power, keys[i]))
	v2 := toDB(binPower(power, keys[next]))
	v3 := toDB(binPower(power, keys[after]))

	x := 1 + (1/float64(j-1))*float64(-k-1)
	return lagrange(v0, v1, v2, v3, x)
}

// binRange returns the half-open bin range [start, end) between the
// midpoints to the neighbouring bands' bins. Edge bands use their own bin
// as the outer bound.
func (m *FrequencyMapper) binRange(i int) (start, end int) {
	keys := m.keys
	if i > 0 {
		start = (keys[i]-keys[i-1])/2 + keys[i-1]
		if start == keys[i-1] {
			start = keys[i]
		}
	} else {
		start = keys[i]
	}
	if i < m.bands-1 {
		end = (keys[i+1]-keys[i])/2 + keys[i]
		if end == keys[i+1] {
			end = keys[i]
		}
	} else {
		end = keys[i]
	}
	return start, end
}

func lagrange(y0, y1, y2, y3, x float64) float64 {
	a0 := ((x - 1) * (x - 2) * (x - 3)) / -6 * y0
	a1 := (x * (x - 2) * (x - 3)) / 2 * y1
	a2 := (x * (x - 1) * (x - 3)) / -2 * y2
	a3 := (x * (x - 1) * (x - 2)) / 6 * y3
	return a0 + a1 + a2 + a3
}

// binPower returns power[bin], or 0 for bins past the end of the spectrum.
func binPower(power []float64, bin int) float64 {
	if bin < 0 || bin >= len(power) {
		return 0
	}
	return power[bin]
}

// maxPower returns the largest power in [start, end). An empty range yields
// the single bin at end.
func maxPower(power []float64, start, end int) float64 {
	if start >= end {
		return binPower(power, end)
	}
	v := 0.0
	for b := start; b < end && b < len(power); b++ {
		v = max(v, power[b])
	}
	return v
}

func toDB(p float64) float64 {
	return 10 * math.Log10(max(p, powerFloor))
}
