// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	applog "spectrum/internal/log"
	"spectrum/pkg/bitint"
)

// Transform size limits.
const (
	MinFFTSize = 512
	MaxFFTSize = 32768
)

// Pre-allocated buffers for one transform.
type fftWorkspace struct {
	input  []float64    // windowed snapshot of the sample buffer
	coeffs []complex128 // N/2+1 transform outputs
	power  []float64    // N/2 power values
	window []float64
}

// Analyzer turns the sample buffer into a power spectrum. It is owned by
// the render goroutine; only the snapshot step touches shared state.
type Analyzer struct {
	fft        *fourier.FFT
	size       int
	windowFunc WindowFunc
	workspace  fftWorkspace
}

// NewAnalyzer allocates a transform of size points. size must be a power
// of two in [MinFFTSize, MaxFFTSize].
func NewAnalyzer(size int, wf WindowFunc) (*Analyzer, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", size)
	}
	if size < MinFFTSize || size > MaxFFTSize {
		return nil, fmt.Errorf("fft size %d outside [%d, %d]", size, MinFFTSize, MaxFFTSize)
	}

	applog.Debugf("Analysis: initializing analyzer (size %d, window %s)", size, wf)

	return &Analyzer{
		fft:        fourier.NewFFT(size),
		size:       size,
		windowFunc: wf,
		workspace: fftWorkspace{
			input:  make([]float64, size),
			coeffs: make([]complex128, size/2+1),
			power:  make([]float64, size/2),
			window: NewWindowTable(size, wf),
		},
	}, nil
}

// Analyze recomputes the power spectrum from buf. It does nothing and
// returns false when buf has not filled up yet; the previous spectrum is
// kept in that case.
func (a *Analyzer) Analyze(buf *SampleBuffer) bool {
	if buf.Cap() != a.size {
		applog.Errorf("Analysis: buffer capacity %d does not match fft size %d", buf.Cap(), a.size)
		return false
	}
	if !buf.SnapshotAndWindow(a.workspace.input, a.workspace.window) {
		return false
	}

	a.fft.Coefficients(a.workspace.coeffs, a.workspace.input)

	for i := range a.workspace.power {
		c := a.workspace.coeffs[i]
		re, im := real(c), imag(c)
		a.workspace.power[i] = re*re + im*im
	}
	return true
}

// Power returns the latest N/2 power values. The slice is reused by the
// next Analyze call.
func (a *Analyzer) Power() []float64 { return a.workspace.power }

// Size returns the transform size.
func (a *Analyzer) Size() int { return a.size }

// Window returns the window function in use.
func (a *Analyzer) Window() WindowFunc { return a.windowFunc }

// BinFrequency returns the centre frequency of bin at sampleRate.
func (a *Analyzer) BinFrequency(bin int, sampleRate float64) float64 {
	if bin < 0 || bin >= len(a.workspace.coeffs) {
		return 0
	}
	return float64(bin) * sampleRate / float64(a.size)
}
