// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the window applied before the transform. The numeric
// values are persisted, so new entries go at the end.
type WindowFunc int

const (
	BlackmanHarris WindowFunc = iota
	Hann
	Hamming
	Blackman
	BlackmanNuttall
	Nuttall
	BartlettHann
	Lanczos
	FlatTop
	Rectangular
)

var windowNames = [...]string{
	BlackmanHarris:  "blackman-harris",
	Hann:            "hann",
	Hamming:         "hamming",
	Blackman:        "blackman",
	BlackmanNuttall: "blackman-nuttall",
	Nuttall:         "nuttall",
	BartlettHann:    "bartlett-hann",
	Lanczos:         "lanczos",
	FlatTop:         "flat-top",
	Rectangular:     "rectangular",
}

func (w WindowFunc) String() string {
	if w < 0 || int(w) >= len(windowNames) {
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
	return windowNames[w]
}

// ParseWindowFunc converts a name (case, dashes, underscores and spaces are
// ignored) or a persisted index to a WindowFunc. Unknown names return
// BlackmanHarris and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(name)); err == nil {
		if n >= 0 && n < len(windowNames) {
			return WindowFunc(n), nil
		}
		return BlackmanHarris, fmt.Errorf("unknown window function index %d", n)
	}

	key := normalizeWindowName(name)
	if key == "hanning" {
		return Hann, nil
	}
	for i, n := range windowNames {
		if normalizeWindowName(n) == key {
			return WindowFunc(i), nil
		}
	}
	return BlackmanHarris, fmt.Errorf("unknown window function name: '%s'", name)
}

func normalizeWindowName(s string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

// NewWindowTable returns the size coefficients of the window.
func NewWindowTable(size int, wf WindowFunc) []float64 {
	coeffs := make([]float64, size)
	applyWindow(coeffs, wf)
	return coeffs
}

// applyWindow fills coeffs with the window. The gonum functions multiply in
// place, so the slice is set to 1 first.
func applyWindow(coeffs []float64, wf WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch wf {
	case BlackmanHarris:
		window.BlackmanHarris(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case FlatTop:
		window.FlatTop(coeffs)
	case Rectangular:
		window.Rectangular(coeffs)
	default:
		window.BlackmanHarris(coeffs)
	}
}
