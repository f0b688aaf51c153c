// Package utils holds signal generators and spectrum helpers shared by
// tests.
package utils

import "math"

// GenerateComplexWave returns a mono 440 Hz tone with its second and third
// harmonics, peaking at 0.9.
func GenerateComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// GenerateSineWave returns a mono sine at frequency with amplitude 0.9.
func GenerateSineWave(size int, sampleRate, frequency float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * 0.9)
	}
	return buffer
}

// Interleave spreads a mono signal over channels. gains scales each
// channel; missing gains default to 1.
func Interleave(mono []float32, channels int, gains ...float32) []float32 {
	if channels < 1 {
		channels = 1
	}
	out := make([]float32, len(mono)*channels)
	for i, s := range mono {
		for c := 0; c < channels; c++ {
			g := float32(1)
			if c < len(gains) {
				g = gains[c]
			}
			out[i*channels+c] = s * g
		}
	}
	return out
}

// FindPeakBin returns the index of the largest value in
// magnitudes[startBin:endBin+1]. Bounds are clamped.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}

// BinFrequency converts a transform bin index into Hz.
func BinFrequency(bin, fftSize int, sampleRate float64) float64 {
	return float64(bin) * sampleRate / float64(fftSize)
}
