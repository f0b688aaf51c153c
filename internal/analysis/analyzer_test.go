// SPDX-License-Identifier: MIT
package analysis

import (
	"strconv"
	"testing"

	"spectrum/pkg/utils"
)

const (
	testFFTSize    = 1024
	testSampleRate = 44100
)

func filledBuffer(t testing.TB, size int, signal []float32) *SampleBuffer {
	t.Helper()
	b, err := NewSampleBuffer(size)
	if err != nil {
		t.Fatal(err)
	}
	b.Push(Block{Samples: signal, Channels: 1})
	return b
}

func TestNewAnalyzer_InvalidSize(t *testing.T) {
	for _, n := range []int{0, 1000, 256, 65536} {
		if _, err := NewAnalyzer(n, BlackmanHarris); err == nil {
			t.Errorf("NewAnalyzer(%d) expected error", n)
		}
	}
}

func TestAnalyzer_NotReadyIsNoOp(t *testing.T) {
	a, err := NewAnalyzer(testFFTSize, BlackmanHarris)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewSampleBuffer(testFFTSize)
	b.Push(Block{Samples: make([]float32, 100), Channels: 1})

	a.Power()[3] = 7
	if a.Analyze(b) {
		t.Fatal("Analyze ran on a buffer that is not full")
	}
	if a.Power()[3] != 7 {
		t.Error("power modified by a skipped analysis")
	}
}

func TestAnalyzer_SinePeak(t *testing.T) {
	tests := []struct {
		name string
		bin  int
		wf   WindowFunc
	}{
		{"BlackmanHarris bin 41", 41, BlackmanHarris},
		{"Hann bin 100", 100, Hann},
		{"Hamming bin 7", 7, Hamming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAnalyzer(testFFTSize, tt.wf)
			if err != nil {
				t.Fatal(err)
			}
			freq := utils.BinFrequency(tt.bin, testFFTSize, testSampleRate)
			b := filledBuffer(t, testFFTSize, utils.GenerateSineWave(testFFTSize, testSampleRate, freq))

			if !a.Analyze(b) {
				t.Fatal("Analyze returned false on a full buffer")
			}
			power := a.Power()
			if len(power) != testFFTSize/2 {
				t.Fatalf("len(power) = %d, want %d", len(power), testFFTSize/2)
			}
			for i, p := range power {
				if p < 0 {
					t.Fatalf("power[%d] = %g is negative", i, p)
				}
			}

			mags := make([]float64, len(power))
			copy(mags, power)
			if got := utils.FindPeakBin(mags, 0, len(mags)-1); got != tt.bin {
				t.Errorf("peak bin = %d, want %d", got, tt.bin)
			}
		})
	}
}

func TestAnalyzer_SilenceIsZero(t *testing.T) {
	a, _ := NewAnalyzer(testFFTSize, BlackmanHarris)
	b := filledBuffer(t, testFFTSize, make([]float32, testFFTSize))
	a.Analyze(b)
	for i, p := range a.Power() {
		if p != 0 {
			t.Fatalf("power[%d] = %g, want 0", i, p)
		}
	}
}

func TestAnalyzer_MismatchedBuffer(t *testing.T) {
	a, _ := NewAnalyzer(testFFTSize, BlackmanHarris)
	b := filledBuffer(t, 2*testFFTSize, make([]float32, 2*testFFTSize))
	if a.Analyze(b) {
		t.Error("Analyze accepted a buffer of the wrong size")
	}
}

func TestAnalyzer_BinFrequency(t *testing.T) {
	a, _ := NewAnalyzer(testFFTSize, BlackmanHarris)
	if got := a.BinFrequency(0, testSampleRate); got != 0 {
		t.Errorf("BinFrequency(0) = %f", got)
	}
	if got := a.BinFrequency(testFFTSize/2, testSampleRate); got != testSampleRate/2 {
		t.Errorf("BinFrequency(N/2) = %f, want Nyquist", got)
	}
	if got := a.BinFrequency(testFFTSize, testSampleRate); got != 0 {
		t.Errorf("BinFrequency(N) = %f, want 0", got)
	}
}

func TestAnalyzeHotPath(t *testing.T) {
	a, _ := NewAnalyzer(testFFTSize, BlackmanHarris)
	b := filledBuffer(t, testFFTSize, utils.GenerateComplexWave(testFFTSize, testSampleRate))

	// Warm-up.
	a.Analyze(b)
	allocs := testing.AllocsPerRun(100, func() {
		a.Analyze(b)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Analyze hot path, got %.1f", allocs)
	}
}

func BenchmarkAnalyze(b *testing.B) {
	for _, size := range []int{1024, 8192, 32768} {
		b.Run(strconv.Itoa(size), func(b *testing.B) {
			a, _ := NewAnalyzer(size, BlackmanHarris)
			buf := filledBuffer(b, size, utils.GenerateComplexWave(size, testSampleRate))
			b.ReportAllocs()
			for b.Loop() {
				a.Analyze(buf)
			}
		})
	}
}
