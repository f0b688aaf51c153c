// SPDX-License-Identifier: MIT
package analysis

import (
	"sync"
	"testing"

	"spectrum/pkg/utils"
)

func ones(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

func snapshot(t *testing.T, b *SampleBuffer) []float64 {
	t.Helper()
	dst := make([]float64, b.Cap())
	if !b.SnapshotAndWindow(dst, ones(b.Cap())) {
		t.Fatalf("buffer not ready (%d/%d)", b.Buffered(), b.Cap())
	}
	return dst
}

func TestNewSampleBuffer_InvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -8} {
		if _, err := NewSampleBuffer(c); err == nil {
			t.Errorf("NewSampleBuffer(%d) expected error", c)
		}
	}
}

func TestSampleBuffer_MaxAcrossChannels(t *testing.T) {
	b, _ := NewSampleBuffer(4)
	b.Push(Block{
		Samples:  []float32{0.1, 0.5, -0.2, -0.7, 0.3, 0.3, -1, -0.5},
		Channels: 2,
	})

	got := snapshot(t, b)
	want := []float64{0.5, -0.2, 0.3, -0.5}
	for i := range want {
		if float32(got[i]) != float32(want[i]) {
			t.Errorf("sample[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestSampleBuffer_ShiftsOldestOut(t *testing.T) {
	b, _ := NewSampleBuffer(4)
	b.Push(Block{Samples: []float32{1, 2, 3}, Channels: 1})
	if b.IsReady() {
		t.Fatal("ready after 3 of 4 samples")
	}
	if b.Buffered() != 3 {
		t.Errorf("Buffered() = %d, want 3", b.Buffered())
	}

	b.Push(Block{Samples: []float32{4, 5}, Channels: 1})
	if !b.IsReady() {
		t.Fatal("not ready after 5 samples")
	}
	if b.Buffered() != 4 {
		t.Errorf("Buffered() = %d, want clamped 4", b.Buffered())
	}

	got := snapshot(t, b)
	want := []float64{2, 3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestSampleBuffer_OversizedBlockKeepsMostRecent(t *testing.T) {
	b, _ := NewSampleBuffer(3)
	b.Push(Block{Samples: []float32{1, 2, 3, 4, 5, 6}, Channels: 1})

	got := snapshot(t, b)
	want := []float64{4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestSampleBuffer_IgnoresEmptyAndPartialFrames(t *testing.T) {
	b, _ := NewSampleBuffer(2)
	b.Push(Block{})
	b.Push(Block{Samples: []float32{1}, Channels: 2})
	b.Push(Block{Samples: []float32{1, 2}, Channels: 0})
	if b.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", b.Buffered())
	}
}

func TestSampleBuffer_SnapshotAppliesWindow(t *testing.T) {
	b, _ := NewSampleBuffer(4)
	b.Push(Block{Samples: []float32{1, 1, 1, 1}, Channels: 1})

	dst := make([]float64, 4)
	if !b.SnapshotAndWindow(dst, []float64{0, 0.5, 1, 0.25}) {
		t.Fatal("not ready")
	}
	want := []float64{0, 0.5, 1, 0.25}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %f, want %f", i, dst[i], want[i])
		}
	}
}

func TestSampleBuffer_SnapshotBeforeReady(t *testing.T) {
	b, _ := NewSampleBuffer(4)
	b.Push(Block{Samples: []float32{1, 1}, Channels: 1})

	dst := []float64{9, 9, 9, 9}
	if b.SnapshotAndWindow(dst, ones(4)) {
		t.Fatal("snapshot succeeded before buffer was full")
	}
	if dst[0] != 9 {
		t.Error("dst modified by a failed snapshot")
	}
}

func TestSampleBuffer_Reset(t *testing.T) {
	b, _ := NewSampleBuffer(2)
	b.Push(Block{Samples: []float32{1, 2}, Channels: 1})
	b.Reset()
	if b.IsReady() || b.Buffered() != 0 {
		t.Errorf("Reset left buffered = %d", b.Buffered())
	}
}

func TestSampleBuffer_ConcurrentPushAndSnapshot(t *testing.T) {
	const size = 1024
	b, _ := NewSampleBuffer(size)
	block := Block{Samples: utils.GenerateSineWave(256, 44100, 440), Channels: 1}
	window := ones(size)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 500 {
			b.Push(block)
		}
	}()
	go func() {
		defer wg.Done()
		dst := make([]float64, size)
		for range 500 {
			b.SnapshotAndWindow(dst, window)
		}
	}()
	wg.Wait()

	if !b.IsReady() {
		t.Error("buffer not ready after concurrent pushes")
	}
}

func TestSampleBuffer_PushZeroAllocs(t *testing.T) {
	b, _ := NewSampleBuffer(4096)
	block := Block{Samples: utils.GenerateComplexWave(1024, 44100), Channels: 2}

	allocs := testing.AllocsPerRun(100, func() {
		b.Push(block)
	})
	if allocs > 0 {
		t.Errorf("Push allocated %.1f times, want 0", allocs)
	}
}

func BenchmarkSampleBufferPush(b *testing.B) {
	buf, _ := NewSampleBuffer(8192)
	block := Block{Samples: utils.GenerateComplexWave(1024, 44100), Channels: 2}

	b.ReportAllocs()
	for b.Loop() {
		buf.Push(block)
	}
}
