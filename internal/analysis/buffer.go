// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"sync"
)

// Block is one delivery from an audio source: interleaved samples for
// Channels channels. Frames is len(Samples)/Channels.
type Block struct {
	Samples  []float32
	Channels int
}

// Frames returns the number of complete frames in the block.
func (b Block) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// SampleBuffer keeps the most recent capacity mono samples. Each frame is
// reduced to the maximum across its channels. Push is called from the audio
// goroutine and SnapshotAndWindow from the render goroutine; both hold the
// same lock for the duration of a copy and nothing else.
type SampleBuffer struct {
	mu       sync.Mutex
	samples  []float64
	buffered int
}

// NewSampleBuffer allocates a buffer holding capacity samples.
func NewSampleBuffer(capacity int) (*SampleBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("sample buffer capacity must be positive, got %d", capacity)
	}
	return &SampleBuffer{samples: make([]float64, capacity)}, nil
}

// Cap returns the buffer capacity in samples.
func (b *SampleBuffer) Cap() int { return len(b.samples) }

// Push appends a block. Older samples shift towards the head and fall off.
// If the block holds more frames than the capacity, only its most recent
// frames are kept.
func (b *SampleBuffer) Push(blk Block) {
	frames := blk.Frames()
	if frames == 0 {
		return
	}
	ch := blk.Channels
	size := len(b.samples)

	b.mu.Lock()
	defer b.mu.Unlock()

	skip := 0
	n := frames
	if n > size {
		skip = n - size
		n = size
	}
	keep := size - n
	copy(b.samples, b.samples[n:])

	for i := 0; i < n; i++ {
		frame := blk.Samples[(skip+i)*ch : (skip+i+1)*ch]
		v := frame[0]
		for _, s := range frame[1:] {
			if s > v {
				v = s
			}
		}
		b.samples[keep+i] = float64(v)
	}

	b.buffered = min(b.buffered+n, size)
}

// IsReady reports whether a full window of samples has been received.
func (b *SampleBuffer) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffered >= len(b.samples)
}

// Buffered returns how many samples have been received, up to Cap.
func (b *SampleBuffer) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffered
}

// SnapshotAndWindow writes samples[i]*window[i] into dst under the lock.
// It returns false and leaves dst untouched when the buffer is not full.
// dst and window must both have length Cap.
func (b *SampleBuffer) SnapshotAndWindow(dst, window []float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buffered < len(b.samples) {
		return false
	}
	for i, s := range b.samples {
		dst[i] = s * window[i]
	}
	return true
}

// Reset clears the buffer back to not-ready.
func (b *SampleBuffer) Reset() {
	b.mu.Lock()
	clear(b.samples)
	b.buffered = 0
	b.mu.Unlock()
}
