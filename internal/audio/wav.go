package audio

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"

	"spectrum/internal/analysis"
)

// Track is a decoded audio file held in memory as interleaved float
// samples in [-1, 1].
type Track struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// Frames returns the number of frames in the track.
func (t *Track) Frames() int {
	if t.Channels <= 0 {
		return 0
	}
	return len(t.Samples) / t.Channels
}

// Duration returns the playing time.
func (t *Track) Duration() time.Duration {
	if t.SampleRate <= 0 {
		return 0
	}
	return time.Duration(t.Frames()) * time.Second / time.Duration(t.SampleRate)
}

// Block returns frames frames starting at frame start, clipped to the
// end of the track. The block aliases the track.
func (t *Track) Block(start, frames int) analysis.Block {
	n := t.Frames()
	start = min(max(start, 0), n)
	end := min(start+max(frames, 0), n)
	return analysis.Block{
		Samples:  t.Samples[start*t.Channels : end*t.Channels],
		Channels: t.Channels,
	}
}

// LoadWAV decodes a 16, 24 or 32 bit integer PCM WAV file.
func LoadWAV(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}
	if d.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%s: unsupported WAV format %d, only integer PCM is supported", path, d.WavAudioFormat)
	}
	depth := int(d.BitDepth)
	switch depth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%s: unsupported bit depth %d", path, depth)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	scale := 1 / float64(int64(1)<<(depth-1))
	t := &Track{
		Samples:    make([]float32, len(buf.Data)),
		Channels:   int(d.NumChans),
		SampleRate: int(d.SampleRate),
	}
	for i, v := range buf.Data {
		t.Samples[i] = float32(float64(v) * scale)
	}
	if t.Channels <= 0 {
		return nil, fmt.Errorf("%s: no channels", path)
	}
	return t, nil
}
