package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"spectrum/internal/config"
	applog "spectrum/internal/log"
)

// Recorder writes float samples to a PCM WAV file. Write is safe to call
// from the audio goroutine while Close runs elsewhere.
type Recorder struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	enc      *wav.Encoder
	buf      *goaudio.IntBuffer
	scale    float64
	channels int

	maxFrames int // 0 for unlimited
	frames    int
	failures  int
	disabled  bool
}

// NewRecorder creates path and writes a WAV header for the given format.
// maxDuration of 0 records without limit.
func NewRecorder(path string, sampleRate, channels, bitDepth int, maxDuration time.Duration) (*Recorder, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid recording format: %d Hz, %d channels", sampleRate, channels)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	r := &Recorder{
		path:     path,
		file:     file,
		enc:      wav.NewEncoder(file, sampleRate, bitDepth, channels, 1),
		scale:    float64(int64(1)<<(bitDepth-1) - 1),
		channels: channels,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
	}
	if maxDuration > 0 {
		r.maxFrames = int(maxDuration.Seconds() * float64(sampleRate))
	}
	applog.Infof("Recorder: Writing %s (%d Hz, %d ch, %d bit)", path, sampleRate, channels, bitDepth)
	return r, nil
}

// RecordingPath returns a timestamped file name inside dir, creating dir.
func RecordingPath(dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create recording directory: %w", err)
	}
	return filepath.Join(dir, "spectrum-"+now.Format("20060102-150405")+".wav"), nil
}

// NewRecorderFromConfig opens a recorder in rc.OutputDir.
func NewRecorderFromConfig(rc config.RecordingConfig, sampleRate, channels int) (*Recorder, error) {
	path, err := RecordingPath(rc.OutputDir, time.Now())
	if err != nil {
		return nil, err
	}
	return NewRecorder(path, sampleRate, channels, rc.BitDepth, time.Duration(rc.MaxDuration)*time.Second)
}

// Write appends interleaved samples in [-1, 1]. Writing stops silently
// once the maximum duration is reached, and for good after repeated
// encoder failures.
func (r *Recorder) Write(samples []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.enc == nil || r.disabled {
		return nil
	}
	if r.maxFrames > 0 {
		left := (r.maxFrames - r.frames) * r.channels
		if left <= 0 {
			return nil
		}
		if len(samples) > left {
			samples = samples[:left]
		}
	}

	if cap(r.buf.Data) < len(samples) {
		r.buf.Data = make([]int, len(samples))
	}
	r.buf.Data = r.buf.Data[:len(samples)]
	for i, s := range samples {
		r.buf.Data[i] = int(float64(min(max(s, -1), 1)) * r.scale)
	}

	if err := r.enc.Write(r.buf); err != nil {
		r.failures++
		if r.failures >= config.DefaultMaxConsecutiveWriteFailures {
			r.disabled = true
			applog.Errorf("Recorder: Disabled after %d failed writes: %v", r.failures, err)
		}
		return fmt.Errorf("failed to write samples: %w", err)
	}
	r.failures = 0
	r.frames += len(samples) / r.channels
	return nil
}

// Frames returns the number of frames written so far.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Path returns the output file.
func (r *Recorder) Path() string { return r.path }

// Close finalizes the WAV header and closes the file. Closing twice is a
// no-op.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.enc == nil {
		return nil
	}
	encErr := r.enc.Close()
	fileErr := r.file.Close()
	r.enc, r.file = nil, nil

	if encErr != nil {
		return fmt.Errorf("failed to finalize recording: %w", encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("failed to close recording: %w", fileErr)
	}
	applog.Infof("Recorder: Closed %s after %d frames", r.path, r.frames)
	return nil
}
