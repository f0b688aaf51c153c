package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	applog "spectrum/internal/log"
	"spectrum/internal/visualizer"
)

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate int
	otoCh   int
	otoErr  error
)

func otoContext(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   50 * time.Millisecond,
		})
		if err != nil {
			otoErr = fmt.Errorf("failed to create audio output: %w", err)
			return
		}
		<-ready
		otoCtx, otoRate, otoCh = ctx, sampleRate, channels
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoRate != sampleRate || otoCh != channels {
		return nil, fmt.Errorf("audio output already opened at %d Hz/%d ch, cannot play %d Hz/%d ch",
			otoRate, otoCh, sampleRate, channels)
	}
	return otoCtx, nil
}

// trackReader streams a track as little-endian float32 bytes and hands
// every chunk it produces to the listener.
type trackReader struct {
	track    *Track
	listener Listener
	pos      atomic.Int64 // samples already read
	onEnd    func()
}

func (r *trackReader) Read(p []byte) (int, error) {
	ch := r.track.Channels
	pos := int(r.pos.Load())
	n := min(len(p)/4, len(r.track.Samples)-pos)
	n -= n % ch
	if n <= 0 {
		r.onEnd()
		return 0, io.EOF
	}

	chunk := r.track.Samples[pos : pos+n]
	for i, s := range chunk {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(s))
	}
	r.pos.Store(int64(pos + n))
	r.listener.OnAudioData(r.track.Block(pos/ch, n/ch))
	return 4 * n, nil
}

// FilePlayer plays a Track on the default output device and feeds the
// listener with what it plays.
type FilePlayer struct {
	track    *Track
	listener Listener
	reader   *trackReader

	mu      sync.Mutex
	player  *oto.Player
	paused  bool
	stopped bool

	done     chan struct{}
	doneOnce sync.Once
}

// NewFilePlayer prepares playback of track.
func NewFilePlayer(track *Track, l Listener) (*FilePlayer, error) {
	if track == nil || track.Channels <= 0 || track.SampleRate <= 0 {
		return nil, errors.New("invalid track")
	}
	fp := &FilePlayer{track: track, listener: l, done: make(chan struct{})}
	fp.reader = &trackReader{track: track, listener: l, onEnd: fp.finish}
	return fp, nil
}

// Play opens the output and starts playback.
func (fp *FilePlayer) Play() error {
	ctx, err := otoContext(fp.track.SampleRate, fp.track.Channels)
	if err != nil {
		return err
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()
	if fp.player != nil {
		return errors.New("already playing")
	}
	fp.player = ctx.NewPlayer(fp.reader)
	fp.listener.OnPlaybackEvent(visualizer.SongStarted(float64(fp.track.SampleRate)))
	fp.player.Play()
	applog.Infof("FilePlayer: Playing %s of audio (%d Hz, %d ch)",
		fp.track.Duration().Round(time.Millisecond), fp.track.SampleRate, fp.track.Channels)
	return nil
}

// TogglePause pauses or resumes playback and reports whether playback is
// now paused.
func (fp *FilePlayer) TogglePause() bool {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.player == nil || fp.stopped {
		return false
	}
	if fp.paused {
		fp.player.Play()
		fp.paused = false
		fp.listener.OnPlaybackEvent(visualizer.Resumed())
	} else {
		fp.player.Pause()
		fp.paused = true
		fp.listener.OnPlaybackEvent(visualizer.Paused())
	}
	return fp.paused
}

// Position returns how far the reader has progressed through the track.
func (fp *FilePlayer) Position() time.Duration {
	frames := int(fp.reader.pos.Load()) / fp.track.Channels
	return time.Duration(frames) * time.Second / time.Duration(fp.track.SampleRate)
}

// Done is closed when the track ends or Stop is called.
func (fp *FilePlayer) Done() <-chan struct{} { return fp.done }

func (fp *FilePlayer) finish() {
	fp.doneOnce.Do(func() {
		fp.listener.OnPlaybackEvent(visualizer.Stopped())
		close(fp.done)
	})
}

// Stop ends playback.
func (fp *FilePlayer) Stop() error {
	fp.mu.Lock()
	player := fp.player
	fp.stopped = true
	fp.mu.Unlock()

	var err error
	if player != nil {
		player.Pause()
		err = player.Close()
	}
	fp.finish()
	return err
}

// Close is Stop.
func (fp *FilePlayer) Close() error { return fp.Stop() }
