// SPDX-License-Identifier: MIT
//
// Package visualizer ties the analysis pipeline and the rasterizer
// together behind the three calls a host makes: OnAudioData from the audio
// goroutine, OnTick from the refresh timer and OnPlaybackEvent for
// playback and configuration changes.
//
// Only OnAudioData may run concurrently with the other methods. It touches
// nothing but the sample buffer, which has its own lock. Everything else
// is serialized by the visualizer's mutex, so Rebuild never overlaps a
// render pass.
package visualizer

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"spectrum/internal/analysis"
	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/internal/render"
)

// FrameInfo describes the most recent tick for transports.
type FrameInfo struct {
	Seq        uint64
	Timestamp  time.Time
	Bands      int
	DBRange    float64
	SampleRate float64
	Status     analysis.PlaybackStatus
}

// newMapper is swapped in tests.
var newMapper = analysis.NewFrequencyMapper

// Visualizer owns one spectrum pipeline and its frame.
type Visualizer struct {
	buffer atomic.Pointer[analysis.SampleBuffer]

	mu       sync.Mutex
	cfg      config.Spectrum
	analyzer *analysis.Analyzer
	mapper   *analysis.FrequencyMapper
	dynamics *analysis.BandDynamics
	raster   *render.Rasterizer
	raw      []float64
	frame    *image.RGBA
	status   analysis.PlaybackStatus
	hover    int
	info     FrameInfo
}

// New builds a visualizer for cfg with a frame of the default size. The
// sample rate starts at 44100 until a song-started event says otherwise.
func New(cfg config.Spectrum) (*Visualizer, error) {
	cfg = cfg.Clone()
	cfg.Normalize()

	v := &Visualizer{cfg: cfg, hover: -1}
	buf, an, err := newAnalysis(cfg)
	if err != nil {
		return nil, err
	}
	mapper, err := newMapper(analysis.DefaultSampleRate, cfg.FFTSize, cfg.Bands)
	if err != nil {
		return nil, fmt.Errorf("failed to build frequency mapper: %w", err)
	}

	v.buffer.Store(buf)
	v.analyzer = an
	v.mapper = mapper
	v.dynamics = analysis.NewBandDynamics(cfg.Bands, cfg)
	v.raster = render.NewRasterizer(cfg)
	v.raw = make([]float64, cfg.Bands)
	v.resize(config.DefaultWidth, config.DefaultHeight)

	applog.Debugf("Visualizer: created (fft=%d, bands=%d, window=%s, renderer=%s)",
		cfg.FFTSize, cfg.Bands, an.Window(), cfg.Renderer)
	return v, nil
}

func newAnalysis(cfg config.Spectrum) (*analysis.SampleBuffer, *analysis.Analyzer, error) {
	wf, err := analysis.ParseWindowFunc(cfg.Window)
	if err != nil {
		applog.Warnf("Visualizer: %v, using %s", err, wf)
	}
	an, err := analysis.NewAnalyzer(cfg.FFTSize, wf)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create analyzer: %w", err)
	}
	buf, err := analysis.NewSampleBuffer(cfg.FFTSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sample buffer: %w", err)
	}
	return buf, an, nil
}

// Rebuild applies a new configuration. The transform and the sample buffer
// are replaced only when the transform size or window changed. Band state
// survives when the band count is unchanged. On error the previous
// configuration stays in effect.
func (v *Visualizer) Rebuild(cfg config.Spectrum) error {
	cfg = cfg.Clone()
	cfg.Normalize()

	v.mu.Lock()
	defer v.mu.Unlock()

	var (
		buf *analysis.SampleBuffer
		an  *analysis.Analyzer
		err error
	)
	if cfg.FFTSize != v.cfg.FFTSize || cfg.Window != v.cfg.Window {
		buf, an, err = newAnalysis(cfg)
		if err != nil {
			return err
		}
	}
	mapper, err := newMapper(v.mapper.SampleRate(), cfg.FFTSize, cfg.Bands)
	if err != nil {
		return fmt.Errorf("failed to rebuild frequency mapper: %w", err)
	}

	if an != nil {
		v.analyzer = an
		v.buffer.Store(buf)
	}
	v.mapper = mapper
	if len(v.raw) != cfg.Bands {
		v.raw = make([]float64, cfg.Bands)
		v.hover = -1
	}
	v.dynamics.Configure(cfg.Bands, cfg)
	v.raster.Configure(cfg)
	v.cfg = cfg

	applog.Infof("Visualizer: configuration applied (fft=%d, bands=%d, refresh=%dms)",
		cfg.FFTSize, cfg.Bands, cfg.RefreshInterval)
	return nil
}

// Config returns a copy of the configuration in effect.
func (v *Visualizer) Config() config.Spectrum {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg.Clone()
}

// Resize changes the frame size. Non-positive sizes are ignored.
func (v *Visualizer) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resize(width, height)
}

func (v *Visualizer) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if v.frame != nil && v.frame.Rect.Dx() == width && v.frame.Rect.Dy() == height {
		return
	}
	v.frame = image.NewRGBA(image.Rect(0, 0, width, height))
	v.raster.Resize(width, height)
	v.hover = -1
}

// OnAudioData feeds one block from the audio source.
func (v *Visualizer) OnAudioData(blk analysis.Block) {
	v.buffer.Load().Push(blk)
}

// OnTick runs one render pass and returns the frame. It returns nil while
// paused. The frame is reused by the next tick.
//
// While stopped the band state is zeroed. While playing the spectrum is
// analyzed once the buffer is full; until then the previous state is drawn
// unchanged.
func (v *Visualizer) OnTick() *image.RGBA {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.status {
	case analysis.Paused:
		return nil
	case analysis.Stopped:
		v.dynamics.Advance(nil, analysis.Stopped)
	case analysis.Playing:
		if v.analyzer.Analyze(v.buffer.Load()) {
			v.mapper.ValuesInto(v.analyzer.Power(), v.raw)
			v.dynamics.Advance(v.raw, analysis.Playing)
		}
	}

	v.raster.Render(v.frame, v.dynamics.Bars(), v.dynamics.Peaks(), v.hover)

	v.info.Seq++
	v.info.Timestamp = time.Now()
	v.info.Bands = v.cfg.Bands
	v.info.DBRange = v.dynamics.DBRange()
	v.info.SampleRate = v.mapper.SampleRate()
	v.info.Status = v.status
	return v.frame
}

// OnPlaybackEvent applies a host notification. Only a config change can
// fail.
func (v *Visualizer) OnPlaybackEvent(ev Event) error {
	if ev.Kind == EventConfigChanged {
		if ev.Config == nil {
			return fmt.Errorf("config-changed event without a configuration")
		}
		return v.Rebuild(*ev.Config)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	switch ev.Kind {
	case EventSongStarted:
		sr := ev.SampleRate
		if sr <= 0 {
			sr = analysis.DefaultSampleRate
		}
		if err := v.mapper.Build(sr, v.cfg.FFTSize, v.cfg.Bands); err != nil {
			return fmt.Errorf("failed to rebuild frequency mapper: %w", err)
		}
		v.status = analysis.Playing
		applog.Debugf("Visualizer: song started at %.0f Hz", sr)
	case EventResumed:
		v.status = analysis.Playing
	case EventPaused:
		v.status = analysis.Paused
	case EventStopped:
		v.status = analysis.Stopped
		v.buffer.Load().Reset()
		v.dynamics.Reset()
	default:
		return fmt.Errorf("unknown playback event %d", ev.Kind)
	}
	return nil
}

// Status returns the playback status.
func (v *Visualizer) Status() analysis.PlaybackStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// SetPointer records the pointer position in frame coordinates for the
// hover highlight and the tooltip.
func (v *Visualizer) SetPointer(x, y int, inside bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.hover = -1
	if !inside || y < 0 || y >= v.frame.Rect.Dy() {
		return
	}
	if band, ok := v.raster.Layout().BandAt(x); ok {
		v.hover = band
	}
}

// Tooltip returns the centre frequency and note name of the band under
// the pointer.
func (v *Visualizer) Tooltip() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.hover < 0 || v.hover >= v.mapper.Bands() {
		return "", false
	}
	return fmt.Sprintf("%.0f Hz (%s)", v.mapper.Frequency(v.hover), analysis.NoteName(v.hover)), true
}

// BandsInto copies the displayed bars and peaks and returns the number of
// bands copied.
func (v *Visualizer) BandsInto(bars, peaks []float64) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := copy(bars, v.dynamics.Bars())
	if m := copy(peaks, v.dynamics.Peaks()); m < n {
		n = m
	}
	return n
}

// Frame returns metadata about the last tick.
func (v *Visualizer) Frame() FrameInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.info
}

// Size returns the frame size.
func (v *Visualizer) Size() (width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frame.Rect.Dx(), v.frame.Rect.Dy()
}
