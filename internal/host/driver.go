// SPDX-License-Identifier: MIT
//
// Package host drives a visualizer the way a media player would: it owns
// the refresh timer, relays audio and playback events from a source, and
// distributes every rendered frame.
package host

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"spectrum/internal/analysis"
	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/internal/transport"
	"spectrum/internal/visualizer"
)

// FrameSink consumes rendered frames. WriteFrame runs on the timer
// goroutine and must not retain frame after returning.
type FrameSink interface {
	WriteFrame(frame *image.RGBA, info visualizer.FrameInfo) error
}

// Driver schedules ticks for one visualizer. At most one timer runs at a
// time. It is stopped while paused and on Close, and restarted on song
// start, resume and configuration change.
type Driver struct {
	vis   *visualizer.Visualizer
	store config.Store

	sinks      []FrameSink
	transports []transport.Transport

	runMu    sync.Mutex // serializes Start, Stop and restarts, held across the wait
	ticker   *time.Ticker
	doneChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex // guards ticker, doneChan and interval
	interval time.Duration

	tickMu      sync.Mutex // serializes Tick
	bars, peaks []float64

	closeOnce sync.Once
}

// NewDriver wraps vis. st may be nil, in which case nothing is persisted.
func NewDriver(vis *visualizer.Visualizer, st config.Store) *Driver {
	return &Driver{
		vis:      vis,
		store:    st,
		interval: refreshInterval(vis.Config()),
		bars:     make([]float64, analysis.MaxNoteBands),
		peaks:    make([]float64, analysis.MaxNoteBands),
	}
}

func refreshInterval(cfg config.Spectrum) time.Duration {
	return time.Duration(cfg.RefreshInterval) * time.Millisecond
}

// AddSink registers a frame consumer. Call before the first tick.
func (d *Driver) AddSink(s FrameSink) { d.sinks = append(d.sinks, s) }

// AddTransport registers a band frame consumer. Call before the first tick.
func (d *Driver) AddTransport(t transport.Transport) { d.transports = append(d.transports, t) }

// Visualizer returns the driven visualizer.
func (d *Driver) Visualizer() *visualizer.Visualizer { return d.vis }

// OnAudioData forwards a block to the visualizer.
func (d *Driver) OnAudioData(blk analysis.Block) {
	d.vis.OnAudioData(blk)
}

// OnPlaybackEvent forwards ev to the visualizer and adjusts the timer.
func (d *Driver) OnPlaybackEvent(ev visualizer.Event) {
	if err := d.vis.OnPlaybackEvent(ev); err != nil {
		applog.Errorf("Driver: %s event failed: %v", ev.Kind, err)
		return
	}
	applog.Debugf("Driver: %s", ev.Kind)

	switch ev.Kind {
	case visualizer.EventSongStarted, visualizer.EventResumed:
		d.Start()
	case visualizer.EventPaused:
		d.Stop()
	case visualizer.EventConfigChanged:
		d.runMu.Lock()
		defer d.runMu.Unlock()
		d.mu.Lock()
		d.interval = refreshInterval(d.vis.Config())
		running := d.ticker != nil
		d.mu.Unlock()
		if running {
			d.stop()
			d.start()
		}
	}
}

// Apply persists cfg and applies it as a configuration change.
func (d *Driver) Apply(cfg config.Spectrum) error {
	d.OnPlaybackEvent(visualizer.ConfigChanged(cfg))
	return d.persist()
}

// Start launches the timer goroutine. Calling it while running is a no-op.
func (d *Driver) Start() {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.start()
}

func (d *Driver) start() {
	d.mu.Lock()
	if d.ticker != nil {
		d.mu.Unlock()
		return
	}
	d.ticker = time.NewTicker(d.interval)
	d.doneChan = make(chan struct{})
	ticker, done, interval := d.ticker, d.doneChan, d.interval
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		applog.Debugf("Driver: Timer started (%s)", interval)
		for {
			select {
			case <-ticker.C:
				d.Tick()
			case <-done:
				return
			}
		}
	}()
}

// Stop halts the timer and waits for an in-flight tick. A concurrent
// Start waits until the stop is complete.
func (d *Driver) Stop() {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.stop()
}

func (d *Driver) stop() {
	d.mu.Lock()
	if d.ticker == nil {
		d.mu.Unlock()
		return
	}
	close(d.doneChan)
	d.ticker.Stop()
	d.ticker = nil
	d.mu.Unlock()

	d.wg.Wait()
	applog.Debugf("Driver: Timer stopped")
}

// Running reports whether the timer is active.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticker != nil
}

// Interval returns the current tick interval.
func (d *Driver) Interval() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.interval
}

// Tick renders one frame and hands it to every sink and transport. It
// reports whether a frame was produced.
func (d *Driver) Tick() bool {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()

	frame := d.vis.OnTick()
	if frame == nil {
		return false
	}
	info := d.vis.Frame()

	for _, s := range d.sinks {
		if err := s.WriteFrame(frame, info); err != nil {
			applog.Warnf("Driver: Frame sink %T: %v", s, err)
		}
	}

	if len(d.transports) == 0 {
		return true
	}
	n := d.vis.BandsInto(d.bars, d.peaks)
	bf := transport.NewBandFrame(info.Seq, info.Timestamp, info.SampleRate, info.DBRange, d.bars[:n], d.peaks[:n])
	for _, t := range d.transports {
		if err := t.Send(bf); err != nil {
			applog.Debugf("Driver: Transport %T: %v", t, err)
		}
	}
	return true
}

func (d *Driver) persist() error {
	if d.store == nil {
		return nil
	}
	config.SaveSpectrum(d.store, d.vis.Config())
	if err := d.store.Save(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Close stops the timer, saves the configuration and closes every sink
// and transport that can be closed.
func (d *Driver) Close() error {
	var errs []error
	d.closeOnce.Do(func() {
		d.Stop()
		if err := d.persist(); err != nil {
			errs = append(errs, err)
		}
		for _, t := range d.transports {
			if err := t.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing transport: %w", err))
			}
		}
		for _, s := range d.sinks {
			if c, ok := s.(io.Closer); ok {
				if err := c.Close(); err != nil {
					errs = append(errs, fmt.Errorf("closing sink: %w", err))
				}
			}
		}
	})
	return errors.Join(errs...)
}
