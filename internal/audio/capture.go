// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	"spectrum/internal/analysis"
	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/internal/visualizer"
)

// Capture streams a PortAudio input device to a Listener. PortAudio must
// be initialized by the caller.
type Capture struct {
	cfg      config.AudioConfig
	listener Listener
	channels int

	device  *portaudio.DeviceInfo
	latency time.Duration

	mu     sync.Mutex // guards stream
	stream *portaudio.Stream

	recorder atomic.Pointer[Recorder]
}

// NewCapture resolves the configured input device. The channel count is
// limited to what the device offers.
func NewCapture(cfg config.AudioConfig, l Listener) (*Capture, error) {
	device, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}

	channels := cfg.InputChannels
	if device.MaxInputChannels > 0 && channels > device.MaxInputChannels {
		applog.Warnf("Capture: %s has %d input channels, using %d instead of %d",
			device.Name, device.MaxInputChannels, device.MaxInputChannels, channels)
		channels = device.MaxInputChannels
	}

	c := &Capture{cfg: cfg, listener: l, channels: channels, device: device}
	if cfg.LowLatency {
		c.latency = device.DefaultLowInputLatency
	} else {
		c.latency = device.DefaultHighInputLatency
	}
	return c, nil
}

// Device returns the input device.
func (c *Capture) Device() *portaudio.DeviceInfo { return c.device }

// Channels returns the number of captured channels.
func (c *Capture) Channels() int { return c.channels }

// Start opens the input stream and reports a song start at the capture
// sample rate.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return fmt.Errorf("capture already running")
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: c.channels,
			Device:   c.device,
			Latency:  c.latency,
		},
		FramesPerBuffer: c.cfg.FramesPerBuffer,
		SampleRate:      c.cfg.SampleRate,
	}
	stream, err := portaudio.OpenStream(params, c.process)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	c.stream = stream

	applog.Infof("Capture: Listening on %s (%.0f Hz, %d ch, %d frames, latency %s)",
		c.device.Name, c.cfg.SampleRate, c.channels, c.cfg.FramesPerBuffer, c.latency)
	c.listener.OnPlaybackEvent(visualizer.SongStarted(c.cfg.SampleRate))
	return nil
}

// Stop closes the input stream and reports a stop.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil
	}
	stream := c.stream
	c.stream = nil

	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close input stream: %w", err)
	}
	c.listener.OnPlaybackEvent(visualizer.Stopped())
	return nil
}

// StartRecording mirrors the captured input into a new WAV file.
func (c *Capture) StartRecording(rc config.RecordingConfig) (string, error) {
	if c.recorder.Load() != nil {
		return "", fmt.Errorf("already recording")
	}
	r, err := NewRecorderFromConfig(rc, int(c.cfg.SampleRate), c.channels)
	if err != nil {
		return "", err
	}
	if !c.recorder.CompareAndSwap(nil, r) {
		r.Close()
		return "", fmt.Errorf("already recording")
	}
	return r.Path(), nil
}

// StopRecording finalizes the current recording, if any.
func (c *Capture) StopRecording() error {
	r := c.recorder.Swap(nil)
	if r == nil {
		return nil
	}
	return r.Close()
}

// Close stops recording and capture.
func (c *Capture) Close() error {
	recErr := c.StopRecording()
	if err := c.Stop(); err != nil {
		return err
	}
	return recErr
}

// process is the PortAudio callback. in is only valid for the duration of
// the call; the listener copies what it keeps.
func (c *Capture) process(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	c.listener.OnAudioData(analysis.Block{Samples: in, Channels: c.channels})

	if r := c.recorder.Load(); r != nil {
		if err := r.Write(in); err != nil {
			applog.Debugf("Capture: %v", err)
		}
	}
}
