package config

import "time"

// Boundaries and defaults for the capture side of the pipeline.
const (
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultChannels        = 2
	DefaultFramesPerBuffer = 512
	DefaultSampleRate      = 44100
	DefaultLowLatency      = false

	MinDeviceID     = -1 // -1 represents system default device
	MinSampleRate   = 8000
	MaxSampleRate   = 192000
	MaxBufferFrames = 8192

	// Max failures before the recorder is disabled.
	DefaultMaxConsecutiveWriteFailures = 5
)

// Defaults for the display surface. 756 = 126 bands * 6 px.
const (
	DefaultWidth  = 756
	DefaultHeight = 300
	DefaultTitle  = "Musical Spectrum"
)

const (
	DefaultStorePath        = "spectrum.store.yaml"
	DefaultWebSocketAddress = "localhost:8080"
	DefaultWebSocketPath    = "/ws"
	DefaultUDPTarget        = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond
)

// Default returns the built-in configuration used when no file is found.
func Default() Config {
	return Config{
		Debug:     false,
		LogLevel:  "info",
		StorePath: DefaultStorePath,
		Spectrum:  DefaultSpectrum(),
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			InputChannels:   DefaultChannels,
		},
		Recording: RecordingConfig{
			Enabled:     false,
			OutputDir:   "./recordings",
			Format:      "wav",
			BitDepth:    16,
			MaxDuration: 0,
		},
		Transport: TransportConfig{
			WSEnabled:        false,
			WSAddress:        DefaultWebSocketAddress,
			WSPath:           DefaultWebSocketPath,
			UDPEnabled:       false,
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
		Display: DisplayConfig{
			Width:    DefaultWidth,
			Height:   DefaultHeight,
			Title:    DefaultTitle,
			Headless: false,
		},
	}
}
