// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	applog "spectrum/internal/log"
)

// Config is the application configuration loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	StorePath string          `yaml:"store_path"` // key/value store for musical_spectrum.* values, "" disables
	Spectrum  Spectrum        `yaml:"spectrum"`
	Audio     AudioConfig     `yaml:"audio"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
	Display   DisplayConfig   `yaml:"display"`
}

// AudioConfig holds settings for the live capture source.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Hz
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per PortAudio callback.
	LowLatency      bool    `yaml:"low_latency"`
	InputChannels   int     `yaml:"input_channels"`
}

// RecordingConfig holds settings for recording the captured stream to disk.
type RecordingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	OutputDir   string `yaml:"output_dir"`
	Format      string `yaml:"format"` // only "wav"
	BitDepth    int    `yaml:"bit_depth"`
	MaxDuration int    `yaml:"max_duration_seconds"` // 0 for unlimited
}

// TransportConfig holds settings for publishing band frames over the network.
type TransportConfig struct {
	WSEnabled        bool          `yaml:"ws_enabled"`
	WSAddress        string        `yaml:"ws_address"`
	WSPath           string        `yaml:"ws_path"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"` // e.g. "127.0.0.1:9090"
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
}

// DisplayConfig holds settings for the output window.
type DisplayConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Title    string `yaml:"title"`
	Headless bool   `yaml:"headless"`
}

// LoadConfig loads configuration from the YAML file at path. If path is
// empty, "config.yaml" in the working directory is tried and built-in
// defaults are used when it does not exist. A .env file, when present, is
// loaded into the environment before the ENV_* overrides are applied. The
// result is validated before it is returned.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	loadDotEnv()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate rejects settings the audio side cannot run with and clamps the
// spectrum settings into their supported ranges.
func (c *Config) Validate() error {
	if _, ok := applog.ParseLevel(c.LogLevel); !ok && c.LogLevel != "" {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer %d outside (0, %d]", c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Audio.InputChannels < 1 {
		return fmt.Errorf("audio.input_channels must be at least 1, got %d", c.Audio.InputChannels)
	}
	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device %d is invalid", c.Audio.InputDevice)
	}

	if c.Recording.Enabled {
		if !strings.EqualFold(c.Recording.Format, "wav") {
			return fmt.Errorf("recording.format %q is not supported", c.Recording.Format)
		}
		switch c.Recording.BitDepth {
		case 16, 24, 32:
		default:
			return fmt.Errorf("recording.bit_depth %d is not supported", c.Recording.BitDepth)
		}
	}

	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return errors.New("transport.udp_target_address must be set when UDP is enabled")
		}
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			return fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?)", c.Transport.UDPTargetAddress)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return errors.New("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if c.Transport.WSEnabled && c.Transport.WSAddress == "" {
		return errors.New("transport.ws_address must be set when the websocket transport is enabled")
	}
	if c.Transport.WSPath == "" {
		c.Transport.WSPath = DefaultWebSocketPath
	}

	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display size %dx%d is invalid", c.Display.Width, c.Display.Height)
	}

	c.Spectrum.Normalize()
	return nil
}

// loadDotEnv reads .env into the process environment. Variables already set
// take precedence. A missing file is not an error.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		applog.Warnf("Config: failed to load .env: %v", err)
	}
}

// applyEnvOverrides applies ENV_* variables on top of file values.
// Unparseable values are ignored with a warning.
func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			applog.Infof("Config: overriding debug from env: %v", bVal)
		} else {
			applog.Warnf("Config: ignoring ENV_DEBUG=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Infof("Config: overriding log_level from env: %s", val)
	}

	// ENV_{FFT_SIZE,REFRESH_INTERVAL} tune the spectrum.
	envInt := func(name string, dst *int) {
		val, ok := os.LookupEnv(name)
		if !ok {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			applog.Warnf("Config: ignoring %s=%q: %v", name, val, err)
			return
		}
		*dst = n
		applog.Infof("Config: overriding %s from env: %d", name, n)
	}
	envInt("ENV_FFT_SIZE", &cfg.Spectrum.FFTSize)
	envInt("ENV_REFRESH_INTERVAL", &cfg.Spectrum.RefreshInterval)

	// ENV_WS_ADDRESS enables the websocket transport.
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok && val != "" {
		cfg.Transport.WSEnabled = true
		cfg.Transport.WSAddress = val
		applog.Infof("Config: overriding transport.ws_address from env: %s", val)
	}

	// ENV_UDP_{...}
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			applog.Infof("Config: overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Infof("Config: overriding transport.udp_target_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			applog.Infof("Config: overriding transport.udp_send_interval from env: %s", dur)
		}
	}
}
