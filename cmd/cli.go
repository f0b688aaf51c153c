// Package cmd is the command line front end.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/pkg/build"
)

// options holds the flag values. They are only applied to the loaded
// configuration when the flag was set on the command line.
type options struct {
	configPath string
	logLevel   string
	verbose    bool

	deviceID        int
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool

	record    bool
	outputDir string

	headless bool
	width    int
	height   int

	bands    int
	fftSize  int
	renderer string
	window   string

	ws      bool
	wsAddr  string
	udp     bool
	udpAddr string
}

// Execute runs the command line.
func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	buildInfo := build.GetBuildFlags()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runLive(cmd, opts, cfg)
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SetVersionTemplate(fmt.Sprintf("%s {{.Version}} (commit %s, built %s)\n",
		buildInfo.Name, buildInfo.Commit, buildInfo.Time))

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to config.yaml (default ./config.yaml when present)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Show verbose output (same as --log-level debug)")

	// Audio Device Configuration
	pf.IntVarP(&opts.deviceID, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	pf.IntVarP(&opts.channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture (1=mono, 2=stereo)")
	pf.Float64VarP(&opts.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&opts.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	pf.BoolVarP(&opts.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")

	// Recording Configuration
	pf.BoolVarP(&opts.record, "record", "r", false, "Record the captured input to a WAV file")
	pf.StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for recordings")

	// Display
	pf.BoolVar(&opts.headless, "headless", false, "Run without a window")
	pf.IntVar(&opts.width, "width", config.DefaultWidth, "Window width in pixels")
	pf.IntVar(&opts.height, "height", config.DefaultHeight, "Window height in pixels")

	// Spectrum
	pf.IntVar(&opts.bands, "bands", config.DefaultBands, "Number of note bands")
	pf.IntVar(&opts.fftSize, "fft-size", config.DefaultFFTSize, "FFT size (power of two)")
	pf.StringVar(&opts.renderer, "renderer", config.RendererPixel, "Renderer: pixel or vector")
	pf.StringVar(&opts.window, "window", config.DefaultWindow, "Window function")

	// Transports
	pf.BoolVar(&opts.ws, "ws", false, "Publish band frames over WebSocket")
	pf.StringVar(&opts.wsAddr, "ws-addr", config.DefaultWebSocketAddress, "WebSocket listen address")
	pf.BoolVar(&opts.udp, "udp", false, "Publish band frames over UDP")
	pf.StringVar(&opts.udpAddr, "udp-target", config.DefaultUDPTarget, "UDP target address")

	rootCmd.AddCommand(
		newListCommand(),
		newPlayCommand(opts),
		newRenderCommand(opts),
		newConfigCommand(opts),
	)
	return rootCmd
}

// loadConfig reads the configuration file and applies the flags that were
// set explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if opts.verbose || cfg.Debug {
		cfg.LogLevel = "debug"
	}
	if changed("device") {
		cfg.Audio.InputDevice = opts.deviceID
	}
	if changed("channels") {
		cfg.Audio.InputChannels = opts.channels
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = opts.sampleRate
	}
	if changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = opts.framesPerBuffer
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = opts.lowLatency
	}
	if changed("record") {
		cfg.Recording.Enabled = opts.record
	}
	if changed("output-dir") {
		cfg.Recording.OutputDir = opts.outputDir
	}
	if changed("headless") {
		cfg.Display.Headless = opts.headless
	}
	if changed("width") {
		cfg.Display.Width = opts.width
	}
	if changed("height") {
		cfg.Display.Height = opts.height
	}
	if changed("ws") {
		cfg.Transport.WSEnabled = opts.ws
	}
	if changed("ws-addr") {
		cfg.Transport.WSAddress = opts.wsAddr
	}
	if changed("udp") {
		cfg.Transport.UDPEnabled = opts.udp
	}
	if changed("udp-target") {
		cfg.Transport.UDPTargetAddress = opts.udpAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	return cfg, nil
}

// spectrumOverrides applies the spectrum flags on top of s. They win over
// both the config file and the settings store.
func spectrumOverrides(cmd *cobra.Command, opts *options, s *config.Spectrum) {
	changed := cmd.Flags().Changed
	if changed("bands") {
		s.Bands = opts.bands
	}
	if changed("fft-size") {
		s.FFTSize = opts.fftSize
	}
	if changed("renderer") {
		s.Renderer = opts.renderer
	}
	if changed("window") {
		s.Window = opts.window
	}
	s.Normalize()
}

func newListCommand() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.OutOrStdout(), plain)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print the list instead of opening the picker")
	return cmd
}

func newPlayCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "play <file.wav>",
		Short: "Play a WAV file and visualize it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runPlay(cmd, opts, cfg, args[0])
		},
	}
}

func newRenderCommand(opts *options) *cobra.Command {
	var (
		outDir string
		frames int
	)
	cmd := &cobra.Command{
		Use:   "render <file.wav>",
		Short: "Render a WAV file to PNG frames without audio output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runRender(cmd, opts, cfg, args[0], outDir, frames)
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "frames", "Output directory for PNG frames")
	cmd.Flags().IntVar(&frames, "frames", 0, "Maximum number of frames (0 renders the whole file)")
	return cmd
}

func newConfigCommand(opts *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig(cmd, opts)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "save <path>",
		Short: "Write the effective configuration to a YAML file and the settings store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig(cmd, opts)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", args[0])

			st, err := openStore(cfg.StorePath)
			if err != nil || st == nil {
				return err
			}
			config.SaveSpectrum(st, cfg.Spectrum)
			return st.Save()
		},
	})
	return configCmd
}

// effectiveConfig is the file configuration with the stored settings and
// the flags applied.
func effectiveConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	st, err := openStore(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	if st != nil {
		cfg.Spectrum = config.LoadSpectrum(st, cfg.Spectrum)
	}
	spectrumOverrides(cmd, opts, &cfg.Spectrum)
	return cfg, nil
}
