package cmd

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"spectrum/internal/audio"
	"spectrum/internal/config"
	"spectrum/internal/display"
	"spectrum/internal/host"
	applog "spectrum/internal/log"
	"spectrum/internal/transport"
	"spectrum/internal/transport/udp"
	"spectrum/internal/tui"
	"spectrum/internal/visualizer"
)

var _ audio.Listener = (*host.Driver)(nil)

// session is one visualizer with its driver, settings store and network
// publishers.
type session struct {
	cfg       *config.Config
	driver    *host.Driver
	publisher *udp.UDPPublisher
	window    *display.Window

	// toggle is called by the window on Space. Set before show.
	toggle func()
}

// openStore opens the settings store. An empty path disables it and
// returns a nil Store.
func openStore(path string) (config.Store, error) {
	if path == "" {
		return nil, nil
	}
	st, err := config.OpenFileStore(path)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// newSession builds the pipeline. The window is created here, before any
// source can start the timer, unless withWindow is false or the display is
// headless.
func newSession(cmd *cobra.Command, opts *options, cfg *config.Config, withWindow bool) (*session, error) {
	st, err := openStore(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	sc := cfg.Spectrum
	if st != nil {
		sc = config.LoadSpectrum(st, sc)
	}
	spectrumOverrides(cmd, opts, &sc)

	vis, err := visualizer.New(sc)
	if err != nil {
		return nil, err
	}
	vis.Resize(cfg.Display.Width, cfg.Display.Height)

	s := &session{cfg: cfg, driver: host.NewDriver(vis, st)}
	if applog.GetLevel() == applog.LevelDebug {
		s.driver.AddTransport(transport.NewLoggingTransport())
	}
	if cfg.Transport.WSEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.Transport.WSAddress, cfg.Transport.WSPath)
		if err != nil {
			s.close()
			return nil, err
		}
		s.driver.AddTransport(ws)
		applog.Infof("Session: WebSocket clients connect to ws://%s%s", ws.Addr(), cfg.Transport.WSPath)
	}
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			s.close()
			return nil, err
		}
		pub, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender, vis, sc.Bands)
		if err != nil {
			sender.Close()
			s.close()
			return nil, err
		}
		s.driver.AddTransport(&udpTransport{sender: sender})
		s.publisher = pub
		pub.Start()
	}
	if withWindow && !cfg.Display.Headless {
		s.window = display.NewWindow(vis, cfg.Display, display.Actions{
			TogglePause: func() {
				if s.toggle != nil {
					s.toggle()
				}
			},
			CycleRenderer: func() {
				if err := cycleRenderer(s.driver); err != nil {
					applog.Warnf("Session: %v", err)
				}
			},
		})
		s.driver.AddSink(s.window)
	}
	return s, nil
}

// close stops publishing and shuts the driver down, persisting the
// settings.
func (s *session) close() {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			applog.Warnf("Session: %v", err)
		}
	}
	if err := s.driver.Close(); err != nil {
		applog.Warnf("Session: %v", err)
	}
}

// udpTransport lets the driver close the UDP socket with its other
// transports. Frames go out through the publisher, not through Send.
type udpTransport struct {
	sender *udp.UDPSender
}

func (u *udpTransport) Send(any) error { return nil }

func (u *udpTransport) Close() error { return u.sender.Close() }

// show runs the window, or blocks until a signal or done when headless.
func (s *session) show(done <-chan struct{}) error {
	if s.window == nil {
		return waitForSignal(done)
	}
	if done != nil {
		go func() {
			<-done
			s.window.Close()
		}()
	}
	return s.window.Run()
}

// cycleRenderer switches between the pixel and vector renderers and
// stores the choice.
func cycleRenderer(d *host.Driver) error {
	cfg := d.Visualizer().Config()
	if cfg.Renderer == config.RendererVector {
		cfg.Renderer = config.RendererPixel
	} else {
		cfg.Renderer = config.RendererVector
	}
	applog.Infof("Session: Renderer %s", cfg.Renderer)
	return d.Apply(cfg)
}

func waitForSignal(done <-chan struct{}) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	select {
	case <-sig:
	case <-done:
	}
	return nil
}

func runLive(cmd *cobra.Command, opts *options, cfg *config.Config) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	s, err := newSession(cmd, opts, cfg, true)
	if err != nil {
		return err
	}
	defer s.close()

	capture, err := audio.NewCapture(cfg.Audio, s.driver)
	if err != nil {
		return err
	}
	defer capture.Close()

	if err := capture.Start(); err != nil {
		return err
	}
	if cfg.Recording.Enabled {
		path, err := capture.StartRecording(cfg.Recording)
		if err != nil {
			return err
		}
		defer fmt.Printf("\nRecording saved to: %s\n", path)
	}

	paused := false
	s.toggle = func() {
		paused = !paused
		if paused {
			s.driver.OnPlaybackEvent(visualizer.Paused())
		} else {
			s.driver.OnPlaybackEvent(visualizer.Resumed())
		}
	}
	return s.show(nil)
}

func runPlay(cmd *cobra.Command, opts *options, cfg *config.Config, path string) error {
	track, err := audio.LoadWAV(path)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, opts, cfg, true)
	if err != nil {
		return err
	}
	defer s.close()

	player, err := audio.NewFilePlayer(track, s.driver)
	if err != nil {
		return err
	}
	defer player.Close()

	if err := player.Play(); err != nil {
		return err
	}
	s.toggle = func() { player.TogglePause() }
	return s.show(player.Done())
}

// runRender feeds the track to the visualizer in refresh-interval sized
// blocks and writes one PNG per tick, as fast as it can.
func runRender(cmd *cobra.Command, opts *options, cfg *config.Config, path, outDir string, maxFrames int) error {
	track, err := audio.LoadWAV(path)
	if err != nil {
		return err
	}
	writer, err := display.NewPNGWriter(outDir)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, opts, cfg, false)
	if err != nil {
		return err
	}
	defer s.close()
	s.driver.AddSink(writer)

	n := renderTrack(s.driver, track, maxFrames)
	applog.Infof("Render: %d frames from %s", n, path)
	return nil
}

// renderTrack drives d by hand and returns the number of ticks rendered.
func renderTrack(d *host.Driver, track *audio.Track, maxFrames int) int {
	vis := d.Visualizer()
	if err := vis.OnPlaybackEvent(visualizer.SongStarted(float64(track.SampleRate))); err != nil {
		applog.Warnf("Render: %v", err)
	}

	refresh := vis.Config().RefreshInterval
	step := max(int(math.Round(float64(track.SampleRate)*float64(refresh)/1000)), 1)
	total := (track.Frames() + step - 1) / step
	if maxFrames > 0 {
		total = min(total, maxFrames)
	}

	for i := range total {
		d.OnAudioData(track.Block(i*step, step))
		d.Tick()
	}
	return total
}

func runList(w io.Writer, plain bool) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	if plain {
		return audio.ListDevices(w)
	}

	sel, ok, err := tui.PickDevice()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	fmt.Fprintf(w, "Selected %s. Start with:\n  --device %d --sample-rate %.0f\n",
		sel.Name, sel.DeviceID, sel.SampleRate)
	return nil
}
