//go:build !headless

package display

import (
	"errors"
	"image"
	"image/color"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"spectrum/internal/config"
	applog "spectrum/internal/log"
	"spectrum/internal/visualizer"
)

var (
	tooltipBackground = color.RGBA{0, 0, 0, 200}
	tooltipText       = color.RGBA{230, 230, 230, 255}
)

// Window shows the visualizer in a resizable desktop window. The pointer
// drives the hover highlight and the tooltip. Escape closes the window;
// the other keys call Actions.
type Window struct {
	vis     *visualizer.Visualizer
	cfg     config.DisplayConfig
	actions Actions

	frame  latestFrame
	img    *ebiten.Image
	drawn  uint64
	width  int
	height int

	quit atomic.Bool
}

// NewWindow creates a window for vis.
func NewWindow(vis *visualizer.Visualizer, cfg config.DisplayConfig, actions Actions) *Window {
	vis.Resize(cfg.Width, cfg.Height)
	return &Window{vis: vis, cfg: cfg, actions: actions, width: cfg.Width, height: cfg.Height}
}

// WriteFrame implements host.FrameSink.
func (w *Window) WriteFrame(frame *image.RGBA, _ visualizer.FrameInfo) error {
	w.frame.store(frame)
	return nil
}

// Close asks the window to close on its next update.
func (w *Window) Close() error {
	w.quit.Store(true)
	return nil
}

// Run opens the window and blocks until it is closed. It must be called
// from the main goroutine.
func (w *Window) Run() error {
	ebiten.SetWindowSize(w.cfg.Width, w.cfg.Height)
	ebiten.SetWindowTitle(w.cfg.Title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)

	err := ebiten.RunGame(w)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func (w *Window) Update() error {
	if w.quit.Load() || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		w.actions.togglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		w.actions.cycleRenderer()
	}

	x, y := ebiten.CursorPosition()
	inside := ebiten.IsFocused() && x >= 0 && y >= 0 && x < w.width && y < w.height
	w.vis.SetPointer(x, y, inside)
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	w.frame.view(func(pix []byte, fw, fh int, serial uint64) {
		if fw == 0 || fh == 0 {
			return
		}
		if w.img == nil || w.img.Bounds().Dx() != fw || w.img.Bounds().Dy() != fh {
			if w.img != nil {
				w.img.Deallocate()
			}
			w.img = ebiten.NewImage(fw, fh)
			w.drawn = 0
		}
		if serial != w.drawn {
			w.img.WritePixels(pix)
			w.drawn = serial
		}
	})
	if w.img != nil {
		screen.DrawImage(w.img, nil)
	}

	if tip, ok := w.vis.Tooltip(); ok {
		face := basicfont.Face7x13
		b := text.BoundString(face, tip)
		cx, cy := ebiten.CursorPosition()
		bw, bh := b.Dx()+8, face.Height+6
		x, y := tooltipOrigin(cx, cy, bw, bh, w.width, w.height)
		ebitenutil.DrawRect(screen, float64(x), float64(y), float64(bw), float64(bh), tooltipBackground)
		text.Draw(screen, tip, face, x+4, y+face.Ascent+3, tooltipText)
	}
}

// Layout follows the window size and resizes the visualizer with it.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != w.width || outsideHeight != w.height {
		w.width, w.height = outsideWidth, outsideHeight
		w.vis.Resize(outsideWidth, outsideHeight)
		applog.Debugf("Window: Resized to %dx%d", outsideWidth, outsideHeight)
	}
	return w.width, w.height
}
