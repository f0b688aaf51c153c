//go:build headless

package display

import (
	"errors"
	"image"

	"spectrum/internal/config"
	"spectrum/internal/visualizer"
)

// Window is unavailable in headless builds.
type Window struct{}

func NewWindow(vis *visualizer.Visualizer, cfg config.DisplayConfig, actions Actions) *Window {
	return &Window{}
}

func (w *Window) WriteFrame(*image.RGBA, visualizer.FrameInfo) error { return nil }

func (w *Window) Close() error { return nil }

func (w *Window) Run() error {
	return errors.New("built without display support; use --headless")
}
