package display

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	applog "spectrum/internal/log"
	"spectrum/internal/visualizer"
)

// PNGWriter writes every frame to dir as frame-NNNNN.png, numbered by the
// frame sequence.
type PNGWriter struct {
	dir     string
	enc     png.Encoder
	written int
}

// NewPNGWriter creates dir if needed.
func NewPNGWriter(dir string) (*PNGWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &PNGWriter{dir: dir, enc: png.Encoder{CompressionLevel: png.BestSpeed}}, nil
}

// WriteFrame encodes frame.
func (p *PNGWriter) WriteFrame(frame *image.RGBA, info visualizer.FrameInfo) error {
	path := filepath.Join(p.dir, fmt.Sprintf("frame-%05d.png", info.Seq))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := p.enc.Encode(f, frame); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	p.written++
	return nil
}

// Written returns the number of files written.
func (p *PNGWriter) Written() int { return p.written }

// Close logs a summary.
func (p *PNGWriter) Close() error {
	applog.Infof("PNGWriter: %d frames written to %s", p.written, p.dir)
	return nil
}
