// Package display shows rendered frames in a window or writes them to
// disk.
package display

import (
	"image"
	"sync"
)

// Actions are the window's key bindings. Nil entries do nothing.
type Actions struct {
	TogglePause   func() // Space
	CycleRenderer func() // V
}

func (a Actions) togglePause() {
	if a.TogglePause != nil {
		a.TogglePause()
	}
}

func (a Actions) cycleRenderer() {
	if a.CycleRenderer != nil {
		a.CycleRenderer()
	}
}

// latestFrame keeps a copy of the most recent frame for a consumer that
// runs on another goroutine.
type latestFrame struct {
	mu     sync.RWMutex
	pix    []byte
	w, h   int
	serial uint64
}

// store copies frame. The slice is reused while the size is unchanged.
func (l *latestFrame) store(frame *image.RGBA) {
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pix) != 4*w*h {
		l.pix = make([]byte, 4*w*h)
	}
	for y := range h {
		row := frame.Pix[frame.PixOffset(frame.Rect.Min.X, frame.Rect.Min.Y+y):]
		copy(l.pix[4*w*y:4*w*(y+1)], row[:4*w])
	}
	l.w, l.h = w, h
	l.serial++
}

// view calls fn with the stored pixels under the read lock. fn must not
// keep pix.
func (l *latestFrame) view(fn func(pix []byte, w, h int, serial uint64)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn(l.pix, l.w, l.h, l.serial)
}

// tooltipOrigin places a w×h box next to the cursor and keeps it inside
// the screen.
func tooltipOrigin(cx, cy, w, h, screenW, screenH int) (x, y int) {
	const gap = 12
	x, y = cx+gap, cy+gap
	if x+w > screenW {
		x = cx - gap - w
	}
	if y+h > screenH {
		y = cy - gap - h
	}
	return max(x, 0), max(y, 0)
}
