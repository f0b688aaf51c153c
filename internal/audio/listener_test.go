package audio

import (
	"sync"

	"spectrum/internal/analysis"
	"spectrum/internal/visualizer"
)

// recordingListener keeps copies of everything it receives.
type recordingListener struct {
	mu      sync.Mutex
	blocks  []analysis.Block
	samples int
	events  []visualizer.EventKind
	rate    float64
}

func (l *recordingListener) OnAudioData(blk analysis.Block) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := analysis.Block{Samples: append([]float32(nil), blk.Samples...), Channels: blk.Channels}
	l.blocks = append(l.blocks, cp)
	l.samples += len(blk.Samples)
}

func (l *recordingListener) OnPlaybackEvent(ev visualizer.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev.Kind)
	if ev.Kind == visualizer.EventSongStarted {
		l.rate = ev.SampleRate
	}
}

func (l *recordingListener) eventKinds() []visualizer.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]visualizer.EventKind(nil), l.events...)
}

type nopListener struct{}

func (nopListener) OnAudioData(analysis.Block)       {}
func (nopListener) OnPlaybackEvent(visualizer.Event) {}
