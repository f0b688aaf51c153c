// SPDX-License-Identifier: MIT
package visualizer

import (
	"spectrum/internal/config"
)

// EventKind enumerates host playback notifications.
type EventKind int

const (
	EventSongStarted EventKind = iota
	EventPaused
	EventResumed
	EventStopped
	EventConfigChanged
)

func (k EventKind) String() string {
	switch k {
	case EventSongStarted:
		return "song-started"
	case EventPaused:
		return "paused"
	case EventResumed:
		return "resumed"
	case EventStopped:
		return "stopped"
	case EventConfigChanged:
		return "config-changed"
	default:
		return "unknown"
	}
}

// Event is a playback notification. SampleRate is set for
// EventSongStarted and Config for EventConfigChanged.
type Event struct {
	Kind       EventKind
	SampleRate float64
	Config     *config.Spectrum
}

func SongStarted(sampleRate float64) Event {
	return Event{Kind: EventSongStarted, SampleRate: sampleRate}
}

func Paused() Event  { return Event{Kind: EventPaused} }
func Resumed() Event { return Event{Kind: EventResumed} }
func Stopped() Event { return Event{Kind: EventStopped} }

func ConfigChanged(cfg config.Spectrum) Event {
	return Event{Kind: EventConfigChanged, Config: &cfg}
}
