// SPDX-License-Identifier: MIT
/*
Package audio provides the sample sources that feed the visualizer:
live capture through PortAudio, WAV files played through oto, and a WAV
recorder for the captured input.

Sources never analyze anything themselves. Every block they read is
handed to a Listener on the goroutine that produced it, together with
playback notifications.
*/
package audio

import (
	"spectrum/internal/analysis"
	"spectrum/internal/visualizer"
)

// Listener receives audio blocks and playback notifications. OnAudioData
// is called from the source's audio goroutine and must not block.
type Listener interface {
	OnAudioData(blk analysis.Block)
	OnPlaybackEvent(ev visualizer.Event)
}
