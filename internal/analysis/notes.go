// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"strconv"
)

// Band 57 is A4; bands are one semitone apart starting at C0.
const (
	ReferenceFrequency = 440.0
	ReferenceBand      = 57
	MaxNoteBands       = 132 // C0..B10
	DefaultSampleRate  = 44100
)

var pitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var noteNames = func() [MaxNoteBands]string {
	var names [MaxNoteBands]string
	for i := range names {
		names[i] = pitchClasses[i%12] + strconv.Itoa(i/12)
	}
	return names
}()

// NoteName returns the name of band i, e.g. "A4" for 57. Out of range
// bands return "".
func NoteName(i int) string {
	if i < 0 || i >= MaxNoteBands {
		return ""
	}
	return noteNames[i]
}

// NoteFrequency returns the equal-tempered frequency of band i.
func NoteFrequency(i int) float64 {
	return ReferenceFrequency * math.Pow(2, float64(i-ReferenceBand)/12)
}
