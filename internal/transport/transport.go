// Package transport ships band levels to external consumers.
package transport

import "time"

// Transport sends frames to a consumer. Implementations must be safe for
// concurrent use and must not block the caller for longer than a send.
type Transport interface {
	Send(data any) error
	Close() error
}

// BandSource exposes the displayed band levels.
type BandSource interface {
	BandsInto(bars, peaks []float64) int
}

// BandFrame is the JSON message sent for every rendered tick.
type BandFrame struct {
	Seq        uint64    `json:"seq"`
	Timestamp  int64     `json:"timestamp"` // ns since epoch
	SampleRate float64   `json:"sample_rate"`
	DBRange    float64   `json:"db_range"`
	Bars       []float32 `json:"bars"`
	Peaks      []float32 `json:"peaks"`
}

// NewBandFrame converts levels to float32. bars and peaks must have the
// same length.
func NewBandFrame(seq uint64, ts time.Time, sampleRate, dbRange float64, bars, peaks []float64) BandFrame {
	f := BandFrame{
		Seq:        seq,
		Timestamp:  ts.UnixNano(),
		SampleRate: sampleRate,
		DBRange:    dbRange,
		Bars:       make([]float32, len(bars)),
		Peaks:      make([]float32, len(peaks)),
	}
	for i, v := range bars {
		f.Bars[i] = float32(v)
	}
	for i, v := range peaks {
		f.Peaks[i] = float32(v)
	}
	return f
}
