// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	applog "spectrum/internal/log"
	"spectrum/pkg/bitint"
)

// Limits for the spectrum settings. Values outside are clamped by Normalize.
const (
	MinFFTSize        = 512
	MaxFFTSize        = 32768
	MinRefresh        = 10 // ms
	MaxRefresh        = 1000
	MinDBRange        = 10
	MaxDBRange        = 200
	MinBands          = 12
	MaxBands          = 132 // C0..B10
	MaxGradientColors = 24
	FalloffDisabled   = -1
)

// Spectrum defaults, matching the values persisted under musical_spectrum.*.
const (
	DefaultRefreshInterval   = 25
	DefaultFFTSize           = 8192
	DefaultDBRange           = 70
	DefaultBands             = 126
	DefaultCalibrationOffset = 63
	DefaultBarFalloff        = FalloffDisabled
	DefaultBarDelay          = 0
	DefaultPeakFalloff       = 90
	DefaultPeakDelay         = 500
	DefaultWindow            = "blackman-harris"
	DefaultRenderer          = RendererPixel
)

const (
	RendererPixel  = "pixel"
	RendererVector = "vector"
)

// Alignment places the bars when they do not fill the full width.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var alignmentNames = [...]string{"left", "right", "center"}

func (a Alignment) String() string {
	if a < 0 || int(a) >= len(alignmentNames) {
		return fmt.Sprintf("Alignment(%d)", int(a))
	}
	return alignmentNames[a]
}

// ParseAlignment accepts a name or the persisted index.
func ParseAlignment(s string) (Alignment, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n >= 0 && n < len(alignmentNames) {
		return Alignment(n), nil
	}
	for i, name := range alignmentNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Alignment(i), nil
		}
	}
	return AlignLeft, fmt.Errorf("unknown alignment %q", s)
}

func (a Alignment) MarshalYAML() (any, error) { return a.String(), nil }

func (a *Alignment) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParseAlignment(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Orientation selects the axis the gradient runs along.
type Orientation int

const (
	OrientVertical Orientation = iota
	OrientHorizontal
)

var orientationNames = [...]string{"vertical", "horizontal"}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientationNames) {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationNames[o]
}

// ParseOrientation accepts a name or the persisted index.
func ParseOrientation(s string) (Orientation, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n >= 0 && n < len(orientationNames) {
		return Orientation(n), nil
	}
	for i, name := range orientationNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Orientation(i), nil
		}
	}
	return OrientVertical, fmt.Errorf("unknown gradient orientation %q", s)
}

func (o Orientation) MarshalYAML() (any, error) { return o.String(), nil }

func (o *Orientation) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParseOrientation(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Colors groups the fixed palette entries and the gradient stops.
type Colors struct {
	Background Color   `yaml:"background"`
	VGrid      Color   `yaml:"vgrid"`
	HGrid      Color   `yaml:"hgrid"`
	Octave     Color   `yaml:"octave"`
	Highlight  Color   `yaml:"highlight"`
	Gradient   []Color `yaml:"gradient"`
}

// Spectrum holds every setting the visualizer core reads. It is passed by
// value into constructors and Rebuild; nothing reads it globally.
type Spectrum struct {
	RefreshInterval     int         `yaml:"refresh_interval"` // ms between ticks
	FFTSize             int         `yaml:"fft_size"`         // power of two
	DBRange             int         `yaml:"db_range"`
	Bands               int         `yaml:"bands"`
	CalibrationOffset   int         `yaml:"calibration_offset"`
	BarFalloff          int         `yaml:"bar_falloff"` // dB/s, -1 disables smoothing
	BarDelay            int         `yaml:"bar_delay"`   // ms
	PeakFalloff         int         `yaml:"peak_falloff"`
	PeakDelay           int         `yaml:"peak_delay"`
	Window              string      `yaml:"window"`
	Renderer            string      `yaml:"renderer"`
	Alignment           Alignment   `yaml:"alignment"`
	GradientOrientation Orientation `yaml:"gradient_orientation"`
	BarMode             bool        `yaml:"bar_mode"` // solid columns without the 1 px separator
	Fill                bool        `yaml:"fill"`     // vector renderer: fill under the curve
	HGrid               bool        `yaml:"hgrid"`
	VGrid               bool        `yaml:"vgrid"`
	OctaveGrid          bool        `yaml:"octave_grid"`
	Highlight           bool        `yaml:"highlight"`
	Colors              Colors      `yaml:"colors"`
}

// DefaultGradient is the six-stop red to dark-blue gradient.
func DefaultGradient() []Color {
	return []Color{
		{65535, 0, 0},
		{65535, 32896, 0},
		{65535, 65535, 0},
		{32896, 65535, 30840},
		{0, 38036, 41120},
		{0, 8224, 25700},
	}
}

// DefaultColors returns the stock palette.
func DefaultColors() Colors {
	return Colors{
		Background: Color{8738, 8738, 8738},
		VGrid:      Color{0, 0, 0},
		HGrid:      Color{26214, 26214, 26214},
		Octave:     Color{39321, 39321, 39321},
		Highlight:  Color{65535, 65535, 65535},
		Gradient:   DefaultGradient(),
	}
}

// DefaultSpectrum returns the stock spectrum settings.
func DefaultSpectrum() Spectrum {
	return Spectrum{
		RefreshInterval:     DefaultRefreshInterval,
		FFTSize:             DefaultFFTSize,
		DBRange:             DefaultDBRange,
		Bands:               DefaultBands,
		CalibrationOffset:   DefaultCalibrationOffset,
		BarFalloff:          DefaultBarFalloff,
		BarDelay:            DefaultBarDelay,
		PeakFalloff:         DefaultPeakFalloff,
		PeakDelay:           DefaultPeakDelay,
		Window:              DefaultWindow,
		Renderer:            DefaultRenderer,
		Alignment:           AlignLeft,
		GradientOrientation: OrientVertical,
		BarMode:             false,
		Fill:                true,
		HGrid:               true,
		VGrid:               true,
		OctaveGrid:          true,
		Highlight:           true,
		Colors:              DefaultColors(),
	}
}

// Normalize clamps every field into its supported range and reports what it
// changed. The FFT size is rounded to the nearest power of two.
func (s *Spectrum) Normalize() {
	clampInt := func(name string, v *int, lo, hi int) {
		if *v < lo || *v > hi {
			n := min(max(*v, lo), hi)
			applog.Warnf("Config: spectrum.%s=%d out of range [%d, %d], using %d", name, *v, lo, hi, n)
			*v = n
		}
	}

	if n := bitint.ClampPowerOfTwo(s.FFTSize, MinFFTSize, MaxFFTSize); n != s.FFTSize {
		applog.Warnf("Config: spectrum.fft_size=%d adjusted to %d", s.FFTSize, n)
		s.FFTSize = n
	}
	clampInt("refresh_interval", &s.RefreshInterval, MinRefresh, MaxRefresh)
	clampInt("db_range", &s.DBRange, MinDBRange, MaxDBRange)
	clampInt("bands", &s.Bands, MinBands, MaxBands)
	clampInt("bar_delay", &s.BarDelay, 0, 10000)
	clampInt("peak_delay", &s.PeakDelay, 0, 10000)

	// Falloff: -1 disables, anything else must be positive.
	for _, f := range []struct {
		name string
		v    *int
	}{{"bar_falloff", &s.BarFalloff}, {"peak_falloff", &s.PeakFalloff}} {
		if *f.v < FalloffDisabled {
			applog.Warnf("Config: spectrum.%s=%d invalid, disabling", f.name, *f.v)
			*f.v = FalloffDisabled
		}
	}

	switch s.Renderer {
	case RendererPixel, RendererVector:
	default:
		applog.Warnf("Config: unknown renderer %q, using %q", s.Renderer, DefaultRenderer)
		s.Renderer = DefaultRenderer
	}
	if s.Alignment < AlignLeft || s.Alignment > AlignCenter {
		s.Alignment = AlignLeft
	}
	if s.GradientOrientation < OrientVertical || s.GradientOrientation > OrientHorizontal {
		s.GradientOrientation = OrientVertical
	}
	if strings.TrimSpace(s.Window) == "" {
		s.Window = DefaultWindow
	}

	if len(s.Colors.Gradient) == 0 {
		applog.Warnf("Config: spectrum.colors.gradient is empty, using defaults")
		s.Colors.Gradient = DefaultGradient()
	}
	if len(s.Colors.Gradient) > MaxGradientColors {
		applog.Warnf("Config: %d gradient colors, keeping the first %d", len(s.Colors.Gradient), MaxGradientColors)
		s.Colors.Gradient = s.Colors.Gradient[:MaxGradientColors]
	}
}

// Clone returns a deep copy; the gradient slice is not shared.
func (s Spectrum) Clone() Spectrum {
	s.Colors.Gradient = append([]Color(nil), s.Colors.Gradient...)
	return s
}
