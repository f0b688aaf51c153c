// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	applog "spectrum/internal/log"
)

// Persisted keys. Values are integers or "R G B" triplets.
const (
	KeyRefreshInterval     = "musical_spectrum.refresh_interval"
	KeyFFTSize             = "musical_spectrum.fft_size"
	KeyDBRange             = "musical_spectrum.db_range"
	KeyBands               = "musical_spectrum.bands"
	KeyCalibrationOffset   = "musical_spectrum.calibration_offset"
	KeyEnableHGrid         = "musical_spectrum.enable_hgrid"
	KeyEnableVGrid         = "musical_spectrum.enable_vgrid"
	KeyEnableOctaveGrid    = "musical_spectrum.enable_octave_grid"
	KeyEnableHighlight     = "musical_spectrum.enable_highlight"
	KeyAlignment           = "musical_spectrum.alignment"
	KeyEnableBarMode       = "musical_spectrum.enable_bar_mode"
	KeyFill                = "musical_spectrum.fill"
	KeyBarFalloff          = "musical_spectrum.bar_falloff"
	KeyBarDelay            = "musical_spectrum.bar_delay"
	KeyPeakFalloff         = "musical_spectrum.peak_falloff"
	KeyPeakDelay           = "musical_spectrum.peak_delay"
	KeyGradientOrientation = "musical_spectrum.gradient_orientation"
	KeyWindow              = "musical_spectrum.window"
	KeyRenderer            = "musical_spectrum.renderer"
	KeyNumColors           = "musical_spectrum.num_colors"
	KeyColorBackground     = "musical_spectrum.color.background"
	KeyColorVGrid          = "musical_spectrum.color.vgrid"
	KeyColorHGrid          = "musical_spectrum.color.hgrid"
	KeyColorOctave         = "musical_spectrum.color.octave"
	KeyColorHighlight      = "musical_spectrum.color.highlight"
	keyGradientFmt         = "musical_spectrum.color.gradient_%02d"
)

// KeyGradient returns the key of gradient stop i.
func KeyGradient(i int) string {
	return fmt.Sprintf(keyGradientFmt, i)
}

// Store is a flat string key/value store. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Save() error
}

// FileStore is a Store persisted as a YAML mapping.
type FileStore struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
}

// OpenFileStore reads the store at path. A missing file yields an empty
// store that is created on the first Save.
func OpenFileStore(path string) (*FileStore, error) {
	fst := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fst, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	if err := yaml.Unmarshal(data, &fst.values); err != nil {
		return nil, fmt.Errorf("failed to parse store %s: %w", path, err)
	}
	if fst.values == nil {
		fst.values = make(map[string]string)
	}
	return fst, nil
}

// Path returns the file the store is persisted to.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *FileStore) Set(key, value string) {
	f.mu.Lock()
	f.values[key] = value
	f.mu.Unlock()
}

// Save writes the store atomically through a temp file in the same
// directory.
func (f *FileStore) Save() error {
	f.mu.RLock()
	data, err := yaml.Marshal(f.values)
	f.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".store-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp store: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close store: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)

// getInt returns the integer at key, or def when the key is missing or
// malformed.
func getInt(st Store, key string, def int) int {
	v, ok := st.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		applog.Warnf("Config: malformed %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func getBool(st Store, key string, def bool) bool {
	d := 0
	if def {
		d = 1
	}
	return getInt(st, key, d) != 0
}

func getColor(st Store, key string, def Color) Color {
	v, ok := st.Get(key)
	if !ok {
		return def
	}
	c, err := ParseColor(v)
	if err != nil {
		applog.Warnf("Config: malformed %s=%q, using default %q: %v", key, v, def, err)
		return def
	}
	return c
}

func getString(st Store, key, def string) string {
	if v, ok := st.Get(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func boolInt(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// LoadSpectrum reads the spectrum settings from st on top of base. Missing
// keys keep the base value. Malformed values fall back to the base value of
// that field and are logged. The result is normalized.
func LoadSpectrum(st Store, base Spectrum) Spectrum {
	s := base.Clone()

	s.RefreshInterval = getInt(st, KeyRefreshInterval, s.RefreshInterval)
	s.FFTSize = getInt(st, KeyFFTSize, s.FFTSize)
	s.DBRange = getInt(st, KeyDBRange, s.DBRange)
	s.Bands = getInt(st, KeyBands, s.Bands)
	s.CalibrationOffset = getInt(st, KeyCalibrationOffset, s.CalibrationOffset)
	s.HGrid = getBool(st, KeyEnableHGrid, s.HGrid)
	s.VGrid = getBool(st, KeyEnableVGrid, s.VGrid)
	s.OctaveGrid = getBool(st, KeyEnableOctaveGrid, s.OctaveGrid)
	s.Highlight = getBool(st, KeyEnableHighlight, s.Highlight)
	s.BarMode = getBool(st, KeyEnableBarMode, s.BarMode)
	s.Fill = getBool(st, KeyFill, s.Fill)
	s.BarFalloff = getInt(st, KeyBarFalloff, s.BarFalloff)
	s.BarDelay = getInt(st, KeyBarDelay, s.BarDelay)
	s.PeakFalloff = getInt(st, KeyPeakFalloff, s.PeakFalloff)
	s.PeakDelay = getInt(st, KeyPeakDelay, s.PeakDelay)
	s.Renderer = getString(st, KeyRenderer, s.Renderer)
	s.Window = getString(st, KeyWindow, s.Window)

	if v, ok := st.Get(KeyAlignment); ok {
		if a, err := ParseAlignment(v); err == nil {
			s.Alignment = a
		} else {
			applog.Warnf("Config: malformed %s=%q, using default %s", KeyAlignment, v, s.Alignment)
		}
	}
	if v, ok := st.Get(KeyGradientOrientation); ok {
		if o, err := ParseOrientation(v); err == nil {
			s.GradientOrientation = o
		} else {
			applog.Warnf("Config: malformed %s=%q, using default %s", KeyGradientOrientation, v, s.GradientOrientation)
		}
	}

	s.Colors.Background = getColor(st, KeyColorBackground, s.Colors.Background)
	s.Colors.VGrid = getColor(st, KeyColorVGrid, s.Colors.VGrid)
	s.Colors.HGrid = getColor(st, KeyColorHGrid, s.Colors.HGrid)
	s.Colors.Octave = getColor(st, KeyColorOctave, s.Colors.Octave)
	s.Colors.Highlight = getColor(st, KeyColorHighlight, s.Colors.Highlight)

	n := getInt(st, KeyNumColors, len(s.Colors.Gradient))
	if n < 1 || n > MaxGradientColors {
		applog.Warnf("Config: %s=%d outside [1, %d], using %d", KeyNumColors, n, MaxGradientColors, len(s.Colors.Gradient))
		n = len(s.Colors.Gradient)
	}
	gradient := make([]Color, n)
	for i := range gradient {
		// Stops beyond the base gradient default to black.
		var def Color
		if i < len(s.Colors.Gradient) {
			def = s.Colors.Gradient[i]
		}
		gradient[i] = getColor(st, KeyGradient(i), def)
	}
	s.Colors.Gradient = gradient

	s.Normalize()
	return s
}

// SaveSpectrum writes every spectrum setting into st. It does not call
// st.Save.
func SaveSpectrum(st Store, s Spectrum) {
	st.Set(KeyRefreshInterval, strconv.Itoa(s.RefreshInterval))
	st.Set(KeyFFTSize, strconv.Itoa(s.FFTSize))
	st.Set(KeyDBRange, strconv.Itoa(s.DBRange))
	st.Set(KeyBands, strconv.Itoa(s.Bands))
	st.Set(KeyCalibrationOffset, strconv.Itoa(s.CalibrationOffset))
	st.Set(KeyEnableHGrid, boolInt(s.HGrid))
	st.Set(KeyEnableVGrid, boolInt(s.VGrid))
	st.Set(KeyEnableOctaveGrid, boolInt(s.OctaveGrid))
	st.Set(KeyEnableHighlight, boolInt(s.Highlight))
	st.Set(KeyEnableBarMode, boolInt(s.BarMode))
	st.Set(KeyFill, boolInt(s.Fill))
	st.Set(KeyAlignment, strconv.Itoa(int(s.Alignment)))
	st.Set(KeyBarFalloff, strconv.Itoa(s.BarFalloff))
	st.Set(KeyBarDelay, strconv.Itoa(s.BarDelay))
	st.Set(KeyPeakFalloff, strconv.Itoa(s.PeakFalloff))
	st.Set(KeyPeakDelay, strconv.Itoa(s.PeakDelay))
	st.Set(KeyGradientOrientation, strconv.Itoa(int(s.GradientOrientation)))
	st.Set(KeyWindow, s.Window)
	st.Set(KeyRenderer, s.Renderer)
	st.Set(KeyNumColors, strconv.Itoa(len(s.Colors.Gradient)))
	st.Set(KeyColorBackground, s.Colors.Background.String())
	st.Set(KeyColorVGrid, s.Colors.VGrid.String())
	st.Set(KeyColorHGrid, s.Colors.HGrid.String())
	st.Set(KeyColorOctave, s.Colors.Octave.String())
	st.Set(KeyColorHighlight, s.Colors.Highlight.String())
	for i, c := range s.Colors.Gradient {
		st.Set(KeyGradient(i), c.String())
	}
}
