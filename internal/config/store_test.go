// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type memStore map[string]string

func (m memStore) Get(key string) (string, bool) { v, ok := m[key]; return v, ok }
func (m memStore) Set(key, value string)         { m[key] = value }
func (m memStore) Save() error                   { return nil }

func TestLoadSpectrum_EmptyStoreGivesBase(t *testing.T) {
	got := LoadSpectrum(memStore{}, DefaultSpectrum())
	want := DefaultSpectrum()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadSpectrum(empty) = %+v\nwant %+v", got, want)
	}
}

func TestSpectrumRoundTrip(t *testing.T) {
	in := DefaultSpectrum()
	in.RefreshInterval = 40
	in.FFTSize = 16384
	in.DBRange = 90
	in.BarFalloff = 120
	in.BarDelay = 75
	in.PeakFalloff = FalloffDisabled
	in.PeakDelay = 0
	in.Alignment = AlignCenter
	in.GradientOrientation = OrientHorizontal
	in.BarMode = true
	in.VGrid = false
	in.Window = "hann"
	in.Renderer = RendererVector
	in.Colors.Background = Color{1, 2, 3}
	in.Colors.Gradient = []Color{{65535, 0, 0}, {12345, 54321, 0}, {0, 0, 65535}}

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "store.yaml")

	st, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	SaveSpectrum(st, in)
	if err := st.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore(reopen): %v", err)
	}
	got := LoadSpectrum(reopened, DefaultSpectrum())
	if !reflect.DeepEqual(got, in) {
		t.Errorf("round trip mismatch\n got %+v\nwant %+v", got, in)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `musical_spectrum.color.gradient_01: 12345 54321 0`) {
		t.Errorf("unexpected store layout:\n%s", data)
	}
}

func TestLoadSpectrum_MalformedFallsBack(t *testing.T) {
	st := memStore{
		KeyDBRange:             "seventy",
		KeyRefreshInterval:     "30",
		KeyColorBackground:     "1 2",
		KeyColorHGrid:          "0 0 0",
		KeyAlignment:           "sideways",
		KeyGradientOrientation: "1",
		KeyNumColors:           "2",
		KeyGradient(0):         "not a color",
		KeyGradient(1):         "0 0 65535",
	}
	got := LoadSpectrum(st, DefaultSpectrum())

	if got.DBRange != DefaultDBRange {
		t.Errorf("DBRange = %d, want default %d", got.DBRange, DefaultDBRange)
	}
	if got.RefreshInterval != 30 {
		t.Errorf("RefreshInterval = %d, want 30", got.RefreshInterval)
	}
	if got.Colors.Background != DefaultColors().Background {
		t.Errorf("Background = %v, want default", got.Colors.Background)
	}
	if got.Colors.HGrid != (Color{}) {
		t.Errorf("HGrid = %v, want black", got.Colors.HGrid)
	}
	if got.Alignment != AlignLeft || got.GradientOrientation != OrientHorizontal {
		t.Errorf("Alignment/Orientation = %v/%v", got.Alignment, got.GradientOrientation)
	}
	wantGradient := []Color{DefaultGradient()[0], {0, 0, 65535}}
	if !reflect.DeepEqual(got.Colors.Gradient, wantGradient) {
		t.Errorf("Gradient = %v, want %v", got.Colors.Gradient, wantGradient)
	}
}

func TestLoadSpectrum_ExtraStopsDefaultToBlack(t *testing.T) {
	st := memStore{KeyNumColors: "8"}
	got := LoadSpectrum(st, DefaultSpectrum())
	if len(got.Colors.Gradient) != 8 {
		t.Fatalf("len(Gradient) = %d, want 8", len(got.Colors.Gradient))
	}
	if got.Colors.Gradient[7] != (Color{}) {
		t.Errorf("Gradient[7] = %v, want black", got.Colors.Gradient[7])
	}
}

func TestLoadSpectrum_NumColorsOutOfRange(t *testing.T) {
	st := memStore{KeyNumColors: "99"}
	got := LoadSpectrum(st, DefaultSpectrum())
	if len(got.Colors.Gradient) != len(DefaultGradient()) {
		t.Errorf("len(Gradient) = %d, want %d", len(got.Colors.Gradient), len(DefaultGradient()))
	}
}

func TestOpenFileStore_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")
	if err := os.WriteFile(path, []byte("- a\n- b\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFileStore(path); err == nil {
		t.Error("expected error for a store that is not a mapping")
	}
}

func TestLoadSpectrum_DoesNotAliasBase(t *testing.T) {
	base := DefaultSpectrum()
	got := LoadSpectrum(memStore{KeyGradient(0): "1 1 1"}, base)
	if base.Colors.Gradient[0] == got.Colors.Gradient[0] {
		t.Fatalf("store value not applied")
	}
	if base.Colors.Gradient[0] != DefaultGradient()[0] {
		t.Errorf("base gradient mutated: %v", base.Colors.Gradient[0])
	}
}
