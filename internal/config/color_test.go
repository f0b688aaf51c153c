// SPDX-License-Identifier: MIT
package config

import (
	"image/color"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"65535 32896 0", Color{65535, 32896, 0}, false},
		{"  0 0 0 ", Color{0, 0, 0}, false},
		{"8738\t8738  8738", Color{8738, 8738, 8738}, false},
		{"1 2", Color{}, true},
		{"1 2 3 4", Color{}, true},
		{"65536 0 0", Color{}, true},
		{"-1 0 0", Color{}, true},
		{"red green blue", Color{}, true},
		{"", Color{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestColorStringRoundTrip(t *testing.T) {
	for _, c := range DefaultGradient() {
		got, err := ParseColor(c.String())
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", c.String(), err)
		}
		if got != c {
			t.Errorf("round trip %v -> %q -> %v", c, c.String(), got)
		}
	}
}

func TestColorRGBA(t *testing.T) {
	got := Color{65535, 32896, 0}.RGBA()
	want := color.RGBA{0xff, 0x80, 0x00, 0xff}
	if got != want {
		t.Errorf("RGBA() = %v, want %v", got, want)
	}
}

func TestColorYAML(t *testing.T) {
	in := Colors{Background: Color{1, 2, 3}, Gradient: []Color{{65535, 0, 0}}}
	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out Colors
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, data)
	}
	if out.Background != in.Background || len(out.Gradient) != 1 || out.Gradient[0] != in.Gradient[0] {
		t.Errorf("YAML round trip = %+v, want %+v", out, in)
	}

	if err := yaml.Unmarshal([]byte("background: not a color\n"), &out); err == nil {
		t.Error("expected error for malformed color")
	}
}
