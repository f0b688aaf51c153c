// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Color is an RGB triplet with 16-bit channels. It is persisted as the
// string "R G B", e.g. "65535 32896 0".
type Color struct {
	R, G, B uint16
}

// ParseColor reads an "R G B" triplet. Channels must be integers in
// [0, 65535] separated by whitespace.
func ParseColor(s string) (Color, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return Color{}, fmt.Errorf("color %q: want 3 channels, got %d", s, len(fields))
	}
	var ch [3]uint16
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 16)
		if err != nil {
			return Color{}, fmt.Errorf("color %q: channel %d: %w", s, i, err)
		}
		ch[i] = uint16(v)
	}
	return Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// MustParseColor is ParseColor for literals.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) String() string {
	return fmt.Sprintf("%d %d %d", c.R, c.G, c.B)
}

// RGBA converts to 8-bit channels by keeping the high byte.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: uint8(c.R >> 8), G: uint8(c.G >> 8), B: uint8(c.B >> 8), A: 0xff}
}

func (c Color) MarshalYAML() (any, error) {
	return c.String(), nil
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
