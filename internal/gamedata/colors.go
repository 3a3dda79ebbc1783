package gamedata

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Default palette, roughly the four shades of a handheld LCD plus a warning red.
const (
	DefaultBackground = "#E0F8D0"
	DefaultText       = "#081820"
	DefaultHPHigh     = "#48A048"
	DefaultHPLow      = "#D04040"
	DefaultHPTrack    = "#646464"
)

// ParseHexColor converts a hex color string (e.g., "#FF0000" or "FF0000") to a colorful.Color.
func ParseHexColor(hex string) (colorful.Color, error) {
	// Remove leading # if present
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")

	if len(hex) != 6 {
		return colorful.Color{}, fmt.Errorf("invalid hex color length: %s", hex)
	}

	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid hex color %s: %w", hex, err)
	}
	return c, nil
}

// MustParseHexColor converts a hex color string, panicking on error.
func MustParseHexColor(hex string) colorful.Color {
	color, err := ParseHexColor(hex)
	if err != nil {
		panic(err)
	}
	return color
}

// TCellColor converts a colorful.Color to a tcell.Color.
func TCellColor(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// Palette holds the colours used to draw the stage.
type Palette struct {
	Background colorful.Color
	Text       colorful.Color
	HPHigh     colorful.Color
	HPLow      colorful.Color
	HPTrack    colorful.Color
}

// DefaultPalette returns the built-in palette.
func DefaultPalette() Palette {
	return Palette{
		Background: MustParseHexColor(DefaultBackground),
		Text:       MustParseHexColor(DefaultText),
		HPHigh:     MustParseHexColor(DefaultHPHigh),
		HPLow:      MustParseHexColor(DefaultHPLow),
		HPTrack:    MustParseHexColor(DefaultHPTrack),
	}
}

// NewPalette builds a palette from hex strings. Empty strings keep the default.
func NewPalette(background, text, hpHigh, hpLow string) (Palette, error) {
	p := DefaultPalette()
	fields := []struct {
		hex string
		dst *colorful.Color
	}{
		{background, &p.Background},
		{text, &p.Text},
		{hpHigh, &p.HPHigh},
		{hpLow, &p.HPLow},
	}
	for _, f := range fields {
		if f.hex == "" {
			continue
		}
		c, err := ParseHexColor(f.hex)
		if err != nil {
			return Palette{}, err
		}
		*f.dst = c
	}
	return p, nil
}

// HealthColor blends from HPLow at 0 to HPHigh at 1 in HCL space.
func (p Palette) HealthColor(health float64) colorful.Color {
	if health < 0 {
		health = 0
	}
	if health > 1 {
		health = 1
	}
	return p.HPLow.BlendHcl(p.HPHigh, health).Clamped()
}
