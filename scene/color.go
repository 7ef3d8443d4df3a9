package scene

import (
	"bytes"
	"encoding/json"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Color is linear RGBA in [0, 1]. In JSON it is written as [r, g, b, a] and read either that
// way or as an sRGB hex string such as "#cc1a1a", which is linearized and made opaque.
type Color [4]float64

// ColorFromHex parses an sRGB "#rrggbb" string into an opaque linear color.
func ColorFromHex(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, errors.Wrapf(err, "parsing color %q", s)
	}
	r, g, b := c.LinearRgb()
	return Color{r, g, b, 1}, nil
}

// Hex returns the sRGB hex form of the color, dropping alpha.
func (c Color) Hex() string {
	return colorful.LinearRgb(c[0], c[1], c[2]).Clamped().Hex()
}

// Valid reports whether every channel lies in [0, 1].
func (c Color) Valid() bool {
	for _, v := range c {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// UnmarshalJSON accepts a four element array or an sRGB hex string.
func (c *Color) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ColorFromHex(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	var rgba [4]float64
	if err := json.Unmarshal(data, &rgba); err != nil {
		return errors.Wrap(err, "color must be [r, g, b, a] or a hex string")
	}
	*c = rgba
	return nil
}
