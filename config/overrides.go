package config

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// ParseOverrides splits key=value pairs, as given on the command line, into a map.
func ParseOverrides(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Errorf("override %q is not of the form key=value", pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

// OverrideGrid decodes the given values over the sampling grid, keyed by their json names.
// Fields that are not named keep their value and the result is validated again.
func (c *Config) OverrideGrid(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	grid := c.Grid
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &grid,
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(values); err != nil {
		return errors.Wrap(err, "invalid grid override")
	}
	if err := grid.Validate(); err != nil {
		return errors.Wrap(err, "invalid grid override")
	}
	c.Grid = grid
	return nil
}
