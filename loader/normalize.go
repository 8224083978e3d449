package loader

import (
	"fmt"

	"github.com/milk9111/mapworld/tilemap"
)

var objectNumericKeys = []string{"x", "y", "width", "height"}

// NormalizeTile builds the settings of one tile instance. gid, x and y are
// filled in from the cell when the tile's properties do not author them;
// x and y stay in grid units.
func NormalizeTile(raw tilemap.Properties, gid uint32, x, y int) (Settings, error) {
	s := make(Settings, len(raw)+3)
	for k, v := range raw {
		s[k] = v
	}
	if !s.Has("gid") {
		s["gid"] = tilemap.Number(float64(gid))
	}
	if !s.Has("x") {
		s["x"] = tilemap.Number(float64(x))
	}
	if !s.Has("y") {
		s["y"] = tilemap.Number(float64(y))
	}
	for _, key := range []string{"x", "y"} {
		if err := coerceNumber(s, key); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NormalizeObject builds the settings of one object. Objects without a name
// cannot be dispatched and report ok=false without an error.
func NormalizeObject(raw tilemap.Properties) (s Settings, ok bool, err error) {
	name, hasName := raw["name"].AsString()
	if !hasName || name == "" {
		return nil, false, nil
	}
	s = make(Settings, len(raw))
	for k, v := range raw {
		s[k] = v
	}
	for _, key := range objectNumericKeys {
		if !s.Has(key) {
			continue
		}
		if err := coerceNumber(s, key); err != nil {
			return nil, true, err
		}
	}
	return s, true, nil
}

func coerceNumber(s Settings, key string) error {
	f, err := ParseNumber(s[key])
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	s[key] = tilemap.Number(f)
	return nil
}
