package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/milk9111/mapworld/common"
	"github.com/milk9111/mapworld/physics"
	"github.com/milk9111/mapworld/tilemap"
)

// Kind tells whether a configuration came from a tile cell or a named object.
type Kind int

const (
	KindTile Kind = iota + 1
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindTile:
		return "tile"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Configuration is what a factory receives for one tile instance or named object.
// Map and World are borrowed for the duration of the callback.
type Configuration struct {
	Settings Settings
	Layer    string
	Kind     Kind
	Map      *tilemap.Map
	World    *physics.World
}

// PhysicsWorld returns the destination world or ErrNoPhysicsWorld.
func (c Configuration) PhysicsWorld() (*physics.World, error) {
	if c.World == nil {
		return nil, ErrNoPhysicsWorld
	}
	return c.World, nil
}

// Settings are the normalized properties of a tile or object.
type Settings map[string]tilemap.Value

func (s Settings) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Number returns a property only if it is already numeric.
func (s Settings) Number(name string) (float64, bool) {
	v, ok := s[name]
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// Float returns a numeric property, parsing string values. Absent properties
// yield def. Unparseable strings and point lists fail with ErrInvalidPropertyFormat.
func (s Settings) Float(name string, def float64) (float64, error) {
	v, ok := s[name]
	if !ok {
		return def, nil
	}
	f, err := ParseNumber(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// Text returns a string property.
func (s Settings) Text(name string) (string, bool) {
	v, ok := s[name]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// TextOr returns a string property or def when absent or not a string.
func (s Settings) TextOr(name, def string) string {
	if str, ok := s.Text(name); ok {
		return str
	}
	return def
}

// Points returns a point-list property.
func (s Settings) Points(name string) ([]common.Vec2, bool) {
	v, ok := s[name]
	if !ok {
		return nil, false
	}
	return v.AsPoints()
}

// Bool reads a flag stored as a number (non-zero is true) or as a
// strconv.ParseBool string. Absent properties yield def.
func (s Settings) Bool(name string, def bool) (bool, error) {
	v, ok := s[name]
	if !ok {
		return def, nil
	}
	switch v.Kind() {
	case tilemap.KindNumber:
		f, _ := v.AsNumber()
		return f != 0, nil
	case tilemap.KindString:
		str, _ := v.AsString()
		b, err := strconv.ParseBool(strings.TrimSpace(str))
		if err != nil {
			return false, fmt.Errorf("%s: %w: %q is not a boolean", name, ErrInvalidPropertyFormat, str)
		}
		return b, nil
	}
	return false, fmt.Errorf("%s: %w: %s is not a boolean", name, ErrInvalidPropertyFormat, v.Kind())
}

// Clone returns a copy that can be mutated without affecting s.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ParseNumber coerces a value to a finite float64. Numbers pass through;
// strings are parsed. NaN and infinities are rejected.
func ParseNumber(v tilemap.Value) (float64, error) {
	var f float64
	switch v.Kind() {
	case tilemap.KindNumber:
		f, _ = v.AsNumber()
	case tilemap.KindString:
		str, _ := v.AsString()
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidPropertyFormat, str)
		}
	default:
		return 0, fmt.Errorf("%w: %s is not a number", ErrInvalidPropertyFormat, v.Kind())
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v is not a finite number", ErrInvalidPropertyFormat, f)
	}
	return f, nil
}
