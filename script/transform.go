package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/mapworld/common"
	"github.com/milk9111/mapworld/loader"
	"github.com/milk9111/mapworld/tilemap"
)

// ErrScript is returned when a transform fails to compile, fails at run time
// or leaves settings the loader cannot represent.
var ErrScript = errors.New("script: error")

// Program is a compiled settings transform. A script sees three globals:
//
//	settings  map of the configuration's settings; edit it in place
//	layer     name of the layer the configuration came from
//	kind      "tile" or "object"
//
// and may set skip = true to drop the configuration. Point lists appear as
// arrays of {x, y} maps.
type Program struct {
	name     string
	compiled *tengo.Compiled
}

// Compile compiles src with the tengo standard library available.
func Compile(name string, src []byte) (*Program, error) {
	s := tengo.NewScript(src)
	_ = s.Add("settings", map[string]interface{}{})
	_ = s.Add("layer", "")
	_ = s.Add("kind", "")
	_ = s.Add("skip", false)
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("%w: compile %s: %w", ErrScript, name, err)
	}
	return &Program{name: name, compiled: compiled}, nil
}

// Load reads and compiles the script at path.
func Load(path string) (*Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrScript, path, err)
	}
	return Compile(filepath.Base(path), src)
}

func (p *Program) Name() string {
	return p.name
}

// Apply runs the script against cfg and returns the rewritten settings. The
// input settings are not modified.
func (p *Program) Apply(cfg loader.Configuration) (loader.Settings, bool, error) {
	// each run gets fresh globals
	c := p.compiled.Clone()

	if err := c.Set("settings", toObject(cfg.Settings)); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrScript, p.name, err)
	}
	if err := c.Set("layer", cfg.Layer); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrScript, p.name, err)
	}
	if err := c.Set("kind", cfg.Kind.String()); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrScript, p.name, err)
	}
	if err := c.Run(); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrScript, p.name, err)
	}

	if c.Get("skip").Bool() {
		return nil, true, nil
	}
	raw := c.Get("settings").Map()
	if raw == nil {
		return nil, false, fmt.Errorf("%w: %s: settings is no longer a map", ErrScript, p.name)
	}
	out, err := fromInterface(raw)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrScript, p.name, err)
	}
	return out, false, nil
}

// Wrap returns a callback that runs p before next. Skipped configurations
// never reach next.
func (p *Program) Wrap(next loader.Callback) loader.Callback {
	return func(cfg loader.Configuration) error {
		settings, skip, err := p.Apply(cfg)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}
		cfg.Settings = settings
		return next(cfg)
	}
}

// Transform compiles src and wraps next with it.
func Transform(name, src string, next loader.Callback) (loader.Callback, error) {
	if next == nil {
		return nil, fmt.Errorf("%w: %s: nil callback", ErrScript, name)
	}
	p, err := Compile(name, []byte(src))
	if err != nil {
		return nil, err
	}
	return p.Wrap(next), nil
}

func toObject(s loader.Settings) *tengo.Map {
	m := &tengo.Map{Value: make(map[string]tengo.Object, len(s))}
	for k, v := range s {
		switch v.Kind() {
		case tilemap.KindNumber:
			f, _ := v.AsNumber()
			m.Value[k] = &tengo.Float{Value: f}
		case tilemap.KindString:
			str, _ := v.AsString()
			m.Value[k] = &tengo.String{Value: str}
		case tilemap.KindPoints:
			pts, _ := v.AsPoints()
			arr := &tengo.Array{Value: make([]tengo.Object, 0, len(pts))}
			for _, pt := range pts {
				arr.Value = append(arr.Value, &tengo.Map{Value: map[string]tengo.Object{
					"x": &tengo.Float{Value: pt.X},
					"y": &tengo.Float{Value: pt.Y},
				}})
			}
			m.Value[k] = arr
		}
	}
	return m
}

func fromInterface(raw map[string]interface{}) (loader.Settings, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(loader.Settings, len(raw))
	for _, k := range keys {
		switch v := raw[k].(type) {
		case nil:
			// undefined drops the key
		case float64:
			out[k] = tilemap.Number(v)
		case int64:
			out[k] = tilemap.Number(float64(v))
		case string:
			out[k] = tilemap.String(v)
		case bool:
			out[k] = tilemap.String(strconv.FormatBool(v))
		case []interface{}:
			pts, err := toPoints(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = tilemap.Points(pts)
		default:
			return nil, fmt.Errorf("%s: unsupported value %T", k, v)
		}
	}
	return out, nil
}

func toPoints(arr []interface{}) ([]common.Vec2, error) {
	pts := make([]common.Vec2, 0, len(arr))
	for i, el := range arr {
		m, ok := el.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("point %d: expected {x, y}, got %T", i, el)
		}
		x, okX := number(m["x"])
		y, okY := number(m["y"])
		if !okX || !okY {
			return nil, fmt.Errorf("point %d: x and y must be numbers", i)
		}
		pts = append(pts, common.Vec2{X: x, Y: y})
	}
	return pts, nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}
