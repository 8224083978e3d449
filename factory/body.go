package factory

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/mapworld/common"
	"github.com/milk9111/mapworld/loader"
	"github.com/milk9111/mapworld/physics"
)

const (
	// DefaultCategory is the collision category given to fixtures that do not name one.
	DefaultCategory uint = 0x0001
	// DefaultMask collides with every category.
	DefaultMask uint = 0xFFFF
)

// FixtureDefaults are the material values used when a tile or object does not
// author them.
type FixtureDefaults struct {
	Density     float64
	Friction    float64
	Restitution float64
	BodyType    string
}

// DefaultFixture returns density 0, friction 1, restitution 0 and a static body.
func DefaultFixture() FixtureDefaults {
	return FixtureDefaults{
		Density:     0,
		Friction:    1,
		Restitution: 0,
		BodyType:    physics.BodyStatic.String(),
	}
}

// BodyOptions configure one body factory. Zero Category and Mask fall back to
// DefaultCategory and DefaultMask.
type BodyOptions struct {
	Category uint
	Mask     uint
	Sensor   bool
	Defaults FixtureDefaults
}

// Body returns a loader callback that creates one physics body with one fixture
// per configuration.
//
// Settings read: friction, density, restitution, bodytype, sensor, category,
// mask and, for objects, rotation in degrees. Geometry comes from
// polylinePoints (open chain), points (closed loop) or width/height (box).
// Object x/y are the lower-left corner in map pixels; tile x/y are grid cells
// and are converted with the map's tile size.
func Body(opts BodyOptions) loader.Callback {
	if opts.Category == 0 {
		opts.Category = DefaultCategory
	}
	if opts.Mask == 0 {
		opts.Mask = DefaultMask
	}
	if opts.Defaults.BodyType == "" {
		opts.Defaults.BodyType = physics.BodyStatic.String()
	}

	return func(cfg loader.Configuration) error {
		world, err := cfg.PhysicsWorld()
		if err != nil {
			return err
		}
		body, fixture, err := Plan(cfg, world.PixelsPerMeter(), opts)
		if err != nil {
			return err
		}
		if _, err := world.CreateBody(body, fixture); err != nil {
			return fmt.Errorf("factory: %w", err)
		}
		return nil
	}
}

// Plan turns a configuration into body and fixture definitions without touching
// any world. Every property is validated here so CreateBody only fails on
// geometry.
func Plan(cfg loader.Configuration, pixelsPerMeter float64, opts BodyOptions) (physics.BodyDef, physics.FixtureDef, error) {
	s := cfg.Settings
	var (
		body    physics.BodyDef
		fixture physics.FixtureDef
	)

	bodyType, err := physics.ParseBodyType(s.TextOr("bodytype", opts.Defaults.BodyType))
	if err != nil {
		return body, fixture, fmt.Errorf("factory: %w", err)
	}

	if fixture.Friction, err = s.Float("friction", opts.Defaults.Friction); err != nil {
		return body, fixture, fmt.Errorf("factory: %w", err)
	}
	if fixture.Density, err = s.Float("density", opts.Defaults.Density); err != nil {
		return body, fixture, fmt.Errorf("factory: %w", err)
	}
	if fixture.Restitution, err = s.Float("restitution", opts.Defaults.Restitution); err != nil {
		return body, fixture, fmt.Errorf("factory: %w", err)
	}
	if fixture.Sensor, err = s.Bool("sensor", opts.Sensor); err != nil {
		return body, fixture, fmt.Errorf("factory: %w", err)
	}
	category, err := bits(s, "category", opts.Category)
	if err != nil {
		return body, fixture, err
	}
	mask, err := bits(s, "mask", opts.Mask)
	if err != nil {
		return body, fixture, err
	}
	fixture.Filter = cp.NewShapeFilter(cp.NO_GROUP, category, mask)

	pos, size, err := placement(cfg)
	if err != nil {
		return body, fixture, err
	}

	var (
		points []common.Vec2
		closed bool
	)
	if pts, ok := s.Points("polylinePoints"); ok {
		points = pts
	} else if pts, ok := s.Points("points"); ok {
		points, closed = pts, true
	}
	if len(points) > 0 {
		// Poly objects are anchored at their first point, not at a box center.
		size = common.Size{}
	}

	fixture.Shape = physics.BuildShape(points, size, pixelsPerMeter, closed)
	if err := fixture.Shape.Validate(); err != nil {
		return body, fixture, fmt.Errorf("factory: %w", err)
	}

	body.Type = bodyType
	body.Position = physics.ToPhysics(pos, size, pixelsPerMeter)
	if cfg.Kind == loader.KindObject {
		deg, err := s.Float("rotation", 0)
		if err != nil {
			return body, fixture, fmt.Errorf("factory: %w", err)
		}
		if deg != 0 {
			body.Angle, body.Position = rotated(deg, pos, size, s.Has("gid"), pixelsPerMeter)
		}
	}
	return body, fixture, nil
}

// rotated turns the object about the point Tiled rotates it around: the
// top-left corner of shapes, the bottom-left corner of tile objects, the
// first point of polygons. Tiled degrees are clockwise on a Y-down screen.
func rotated(deg float64, pos common.Vec2, size common.Size, tileObject bool, pixelsPerMeter float64) (float64, cp.Vector) {
	angle := -deg * math.Pi / 180
	pivot := cp.Vector{X: pos.X, Y: pos.Y + size.H}
	offset := cp.Vector{X: size.W / 2, Y: -size.H / 2}
	if tileObject {
		pivot = cp.Vector{X: pos.X, Y: pos.Y}
		offset = cp.Vector{X: size.W / 2, Y: size.H / 2}
	}
	center := pivot.Add(offset.Rotate(cp.ForAngle(angle)))
	return angle, center.Mult(1 / pixelsPerMeter)
}

// placement returns the lower-left corner and size in map pixels.
func placement(cfg loader.Configuration) (common.Vec2, common.Size, error) {
	s := cfg.Settings
	x, err := s.Float("x", 0)
	if err != nil {
		return common.Vec2{}, common.Size{}, fmt.Errorf("factory: %w", err)
	}
	y, err := s.Float("y", 0)
	if err != nil {
		return common.Vec2{}, common.Size{}, fmt.Errorf("factory: %w", err)
	}

	var defW, defH float64
	pos := common.Vec2{X: x, Y: y}
	if cfg.Kind == loader.KindTile && cfg.Map != nil {
		tw, th := float64(cfg.Map.TileWidth), float64(cfg.Map.TileHeight)
		// row 0 is the top row of the map
		pos = common.Vec2{X: x * tw, Y: (float64(cfg.Map.Height) - y - 1) * th}
		defW, defH = tw, th
	}

	w, err := s.Float("width", defW)
	if err != nil {
		return common.Vec2{}, common.Size{}, fmt.Errorf("factory: %w", err)
	}
	h, err := s.Float("height", defH)
	if err != nil {
		return common.Vec2{}, common.Size{}, fmt.Errorf("factory: %w", err)
	}
	return pos, common.Size{W: w, H: h}, nil
}

func bits(s loader.Settings, name string, def uint) (uint, error) {
	f, err := s.Float(name, float64(def))
	if err != nil {
		return 0, fmt.Errorf("factory: %w", err)
	}
	if f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("factory: %s: %w: %v is not a bit mask", name, loader.ErrInvalidPropertyFormat, f)
	}
	return uint(f), nil
}
