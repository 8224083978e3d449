package physics

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/mapworld/common"
)

// DefaultPixelsPerMeter is the scale used when a world is created with a non-positive one.
const DefaultPixelsPerMeter = 32.0

var (
	// ErrUnknownBodyType is returned for body type strings other than static, dynamic or kinematic.
	ErrUnknownBodyType = errors.New("physics: unknown body type")
	// ErrDegenerateShape is returned when a chain or loop has too few vertices.
	ErrDegenerateShape = errors.New("physics: degenerate shape")
)

// World owns the Chipmunk space that map factories populate and the
// pixels-per-meter scale used to convert map geometry.
type World struct {
	space          *cp.Space
	pixelsPerMeter float64

	bodies []*cp.Body
	shapes int
}

// NewWorld creates an empty world. Gravity is in meters per second squared, Y up.
func NewWorld(pixelsPerMeter float64, gravity common.Vec2) *World {
	if pixelsPerMeter <= 0 {
		pixelsPerMeter = DefaultPixelsPerMeter
	}
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{X: gravity.X, Y: gravity.Y})
	return &World{
		space:          space,
		pixelsPerMeter: pixelsPerMeter,
	}
}

// Space returns the underlying Chipmunk space.
func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

// PixelsPerMeter returns the render-to-physics scale.
func (w *World) PixelsPerMeter() float64 {
	if w == nil {
		return DefaultPixelsPerMeter
	}
	return w.pixelsPerMeter
}

// Bodies returns the bodies created through CreateBody, in creation order.
func (w *World) Bodies() []*cp.Body {
	if w == nil {
		return nil
	}
	out := make([]*cp.Body, len(w.bodies))
	copy(out, w.bodies)
	return out
}

func (w *World) BodyCount() int {
	if w == nil {
		return 0
	}
	return len(w.bodies)
}

func (w *World) ShapeCount() int {
	if w == nil {
		return 0
	}
	return w.shapes
}

// Step advances the simulation. Loading never steps; callers own the clock.
func (w *World) Step(dt float64) {
	if w == nil || w.space == nil {
		return
	}
	w.space.Step(dt)
}

// BodyDef describes a body before it exists in the space.
type BodyDef struct {
	Type     BodyType
	Position cp.Vector // meters, body center
	Angle    float64   // radians, counterclockwise
}

// FixtureDef binds a shape to material and collision filter settings.
type FixtureDef struct {
	Shape       Shape
	Density     float64
	Friction    float64
	Restitution float64
	Sensor      bool
	Filter      cp.ShapeFilter
}

// CreateBody creates a body and attaches every fixture. Nothing is added to the
// space unless all fixtures could be built.
func (w *World) CreateBody(def BodyDef, fixtures ...FixtureDef) (*cp.Body, error) {
	if w == nil || w.space == nil {
		return nil, errors.New("physics: nil world")
	}

	body := def.Type.newBody()
	body.SetPosition(def.Position)
	if def.Angle != 0 {
		body.SetAngle(def.Angle)
	}

	var shapes []*cp.Shape
	for i, f := range fixtures {
		built, err := f.Shape.Attach(body)
		if err != nil {
			return nil, fmt.Errorf("physics: fixture %d: %w", i, err)
		}
		for _, s := range built {
			s.SetFriction(f.Friction)
			s.SetElasticity(f.Restitution)
			s.SetSensor(f.Sensor)
			s.SetFilter(f.Filter)
			if f.Density > 0 {
				s.SetDensity(f.Density)
			}
		}
		shapes = append(shapes, built...)
	}

	w.space.AddBody(body)
	for _, s := range shapes {
		w.space.AddShape(s)
	}
	if def.Type == BodyDynamic && body.Mass() <= 0 {
		giveUnitMass(body, shapes)
	}

	w.bodies = append(w.bodies, body)
	w.shapes += len(shapes)
	return body, nil
}

// giveUnitMass keeps a dynamic body whose fixtures carry no mass integrable.
func giveUnitMass(body *cp.Body, shapes []*cp.Shape) {
	var bb cp.BB
	for i, s := range shapes {
		if i == 0 {
			bb = s.BB()
			continue
		}
		bb = bb.Merge(s.BB())
	}
	moment := cp.MomentForBox(1, bb.R-bb.L, bb.T-bb.B)
	if moment <= 0 {
		moment = 1
	}
	body.SetMass(1)
	body.SetMoment(moment)
}

// Truncate removes every body created after the first n, with its shapes,
// from the space. It undoes CreateBody calls made since BodyCount returned n.
func (w *World) Truncate(n int) {
	if w == nil || n < 0 || n >= len(w.bodies) {
		return
	}
	for i := len(w.bodies) - 1; i >= n; i-- {
		body := w.bodies[i]
		var shapes []*cp.Shape
		body.EachShape(func(s *cp.Shape) {
			shapes = append(shapes, s)
		})
		for _, s := range shapes {
			w.space.RemoveShape(s)
		}
		w.space.RemoveBody(body)
		w.shapes -= len(shapes)
		w.bodies[i] = nil
	}
	w.bodies = w.bodies[:n]
}
