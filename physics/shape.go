package physics

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/mapworld/common"
)

// ShapeKind is the collision geometry chosen for a fixture.
type ShapeKind int

const (
	ShapeBox ShapeKind = iota + 1
	ShapeEdge
	ShapeChain
	ShapeLoop
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeEdge:
		return "edge"
	case ShapeChain:
		return "chain"
	case ShapeLoop:
		return "loop"
	}
	return fmt.Sprintf("ShapeKind(%d)", int(k))
}

// Shape is a shape definition in meters, independent of any body.
type Shape struct {
	Kind ShapeKind

	// HalfWidth and HalfHeight are the box extents around the body origin.
	HalfWidth  float64
	HalfHeight float64

	// Vertices are body-relative points for edges, chains and loops.
	Vertices []cp.Vector
}

// BuildShape picks the collision shape for the given map geometry:
// exactly two points make an edge whatever closed says, any other non-empty
// list makes a loop (closed) or an open chain, and no points make a box of size.
func BuildShape(points []common.Vec2, size common.Size, pixelsPerMeter float64, closed bool) Shape {
	switch {
	case len(points) == 2:
		return Shape{
			Kind: ShapeEdge,
			Vertices: []cp.Vector{
				PointToPhysics(points[0], pixelsPerMeter),
				PointToPhysics(points[1], pixelsPerMeter),
			},
		}
	case len(points) > 0:
		verts := make([]cp.Vector, len(points))
		for i, p := range points {
			verts[i] = PointToPhysics(p, pixelsPerMeter)
		}
		kind := ShapeChain
		if closed {
			kind = ShapeLoop
		}
		return Shape{Kind: kind, Vertices: verts}
	default:
		return BoxShape(size, pixelsPerMeter)
	}
}

// BoxShape returns an axis-aligned box centered on the body origin.
func BoxShape(size common.Size, pixelsPerMeter float64) Shape {
	return Shape{
		Kind:       ShapeBox,
		HalfWidth:  (size.W / pixelsPerMeter) * 0.5,
		HalfHeight: (size.H / pixelsPerMeter) * 0.5,
	}
}

// Segments returns the vertex pairs an edge, chain or loop is made of.
// A loop ends with the segment closing back to its first vertex.
func (s Shape) Segments() [][2]cp.Vector {
	n := len(s.Vertices)
	switch s.Kind {
	case ShapeEdge, ShapeChain:
		if n < 2 {
			return nil
		}
		out := make([][2]cp.Vector, 0, n-1)
		for i := 0; i+1 < n; i++ {
			out = append(out, [2]cp.Vector{s.Vertices[i], s.Vertices[i+1]})
		}
		return out
	case ShapeLoop:
		if n < 3 {
			return nil
		}
		out := make([][2]cp.Vector, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, [2]cp.Vector{s.Vertices[i], s.Vertices[(i+1)%n]})
		}
		return out
	}
	return nil
}

// Validate reports ErrDegenerateShape for geometry Chipmunk cannot represent.
func (s Shape) Validate() error {
	switch s.Kind {
	case ShapeBox:
		if s.HalfWidth <= 0 || s.HalfHeight <= 0 {
			return fmt.Errorf("%w: box %gx%g", ErrDegenerateShape, s.HalfWidth*2, s.HalfHeight*2)
		}
	case ShapeEdge:
		if len(s.Vertices) != 2 {
			return fmt.Errorf("%w: edge with %d vertices", ErrDegenerateShape, len(s.Vertices))
		}
	case ShapeChain:
		if len(s.Vertices) < 2 {
			return fmt.Errorf("%w: chain with %d vertices", ErrDegenerateShape, len(s.Vertices))
		}
	case ShapeLoop:
		if len(s.Vertices) < 3 {
			return fmt.Errorf("%w: loop with %d vertices", ErrDegenerateShape, len(s.Vertices))
		}
	default:
		return fmt.Errorf("%w: %v", ErrDegenerateShape, s.Kind)
	}
	return nil
}

// Attach creates the Chipmunk shapes for s on body without adding them to a space.
// Boxes become one polygon; edges, chains and loops become zero-radius segments.
func (s Shape) Attach(body *cp.Body) ([]*cp.Shape, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Kind == ShapeBox {
		bb := cp.BB{L: -s.HalfWidth, B: -s.HalfHeight, R: s.HalfWidth, T: s.HalfHeight}
		return []*cp.Shape{cp.NewBox2(body, bb, 0)}, nil
	}

	segs := s.Segments()
	shapes := make([]*cp.Shape, 0, len(segs))
	for _, seg := range segs {
		shapes = append(shapes, cp.NewSegment(body, seg[0], seg[1], 0))
	}
	return shapes, nil
}
