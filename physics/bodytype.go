package physics

import (
	"fmt"

	"github.com/jakecoffman/cp"
)

// BodyType selects how a body takes part in the simulation.
type BodyType int

const (
	BodyStatic BodyType = iota
	BodyDynamic
	BodyKinematic
)

// ParseBodyType maps "static", "dynamic" and "kinematic" to a BodyType.
func ParseBodyType(s string) (BodyType, error) {
	switch s {
	case "static":
		return BodyStatic, nil
	case "dynamic":
		return BodyDynamic, nil
	case "kinematic":
		return BodyKinematic, nil
	}
	return BodyStatic, fmt.Errorf("%w: %q", ErrUnknownBodyType, s)
}

func (t BodyType) String() string {
	switch t {
	case BodyStatic:
		return "static"
	case BodyDynamic:
		return "dynamic"
	case BodyKinematic:
		return "kinematic"
	}
	return fmt.Sprintf("BodyType(%d)", int(t))
}

// CPType returns the matching Chipmunk body type constant.
func (t BodyType) CPType() int {
	switch t {
	case BodyDynamic:
		return cp.BODY_DYNAMIC
	case BodyKinematic:
		return cp.BODY_KINEMATIC
	default:
		return cp.BODY_STATIC
	}
}

func (t BodyType) newBody() *cp.Body {
	switch t {
	case BodyDynamic:
		// mass comes from fixture densities once shapes are added
		return cp.NewBody(0, 0)
	case BodyKinematic:
		return cp.NewKinematicBody()
	default:
		return cp.NewStaticBody()
	}
}
