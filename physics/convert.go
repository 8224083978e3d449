package physics

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/mapworld/common"
)

// ToPhysics converts a render-space lower-left corner and size into the
// physics-space body center, in meters.
func ToPhysics(p common.Vec2, size common.Size, pixelsPerMeter float64) cp.Vector {
	c := p.Add(size.Half())
	return cp.Vector{X: c.X / pixelsPerMeter, Y: c.Y / pixelsPerMeter}
}

// FromPhysics is the inverse of ToPhysics.
func FromPhysics(v cp.Vector, size common.Size, pixelsPerMeter float64) common.Vec2 {
	p := common.Vec2{X: v.X * pixelsPerMeter, Y: v.Y * pixelsPerMeter}
	return p.Sub(size.Half())
}

// PointToPhysics converts a body-relative map point to meters. Map point lists
// grow downward, physics Y grows upward.
func PointToPhysics(p common.Vec2, pixelsPerMeter float64) cp.Vector {
	return cp.Vector{X: p.X / pixelsPerMeter, Y: -p.Y / pixelsPerMeter}
}

// PointFromPhysics is the inverse of PointToPhysics.
func PointFromPhysics(v cp.Vector, pixelsPerMeter float64) common.Vec2 {
	return common.Vec2{X: v.X * pixelsPerMeter, Y: -v.Y * pixelsPerMeter}
}
