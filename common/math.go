package common

// Vec2 is a 2D point or direction in render space (pixels, origin lower-left).
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Mul multiplies component-wise.
func (v Vec2) Mul(o Vec2) Vec2 {
	return Vec2{X: v.X * o.X, Y: v.Y * o.Y}
}

func (v Vec2) Scale(k float64) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// Size is a width/height pair in pixels.
type Size struct {
	W, H float64
}

// Half returns the size halved as a vector.
func (s Size) Half() Vec2 {
	return Vec2{X: s.W / 2, Y: s.H / 2}
}

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}
