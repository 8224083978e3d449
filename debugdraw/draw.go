package debugdraw

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/mapworld/common"
	"github.com/milk9111/mapworld/physics"
	"golang.org/x/image/colornames"
)

// Projection maps physics meters to screen pixels. Camera is the map pixel
// shown at the screen's lower-left corner.
type Projection struct {
	PixelsPerMeter float64
	Camera         common.Vec2
	ScreenHeight   float64
}

// Screen converts a point in meters (Y up) to screen pixels (Y down).
func (p Projection) Screen(v cp.Vector) (float64, float64) {
	x := v.X*p.PixelsPerMeter - p.Camera.X
	y := v.Y*p.PixelsPerMeter - p.Camera.Y
	return x, p.ScreenHeight - y
}

// Draw renders every shape in w onto screen.
func Draw(screen *ebiten.Image, w *physics.World, camera common.Vec2) {
	if screen == nil || w == nil || w.Space() == nil {
		return
	}
	d := &drawer{
		screen: screen,
		proj: Projection{
			PixelsPerMeter: w.PixelsPerMeter(),
			Camera:         camera,
			ScreenHeight:   float64(screen.Bounds().Dy()),
		},
	}
	cp.DrawSpace(w.Space(), d)
}

type drawer struct {
	screen *ebiten.Image
	proj   Projection
}

func (d *drawer) line(a, b cp.Vector, c color.Color) {
	ax, ay := d.proj.Screen(a)
	bx, by := d.proj.Screen(b)
	ebitenutil.DrawLine(d.screen, ax, ay, bx, by, c)
}

func (d *drawer) DrawCircle(pos cp.Vector, angle, radius float64, outline, fill cp.FColor, data interface{}) {
	c := toRGBA(outline)
	steps := 20
	prev := cp.Vector{X: pos.X + radius, Y: pos.Y}
	for i := 1; i <= steps; i++ {
		th := float64(i) * (2 * math.Pi / float64(steps))
		cur := cp.Vector{X: pos.X + math.Cos(th)*radius, Y: pos.Y + math.Sin(th)*radius}
		d.line(prev, cur, c)
		prev = cur
	}
	d.line(pos, cp.Vector{X: pos.X + math.Cos(angle)*radius, Y: pos.Y + math.Sin(angle)*radius}, c)
}

func (d *drawer) DrawSegment(a, b cp.Vector, fill cp.FColor, data interface{}) {
	d.line(a, b, toRGBA(fill))
}

func (d *drawer) DrawFatSegment(a, b cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	d.line(a, b, toRGBA(fill))
	if radius > 0 {
		d.DrawCircle(a, 0, radius, outline, fill, data)
		d.DrawCircle(b, 0, radius, outline, fill, data)
	}
}

func (d *drawer) DrawPolygon(count int, verts []cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	c := toRGBA(fill)
	for i := 0; i < count; i++ {
		d.line(verts[i], verts[(i+1)%count], c)
	}
}

func (d *drawer) DrawDot(size float64, pos cp.Vector, fill cp.FColor, data interface{}) {
	c := toRGBA(fill)
	x, y := d.proj.Screen(pos)
	l := size / 2
	ebitenutil.DrawLine(d.screen, x-l, y, x+l, y, c)
	ebitenutil.DrawLine(d.screen, x, y-l, x, y+l, c)
}

func (d *drawer) Flags() uint {
	return cp.DRAW_SHAPES
}

func (d *drawer) OutlineColor() cp.FColor {
	return toFColor(colornames.Lime)
}

// ShapeColor picks sensors first, then static geometry, then moving bodies.
func (d *drawer) ShapeColor(shape *cp.Shape, data interface{}) cp.FColor {
	switch {
	case shape == nil:
		return toFColor(colornames.White)
	case shape.Sensor():
		return toFColor(colornames.Gold)
	case shape.Body() != nil && shape.Body().GetType() == cp.BODY_STATIC:
		return toFColor(colornames.Lightskyblue)
	case shape.Body() != nil && shape.Body().GetType() == cp.BODY_KINEMATIC:
		return toFColor(colornames.Mediumseagreen)
	}
	return toFColor(colornames.Orchid)
}

func (d *drawer) ConstraintColor() cp.FColor {
	return toFColor(colornames.Silver)
}

func (d *drawer) CollisionPointColor() cp.FColor {
	return toFColor(colornames.Red)
}

func (d *drawer) Data() interface{} {
	return nil
}

func toFColor(c color.RGBA) cp.FColor {
	return cp.FColor{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
		A: float32(c.A) / 255,
	}
}

func toRGBA(c cp.FColor) color.RGBA {
	clamp := func(v float32) uint8 {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return uint8(v * 255)
	}
	return color.RGBA{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(c.A)}
}
