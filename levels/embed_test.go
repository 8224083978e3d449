package levels

import (
	_ "image/png"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/lafriks/go-tiled/render"
	"github.com/milk9111/mapworld/manifest"
)

func TestDemoBuilds(t *testing.T) {
	m, err := LoadDemo()
	if err != nil {
		t.Fatalf("load demo: %v", err)
	}
	if m.FS() == nil {
		t.Fatalf("expected demo manifest to read from the embedded FS")
	}
	if dirs := m.WatchDirs(); len(dirs) != 0 {
		t.Fatalf("embedded manifest should not be watched, got %v", dirs)
	}

	w, err := m.Build()
	if err != nil {
		t.Fatalf("build demo: %v", err)
	}

	// 20 ground tiles, 5 ice tiles, crate, ramp, spike, rock.
	if got := w.Physics.BodyCount(); got != 29 {
		t.Fatalf("expected 29 bodies, got %d", got)
	}
	// 25 tile boxes, crate box, 2 ramp segments, spike box, 4 rock segments.
	if got := w.Physics.ShapeCount(); got != 33 {
		t.Fatalf("expected 33 shapes, got %d", got)
	}

	var kinematic, dynamic, sensors int
	for _, b := range w.Physics.Bodies() {
		switch b.GetType() {
		case cp.BODY_KINEMATIC:
			kinematic++
		case cp.BODY_DYNAMIC:
			dynamic++
		}
	}
	w.Physics.Space().EachShape(func(s *cp.Shape) {
		if s.Sensor() {
			sensors++
		}
	})
	if kinematic != 3 {
		t.Fatalf("expected the ice script to make 3 tiles kinematic, got %d", kinematic)
	}
	if dynamic != 2 {
		t.Fatalf("expected crate and rock to be dynamic, got %d", dynamic)
	}
	if sensors != 1 {
		t.Fatalf("expected one sensor, got %d", sensors)
	}
}

func TestDemoBackgrounds(t *testing.T) {
	m, err := LoadDemo()
	if err != nil {
		t.Fatalf("load demo: %v", err)
	}
	w, err := m.Build()
	if err != nil {
		t.Fatalf("build demo: %v", err)
	}
	bgs, err := m.ResolvedBackgrounds(w.Map)
	if err != nil {
		t.Fatalf("backgrounds: %v", err)
	}
	if len(bgs) != 2 {
		t.Fatalf("expected sky and hills, got %+v", bgs)
	}
	if bgs[0].Image != "sky.png" || bgs[1].Image != "hills.png" {
		t.Fatalf("unexpected images %q %q", bgs[0].Image, bgs[1].Image)
	}
	if bgs[1].Ratio != (manifest.Vec{X: 0.5, Y: 0.8}) || bgs[1].Offset != (manifest.Vec{X: 0, Y: -40}) {
		t.Fatalf("unexpected hills layer %+v", bgs[1])
	}
	for _, bg := range bgs {
		if _, err := FS.Open(bg.Image); err != nil {
			t.Fatalf("background %s not embedded: %v", bg.Image, err)
		}
	}
}

func TestDemoRenders(t *testing.T) {
	m, err := LoadDemo()
	if err != nil {
		t.Fatalf("load demo: %v", err)
	}
	w, err := m.Build()
	if err != nil {
		t.Fatalf("build demo: %v", err)
	}
	r, err := render.NewRendererWithFileSystem(w.Map.Source, FS)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	if err := r.RenderVisibleLayers(); err != nil {
		t.Fatalf("render: %v", err)
	}
	if b := r.Result.Bounds(); b.Dx() != 320 || b.Dy() != 192 {
		t.Fatalf("expected a 320x192 render, got %v", b)
	}
}
