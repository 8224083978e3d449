package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/milk9111/mapworld/common"
	"github.com/milk9111/mapworld/loader"
	"github.com/milk9111/mapworld/tilemap"
)

const nudge = `
text := import("text")

if layer == "Decor" {
	skip = true
}
settings.friction = 0.2
settings.x = settings.x + 16
settings.label = text.to_upper(settings.name)
settings.points = [{x: 0, y: 0}, {x: 2, y: 3}, {x: 4, y: 0}]
settings.name = undefined
`

func spikeConfig(layer string) loader.Configuration {
	return loader.Configuration{
		Settings: loader.Settings{
			"name": tilemap.String("spike"),
			"x":    tilemap.Number(10),
		},
		Layer: layer,
		Kind:  loader.KindObject,
	}
}

func TestTransformRewritesSettings(t *testing.T) {
	var got []loader.Configuration
	cb, err := Transform("nudge.tengo", nudge, func(cfg loader.Configuration) error {
		got = append(got, cfg)
		return nil
	})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	in := spikeConfig("Hazards")
	if err := cb(in); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 call, got %d", len(got))
	}
	s := got[0].Settings

	if x, ok := s.Number("x"); !ok || x != 26 {
		t.Fatalf("expected x=26, got %v", s["x"])
	}
	if f, ok := s.Number("friction"); !ok || f != 0.2 {
		t.Fatalf("expected friction=0.2, got %v", s["friction"])
	}
	if label, _ := s.Text("label"); label != "SPIKE" {
		t.Fatalf("expected label SPIKE, got %v", s["label"])
	}
	pts, ok := s.Points("points")
	if !ok || len(pts) != 3 || pts[1] != (common.Vec2{X: 2, Y: 3}) {
		t.Fatalf("unexpected points %v", s["points"])
	}
	if s.Has("name") {
		t.Fatalf("undefined should drop the key, got %v", s["name"])
	}
	if got[0].Layer != "Hazards" || got[0].Kind != loader.KindObject {
		t.Fatalf("layer and kind must pass through, got %+v", got[0])
	}

	if x, _ := in.Settings.Number("x"); x != 10 {
		t.Fatalf("input settings must not change, got x=%v", x)
	}
}

func TestTransformSkip(t *testing.T) {
	calls := 0
	cb, err := Transform("nudge.tengo", nudge, func(loader.Configuration) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	for _, layer := range []string{"Decor", "Hazards", "Decor"} {
		if err := cb(spikeConfig(layer)); err != nil {
			t.Fatalf("callback: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected only the Hazards configuration to pass, got %d calls", calls)
	}
}

func TestTransformErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"syntax", `settings.x = `},
		{"runtime", `settings.missing()`},
		{"settings_replaced", `settings = 5`},
		{"bad_point", `settings.points = [1, 2]`},
		{"unsupported_value", `settings.when = func() {}`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			noop := func(loader.Configuration) error { return nil }
			cb, err := Transform(c.name, c.src, noop)
			if err == nil {
				err = cb(spikeConfig("Hazards"))
			}
			if !errors.Is(err, ErrScript) {
				t.Fatalf("expected ErrScript, got %v", err)
			}
		})
	}
}

func TestTransformPropagatesCallbackError(t *testing.T) {
	boom := errors.New("boom")
	cb, err := Transform("id", `skip = false`, func(loader.Configuration) error { return boom })
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if err := cb(spikeConfig("Hazards")); !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flip.tengo")
	if err := os.WriteFile(path, []byte(`settings.bodytype = "dynamic"`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Name() != "flip.tengo" {
		t.Fatalf("unexpected name %q", p.Name())
	}
	s, skip, err := p.Apply(spikeConfig("Hazards"))
	if err != nil || skip {
		t.Fatalf("apply: skip=%v err=%v", skip, err)
	}
	if bt, _ := s.Text("bodytype"); bt != "dynamic" {
		t.Fatalf("expected dynamic, got %v", s["bodytype"])
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.tengo")); !errors.Is(err, ErrScript) {
		t.Fatalf("expected ErrScript for a missing file, got %v", err)
	}
}
