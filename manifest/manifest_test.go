package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/milk9111/mapworld/loader"
	"github.com/milk9111/mapworld/physics"
	"github.com/milk9111/mapworld/script"
	"github.com/milk9111/mapworld/tilemap"
)

const sample = `
map: level.tmx
pixels_per_meter: 16
gravity: {x: 0, y: -20}
on_invalid_property: skip
defaults:
  friction: 0.8
bodies:
  - gid: 7
    layers: [Ground]
  - name: spike
    sensor: true
    category: 4
    mask: 1
  - name: crate
    bodytype: dynamic
    density: 2
backgrounds:
  - image: sky.png
    z: -10
    ratio: {x: 0.5, y: 1}
    autoscroll: {x: 1}
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sample), "/levels")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.MapPath() != filepath.Join("/levels", "level.tmx") {
		t.Fatalf("unexpected map path %q", m.MapPath())
	}
	if m.FailurePolicy() != loader.SkipInvalid {
		t.Fatalf("expected skip policy, got %v", m.FailurePolicy())
	}
	d := m.FixtureDefaults()
	if d.Friction != 0.8 || d.Density != 0 || d.BodyType != "static" {
		t.Fatalf("unexpected defaults %+v", d)
	}
	if len(m.Bodies) != 3 || m.Bodies[0].GID != 7 || m.Bodies[1].Name != "spike" {
		t.Fatalf("unexpected bodies %+v", m.Bodies)
	}
	crate := m.Bodies[2].Fixture.over(d)
	if crate.BodyType != "dynamic" || crate.Density != 2 || crate.Friction != 0.8 {
		t.Fatalf("unexpected crate fixture %+v", crate)
	}
	bg := m.Backgrounds[0]
	if bg.Z != -10 || bg.Ratio.X != 0.5 || bg.Autoscroll.X != 1 {
		t.Fatalf("unexpected background %+v", bg)
	}

	w := m.NewWorld()
	if w.PixelsPerMeter() != 16 || w.Space().Gravity().Y != -20 {
		t.Fatalf("unexpected world scale %v gravity %v", w.PixelsPerMeter(), w.Space().Gravity())
	}
}

func TestParseDefaults(t *testing.T) {
	m, err := Parse([]byte("map: a.tmx\n"), "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.FailurePolicy() != loader.AbortOnInvalid {
		t.Fatalf("expected abort by default")
	}
	w := m.NewWorld()
	if w.PixelsPerMeter() != physics.DefaultPixelsPerMeter || w.Space().Gravity().Y != DefaultGravity.Y {
		t.Fatalf("unexpected defaults: ppm=%v gravity=%v", w.PixelsPerMeter(), w.Space().Gravity())
	}
	if m.MapPath() != "a.tmx" {
		t.Fatalf("expected unresolved path without a directory, got %q", m.MapPath())
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"not_yaml", "map: [unclosed"},
		{"unknown_field", "map: a.tmx\ncolour: red\n"},
		{"missing_map", "pixels_per_meter: 16\n"},
		{"negative_scale", "map: a.tmx\npixels_per_meter: -1\n"},
		{"bad_policy", "map: a.tmx\non_invalid_property: retry\n"},
		{"bad_default_bodytype", "map: a.tmx\ndefaults: {bodytype: floaty}\n"},
		{"gid_and_name", "map: a.tmx\nbodies: [{gid: 1, name: spike}]\n"},
		{"neither_gid_nor_name", "map: a.tmx\nbodies: [{sensor: true}]\n"},
		{"bad_bodytype", "map: a.tmx\nbodies: [{gid: 1, bodytype: floaty}]\n"},
		{"background_without_image", "map: a.tmx\nbackgrounds: [{z: 1}]\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Parse([]byte(c.doc), ""); !errors.Is(err, ErrInvalidManifest) {
				t.Fatalf("expected ErrInvalidManifest, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "world.yaml"))
	if !errors.Is(err, ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest, got %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testMap() *tilemap.Map {
	m := tilemap.NewMap(3, 2, 16, 16)
	ground := m.AddTileLayer("Ground")
	ground.SetGID(m.Width, 0, 1, 7)
	ground.SetGID(m.Width, 1, 1, 7)
	m.AddTileLayer("Decor").SetGID(m.Width, 2, 0, 7)
	hazards := m.AddObjectGroup("Hazards")
	hazards.AddObject(tilemap.Properties{
		"name":   tilemap.String("spike"),
		"x":      tilemap.Number(16),
		"y":      tilemap.Number(16),
		"width":  tilemap.Number(16),
		"height": tilemap.Number(8),
	})
	hazards.AddObject(tilemap.Properties{
		"name":   tilemap.String("crate"),
		"x":      tilemap.Number(32),
		"y":      tilemap.Number(16),
		"width":  tilemap.Number(16),
		"height": tilemap.Number(16),
		"hidden": tilemap.String("true"),
	})
	return m
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hide.tengo"), `
if settings.hidden == "true" {
	skip = true
}
`)
	writeFile(t, filepath.Join(dir, "world.yaml"), `
map: level.tmx
pixels_per_meter: 16
bodies:
  - gid: 7
    layers: [Ground]
  - name: spike
    sensor: true
  - name: crate
    bodytype: dynamic
    script: hide.tengo
`)

	m, err := Load(filepath.Join(dir, "world.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var opened string
	opener := tilemap.OpenerFunc(func(path string) (*tilemap.Map, error) {
		opened = path
		return testMap(), nil
	})
	w, err := m.Build(loader.WithOpener(opener))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if opened != filepath.Join(dir, "level.tmx") {
		t.Fatalf("expected map resolved against the manifest, got %q", opened)
	}
	// two Ground tiles and the spike; the crate is hidden by its script
	if w.Physics.BodyCount() != 3 {
		t.Fatalf("expected 3 bodies, got %d", w.Physics.BodyCount())
	}
	if w.Map == nil {
		t.Fatalf("expected the loaded map to be returned")
	}
	if len(w.Bindings) != 3 || w.Bindings[0].GID != 7 || w.Bindings[1].Name != "spike" || w.Bindings[2].Name != "crate" {
		t.Fatalf("unexpected bindings %+v", w.Bindings)
	}
	if _, ok := w.Map.Layer("Hazards"); !ok {
		t.Fatalf("expected the Hazards group in the returned map")
	}

	dirs := m.WatchDirs()
	if len(dirs) != 1 || dirs[0] != dir {
		t.Fatalf("expected only %s to be watched, got %v", dir, dirs)
	}
}

func TestBuildMissingScript(t *testing.T) {
	m, err := Parse([]byte("map: level.tmx\nbodies: [{name: crate, script: nope.tengo}]\n"), t.TempDir())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := m.Build(); !errors.Is(err, script.ErrScript) {
		t.Fatalf("expected ErrScript, got %v", err)
	}
}

func TestBuildMissingMap(t *testing.T) {
	m, err := Parse([]byte("map: level.tmx\n"), t.TempDir())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := m.Build(); !errors.Is(err, loader.ErrMapNotFound) {
		t.Fatalf("expected ErrMapNotFound, got %v", err)
	}
}

func TestIsWatched(t *testing.T) {
	for path, want := range map[string]bool{
		"world.yaml":   true,
		"world.YML":    true,
		"level.tmx":    true,
		"terrain.tsx":  true,
		"hide.tengo":   true,
		"sky.png":      false,
		"notes.txt":    false,
		"level.tmx~":   false,
		"no_extension": false,
	} {
		if got := IsWatched(path); got != want {
			t.Fatalf("IsWatched(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()

	writeFile(t, filepath.Join(dir, "ignored.txt"), "x")
	writeFile(t, filepath.Join(dir, "world.yaml"), "map: a.tmx\n")

	select {
	case name := <-w.Events:
		if filepath.Base(name) != "world.yaml" {
			t.Fatalf("expected world.yaml, got %s", name)
		}
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for a change event")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for range w.Events {
		// drains until the pump closes the channel
	}
}

func TestWatcherSetDirs(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	w, err := NewWatcher(first, first)
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()
	if dirs := w.Dirs(); len(dirs) != 1 || dirs[0] != first {
		t.Fatalf("expected duplicates collapsed to %s, got %v", first, dirs)
	}

	if err := w.SetDirs(second); err != nil {
		t.Fatalf("set dirs: %v", err)
	}
	if dirs := w.Dirs(); len(dirs) != 1 || dirs[0] != second {
		t.Fatalf("expected %s to be watched, got %v", second, dirs)
	}

	writeFile(t, filepath.Join(first, "old.tmx"), "x")
	writeFile(t, filepath.Join(second, "moved.tmx"), "x")

	select {
	case name := <-w.Events:
		if filepath.Base(name) != "moved.tmx" {
			t.Fatalf("expected a change in the new directory, got %s", name)
		}
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for a change event")
	}

	if err := w.SetDirs(filepath.Join(second, "missing")); err == nil {
		t.Fatalf("expected an error for a missing directory")
	}
	if dirs := w.Dirs(); len(dirs) != 0 {
		t.Fatalf("expected no directories after a failed retarget, got %v", dirs)
	}
}

func TestBackgrounds(t *testing.T) {
	m, err := Parse([]byte(sample), "/levels")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tm := tilemap.NewMap(4, 4, 16, 16)
	far := tm.AddImageLayer("Far", "art/mountains.png")
	far.Properties = tilemap.Properties{
		"parallax_x":   tilemap.Number(0.25),
		"autoscroll_x": tilemap.String("-0.5"),
	}
	far.OffsetX, far.OffsetY = 8, 4
	tm.AddImageLayer("Empty", "")
	tm.AddImageLayer("Near", "/abs/trees.png")

	bgs, err := m.ResolvedBackgrounds(tm)
	if err != nil {
		t.Fatalf("backgrounds: %v", err)
	}
	if len(bgs) != 3 {
		t.Fatalf("expected 3 backgrounds, got %+v", bgs)
	}
	if bgs[0].Image != filepath.Join("/levels", "sky.png") {
		t.Fatalf("manifest background not resolved: %q", bgs[0].Image)
	}
	got := bgs[1]
	if got.Image != filepath.Join("/levels", "art", "mountains.png") {
		t.Fatalf("image layer not resolved against the map: %q", got.Image)
	}
	if got.Ratio != (Vec{X: 0.25, Y: 1}) || got.Autoscroll != (Vec{X: -0.5}) || got.Offset != (Vec{X: 8, Y: -4}) {
		t.Fatalf("unexpected scroll parameters %+v", got)
	}
	if bgs[2].Image != "/abs/trees.png" || bgs[2].Z <= got.Z {
		t.Fatalf("unexpected near layer %+v", bgs[2])
	}

	far.Properties["parallax_y"] = tilemap.String("lots")
	if _, err := m.ResolvedBackgrounds(tm); !errors.Is(err, loader.ErrInvalidPropertyFormat) {
		t.Fatalf("expected ErrInvalidPropertyFormat, got %v", err)
	}
}
