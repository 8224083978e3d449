package manifest

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/milk9111/mapworld/loader"
	"github.com/milk9111/mapworld/tilemap"
)

// imageLayerZ is the draw order of the first image layer; later layers draw above it.
const imageLayerZ = -100

// ResolvedBackgrounds returns the manifest's backgrounds followed by one
// background per image layer of tm, with every image path resolved. Image
// layers read their scroll parameters from the parallax_x, parallax_y,
// autoscroll_x and autoscroll_y properties; parallax defaults to 1 (fixed on
// screen).
func (m *Manifest) ResolvedBackgrounds(tm *tilemap.Map) ([]BackgroundSpec, error) {
	out := make([]BackgroundSpec, 0, len(m.Backgrounds))
	for _, bg := range m.Backgrounds {
		bg.Image = m.Resolve(bg.Image)
		out = append(out, bg)
	}
	if tm == nil {
		return out, nil
	}

	mapDir := filepath.Dir(m.MapPath())
	if m.fsys != nil {
		mapDir = path.Dir(m.MapPath())
	}
	for i, l := range tm.LayersOf(tilemap.ImageLayer) {
		if l.Image == "" {
			continue
		}
		props := loader.Settings(l.Properties)
		var (
			bg  = BackgroundSpec{Z: imageLayerZ + i}
			err error
		)
		if bg.Ratio.X, err = props.Float("parallax_x", 1); err != nil {
			return nil, fmt.Errorf("manifest: image layer %q: %w", l.Name, err)
		}
		if bg.Ratio.Y, err = props.Float("parallax_y", 1); err != nil {
			return nil, fmt.Errorf("manifest: image layer %q: %w", l.Name, err)
		}
		if bg.Autoscroll.X, err = props.Float("autoscroll_x", 0); err != nil {
			return nil, fmt.Errorf("manifest: image layer %q: %w", l.Name, err)
		}
		if bg.Autoscroll.Y, err = props.Float("autoscroll_y", 0); err != nil {
			return nil, fmt.Errorf("manifest: image layer %q: %w", l.Name, err)
		}
		bg.Offset = Vec{X: l.OffsetX, Y: -l.OffsetY}
		bg.Image = l.Image
		switch {
		case m.fsys != nil:
			bg.Image = path.Join(mapDir, bg.Image)
		case !filepath.IsAbs(bg.Image):
			bg.Image = filepath.Join(mapDir, bg.Image)
		}
		out = append(out, bg)
	}
	return out, nil
}
