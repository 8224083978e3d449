package main

import (
	"fmt"
	"io/fs"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/lafriks/go-tiled/render"
	"github.com/milk9111/mapworld/common"
	"github.com/milk9111/mapworld/levels"
	"github.com/milk9111/mapworld/manifest"
	"github.com/milk9111/mapworld/parallax"
	"github.com/milk9111/mapworld/scene"
	"github.com/milk9111/mapworld/tilemap"
)

const (
	backgroundZ = -1000
	tilesZ      = 0
)

// view is everything built from one manifest load.
type view struct {
	manifest    *manifest.Manifest
	world       *manifest.World
	graph       *scene.Graph
	backgrounds *parallax.Container
}

// loadManifest reads the manifest at path, or the bundled demo when path is empty.
func loadManifest(path string) (*manifest.Manifest, error) {
	if path == "" {
		return levels.LoadDemo()
	}
	return manifest.Load(path)
}

func loadView(manifestPath string) (*view, error) {
	m, err := loadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	w, err := m.Build()
	if err != nil {
		return nil, err
	}

	g := scene.NewGraph()
	bg, err := parallax.NewContainer(g, scene.Root, backgroundZ)
	if err != nil {
		return nil, err
	}
	specs, err := m.ResolvedBackgrounds(w.Map)
	if err != nil {
		return nil, err
	}
	for _, spec := range specs {
		img, err := loadImage(m.FS(), spec.Image)
		if err != nil {
			log.Printf("mapview: background %s: %v", spec.Image, err)
			continue
		}
		if _, err := bg.AddChild(spec.Z, spec.Ratio.Vec2(), spec.Offset.Vec2(), spec.Autoscroll.Vec2(), img); err != nil {
			return nil, err
		}
	}

	tiles, err := renderTiles(w.Map, m.FS())
	if err != nil {
		log.Printf("mapview: tiles: %v", err)
	} else if _, err := g.Add(scene.Root, tilesZ, common.Vec2{}, tiles); err != nil {
		return nil, err
	}

	return &view{manifest: m, world: w, graph: g, backgrounds: bg}, nil
}

func loadImage(fsys fs.FS, path string) (*ebiten.Image, error) {
	if fsys != nil {
		img, _, err := ebitenutil.NewImageFromFileSystem(fsys, path)
		return img, err
	}
	img, _, err := ebitenutil.NewImageFromFile(path)
	return img, err
}

// renderTiles draws every visible tile layer into one image with go-tiled.
// Tileset images are read from fsys when it is set.
func renderTiles(tm *tilemap.Map, fsys fs.FS) (*ebiten.Image, error) {
	if tm == nil || tm.Source == nil {
		return nil, fmt.Errorf("map has no tiled source")
	}
	var (
		r   *render.Renderer
		err error
	)
	if fsys != nil {
		r, err = render.NewRendererWithFileSystem(tm.Source, fsys)
	} else {
		r, err = render.NewRenderer(tm.Source)
	}
	if err != nil {
		return nil, err
	}
	if err := r.RenderVisibleLayers(); err != nil {
		return nil, err
	}
	return ebiten.NewImageFromImage(r.Result), nil
}

// draw paints every image node. Node positions are lower-left corners in map
// pixels with Y up; camera is the map pixel at the screen's lower-left.
func (v *view) draw(screen *ebiten.Image, camera common.Vec2) {
	screenH := float64(screen.Bounds().Dy())
	v.graph.Walk(func(id scene.NodeID, pos common.Vec2) bool {
		payload, _ := v.graph.Get(id)
		img, ok := payload.(*ebiten.Image)
		if !ok || img == nil {
			return true
		}
		op := &ebiten.DrawImageOptions{}
		x := pos.X - camera.X
		y := screenH - (pos.Y - camera.Y) - float64(img.Bounds().Dy())
		op.GeoM.Translate(x, y)
		screen.DrawImage(img, op)
		return true
	})
}
