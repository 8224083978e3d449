package tilemap

import (
	"fmt"
	"io/fs"
	"strconv"

	"github.com/lafriks/go-tiled"
	"github.com/milk9111/mapworld/common"
)

// Opener opens a map by path.
type Opener interface {
	Open(path string) (*Map, error)
}

// OpenerFunc adapts a function to an Opener.
type OpenerFunc func(path string) (*Map, error)

func (f OpenerFunc) Open(path string) (*Map, error) {
	return f(path)
}

// TiledOpener loads TMX files with go-tiled. A nil FS reads from the OS.
type TiledOpener struct {
	FS fs.FS
}

// Open parses a TMX file. Any failure is reported as ErrNotFound.
func (o TiledOpener) Open(path string) (*Map, error) {
	var opts []tiled.LoaderOption
	if o.FS != nil {
		opts = append(opts, tiled.WithFileSystem(o.FS))
	}
	tm, err := tiled.LoadFile(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	m := FromTiled(tm)
	m.Path = path
	return m, nil
}

// FromTiled converts a go-tiled map into the loader's map model.
//
// Object positions are converted from Tiled's top-left, Y-down convention to a
// lower-left origin with Y up, so x/y name the object's lower-left corner.
// Polygon and polyline points stay relative to the object and keep Tiled's Y-down
// direction; the physics shape builder flips them.
func FromTiled(tm *tiled.Map) *Map {
	m := NewMap(tm.Width, tm.Height, tm.TileWidth, tm.TileHeight)
	m.Source = tm

	for _, ts := range tm.Tilesets {
		if ts == nil {
			continue
		}
		for _, tt := range ts.Tiles {
			if tt == nil || len(tt.Properties) == 0 {
				continue
			}
			m.SetTileProperties(ts.FirstGID+tt.ID, convertProperties(tt.Properties))
		}
	}

	for _, tl := range tm.Layers {
		if tl == nil {
			continue
		}
		l := m.AddTileLayer(tl.Name)
		l.Properties = convertProperties(tl.Properties)
		l.OffsetX = float64(tl.OffsetX)
		l.OffsetY = float64(tl.OffsetY)
		for i, tile := range tl.Tiles {
			if i >= len(l.GIDs) {
				break
			}
			if tile == nil || tile.IsNil() || tile.Tileset == nil {
				continue
			}
			l.GIDs[i] = tile.Tileset.FirstGID + tile.ID
		}
	}

	mapHeight := m.PixelHeight()
	for _, og := range tm.ObjectGroups {
		if og == nil {
			continue
		}
		l := m.AddObjectGroup(og.Name)
		l.Properties = convertProperties(og.Properties)
		for _, o := range og.Objects {
			if o == nil {
				continue
			}
			l.AddObject(convertObject(o, mapHeight))
		}
	}

	for _, il := range tm.ImageLayers {
		if il == nil {
			continue
		}
		src := ""
		if il.Image != nil {
			src = il.Image.Source
		}
		l := m.AddImageLayer(il.Name, src)
		l.Properties = convertProperties(il.Properties)
		l.OffsetX = float64(il.OffsetX)
		l.OffsetY = float64(il.OffsetY)
	}

	return m
}

func convertObject(o *tiled.Object, mapHeight float64) Properties {
	props := Properties{
		"id":     Number(float64(o.ID)),
		"x":      Number(o.X),
		"width":  Number(o.Width),
		"height": Number(o.Height),
	}
	// Tile objects are anchored at their bottom-left corner in Tiled.
	if o.GID != 0 {
		props["y"] = Number(mapHeight - o.Y)
		props["gid"] = Number(float64(o.GID))
	} else {
		props["y"] = Number(mapHeight - o.Y - o.Height)
	}
	if o.Name != "" {
		props["name"] = String(o.Name)
	}
	class := o.Class
	if class == "" {
		class = o.Type //nolint:staticcheck // older TMX files use the type= attribute
	}
	if class != "" {
		props["type"] = String(class)
	}
	if o.Rotation != 0 {
		props["rotation"] = Number(o.Rotation)
	}
	if len(o.Polygons) > 0 && o.Polygons[0] != nil && o.Polygons[0].Points != nil {
		pts := make([]common.Vec2, 0, len(*o.Polygons[0].Points))
		for _, p := range *o.Polygons[0].Points {
			pts = append(pts, common.Vec2{X: p.X, Y: p.Y})
		}
		props["points"] = Points(pts)
	}
	if len(o.PolyLines) > 0 && o.PolyLines[0] != nil && o.PolyLines[0].Points != nil {
		pts := make([]common.Vec2, 0, len(*o.PolyLines[0].Points))
		for _, p := range *o.PolyLines[0].Points {
			pts = append(pts, common.Vec2{X: p.X, Y: p.Y})
		}
		props["polylinePoints"] = Points(pts)
	}

	// Authored properties win over attributes.
	for k, v := range convertProperties(o.Properties) {
		props[k] = v
	}
	return props
}

func convertProperties(src tiled.Properties) Properties {
	out := make(Properties, len(src))
	for _, p := range src {
		if p == nil || p.Name == "" {
			continue
		}
		out[p.Name] = convertProperty(p.Type, p.Value)
	}
	return out
}

func convertProperty(typ, raw string) Value {
	switch typ {
	case "int", "float":
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Number(f)
		}
	}
	return String(raw)
}
