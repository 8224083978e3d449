package tilemap

import (
	"errors"

	"github.com/lafriks/go-tiled"
)

// ErrNotFound is returned by an Opener when the map is missing or cannot be parsed.
var ErrNotFound = errors.New("tilemap: map not found")

// LayerKind tells tile layers, object groups and image layers apart.
type LayerKind int

const (
	TileLayer LayerKind = iota + 1
	ObjectGroup
	ImageLayer
)

func (k LayerKind) String() string {
	switch k {
	case TileLayer:
		return "tile layer"
	case ObjectGroup:
		return "object group"
	case ImageLayer:
		return "image layer"
	default:
		return "unknown layer"
	}
}

// Map is a loaded tile map. Layers keep the order they had in the source file
// within each kind: tile layers first, then object groups, then image layers.
type Map struct {
	Path       string
	Width      int // in tiles
	Height     int // in tiles
	TileWidth  int // in pixels
	TileHeight int // in pixels

	Layers     []*Layer
	Properties Properties

	// tiles holds per-GID properties from every tileset.
	tiles map[uint32]Properties

	// Source is the parsed go-tiled map, nil for maps built in memory.
	Source *tiled.Map
}

// Layer is one tile layer, object group or image layer.
type Layer struct {
	Name       string
	Kind       LayerKind
	Properties Properties

	// GIDs is row-major, len Width*Height of the owning map. 0 is an empty cell.
	GIDs []uint32
	// Objects holds one property bag per object of an object group.
	Objects []Properties
	// Image is the image source of an image layer, relative to the map file.
	Image string
	// OffsetX and OffsetY are the layer offset in pixels.
	OffsetX, OffsetY float64
}

// NewMap creates an empty map with the given grid and tile size.
func NewMap(width, height, tileWidth, tileHeight int) *Map {
	return &Map{
		Width:      width,
		Height:     height,
		TileWidth:  tileWidth,
		TileHeight: tileHeight,
		Properties: Properties{},
		tiles:      make(map[uint32]Properties),
	}
}

// AddTileLayer appends an empty tile layer sized to the map grid.
func (m *Map) AddTileLayer(name string) *Layer {
	l := &Layer{
		Name:       name,
		Kind:       TileLayer,
		Properties: Properties{},
		GIDs:       make([]uint32, m.Width*m.Height),
	}
	m.Layers = append(m.Layers, l)
	return l
}

// AddObjectGroup appends an empty object group.
func (m *Map) AddObjectGroup(name string) *Layer {
	l := &Layer{
		Name:       name,
		Kind:       ObjectGroup,
		Properties: Properties{},
	}
	m.Layers = append(m.Layers, l)
	return l
}

// AddImageLayer appends an image layer.
func (m *Map) AddImageLayer(name, image string) *Layer {
	l := &Layer{
		Name:       name,
		Kind:       ImageLayer,
		Properties: Properties{},
		Image:      image,
	}
	m.Layers = append(m.Layers, l)
	return l
}

// SetTileProperties sets the property bag shared by every cell holding gid.
func (m *Map) SetTileProperties(gid uint32, props Properties) {
	if m.tiles == nil {
		m.tiles = make(map[uint32]Properties)
	}
	m.tiles[gid] = props
}

// TileProperties returns the property bag for a tile identity, or nil.
func (m *Map) TileProperties(gid uint32) Properties {
	if m == nil || m.tiles == nil {
		return nil
	}
	return m.tiles[gid]
}

// LayersOf returns the layers of one kind in map order.
func (m *Map) LayersOf(kind LayerKind) []*Layer {
	var out []*Layer
	for _, l := range m.Layers {
		if l != nil && l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}

// Layer returns the first layer with the given name.
func (m *Map) Layer(name string) (*Layer, bool) {
	for _, l := range m.Layers {
		if l != nil && l.Name == name {
			return l, true
		}
	}
	return nil, false
}

// PixelHeight is the map height in pixels.
func (m *Map) PixelHeight() float64 {
	return float64(m.Height * m.TileHeight)
}

// PixelWidth is the map width in pixels.
func (m *Map) PixelWidth() float64 {
	return float64(m.Width * m.TileWidth)
}

// GIDAt returns the tile identity at grid cell (x, y) of a tile layer, 0 if out of range.
func (l *Layer) GIDAt(width, x, y int) uint32 {
	if l == nil || width <= 0 || x < 0 || x >= width || y < 0 {
		return 0
	}
	idx := y*width + x
	if idx >= len(l.GIDs) {
		return 0
	}
	return l.GIDs[idx]
}

// SetGID places a tile identity at grid cell (x, y).
func (l *Layer) SetGID(width, x, y int, gid uint32) {
	if l == nil || width <= 0 || x < 0 || x >= width || y < 0 {
		return
	}
	idx := y*width + x
	if idx >= len(l.GIDs) {
		return
	}
	l.GIDs[idx] = gid
}

// AddObject appends an object property bag to an object group.
func (l *Layer) AddObject(props Properties) {
	l.Objects = append(l.Objects, props)
}
