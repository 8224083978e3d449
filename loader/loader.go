package loader

import (
	"errors"
	"fmt"
	"log"

	"github.com/milk9111/mapworld/physics"
	"github.com/milk9111/mapworld/tilemap"
)

var (
	// ErrMapNotFound is returned by Load when the map cannot be opened. No
	// factory runs in that case.
	ErrMapNotFound = errors.New("loader: map not found")
	// ErrInvalidPropertyFormat is returned when a numeric property holds text
	// that does not parse as a number.
	ErrInvalidPropertyFormat = errors.New("loader: invalid property format")
	// ErrNoPhysicsWorld is returned by factories that need a world when none was set.
	ErrNoPhysicsWorld = errors.New("loader: no physics world")
)

// Callback is a factory invoked once per matching configuration. A non-nil
// error aborts the load.
type Callback func(Configuration) error

// Registration binds a factory to a tile identity or an object name. An empty
// Layers list admits every layer.
type Registration struct {
	GID      uint32
	Name     string
	Callback Callback
	Layers   []string
}

// Admits reports whether the registration applies to the named layer.
func (r Registration) Admits(layer string) bool {
	if len(r.Layers) == 0 {
		return true
	}
	for _, l := range r.Layers {
		if l == layer {
			return true
		}
	}
	return false
}

// FailurePolicy decides what happens when a tile or object has a malformed
// numeric property.
type FailurePolicy int

const (
	// AbortOnInvalid stops the whole load on the first malformed property.
	AbortOnInvalid FailurePolicy = iota
	// SkipInvalid logs and skips only the offending tile or object.
	SkipInvalid
)

func (p FailurePolicy) String() string {
	if p == SkipInvalid {
		return "skip"
	}
	return "abort"
}

// Report counts what one dispatch pass did.
type Report struct {
	Tiles   int // tile configurations dispatched
	Objects int // object configurations dispatched
	Calls   int // callback invocations
	Skipped int // configurations dropped under SkipInvalid
}

// Option configures a Loader.
type Option func(*Loader)

// WithOpener replaces the go-tiled opener, e.g. to read from an embed.FS.
func WithOpener(o tilemap.Opener) Option {
	return func(l *Loader) {
		if o != nil {
			l.opener = o
		}
	}
}

func WithPhysicsWorld(w *physics.World) Option {
	return func(l *Loader) {
		l.world = w
	}
}

func WithFailurePolicy(p FailurePolicy) Option {
	return func(l *Loader) {
		l.policy = p
	}
}

// Loader scans a map once and hands every tile instance and named object to
// the factories registered for it.
type Loader struct {
	path   string
	opener tilemap.Opener
	world  *physics.World
	policy FailurePolicy

	byGID  map[uint32][]Registration
	byName map[string][]Registration
	order  []Registration
}

// New creates a loader for the map at path. By default maps are read from
// disk with go-tiled and malformed properties abort the load.
func New(path string, opts ...Option) *Loader {
	l := &Loader{
		path:   path,
		opener: tilemap.TiledOpener{},
		byGID:  make(map[uint32][]Registration),
		byName: make(map[string][]Registration),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the map path passed to New.
func (l *Loader) Path() string {
	return l.path
}

// SetPhysicsWorld sets the world handed to factories.
func (l *Loader) SetPhysicsWorld(w *physics.World) {
	l.world = w
}

// SetFailurePolicy changes how malformed properties are handled.
func (l *Loader) SetFailurePolicy(p FailurePolicy) {
	l.policy = p
}

// RegisterByIdentity runs cb for every cell holding gid, on every tile layer
// admitted by layers.
func (l *Loader) RegisterByIdentity(gid uint32, cb Callback, layers ...string) {
	if cb == nil {
		return
	}
	r := Registration{GID: gid, Callback: cb, Layers: copyLayers(layers)}
	l.byGID[gid] = append(l.byGID[gid], r)
	l.order = append(l.order, r)
}

// RegisterByName runs cb for every object called name, in every object group
// admitted by layers.
func (l *Loader) RegisterByName(name string, cb Callback, layers ...string) {
	if cb == nil {
		return
	}
	r := Registration{Name: name, Callback: cb, Layers: copyLayers(layers)}
	l.byName[name] = append(l.byName[name], r)
	l.order = append(l.order, r)
}

// Registrations returns every registration, identities first, each group in
// registration order.
func (l *Loader) Registrations() []Registration {
	out := make([]Registration, 0, len(l.order))
	for _, r := range l.order {
		if r.Name == "" {
			out = append(out, r)
		}
	}
	for _, r := range l.order {
		if r.Name != "" {
			out = append(out, r)
		}
	}
	return out
}

// Load opens the map and dispatches it. The map is returned even when a
// factory fails so the caller can inspect it.
func (l *Loader) Load() (*tilemap.Map, error) {
	m, err := l.opener.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMapNotFound, l.path, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMapNotFound, l.path)
	}

	rep, err := l.Dispatch(m)
	if err != nil {
		return m, err
	}
	log.Printf("loader: %s: %d tiles, %d objects, %d calls, %d skipped",
		l.path, rep.Tiles, rep.Objects, rep.Calls, rep.Skipped)
	return m, nil
}

// Dispatch runs the registered factories over an already opened map: tile
// layers first, then object groups, each in map order.
func (l *Loader) Dispatch(m *tilemap.Map) (Report, error) {
	var rep Report
	if m == nil {
		return rep, fmt.Errorf("%w: nil map", ErrMapNotFound)
	}
	for _, layer := range m.LayersOf(tilemap.TileLayer) {
		if err := l.dispatchTiles(m, layer, &rep); err != nil {
			return rep, err
		}
	}
	for _, group := range m.LayersOf(tilemap.ObjectGroup) {
		if err := l.dispatchObjects(m, group, &rep); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

func (l *Loader) dispatchTiles(m *tilemap.Map, layer *tilemap.Layer, rep *Report) error {
	if len(l.byGID) == 0 {
		return nil
	}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			gid := layer.GIDAt(m.Width, x, y)
			if gid == 0 {
				continue
			}
			regs := admitted(l.byGID[gid], layer.Name)
			if len(regs) == 0 {
				continue
			}

			settings, err := NormalizeTile(m.TileProperties(gid), gid, x, y)
			if err != nil {
				err = fmt.Errorf("loader: layer %q tile %d at (%d,%d): %w", layer.Name, gid, x, y, err)
				if l.policy == SkipInvalid && errors.Is(err, ErrInvalidPropertyFormat) {
					log.Printf("loader: skipping: %v", err)
					rep.Skipped++
					continue
				}
				return err
			}

			rep.Tiles++
			cfg := Configuration{Settings: settings, Layer: layer.Name, Kind: KindTile, Map: m, World: l.world}
			if err := l.run(regs, cfg, rep); err != nil {
				return fmt.Errorf("loader: layer %q tile %d at (%d,%d): %w", layer.Name, gid, x, y, err)
			}
		}
	}
	return nil
}

func (l *Loader) dispatchObjects(m *tilemap.Map, group *tilemap.Layer, rep *Report) error {
	if len(l.byName) == 0 {
		return nil
	}
	for i, raw := range group.Objects {
		name, ok := raw["name"].AsString()
		if !ok || name == "" {
			continue
		}
		regs := admitted(l.byName[name], group.Name)
		if len(regs) == 0 {
			continue
		}

		settings, _, err := NormalizeObject(raw)
		if err != nil {
			err = fmt.Errorf("loader: group %q object %q (#%d): %w", group.Name, name, i, err)
			if l.policy == SkipInvalid && errors.Is(err, ErrInvalidPropertyFormat) {
				log.Printf("loader: skipping: %v", err)
				rep.Skipped++
				continue
			}
			return err
		}

		rep.Objects++
		cfg := Configuration{Settings: settings, Layer: group.Name, Kind: KindObject, Map: m, World: l.world}
		if err := l.run(regs, cfg, rep); err != nil {
			return fmt.Errorf("loader: group %q object %q (#%d): %w", group.Name, name, i, err)
		}
	}
	return nil
}

// run invokes every registration for one configuration, each with its own
// copy of the settings. When a callback fails, bodies created by the earlier
// callbacks for the same configuration are removed again.
func (l *Loader) run(regs []Registration, cfg Configuration, rep *Report) error {
	mark := l.world.BodyCount()
	for _, reg := range regs {
		c := cfg
		c.Settings = cfg.Settings.Clone()
		if err := reg.Callback(c); err != nil {
			l.world.Truncate(mark)
			return err
		}
		rep.Calls++
	}
	return nil
}

func admitted(regs []Registration, layer string) []Registration {
	var out []Registration
	for _, r := range regs {
		if r.Admits(layer) {
			out = append(out, r)
		}
	}
	return out
}

func copyLayers(layers []string) []string {
	if len(layers) == 0 {
		return nil
	}
	out := make([]string, len(layers))
	copy(out, layers)
	return out
}
