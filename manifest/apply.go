package manifest

import (
	"fmt"
	"io/fs"
	"log"
	"path"

	"github.com/milk9111/mapworld/factory"
	"github.com/milk9111/mapworld/loader"
	"github.com/milk9111/mapworld/physics"
	"github.com/milk9111/mapworld/script"
	"github.com/milk9111/mapworld/tilemap"
)

// Apply registers a body factory for every binding, wrapped in its script
// when one is named, and sets the loader's failure policy.
func (m *Manifest) Apply(l *loader.Loader) error {
	l.SetFailurePolicy(m.FailurePolicy())
	defaults := m.FixtureDefaults()

	for i, b := range m.Bodies {
		cb := factory.Body(factory.BodyOptions{
			Category: b.Category,
			Mask:     b.Mask,
			Sensor:   b.Sensor,
			Defaults: b.Fixture.over(defaults),
		})
		if b.Script != "" {
			prog, err := m.loadScript(b.Script)
			if err != nil {
				return fmt.Errorf("manifest: bodies[%d] %s: %w", i, b.key(), err)
			}
			cb = prog.Wrap(cb)
		}

		if b.GID != 0 {
			l.RegisterByIdentity(b.GID, cb, b.Layers...)
		} else {
			l.RegisterByName(b.Name, cb, b.Layers...)
		}
	}
	return nil
}

// World is the result of building a manifest.
type World struct {
	Map      *tilemap.Map
	Physics  *physics.World
	Bindings []loader.Registration
}

// Build creates a physics world, applies the bindings and loads the map.
// opts are applied to the loader after the manifest's own settings.
func (m *Manifest) Build(opts ...loader.Option) (*World, error) {
	pw := m.NewWorld()
	base := []loader.Option{loader.WithPhysicsWorld(pw)}
	if m.fsys != nil {
		base = append(base, loader.WithOpener(tilemap.TiledOpener{FS: m.fsys}))
	}
	l := loader.New(m.MapPath(), base...)
	if err := m.Apply(l); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(l)
	}

	tm, err := l.Load()
	if err != nil {
		return nil, fmt.Errorf("manifest: build %s: %w", m.MapPath(), err)
	}
	log.Printf("manifest: built %s: %d bodies, %d shapes", m.MapPath(), pw.BodyCount(), pw.ShapeCount())
	return &World{Map: tm, Physics: pw, Bindings: l.Registrations()}, nil
}

func (m *Manifest) loadScript(name string) (*script.Program, error) {
	p := m.Resolve(name)
	if m.fsys == nil {
		return script.Load(p)
	}
	src, err := fs.ReadFile(m.fsys, p)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", script.ErrScript, p, err)
	}
	return script.Compile(path.Base(p), src)
}
