package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/milk9111/mapworld/common"
	"github.com/milk9111/mapworld/factory"
	"github.com/milk9111/mapworld/loader"
	"github.com/milk9111/mapworld/physics"
	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest is returned for manifests that cannot be read or that
// describe an impossible world.
var ErrInvalidManifest = errors.New("manifest: invalid manifest")

// DefaultGravity is used when a manifest does not set gravity.
var DefaultGravity = Vec{X: 0, Y: -10}

type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v Vec) Vec2() common.Vec2 {
	return common.Vec2{X: v.X, Y: v.Y}
}

// Fixture holds optional material overrides. Unset fields inherit.
type Fixture struct {
	Density     *float64 `yaml:"density"`
	Friction    *float64 `yaml:"friction"`
	Restitution *float64 `yaml:"restitution"`
	BodyType    string   `yaml:"bodytype"`
}

func (f Fixture) over(base factory.FixtureDefaults) factory.FixtureDefaults {
	if f.Density != nil {
		base.Density = *f.Density
	}
	if f.Friction != nil {
		base.Friction = *f.Friction
	}
	if f.Restitution != nil {
		base.Restitution = *f.Restitution
	}
	if f.BodyType != "" {
		base.BodyType = f.BodyType
	}
	return base
}

// BodySpec binds a tile identity or an object name to the body factory.
type BodySpec struct {
	GID      uint32   `yaml:"gid"`
	Name     string   `yaml:"name"`
	Layers   []string `yaml:"layers"`
	Category uint     `yaml:"category"`
	Mask     uint     `yaml:"mask"`
	Sensor   bool     `yaml:"sensor"`
	Script   string   `yaml:"script"`
	Fixture  `yaml:",inline"`
}

func (b BodySpec) key() string {
	if b.GID != 0 {
		return fmt.Sprintf("gid %d", b.GID)
	}
	return fmt.Sprintf("name %q", b.Name)
}

// BackgroundSpec is an image scrolled by a parallax container.
type BackgroundSpec struct {
	Image      string `yaml:"image"`
	Z          int    `yaml:"z"`
	Ratio      Vec    `yaml:"ratio"`
	Offset     Vec    `yaml:"offset"`
	Autoscroll Vec    `yaml:"autoscroll"`
}

// Manifest describes a world: which map to load, at what scale, and which
// factories run for which tiles and objects.
type Manifest struct {
	Map               string           `yaml:"map"`
	PixelsPerMeter    float64          `yaml:"pixels_per_meter"`
	Gravity           *Vec             `yaml:"gravity"`
	OnInvalidProperty string           `yaml:"on_invalid_property"`
	Defaults          Fixture          `yaml:"defaults"`
	Bodies            []BodySpec       `yaml:"bodies"`
	Backgrounds       []BackgroundSpec `yaml:"backgrounds"`

	path string
	dir  string
	fsys fs.FS
}

// Load reads and validates the manifest at path. Relative paths inside it
// resolve against its directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrInvalidManifest, path, err)
	}
	m, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.path = path
	return m, nil
}

// LoadFS reads and validates a manifest stored in fsys. The map, scripts and
// images it names are read from fsys too.
func LoadFS(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrInvalidManifest, name, err)
	}
	m, err := Parse(data, path.Dir(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	m.path = name
	m.fsys = fsys
	return m, nil
}

// Parse decodes a manifest. dir is the base for relative paths.
func Parse(data []byte, dir string) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %w", ErrInvalidManifest, err)
	}
	m.dir = dir
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if strings.TrimSpace(m.Map) == "" {
		return fmt.Errorf("%w: map is required", ErrInvalidManifest)
	}
	if m.PixelsPerMeter < 0 {
		return fmt.Errorf("%w: pixels_per_meter must be positive, got %v", ErrInvalidManifest, m.PixelsPerMeter)
	}
	if _, err := parsePolicy(m.OnInvalidProperty); err != nil {
		return err
	}
	if m.Defaults.BodyType != "" {
		if _, err := physics.ParseBodyType(m.Defaults.BodyType); err != nil {
			return fmt.Errorf("%w: defaults: %w", ErrInvalidManifest, err)
		}
	}
	for i, b := range m.Bodies {
		if (b.GID == 0) == (b.Name == "") {
			return fmt.Errorf("%w: bodies[%d]: exactly one of gid and name is required", ErrInvalidManifest, i)
		}
		if b.BodyType != "" {
			if _, err := physics.ParseBodyType(b.BodyType); err != nil {
				return fmt.Errorf("%w: bodies[%d]: %w", ErrInvalidManifest, i, err)
			}
		}
	}
	for i, bg := range m.Backgrounds {
		if strings.TrimSpace(bg.Image) == "" {
			return fmt.Errorf("%w: backgrounds[%d]: image is required", ErrInvalidManifest, i)
		}
	}
	return nil
}

func parsePolicy(s string) (loader.FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return loader.AbortOnInvalid, nil
	case "skip":
		return loader.SkipInvalid, nil
	}
	return loader.AbortOnInvalid, fmt.Errorf("%w: on_invalid_property must be abort or skip, got %q", ErrInvalidManifest, s)
}

// Path returns the file the manifest was loaded from, if any.
func (m *Manifest) Path() string {
	return m.path
}

// FS returns the file system the manifest was loaded from, nil for the OS.
func (m *Manifest) FS() fs.FS {
	return m.fsys
}

// Resolve makes p relative to the manifest's directory unless it is absolute.
func (m *Manifest) Resolve(p string) string {
	if m.fsys != nil {
		if p == "" || m.dir == "" {
			return p
		}
		return path.Join(m.dir, p)
	}
	if p == "" || filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

func (m *Manifest) MapPath() string {
	return m.Resolve(m.Map)
}

func (m *Manifest) FailurePolicy() loader.FailurePolicy {
	p, _ := parsePolicy(m.OnInvalidProperty)
	return p
}

// FixtureDefaults returns the manifest defaults layered over factory.DefaultFixture.
func (m *Manifest) FixtureDefaults() factory.FixtureDefaults {
	return m.Defaults.over(factory.DefaultFixture())
}

// NewWorld creates an empty physics world at the manifest's scale and gravity.
func (m *Manifest) NewWorld() *physics.World {
	g := DefaultGravity
	if m.Gravity != nil {
		g = *m.Gravity
	}
	return physics.NewWorld(m.PixelsPerMeter, g.Vec2())
}

// WatchDirs returns the directories holding the manifest, its map and its
// scripts, without duplicates. Manifests read from an fs.FS have none.
func (m *Manifest) WatchDirs() []string {
	if m.fsys != nil {
		return nil
	}
	seen := make(map[string]bool)
	var dirs []string
	add := func(p string) {
		d := filepath.Dir(p)
		if d == "" || seen[d] {
			return
		}
		seen[d] = true
		dirs = append(dirs, d)
	}
	if m.path != "" {
		add(m.path)
	}
	add(m.MapPath())
	for _, b := range m.Bodies {
		if b.Script != "" {
			add(m.Resolve(b.Script))
		}
	}
	return dirs
}
