// Package levels bundles the demo world the viewer opens when no manifest is
// given on the command line.
package levels

import (
	"embed"

	"github.com/milk9111/mapworld/manifest"
)

//go:embed *.tmx *.yaml *.tengo *.png
var FS embed.FS

// Demo is the manifest of the bundled world.
const Demo = "world.yaml"

// LoadDemo reads the bundled manifest.
func LoadDemo() (*manifest.Manifest, error) {
	return manifest.LoadFS(FS, Demo)
}
