package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	manifestPath := flag.String("manifest", "", "world manifest (YAML); empty opens the bundled demo")
	debug := flag.Bool("debug", true, "draw physics shapes")
	watch := flag.Bool("watch", true, "reload when the manifest, map or scripts change")
	flag.Parse()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("mapview")

	game, err := NewGame(*manifestPath, *debug, *watch)
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
