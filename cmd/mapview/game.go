package main

import (
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/mapworld/common"
	"github.com/milk9111/mapworld/debugdraw"
	"github.com/milk9111/mapworld/manifest"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	scrollSpeed  = 8.0
	cameraSmooth = 0.2
	stepDt       = 1.0 / 60.0
)

type Game struct {
	manifestPath string
	debug        bool
	paused       bool
	frames       int

	view    *view
	watcher *manifest.Watcher
	face    ebtext.Face
	menu    *pauseMenu
	lastErr error

	camera common.Vec2
	target common.Vec2
}

func NewGame(manifestPath string, debug, watch bool) (*Game, error) {
	v, err := loadView(manifestPath)
	if err != nil {
		return nil, err
	}
	g := &Game{
		manifestPath: manifestPath,
		debug:        debug,
		view:         v,
		face:         ebtext.NewGoXFace(basicfont.Face7x13),
	}
	g.menu = newPauseMenu(g)
	if dirs := v.manifest.WatchDirs(); watch && len(dirs) > 0 {
		w, err := manifest.NewWatcher(dirs...)
		if err != nil {
			log.Printf("mapview: watch disabled: %v", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) Update() error {
	g.frames++
	g.pollReload()

	if inpututil.IsKeyJustPressed(ebiten.KeyP) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.paused = !g.paused
	}
	if g.paused {
		g.menu.update(g)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.debug = !g.debug
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.reload("manual")
	}

	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.target.X -= scrollSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.target.X += scrollSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.target.Y += scrollSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.target.Y -= scrollSpeed
	}
	g.camera.X = common.Lerp(g.camera.X, g.target.X, cameraSmooth)
	g.camera.Y = common.Lerp(g.camera.Y, g.target.Y, cameraSmooth)

	if !g.paused {
		g.view.world.Physics.Step(stepDt)
	}
	g.view.backgrounds.Visit(g.camera)
	return nil
}

// pollReload drains pending watcher events so reloads run on the game goroutine.
func (g *Game) pollReload() {
	if g.watcher == nil {
		return
	}
	changed := ""
drain:
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				break drain
			}
			changed = name
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				break drain
			}
			log.Printf("mapview: watch: %v", err)
		default:
			break drain
		}
	}
	if changed != "" {
		g.reload(changed)
	}
}

// reload rebuilds the whole view. The current view stays up when it fails.
func (g *Game) reload(reason string) {
	v, err := loadView(g.manifestPath)
	if err != nil {
		g.lastErr = err
		log.Printf("mapview: reload after %s: %v", reason, err)
		return
	}
	g.view = v
	g.lastErr = nil
	if g.watcher != nil {
		// the edited manifest may point at a map or script somewhere else
		if err := g.watcher.SetDirs(v.manifest.WatchDirs()...); err != nil {
			log.Printf("mapview: watch: %v", err)
		}
	}
	log.Printf("mapview: reloaded after %s", reason)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)
	g.view.draw(screen, g.camera)
	if g.debug {
		debugdraw.Draw(screen, g.view.world.Physics, g.camera)
	}
	g.drawHUD(screen)
	if g.paused {
		g.menu.ui.Draw(screen)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	lines := []string{
		fmt.Sprintf("FPS: %.1f  bodies: %d  shapes: %d", ebiten.ActualFPS(), g.view.world.Physics.BodyCount(), g.view.world.Physics.ShapeCount()),
		fmt.Sprintf("camera: (%.0f, %.0f)  paused: %v", g.camera.X, g.camera.Y, g.paused),
	}
	if g.lastErr != nil {
		lines = append(lines, "reload failed: "+g.lastErr.Error())
	}
	for i, line := range lines {
		op := &ebtext.DrawOptions{}
		op.GeoM.Translate(8, 8+float64(i)*16)
		op.ColorScale.ScaleWithColor(colornames.White)
		ebtext.Draw(screen, line, g.face, op)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
