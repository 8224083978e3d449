package main

import (
	"fmt"
	"image/color"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

var (
	panelColor = color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 200}
	buttonIdle = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255}
	textColor  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// pauseMenu is the overlay shown while the simulation is paused.
type pauseMenu struct {
	ui      *ebitenui.UI
	summary *widget.Text
}

func newPauseMenu(g *Game) *pauseMenu {
	panelImg := imageui.NewNineSliceColor(panelColor)
	btnImg := imageui.NewNineSliceColor(buttonIdle)

	var face ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)
	btnText := &widget.ButtonTextColor{Idle: textColor}
	center := widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})

	title := widget.NewText(
		widget.TextOpts.Text("Paused", &face, textColor),
		widget.TextOpts.WidgetOpts(center),
	)
	summary := widget.NewText(
		widget.TextOpts.Text("", &face, textColor),
		widget.TextOpts.WidgetOpts(center),
	)

	button := func(label string, onClick func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Pressed: btnImg}),
			widget.ButtonOpts.Text(label, &face, btnText),
			widget.ButtonOpts.WidgetOpts(center),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				onClick()
			}),
		)
	}

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(10),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 20, Bottom: 20, Left: 30, Right: 30}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(baseWidth/3, baseHeight/3),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{HorizontalPosition: widget.AnchorLayoutPositionCenter, VerticalPosition: widget.AnchorLayoutPositionCenter}),
		),
	)
	panel.AddChild(title)
	panel.AddChild(summary)
	panel.AddChild(button("Resume", func() { g.paused = false }))
	panel.AddChild(button("Reload", func() { g.reload("menu") }))
	panel.AddChild(button("Toggle shapes", func() { g.debug = !g.debug }))

	root := widget.NewContainer(widget.ContainerOpts.Layout(widget.NewAnchorLayout()))
	root.AddChild(panel)

	return &pauseMenu{ui: &ebitenui.UI{Container: root}, summary: summary}
}

func (p *pauseMenu) update(g *Game) {
	src := g.manifestPath
	if src == "" {
		src = "bundled demo"
	}
	w := g.view.world
	p.summary.Label = fmt.Sprintf("%s\n%d bodies, %d shapes, %d layers, %d bindings",
		src, w.Physics.BodyCount(), w.Physics.ShapeCount(), len(w.Map.Layers), len(w.Bindings))
	p.ui.Update()
}
