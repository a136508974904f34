package demo

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/physics"
)

var (
	groundColor = color.RGBA{0x55, 0x5b, 0x6e, 0xff}
	bodyColor   = color.RGBA{0xf0, 0x9a, 0x3e, 0xff}
	playerColor = color.RGBA{0x5c, 0xc8, 0x7a, 0xff}
	beaconColor = color.RGBA{0x81, 0x8c, 0xf8, 0xff}
)

// Renderer draws every shape as a filled box and every other sprite node as
// a small marker rotated with the node, viewed through the scene's first
// camera when it has one.
func Renderer() canopy.Renderer {
	return canopy.RendererFunc(draw)
}

func draw(screen *ebiten.Image, root *canopy.Node) {
	if root == nil {
		return
	}
	screen.Fill(color.RGBA{0x1e, 0x1e, 0x2e, 0xff})
	cam := newView(root)
	root.Walk(func(n *canopy.Node) bool {
		if s, ok := physics.ShapeOf(n); ok {
			r := cam.rect(s.Bounds(n))
			vector.DrawFilledRect(screen, float32(r.X), float32(r.Y), float32(r.Width), float32(r.Height), shapeColor(n), false)
			return true
		}
		if n.HasKind(canopy.KindSprite) && !n.HasKind(canopy.KindBody) {
			drawMarker(screen, n, cam)
		}
		return true
	})
}

func shapeColor(n *canopy.Node) color.Color {
	owner := n.Parent()
	if owner == nil {
		owner = n
	}
	b, ok := physics.BodyOf(owner)
	switch {
	case !ok:
		return bodyColor
	case b.Static:
		return groundColor
	case owner.HasKind(canopy.KindInputListener):
		return playerColor
	}
	return bodyColor
}

func drawMarker(screen *ebiten.Image, n *canopy.Node, v view) {
	if marker == nil {
		marker = ebiten.NewImage(markerSize, markerSize)
		marker.Fill(beaconColor)
	}
	p := v.point(n.GlobalPosition())
	var op ebiten.DrawImageOptions
	op.GeoM.Translate(-markerSize/2, -markerSize/2)
	op.GeoM.Rotate(n.GlobalRotation())
	op.GeoM.Scale(v.zoom(), v.zoom())
	op.GeoM.Translate(p.X, p.Y)
	screen.DrawImage(marker, &op)
}

const markerSize = 24

var marker *ebiten.Image

// view maps world space to the screen. Camera rotation is not applied to
// boxes.
type view struct {
	cam *canopy.Camera
}

func newView(root *canopy.Node) view {
	cam, _ := canopy.ActiveCamera(root)
	if cam != nil && cam.Viewport.Width == 0 {
		cam = nil
	}
	return view{cam: cam}
}

func (v view) point(p canopy.Vec2) canopy.Vec2 {
	if v.cam == nil {
		return p
	}
	return v.cam.WorldToScreen(p)
}

func (v view) zoom() float64 {
	if v.cam == nil {
		return 1
	}
	return v.cam.Zoom
}

func (v view) rect(r canopy.Rect) canopy.Rect {
	p := v.point(canopy.Vec2{X: r.X, Y: r.Y})
	z := v.zoom()
	return canopy.Rect{X: p.X, Y: p.Y, Width: r.Width * z, Height: r.Height * z}
}
