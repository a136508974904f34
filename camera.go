package canopy

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera is the KindCamera component: the view a renderer draws the scene
// through. The scene itself never reads it; renderers map world positions
// with WorldToScreen.
type Camera struct {
	// Center is the world-space point the camera looks at.
	Center Vec2
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64
	// Viewport is the screen-space rectangle this camera renders into. A
	// camera created with an empty viewport tracks the scene size.
	Viewport Rect

	followTarget *Node
	followOffset Vec2
	followLerp   float64

	boundsEnabled bool
	bounds        Rect
	fit           bool

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	// builtFrom is the state viewMatrix was computed for.
	builtFrom viewState
	built     bool

	scrollTween *scrollAnim
}

type viewState struct {
	center   Vec2
	zoom     float64
	rotation float64
	viewport Rect
}

// NewCamera creates a Camera with the given viewport. Pass an empty Rect to
// follow the scene size.
func NewCamera(viewport Rect) *Camera {
	return &Camera{
		Zoom:     1.0,
		Viewport: viewport,
		fit:      viewport.Width == 0 && viewport.Height == 0,
	}
}

// WithCamera attaches c as the node's KindCamera component.
func WithCamera(c *Camera) NodeOption { return WithComponent(KindCamera, c) }

// CameraOf returns the node's camera component.
func CameraOf(n *Node) (*Camera, bool) { return ComponentOf[*Camera](n, KindCamera) }

// Follow makes the camera track target with the given offset and lerp
// factor. A lerp of 1.0 snaps immediately; lower values trail behind.
func (c *Camera) Follow(target *Node, offset Vec2, lerp float64) {
	c.followTarget = target
	c.followOffset = offset
	c.followLerp = lerp
}

// Unfollow stops tracking the current target.
func (c *Camera) Unfollow() { c.followTarget = nil }

// Following returns the tracked node, or nil.
func (c *Camera) Following() *Node { return c.followTarget }

// ScrollTo animates the camera center to p over duration seconds.
func (c *Camera) ScrollTo(p Vec2, duration float32, fn ease.TweenFunc) {
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.Center.X), float32(p.X), duration, fn),
		tweenY: gween.New(float32(c.Center.Y), float32(p.Y), duration, fn),
	}
}

// Scrolling reports whether a ScrollTo animation is in progress.
func (c *Camera) Scrolling() bool { return c.scrollTween != nil }

// SetBounds clamps the camera so its visible area stays inside bounds.
func (c *Camera) SetBounds(bounds Rect) {
	c.boundsEnabled = true
	c.bounds = bounds
	c.clampToBounds()
}

// ClearBounds disables bounds clamping.
func (c *Camera) ClearBounds() { c.boundsEnabled = false }

// Update advances follow, scroll and bounds clamping by dt seconds.
func (c *Camera) Update(dt float64) {
	if t := c.followTarget; t != nil {
		if t.IsFreed() {
			c.followTarget = nil
		} else {
			target := t.GlobalPosition().Add(c.followOffset)
			c.Center = c.Center.Add(target.Sub(c.Center).Scale(c.followLerp))
		}
	}

	if s := c.scrollTween; s != nil {
		if !s.doneX {
			v, done := s.tweenX.Update(float32(dt))
			c.Center.X = float64(v)
			s.doneX = done
		}
		if !s.doneY {
			v, done := s.tweenY.Update(float32(dt))
			c.Center.Y = float64(v)
			s.doneY = done
		}
		if s.doneX && s.doneY {
			c.scrollTween = nil
		}
	}

	c.clampToBounds()
}

func (c *Camera) resize(w, h float64) {
	if !c.fit {
		return
	}
	c.Viewport = Rect{Width: w, Height: h}
	c.clampToBounds()
}

// clampToBounds keeps the visible area inside the bounds. Bounds smaller
// than the view center the camera on that axis.
func (c *Camera) clampToBounds() {
	if !c.boundsEnabled {
		return
	}
	halfW := c.Viewport.Width / (2 * c.Zoom)
	halfH := c.Viewport.Height / (2 * c.Zoom)

	minX, maxX := c.bounds.X+halfW, c.bounds.X+c.bounds.Width-halfW
	minY, maxY := c.bounds.Y+halfH, c.bounds.Y+c.bounds.Height-halfH

	if minX > maxX {
		c.Center.X = c.bounds.X + c.bounds.Width/2
	} else {
		c.Center.X = math.Max(minX, math.Min(c.Center.X, maxX))
	}
	if minY > maxY {
		c.Center.Y = c.bounds.Y + c.bounds.Height/2
	} else {
		c.Center.Y = math.Max(minY, math.Min(c.Center.Y, maxY))
	}
}

// View returns the world-to-screen affine matrix:
//
//	Translate(viewport center) * Scale(zoom) * Rotate(-rotation) * Translate(-center)
//
// The matrix is recomputed whenever Center, Zoom, Rotation or Viewport
// differ from the values it was last built from.
func (c *Camera) View() [6]float64 {
	state := viewState{c.Center, c.Zoom, c.Rotation, c.Viewport}
	if c.built && state == c.builtFrom {
		return c.viewMatrix
	}
	c.built = true
	c.builtFrom = state

	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2
	cos := math.Cos(-c.Rotation)
	sin := math.Sin(-c.Rotation)
	z := c.Zoom
	x, y := c.Center.X, c.Center.Y

	c.viewMatrix = [6]float64{
		z * cos, z * sin,
		-z * sin, z * cos,
		cx + z*(-cos*x+sin*y), cy + z*(-sin*x-cos*y),
	}
	c.invViewMatrix = invertAffine(c.viewMatrix)
	return c.viewMatrix
}

// WorldToScreen converts a world point to screen coordinates.
func (c *Camera) WorldToScreen(p Vec2) Vec2 {
	x, y := transformPoint(c.View(), p.X, p.Y)
	return Vec2{x, y}
}

// ScreenToWorld converts a screen point to world coordinates.
func (c *Camera) ScreenToWorld(p Vec2) Vec2 {
	c.View()
	x, y := transformPoint(c.invViewMatrix, p.X, p.Y)
	return Vec2{x, y}
}

// VisibleBounds returns the world-space AABB of the camera's view.
func (c *Camera) VisibleBounds() Rect {
	c.View()
	inv := c.invViewMatrix
	vx, vy := c.Viewport.X, c.Viewport.Y
	vr, vb := vx+c.Viewport.Width, vy+c.Viewport.Height

	x0, y0 := transformPoint(inv, vx, vy)
	x1, y1 := transformPoint(inv, vr, vy)
	x2, y2 := transformPoint(inv, vr, vb)
	x3, y3 := transformPoint(inv, vx, vb)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// CameraSystem updates every KindCamera node after the tree's frame update,
// so follow targets are read at their final position for the frame.
type CameraSystem struct {
	SystemBase
	resize Connection
}

// NewCameraSystem returns the camera system.
func NewCameraSystem() *CameraSystem {
	return &CameraSystem{SystemBase: NewSystemBase(SystemConfig{
		Name:     "camera",
		Phase:    PhaseFramePost,
		Requires: Kinds(KindCamera),
	})}
}

// OnRegister tracks scene resizes for cameras that fit the screen.
func (s *CameraSystem) OnRegister(sm *SceneManager) {
	s.resize = sm.OnResize.Connect(func(w, h int) {
		for _, n := range s.Matching() {
			if c, ok := CameraOf(n); ok {
				c.resize(float64(w), float64(h))
			}
		}
	})
}

// OnUnregister stops tracking resizes.
func (s *CameraSystem) OnUnregister(*SceneManager) { s.resize.Disconnect() }

// OnNodeAdded sizes a screen-fitting camera to the current scene size.
func (s *CameraSystem) OnNodeAdded(n *Node) {
	if c, ok := CameraOf(n); ok && s.Scene() != nil {
		size := s.Scene().Size.Get()
		c.resize(size.X, size.Y)
	}
}

// ProcessNode advances the node's camera.
func (s *CameraSystem) ProcessNode(n *Node, dt float64) error {
	if c, ok := CameraOf(n); ok {
		c.Update(dt)
	}
	return nil
}

// ActiveCamera returns the first camera found under root in tree order.
func ActiveCamera(root *Node) (*Camera, bool) {
	var found *Camera
	if root == nil {
		return nil, false
	}
	root.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if c, ok := CameraOf(n); ok {
			found = c
			return false
		}
		return true
	})
	return found, found != nil
}
