// Package demo builds the sample scene used by the canopy CLI and the
// windowed example: a player that runs and jumps on a floor, falling crates
// and a spinning beacon.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/tanema/gween/ease"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/physics"
	"github.com/phanxgames/canopy/save"
)

// Tuning.
const (
	Gravity   = 900.0
	RunSpeed  = 160.0
	JumpSpeed = 420.0
)

// Demo is a running demo scene.
type Demo struct {
	SM       *canopy.SceneManager
	Registry *canopy.Registry
	Root     *canopy.Node
	Physics  *physics.System
	Input    *canopy.InputSystem
	Frames   *canopy.FrameStats
	Player   *canopy.Node
	Camera   *canopy.Camera

	player *player
}

// Mapper returns the demo's action bindings.
func Mapper() *canopy.InputMapper {
	m := canopy.NewInputMapper()
	m.Map("jump", canopy.Key("Space"), canopy.Key("W"), canopy.Key("ArrowUp"))
	m.Map("left", canopy.Key("A"), canopy.Key("ArrowLeft"))
	m.Map("right", canopy.Key("D"), canopy.Key("ArrowRight"))
	m.Map("screenshot", canopy.Key("F12"))
	return m
}

// New builds the demo scene on a new SceneManager configured with cfg.
// source may be nil for headless runs driven by injected input. Extra
// options (e.g. canopy.WithMetrics) are applied after the defaults.
func New(cfg canopy.Config, logger *slog.Logger, source canopy.InputSource, opts ...canopy.Option) (*Demo, error) {
	reg := canopy.NewRegistry(logger)
	if err := reg.Register(canopy.NewInjector(logger)); err != nil {
		return nil, err
	}
	sm := canopy.NewSceneManager(append([]canopy.Option{
		canopy.WithConfig(cfg),
		canopy.WithLogger(logger),
		canopy.WithRegistry(reg),
	}, opts...)...)

	d := &Demo{
		SM:       sm,
		Registry: reg,
		Physics:  physics.NewSystem(canopy.Vec2{Y: Gravity}),
		Input:    canopy.NewInputSystem(Mapper(), source),
		Frames:   canopy.NewFrameStats(),
		Camera:   canopy.NewCamera(canopy.Rect{}),
	}
	for _, s := range []canopy.System{d.Physics, d.Input, canopy.NewAnimationSystem(), canopy.NewCameraSystem(), d.Frames} {
		if err := sm.AddSystem(s); err != nil {
			return nil, fmt.Errorf("demo: %w", err)
		}
	}

	root, err := d.build(float64(cfg.Width), float64(cfg.Height))
	if err != nil {
		return nil, fmt.Errorf("demo: %w", err)
	}
	if err := sm.SetScene(root); err != nil {
		return nil, fmt.Errorf("demo: %w", err)
	}
	d.Root = root
	d.Player = root.MustGetNode("player")
	d.Camera.Follow(d.Player, canopy.Vec2{}, 0.2)
	if err := reg.Setup(); err != nil {
		return nil, fmt.Errorf("demo: %w", err)
	}
	return d, nil
}

func (d *Demo) build(w, h float64) (*canopy.Node, error) {
	if w <= 0 || h <= 0 {
		w, h = 640, 480
	}
	d.player = newPlayer()
	d.Camera.SetBounds(canopy.Rect{Width: w, Height: h})
	return canopy.Build("level", func(b *canopy.Builder) {
		b.Attach(physics.NewBody("floor", &physics.Body{Static: true},
			canopy.WithPosition(w/2, h-20), canopy.WithGroups("ground")), func(b *canopy.Builder) {
			b.Add("shape", nil, physics.WithShape(physics.Box(w, 40)))
		})
		b.Attach(physics.NewBody("player", d.player.body,
			canopy.WithPosition(w/4, h/2),
			canopy.WithKinds(canopy.KindInputListener, canopy.KindSprite),
			canopy.WithBehavior(d.player)), func(b *canopy.Builder) {
			b.Add("hitbox", nil, physics.WithShape(physics.Box(24, 40)))
		})
		b.Add("crates", func(b *canopy.Builder) {
			for i := range 3 {
				x := w/2 + float64(i-1)*60
				b.Attach(physics.NewBody(fmt.Sprintf("crate%d", i), &physics.Body{GravityScale: 1},
					canopy.WithPosition(x, h/4-float64(i)*40),
					canopy.WithKinds(canopy.KindSprite), canopy.WithGroups("crates")), func(b *canopy.Builder) {
					b.Add("shape", nil, physics.WithShape(physics.Box(30, 30)))
				})
			}
		})
		beacon := b.Add("beacon", nil, canopy.WithPosition(w-40, 40), canopy.WithKinds(canopy.KindSprite))
		spin := canopy.TweenRotation(beacon, 2*math.Pi, 2, ease.InOutQuad)
		canopy.Animate(spin).Finished.Connect(func(g *canopy.TweenGroup) {
			_ = g.Target().SetRotation(0)
			g.Reset()
			canopy.AnimatorOf(g.Target()).Play(g)
		})
		b.Add("camera", nil, canopy.WithCamera(d.Camera))
	})
}

// Jumps returns how many times the player has jumped.
func (d *Demo) Jumps() int { return d.player.jumps }

// Grounded reports whether the player stands on a ground body.
func (d *Demo) Grounded() bool { return d.player.grounded > 0 }

// PlayerSave is the persisted player state.
type PlayerSave struct {
	X, Y  float64
	Jumps int
}

// RegisterSaves adds the player module to destination dest of m.
func (d *Demo) RegisterSaves(m *save.Manager, dest string) error {
	_, err := save.Register(m, dest, "player",
		func() PlayerSave {
			p := d.Player.Position()
			return PlayerSave{X: p.X, Y: p.Y, Jumps: d.player.jumps}
		},
		func(s PlayerSave) {
			d.player.jumps = s.Jumps
			if err := physics.Teleport(d.Player, canopy.Vec2{X: s.X, Y: s.Y}); err != nil {
				d.SM.Logger().Warn("restore player", "event", "demo.load", "error", err)
			}
		})
	return err
}

// Close tears down the registry.
func (d *Demo) Close(context.Context) error {
	return d.Registry.Teardown()
}

// player moves its body from input.
type player struct {
	canopy.BaseBehavior

	body     *physics.Body
	move     float64
	grounded int
	jumps    int
}

func newPlayer() *player {
	p := &player{body: &physics.Body{GravityScale: 1}}
	p.body.OnContactBegin.Connect(func(o *canopy.Node) {
		if o.InGroup("ground") {
			p.grounded++
		}
	})
	p.body.OnContactEnd.Connect(func(o *canopy.Node) {
		if o.InGroup("ground") {
			p.grounded--
		}
	})
	return p
}

func (p *player) Input(_ *canopy.Node, ev *canopy.InputEvent) {
	switch ev.Action {
	case "jump":
		if ev.IsActionJustPressed("jump") && p.grounded > 0 {
			p.body.Velocity.Y = -JumpSpeed
			p.jumps++
		}
	case "left", "right":
		dir := 1.0
		if ev.Action == "left" {
			dir = -1
		}
		switch {
		case ev.IsActionPressed(ev.Action):
			p.move = dir
		case p.move == dir:
			p.move = 0
		}
	default:
		return
	}
	ev.SetHandled()
}

func (p *player) PhysicsUpdate(_ *canopy.Node, _ float64) {
	p.body.Velocity.X = p.move * RunSpeed
}
