package canopy

import (
	"context"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Renderer draws the scene. canopy has no renderer of its own; plug one in
// through Game.
type Renderer interface {
	Draw(screen *ebiten.Image, root *Node)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(screen *ebiten.Image, root *Node)

// Draw calls f.
func (f RendererFunc) Draw(screen *ebiten.Image, root *Node) { f(screen, root) }

// Game implements ebiten.Game on top of a SceneManager.
type Game struct {
	// ScreenshotDir is where Screenshot writes PNGs.
	ScreenshotDir string

	sm       *SceneManager
	renderer Renderer
	width    int
	height   int
	shots    []string
}

// NewGame returns a Game driving sm. renderer may be nil.
func NewGame(sm *SceneManager, renderer Renderer) *Game {
	return &Game{sm: sm, renderer: renderer, ScreenshotDir: DefaultScreenshotDir}
}

// SceneManager returns the driven scene manager.
func (g *Game) SceneManager() *SceneManager { return g.sm }

// Update implements ebiten.Game. It ticks the scene by one ebiten tick.
func (g *Game) Update() error {
	return g.sm.Tick(g.tickDelta(ebiten.TPS()))
}

// tickDelta returns the seconds covered by one tick at tps. A non-positive
// rate (ebiten.SyncWithFPS) falls back to the physics step.
func (g *Game) tickDelta(tps int) float64 {
	if tps <= 0 {
		return g.sm.PhysicsStep()
	}
	return 1.0 / float64(tps)
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.renderer != nil {
		g.renderer.Draw(screen, g.sm.Scene())
	}
	g.flushScreenshots(screen)
}

// Layout implements ebiten.Game. Size changes are forwarded to Resize.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.sm.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

// RunConfig configures Run.
type RunConfig struct {
	Title     string
	Width     int
	Height    int
	Resizable bool
	Renderer  Renderer
}

// Run opens a window and drives sm until the window is closed. The physics
// rate is used as ebiten's tick rate.
func Run(sm *SceneManager, cfg RunConfig) error {
	return RunGame(NewGame(sm, cfg.Renderer), cfg)
}

// RunGame is Run for a Game built by the caller. cfg.Renderer is ignored.
func RunGame(g *Game, cfg RunConfig) error {
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	ebiten.SetTPS(int(g.sm.cfg.PhysicsHz))
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("run game: %w", err)
	}
	return nil
}

// RunHeadless ticks sm at hz ticks per second with the measured wall-clock
// delta until ctx is cancelled or a tick fails. maxFrames > 0 stops after
// that many ticks.
func RunHeadless(ctx context.Context, sm *SceneManager, hz float64, maxFrames int) error {
	if hz <= 0 {
		hz = sm.cfg.PhysicsHz
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / hz))
	defer ticker.Stop()

	lastTime := time.Now()
	frames := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := sm.Tick(dt); err != nil {
				return err
			}
			frames++
			if maxFrames > 0 && frames >= maxFrames {
				return nil
			}
		}
	}
}
