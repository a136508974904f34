package canopy

// FrameStats measures the tick rate and the physics step rate. The averages
// are refreshed every ~0.5 seconds of frame time.
type FrameStats struct {
	SystemBase

	window      float64
	elapsed     float64
	frames      int
	physics     int
	tps         float64
	physicsRate float64

	// Updated fires each time the averages are refreshed with (tps, physics
	// steps per second).
	Updated Signal2[float64, float64]
}

// NewFrameStats returns a FrameStats system. It matches no nodes; it only
// uses the before-process hooks of the physics and frame phases.
func NewFrameStats() *FrameStats {
	return &FrameStats{
		SystemBase: NewSystemBase(SystemConfig{
			Name:     "frame_stats",
			Phase:    PhaseFramePost,
			Priority: 1 << 20,
		}),
		window: 0.5,
	}
}

// OnRegister attaches the physics-step counter.
func (f *FrameStats) OnRegister(sm *SceneManager) {
	counter := &physicsCounter{
		SystemBase: NewSystemBase(SystemConfig{Name: "frame_stats_physics", Phase: PhasePhysicsPost}),
		stats:      f,
	}
	if err := sm.AddSystem(counter); err != nil {
		sm.logger.Warn("frame stats physics counter not registered", "error", err)
	}
}

// OnUnregister detaches the physics-step counter.
func (f *FrameStats) OnUnregister(sm *SceneManager) {
	if c, err := GetSystem[*physicsCounter](sm); err == nil {
		_ = sm.RemoveSystem(c)
	}
}

// BeforeProcess counts the frame and refreshes the averages.
func (f *FrameStats) BeforeProcess(dt float64) error {
	f.frames++
	f.elapsed += dt
	if f.elapsed < f.window {
		return nil
	}
	f.tps = float64(f.frames) / f.elapsed
	f.physicsRate = float64(f.physics) / f.elapsed
	f.frames, f.physics, f.elapsed = 0, 0, 0
	f.Updated.Emit(f.tps, f.physicsRate)
	return nil
}

// TPS returns the last measured ticks per second.
func (f *FrameStats) TPS() float64 { return f.tps }

// PhysicsRate returns the last measured physics steps per second.
func (f *FrameStats) PhysicsRate() float64 { return f.physicsRate }

type physicsCounter struct {
	SystemBase
	stats *FrameStats
}

func (c *physicsCounter) BeforeProcess(float64) error {
	c.stats.physics++
	return nil
}
