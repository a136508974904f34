package canopy

import "time"

// SceneStats summarizes scene manager execution.
type SceneStats struct {
	Frames      uint64
	Nodes       int
	SystemCount int
	TotalRuns   int64
	PhysicsStep float64
	Accumulator float64
	Systems     []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Phase          Phase
	Priority       int
	Matching       int
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func newSystemStats(*SystemBase) *systemStatsInternal {
	return &systemStatsInternal{minDuration: time.Duration(1<<63 - 1)}
}

func (sm *SceneManager) recordStats(b *SystemBase, d time.Duration) {
	st := sm.stats[b]
	if st == nil {
		return
	}
	st.executionCount++
	st.lastDuration = d
	st.totalDuration += d
	if d < st.minDuration {
		st.minDuration = d
	}
	if d > st.maxDuration {
		st.maxDuration = d
	}
}

// Stats returns execution statistics for every registered system in
// execution order.
func (sm *SceneManager) Stats() SceneStats {
	out := SceneStats{
		Frames:      sm.frame,
		Nodes:       sm.nodes.Len(),
		PhysicsStep: sm.step,
		Accumulator: sm.accumulator,
	}
	for _, s := range sm.Systems() {
		b := s.Base()
		st := sm.stats[b]
		ss := SystemStats{
			Name:     b.name,
			Phase:    b.phase,
			Priority: b.priority,
			Matching: len(b.matching),
		}
		if st != nil && st.executionCount > 0 {
			ss.ExecutionCount = st.executionCount
			ss.MinDuration = st.minDuration
			ss.MaxDuration = st.maxDuration
			ss.AvgDuration = st.totalDuration / time.Duration(st.executionCount)
			ss.LastDuration = st.lastDuration
			ss.TotalDuration = st.totalDuration
		}
		out.TotalRuns += ss.ExecutionCount
		out.Systems = append(out.Systems, ss)
	}
	out.SystemCount = len(out.Systems)
	return out
}
