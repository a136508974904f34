package canopy

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float64 properties of a Node simultaneously.
// Create one via the convenience constructors (TweenPosition, TweenScale,
// TweenRotation) and either call Update(dt) yourself or hand it to an
// Animator driven by the AnimationSystem. If the target node is freed or its
// transform is locked, the group stops immediately.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	values [4]float64
	apply  func(n *Node, v [4]float64) error
	target *Node
	Done   bool
	// Err is set when writing to the target failed (e.g. ErrTransformLocked).
	Err error
}

// Update advances all tweens by dt seconds and writes the values to the
// target node.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target == nil || g.target.IsFreed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		g.values[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

	if err := g.apply(g.target, g.values); err != nil {
		g.Err = err
		g.Done = true
	}
}

// Target returns the animated node.
func (g *TweenGroup) Target() *Node { return g.target }

// Reset rewinds every tween to its start.
func (g *TweenGroup) Reset() {
	for i := 0; i < g.count; i++ {
		g.tweens[i].Reset()
	}
	g.Done = false
	g.Err = nil
}

// TweenPosition creates a TweenGroup that animates the node's local position
// to (toX, toY) over duration seconds using the easing function.
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 2, target: node}
	g.tweens[0] = gween.New(float32(node.position.X), float32(toX), duration, fn)
	g.tweens[1] = gween.New(float32(node.position.Y), float32(toY), duration, fn)
	g.apply = func(n *Node, v [4]float64) error { return n.SetPosition(v[0], v[1]) }
	return g
}

// TweenScale creates a TweenGroup that animates the node's local scale.
func TweenScale(node *Node, toSX, toSY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 2, target: node}
	g.tweens[0] = gween.New(float32(node.scale.X), float32(toSX), duration, fn)
	g.tweens[1] = gween.New(float32(node.scale.Y), float32(toSY), duration, fn)
	g.apply = func(n *Node, v [4]float64) error { return n.SetScale(v[0], v[1]) }
	return g
}

// TweenRotation creates a TweenGroup that animates the node's rotation.
func TweenRotation(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(node.rotation), float32(to), duration, fn)
	g.apply = func(n *Node, v [4]float64) error { return n.SetRotation(v[0]) }
	return g
}

// TweenFunc creates a TweenGroup that feeds a single value to set.
func TweenFunc(node *Node, from, to float64, duration float32, fn ease.TweenFunc, set func(n *Node, v float64)) *TweenGroup {
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(from), float32(to), duration, fn)
	g.apply = func(n *Node, v [4]float64) error {
		set(n, v[0])
		return nil
	}
	return g
}

// Animator is the KindAnimated component: the set of tween groups playing on
// a node.
type Animator struct {
	playing []*TweenGroup
	// Finished fires when a group completes or stops.
	Finished Signal[*TweenGroup]
}

// Play starts g.
func (a *Animator) Play(g *TweenGroup) { a.playing = append(a.playing, g) }

// Stop removes every group without emitting Finished.
func (a *Animator) Stop() { a.playing = nil }

// Playing returns the number of active groups.
func (a *Animator) Playing() int { return len(a.playing) }

// Update advances every group by dt and drops finished ones.
func (a *Animator) Update(dt float64) {
	live := a.playing[:0]
	var done []*TweenGroup
	for _, g := range a.playing {
		g.Update(float32(dt))
		if g.Done {
			done = append(done, g)
			continue
		}
		live = append(live, g)
	}
	clear(a.playing[len(live):])
	a.playing = live
	for _, g := range done {
		a.Finished.Emit(g)
	}
}

// AnimatorOf returns the node's Animator, attaching a new one (and tagging the
// node KindAnimated) if it has none.
func AnimatorOf(n *Node) *Animator {
	if a, ok := ComponentOf[*Animator](n, KindAnimated); ok {
		return a
	}
	a := &Animator{}
	n.SetComponent(KindAnimated, a)
	return a
}

// Animate plays g on its target node's Animator.
func Animate(g *TweenGroup) *Animator {
	a := AnimatorOf(g.target)
	a.Play(g)
	return a
}

// AnimationSystem advances the Animator of every KindAnimated node before the
// tree's frame update.
type AnimationSystem struct {
	SystemBase
}

// NewAnimationSystem returns the animation system.
func NewAnimationSystem() *AnimationSystem {
	return &AnimationSystem{SystemBase: NewSystemBase(SystemConfig{
		Name:     "animation",
		Phase:    PhaseFramePre,
		Priority: 1,
		Requires: Kinds(KindAnimated),
	})}
}

// ProcessNode advances the node's animator.
func (s *AnimationSystem) ProcessNode(n *Node, dt float64) error {
	if a, ok := ComponentOf[*Animator](n, KindAnimated); ok {
		a.Update(dt)
	}
	return nil
}
