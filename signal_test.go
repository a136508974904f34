package canopy

import (
	"runtime"
	"slices"
	"sync"
	"testing"
)

func TestSignalConnectDisconnectClear(t *testing.T) {
	var s Signal[int]
	var first, second []int
	c1 := s.Connect(func(v int) { first = append(first, v) })
	s.Connect(func(v int) { second = append(second, v) })

	s.Emit(1)
	c1.Disconnect()
	s.Emit(2)

	if !slices.Equal(first, []int{1}) {
		t.Errorf("first = %v, want [1]", first)
	}
	if !slices.Equal(second, []int{1, 2}) {
		t.Errorf("second = %v, want [1 2]", second)
	}

	s.Clear()
	s.Emit(3)
	if len(second) != 2 {
		t.Errorf("second after Clear = %v, want [1 2]", second)
	}
	if s.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", s.Len())
	}
}

func TestSignalEmitOrder(t *testing.T) {
	var s Signal0
	var order []int
	for i := range 3 {
		s.Connect(func() { order = append(order, i) })
	}
	s.Emit()
	if !slices.Equal(order, []int{0, 1, 2}) {
		t.Errorf("order = %v, want [0 1 2]", order)
	}
}

func TestSignalDisconnectDuringEmit(t *testing.T) {
	var s Signal[string]
	var got []string
	var c2 Connection
	s.Connect(func(v string) {
		got = append(got, "a:"+v)
		c2.Disconnect()
	})
	c2 = s.Connect(func(v string) { got = append(got, "b:"+v) })

	s.Emit("x")
	s.Emit("y")

	if want := []string{"a:x", "a:y"}; !slices.Equal(got, want) {
		t.Errorf("got = %v, want %v", got, want)
	}
}

func TestSignalConnectDuringEmit(t *testing.T) {
	var s Signal0
	calls := 0
	s.Connect(func() {
		calls++
		s.Connect(func() { calls += 10 })
	})
	s.Emit() // new listener joins for the next emission only
	if calls != 1 {
		t.Errorf("calls after first Emit = %d, want 1", calls)
	}
	s.Emit()
	if calls != 12 {
		t.Errorf("calls after second Emit = %d, want 12", calls)
	}
}

func TestSignalClearDuringEmit(t *testing.T) {
	var s Signal0
	var got []int
	s.Connect(func() {
		got = append(got, 1)
		s.Clear()
	})
	s.Connect(func() { got = append(got, 2) })
	s.Emit()
	if !slices.Equal(got, []int{1}) {
		t.Errorf("got = %v, want [1]", got)
	}
}

func TestSignalDisconnectIdempotent(t *testing.T) {
	var s Signal2[int, string]
	c := s.Connect(func(int, string) {})
	c.Disconnect()
	c.Disconnect()
	s.Disconnect(c)
	Connection{}.Disconnect()
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestSignal2(t *testing.T) {
	var s Signal2[int, int]
	var w, h int
	s.Connect(func(a, b int) { w, h = a, b })
	s.Emit(320, 240)
	if w != 320 || h != 240 {
		t.Errorf("got (%d, %d), want (320, 240)", w, h)
	}
}

type listenerOwner struct {
	name string
	hits int
	pad  [64]byte
}

func TestConnectOwnedCalledWhileOwnerAlive(t *testing.T) {
	var s Signal[int]
	o := &listenerOwner{name: "o"}
	ConnectOwned(&s, o, func(o *listenerOwner, v int) { o.hits += v })
	s.Emit(2)
	s.Emit(3)
	if o.hits != 5 {
		t.Errorf("hits = %d, want 5", o.hits)
	}
	runtime.KeepAlive(o)
}

func TestConnectOwnedPrunedAfterCollection(t *testing.T) {
	var s Signal0
	calls := 0
	func() {
		o := &listenerOwner{name: "gone"}
		ConnectOwned0(&s, o, func(*listenerOwner) { calls++ })
	}()
	runtime.GC()
	runtime.GC()

	s.Emit()
	if calls != 0 {
		t.Errorf("calls = %d, want 0 after owner was collected", calls)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0 after prune", s.Len())
	}
}

func TestConnectOwned2(t *testing.T) {
	var s Signal2[string, int]
	o := &listenerOwner{}
	ConnectOwned2(&s, o, func(o *listenerOwner, name string, n int) {
		o.name = name
		o.hits = n
	})
	s.Emit("x", 4)
	if o.name != "x" || o.hits != 4 {
		t.Errorf("owner = %+v", o)
	}
	runtime.KeepAlive(o)
}

func TestSignalConcurrentConnectEmit(t *testing.T) {
	var s Signal[int]
	var mu sync.Mutex
	total := 0
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := s.Connect(func(v int) {
				mu.Lock()
				total += v
				mu.Unlock()
			})
			s.Emit(1)
			c.Disconnect()
		}()
	}
	wg.Wait()
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
	if total == 0 {
		t.Error("no listener was called")
	}
}

func TestValue(t *testing.T) {
	v := NewValue(1)
	var changes []int
	v.Changed.Connect(func(x int) { changes = append(changes, x) })
	v.Set(1)
	v.Set(2)
	v.Set(2)
	v.Set(3)
	if v.Get() != 3 {
		t.Errorf("Get = %d, want 3", v.Get())
	}
	if !slices.Equal(changes, []int{2, 3}) {
		t.Errorf("changes = %v, want [2 3]", changes)
	}
}

func BenchmarkSignalEmit(b *testing.B) {
	var s Signal[int]
	sum := 0
	for range 8 {
		s.Connect(func(v int) { sum += v })
	}
	b.ReportAllocs()
	for b.Loop() {
		s.Emit(1)
	}
}
