package mandel

import (
	"sync"
	"sync/atomic"
)

// gate is the invalidation signal and the park/wake point of the driving
// loop.
//
// stale is the authoritative flag and is only read or written under mu.
// fast mirrors it for workers, which poll it once per pixel and must not
// contend on mu. The loop tests stale under mu before waiting, so a Raise
// between the end of a frame and the park is never lost.
type gate struct {
	mu      sync.Mutex
	cond    *sync.Cond
	stale   bool
	closing bool

	fast  atomic.Bool
	state atomic.Int32

	// settled is closed when the loop parks. It is replaced when the loop
	// leaves the settled state.
	settled chan struct{}

	// done is closed by shutdown.
	done chan struct{}
}

func newGate() *gate {
	g := &gate{
		settled: make(chan struct{}),
		done:    make(chan struct{}),
	}
	g.cond = sync.NewCond(&g.mu)
	g.state.Store(int32(StateRestarting))
	return g
}

// Raise marks the current frame stale and wakes the parked loop.
func (g *gate) Raise() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stale = true
	g.fast.Store(true)
	if !g.closing {
		g.leaveSettled()
		g.state.Store(int32(StateRestarting))
	}
	g.cond.Broadcast()
}

// Stale reports whether the running frame has been invalidated.
// It is safe to call from any goroutine without locking.
func (g *gate) Stale() bool {
	return g.fast.Load()
}

// begin consumes the pending signal at the start of a frame. It returns
// false once shutdown has been requested.
func (g *gate) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closing {
		return false
	}
	g.stale = false
	g.fast.Store(false)
	g.leaveSettled()
	g.state.Store(int32(StateComputing))
	return true
}

// park blocks while no signal is pending. It returns false if the loop
// must exit.
func (g *gate) park() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.stale && !g.closing {
		g.state.Store(int32(StateSettled))
		close(g.settled)
		for !g.stale && !g.closing {
			g.cond.Wait()
		}
	}
	if g.closing {
		return false
	}
	g.leaveSettled()
	g.state.Store(int32(StateRestarting))
	return true
}

// leaveSettled re-arms the settled channel. Caller holds mu.
func (g *gate) leaveSettled() {
	select {
	case <-g.settled:
		g.settled = make(chan struct{})
	default:
	}
}

// settledCh returns the channel closed at the next park, or nil after
// shutdown.
func (g *gate) settledCh() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closing {
		return nil
	}
	return g.settled
}

// shutdown raises the signal a final time and makes every later park and
// begin fail. Safe to call more than once.
func (g *gate) shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closing {
		return
	}
	g.closing = true
	g.stale = true
	g.fast.Store(true)
	close(g.done)
	g.cond.Broadcast()
}

// State returns the current loop state.
func (g *gate) State() State {
	return State(g.state.Load())
}
