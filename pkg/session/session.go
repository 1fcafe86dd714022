// Package session runs the external programs behind the inventory actions:
// line-streamed diagnostics (ping, traceroute), interactive remote shells
// under a pseudo-terminal, and concurrent reachability probes.
//
// Every session pushes its complete accumulated output to a Surface and
// signals completion through Done. A host owns at most one live session at a
// time (see Owner).
package session

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// Surface displays session output. Show receives the full accumulated text
// every time, never a delta, so implementations may drop intermediate calls.
type Surface interface {
	Show(text string)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(text string)

func (f SurfaceFunc) Show(text string) { f(text) }

// Session is the lifecycle every session kind exposes to its host.
type Session interface {
	ID() string
	State() State
	// Close requests shutdown. It is idempotent and does not block.
	Close()
	// Done is closed exactly once, when the session reaches StateClosed.
	Done() <-chan struct{}
}

// State is the lifecycle stage of a session. Transitions only move forward.
type State int32

const (
	StateStarting State = iota
	StateStreaming
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options are shared by every session constructor.
type Options struct {
	// ID identifies the session in logs. Generated when empty.
	ID string
	// Logger receives lifecycle and teardown diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) resolve(kind string) (string, *slog.Logger) {
	id := o.ID
	if id == "" {
		id = uuid.NewString()
	}
	l := o.Logger
	if l == nil {
		l = slog.Default()
	}
	return id, l.With("session", id, "kind", kind)
}

// stateCell is a forward-only State holder.
type stateCell struct {
	v atomic.Int32
}

func (c *stateCell) load() State { return State(c.v.Load()) }

// advance moves to next when next is later than the current state.
func (c *stateCell) advance(next State) bool {
	for {
		cur := c.v.Load()
		if State(cur) >= next {
			return false
		}
		if c.v.CompareAndSwap(cur, int32(next)) {
			return true
		}
	}
}
