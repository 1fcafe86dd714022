package session

import (
	"context"
	"sync"
)

// Owner holds the single live session of a host.
//
// A new session may only begin once the previous one has reached
// StateClosed. The zero value is ready to use.
type Owner struct {
	mu     sync.Mutex
	active Session
}

// Begin makes s the active session. It returns ErrSessionActive while another
// session is still live.
func (o *Owner) Begin(s Session) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil && o.active != s {
		select {
		case <-o.active.Done():
		default:
			return ErrSessionActive
		}
	}
	o.active = s
	return nil
}

// Active returns the current session, or nil.
func (o *Owner) Active() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Release forgets s if it is the active session. Releasing a session that is
// not active is a no-op.
func (o *Owner) Release(s Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == s {
		o.active = nil
	}
}

// Shutdown closes the active session and waits for it to reach StateClosed
// or for ctx to end.
func (o *Owner) Shutdown(ctx context.Context) error {
	s := o.Active()
	if s == nil {
		return nil
	}
	s.Close()
	select {
	case <-s.Done():
		o.Release(s)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
