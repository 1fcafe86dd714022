package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionActive is returned by Owner.Begin while the previous session has
// not reached StateClosed.
var ErrSessionActive = errors.New("a session is already active")

// SpawnError reports that a program could not be located or executed.
type SpawnError struct {
	Argv []string
	Err  error
}

func (e *SpawnError) Error() string {
	prog := ""
	if len(e.Argv) > 0 {
		prog = e.Argv[0]
	}
	return fmt.Sprintf("spawn %q: %v", prog, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// StreamReadError reports an I/O failure while reading a process or terminal
// output stream. End of stream is not a StreamReadError.
type StreamReadError struct {
	Err error
}

func (e *StreamReadError) Error() string { return "read output: " + e.Err.Error() }

func (e *StreamReadError) Unwrap() error { return e.Err }

// ProbeFailure describes why a single probe in a batch failed. It is stored in
// ProbeResult.Err and never returned from Coordinator.Run.
type ProbeFailure struct {
	Target string
	Reason string
	Err    error
}

func (e *ProbeFailure) Error() string {
	var b strings.Builder
	b.WriteString(e.Target)
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProbeFailure) Unwrap() error { return e.Err }

// ErrNotRunning is returned when input or resize requests reach a session that
// is not streaming.
var ErrNotRunning = errors.New("session is not running")
