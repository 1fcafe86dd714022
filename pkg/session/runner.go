package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// The process runner is the only place that spawns external programs for
// streaming and probing. Every program runs in its own process group so that
// Terminate reaches helpers it forks (traceroute and ssh both do), and stdout
// and stderr share one pipe so output arrives in the order it was written.

const (
	// readChunkSize bounds a single chunk handed to ReadChunk.
	readChunkSize = 32 * 1024

	// drainGrace is how long output is still read after the process exits.
	// Descendants that inherited the pipe cannot hold a reader open longer.
	drainGrace = 250 * time.Millisecond
)

// CommandSpec is an ordered argument vector. The zero value is an empty
// command. It is immutable once built: NewCommandSpec and Argv copy.
type CommandSpec struct {
	argv []string
}

// NewCommandSpec builds a CommandSpec from argv (program first).
func NewCommandSpec(argv ...string) CommandSpec {
	return CommandSpec{argv: append([]string(nil), argv...)}
}

// Argv returns a copy of the argument vector.
func (c CommandSpec) Argv() []string { return append([]string(nil), c.argv...) }

// Program returns argv[0], or "" for an empty command.
func (c CommandSpec) Program() string {
	if len(c.argv) == 0 {
		return ""
	}
	return c.argv[0]
}

func (c CommandSpec) Empty() bool { return len(c.argv) == 0 }

// String renders the command for status lines and logs.
func (c CommandSpec) String() string {
	parts := make([]string, 0, len(c.argv))
	for _, a := range c.argv {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			parts = append(parts, "'"+strings.ReplaceAll(a, "'", `'\''`)+"'")
			continue
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// ExitStatus is the terminal status of a process.
type ExitStatus struct {
	// Code is the exit code, or -1 when the process was killed by a signal.
	Code int
	// Signal names the terminating signal, if any.
	Signal string
}

func (s ExitStatus) Success() bool { return s.Code == 0 && s.Signal == "" }

func (s ExitStatus) String() string {
	if s.Signal != "" {
		return "killed by " + s.Signal
	}
	if s.Code == 0 {
		return "exit 0"
	}
	return "exit " + strconv.Itoa(s.Code)
}

// Process is a handle to a running program started by Start.
//
// The caller owns the handle and must eventually call Terminate (for early
// teardown) or drain ReadChunk to io.EOF. Wait may be called any number of
// times; the process is reaped exactly once by an internal reaper.
type Process struct {
	cmd *exec.Cmd
	out *os.File

	chunks  chan []byte
	readErr error // set before chunks is closed

	stop     chan struct{}
	stopOnce sync.Once
	killed   atomic.Bool

	exited  chan struct{}
	status  ExitStatus
	waitErr error
}

// Start spawns spec with stdout and stderr joined. When ctx is cancelled the
// whole process group is killed.
func Start(ctx context.Context, spec CommandSpec) (*Process, error) {
	argv := spec.Argv()
	if len(argv) == 0 {
		return nil, &SpawnError{Err: errors.New("empty command")}
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, &SpawnError{Argv: argv, Err: err}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error { return killGroup(cmd.Process.Pid) }

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, &SpawnError{Argv: argv, Err: err}
	}
	// The child holds its own copy of the write end.
	_ = pw.Close()

	p := &Process{
		cmd:    cmd,
		out:    pr,
		chunks: make(chan []byte),
		stop:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go p.pump()
	go p.reap()
	return p, nil
}

// Pid returns the process id (also the process group id).
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Exited is closed once the process has been reaped.
func (p *Process) Exited() <-chan struct{} { return p.exited }

// ReadChunk returns the next block of output in emission order.
// It returns io.EOF once output is closed, a *StreamReadError on I/O failure,
// and ctx.Err() when ctx is cancelled first.
func (p *Process) ReadChunk(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case chunk, ok := <-p.chunks:
		if !ok {
			if p.readErr != nil {
				return nil, &StreamReadError{Err: p.readErr}
			}
			return nil, io.EOF
		}
		return chunk, nil
	}
}

// Terminate kills the process group. It is idempotent. The group is signalled
// even when the leader has already exited, so helpers it forked do not outlive
// the handle. Pending output is discarded.
func (p *Process) Terminate() error {
	p.stopOnce.Do(func() { close(p.stop) })
	if !p.killed.CompareAndSwap(false, true) {
		return nil
	}
	return killGroup(p.cmd.Process.Pid)
}

// Wait blocks until the process has fully exited and returns its status.
// The error is non-nil only when the status could not be collected.
func (p *Process) Wait() (ExitStatus, error) {
	<-p.exited
	return p.status, p.waitErr
}

func (p *Process) pump() {
	defer close(p.chunks)
	defer p.out.Close()

	buf := make([]byte, readChunkSize)
	for {
		n, err := p.out.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case p.chunks <- chunk:
			case <-p.stop:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrDeadlineExceeded) && !errors.Is(err, os.ErrClosed) {
				p.readErr = err
			}
			return
		}
	}
}

func (p *Process) reap() {
	err := p.cmd.Wait()
	if ps := p.cmd.ProcessState; ps != nil {
		p.status = exitStatusFrom(ps)
	} else {
		p.waitErr = err
	}
	close(p.exited)
	_ = p.out.SetReadDeadline(time.Now().Add(drainGrace))
}

func exitStatusFrom(ps *os.ProcessState) ExitStatus {
	st := ExitStatus{Code: ps.ExitCode()}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		st.Code = -1
		st.Signal = unix.SignalName(ws.Signal())
		if st.Signal == "" {
			st.Signal = ws.Signal().String()
		}
	}
	return st
}

func killGroup(pid int) error {
	err := unix.Kill(-pid, unix.SIGKILL)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

// Capture runs spec to completion and returns its combined output.
// Cancelling ctx kills the process; the partial output is returned with
// ctx.Err(). Whatever is left of the process group afterwards is killed.
func Capture(ctx context.Context, spec CommandSpec) (string, ExitStatus, error) {
	p, err := Start(ctx, spec)
	if err != nil {
		return "", ExitStatus{}, err
	}

	var out bytes.Buffer
	for {
		chunk, err := p.ReadChunk(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			_ = p.Terminate()
			st, _ := p.Wait()
			return out.String(), st, err
		}
		out.Write(chunk)
	}
	st, err := p.Wait()
	_ = p.Terminate()
	return out.String(), st, err
}
