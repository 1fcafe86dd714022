package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// StreamSession runs one program and shows its output as it arrives.
//
// Close and cancellation of the parent context passed to Start share a single
// cancellation token. Once the token is signalled no further chunk is
// appended, the process is terminated and reaped, and the session reaches
// StateClosed. A session that finishes on its own also reaches StateClosed;
// its output stays available through Output.
type StreamSession struct {
	id      string
	spec    CommandSpec
	surface Surface
	log     *slog.Logger

	state stateCell

	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	doneOnce  sync.Once
	done      chan struct{}

	mu     sync.Mutex
	buf    bytes.Buffer
	status ExitStatus
	err    error
}

var _ Session = (*StreamSession)(nil)

func NewStreamSession(spec CommandSpec, surface Surface, opts Options) *StreamSession {
	id, log := opts.resolve("stream")
	ctx, cancel := context.WithCancel(context.Background())
	return &StreamSession{
		id:      id,
		spec:    spec,
		surface: surface,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (s *StreamSession) ID() string            { return s.id }
func (s *StreamSession) State() State          { return s.state.load() }
func (s *StreamSession) Done() <-chan struct{} { return s.done }
func (s *StreamSession) Spec() CommandSpec     { return s.spec }

// Start spawns the program and begins streaming in the background. Cancelling
// parent tears the session down exactly like Close.
//
// A spawn failure is shown on the surface, the session still reaches
// StateClosed, and the *SpawnError is returned.
func (s *StreamSession) Start(parent context.Context) error {
	first := false
	s.startOnce.Do(func() { first = true })
	if !first {
		return errors.New("stream session already started or closed")
	}

	stop := context.AfterFunc(parent, s.cancel)

	s.log.Debug("stream starting", "cmd", s.spec.String())
	proc, err := Start(s.ctx, s.spec)
	if err != nil {
		stop()
		s.mu.Lock()
		s.err = err
		s.buf.WriteString("error: " + err.Error() + "\n")
		text := s.buf.String()
		s.mu.Unlock()
		s.log.Warn("stream spawn failed", "err", err)
		s.surface.Show(text)
		s.finish()
		return err
	}

	s.state.advance(StateStreaming)
	go func() {
		defer stop()
		s.run(proc)
	}()
	return nil
}

// Close signals the cancellation token. It never blocks; wait on Done.
func (s *StreamSession) Close() {
	s.cancel()
	// A session that was never started has nothing to tear down.
	s.startOnce.Do(s.finish)
}

// Output returns the accumulated output.
func (s *StreamSession) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Status returns the exit status; meaningful once Done is closed.
func (s *StreamSession) Status() ExitStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the spawn or read error that ended the session, if any.
// Cancellation is not an error.
func (s *StreamSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *StreamSession) run(p *Process) {
	for {
		chunk, err := p.ReadChunk(s.ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && s.ctx.Err() == nil {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
				s.log.Warn("stream read failed", "err", err)
			}
			break
		}
		if s.ctx.Err() != nil {
			break
		}
		s.mu.Lock()
		s.buf.Write(chunk)
		text := s.buf.String()
		s.mu.Unlock()
		s.surface.Show(text)
	}

	s.state.advance(StateClosing)
	if err := p.Terminate(); err != nil {
		s.log.Debug("terminate failed", "err", err)
	}
	st, err := p.Wait()
	if err != nil {
		s.log.Debug("wait failed", "err", err)
	}
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
	s.log.Debug("stream finished", "status", st.String(), "cancelled", s.ctx.Err() != nil)
	s.finish()
}

func (s *StreamSession) finish() {
	s.doneOnce.Do(func() {
		s.state.advance(StateClosed)
		s.cancel()
		close(s.done)
	})
}
