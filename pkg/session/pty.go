package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/creack/pty"
	"golang.org/x/text/transform"
)

// readerJoinTimeout bounds how long teardown waits for the reader worker after
// the slave side is closed. A descendant that kept the terminal open would
// otherwise hold teardown forever.
const readerJoinTimeout = 2 * time.Second

// PTYPair is the master/slave descriptor pair of one pseudo-terminal.
// A PTYSession closes each side exactly once.
type PTYPair interface {
	// Master is the controlling side the session reads output from and writes
	// input to.
	Master() io.ReadWriter
	// Slave is handed to the child as stdin, stdout and stderr.
	Slave() *os.File
	SetSize(rows, cols uint16) error
	CloseSlave() error
	CloseMaster() error
}

type osPTY struct {
	master *os.File
	slave  *os.File
}

// OpenPTY allocates a pseudo-terminal pair.
func OpenPTY() (PTYPair, error) {
	m, s, err := pty.Open()
	if err != nil {
		return nil, err
	}
	return &osPTY{master: m, slave: s}, nil
}

func (p *osPTY) Master() io.ReadWriter { return p.master }
func (p *osPTY) Slave() *os.File       { return p.slave }
func (p *osPTY) CloseSlave() error     { return p.slave.Close() }
func (p *osPTY) CloseMaster() error    { return p.master.Close() }

func (p *osPTY) SetSize(rows, cols uint16) error {
	return pty.Setsize(p.master, &pty.Winsize{Rows: rows, Cols: cols})
}

// PTYOptions configures a PTYSession.
type PTYOptions struct {
	Options

	// Open allocates the terminal pair. Defaults to OpenPTY.
	Open func() (PTYPair, error)

	// Rows and Cols set the initial window size when both are non-zero.
	Rows, Cols uint16

	// Env is appended to the current environment of the child.
	Env []string
}

// PTYSession runs an interactive program (typically ssh) attached to a
// pseudo-terminal and relays its output to a surface.
//
// One reader worker performs blocking reads of the master side and hands
// decoded text to the relay loop. Invalid UTF-8 is dropped. When the program
// exits the session closes itself; Close kills the program first. Teardown
// closes both descriptors, each attempted even when the other fails.
type PTYSession struct {
	id      string
	spec    CommandSpec
	surface Surface
	log     *slog.Logger
	opts    PTYOptions

	state stateCell

	ctx    context.Context
	cancel context.CancelFunc

	pair   PTYPair
	cmd    *exec.Cmd
	exited chan struct{}

	chunks     chan string
	readerStop chan struct{}
	readerDone chan struct{}

	startOnce sync.Once
	doneOnce  sync.Once
	done      chan struct{}

	writeMu sync.Mutex

	mu     sync.Mutex
	buf    strings.Builder
	status ExitStatus
	err    error
}

var _ Session = (*PTYSession)(nil)

func NewPTYSession(spec CommandSpec, surface Surface, opts PTYOptions) *PTYSession {
	id, log := opts.resolve("pty")
	if opts.Open == nil {
		opts.Open = OpenPTY
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PTYSession{
		id:         id,
		spec:       spec,
		surface:    surface,
		log:        log,
		opts:       opts,
		ctx:        ctx,
		cancel:     cancel,
		exited:     make(chan struct{}),
		chunks:     make(chan string),
		readerStop: make(chan struct{}),
		readerDone: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (s *PTYSession) ID() string            { return s.id }
func (s *PTYSession) State() State          { return s.state.load() }
func (s *PTYSession) Done() <-chan struct{} { return s.done }
func (s *PTYSession) Spec() CommandSpec     { return s.spec }

// Start allocates the terminal, spawns the program on it, and starts the
// reader worker. Cancelling parent tears the session down like Close.
func (s *PTYSession) Start(parent context.Context) error {
	first := false
	s.startOnce.Do(func() { first = true })
	if !first {
		return errors.New("pty session already started or closed")
	}

	argv := s.spec.Argv()
	if len(argv) == 0 {
		return s.failStart(&SpawnError{Err: errors.New("empty command")})
	}

	pair, err := s.opts.Open()
	if err != nil {
		return s.failStart(&SpawnError{Argv: argv, Err: err})
	}
	s.pair = pair

	if s.opts.Rows > 0 && s.opts.Cols > 0 {
		if err := pair.SetSize(s.opts.Rows, s.opts.Cols); err != nil {
			s.log.Debug("initial pty size", "err", err)
		}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), s.opts.Env...)
	cmd.Stdin = pair.Slave()
	cmd.Stdout = pair.Slave()
	cmd.Stderr = pair.Slave()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	s.log.Debug("pty starting", "cmd", s.spec.String())
	if err := cmd.Start(); err != nil {
		s.closeDescriptors()
		return s.failStart(&SpawnError{Argv: argv, Err: err})
	}
	s.cmd = cmd

	s.state.advance(StateStreaming)
	stop := context.AfterFunc(parent, s.cancel)
	go s.reap()
	go s.readLoop(pair.Master())
	go func() {
		defer stop()
		s.relay()
	}()
	return nil
}

func (s *PTYSession) failStart(err error) error {
	s.mu.Lock()
	s.err = err
	s.buf.WriteString("error: " + err.Error() + "\n")
	text := s.buf.String()
	s.mu.Unlock()
	s.log.Warn("pty spawn failed", "err", err)
	s.surface.Show(text)
	s.finish()
	return err
}

// Close kills the program and tears the session down. It never blocks.
func (s *PTYSession) Close() {
	s.cancel()
	s.startOnce.Do(s.finish)
}

// Send writes line followed by a newline to the program.
func (s *PTYSession) Send(line string) error {
	if s.State() != StateStreaming {
		return ErrNotRunning
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := io.WriteString(s.pair.Master(), line+"\n")
	return err
}

// Resize updates the terminal window size.
func (s *PTYSession) Resize(rows, cols uint16) error {
	if s.State() != StateStreaming {
		return ErrNotRunning
	}
	return s.pair.SetSize(rows, cols)
}

// Output returns the decoded output accumulated so far.
func (s *PTYSession) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Status returns the program's exit status; meaningful once Done is closed.
func (s *PTYSession) Status() ExitStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *PTYSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *PTYSession) reap() {
	defer close(s.exited)
	_ = s.cmd.Wait()
	if ps := s.cmd.ProcessState; ps != nil {
		st := exitStatusFrom(ps)
		s.mu.Lock()
		s.status = st
		s.mu.Unlock()
		s.log.Debug("pty program exited", "status", st.String())
	}
}

// readLoop is the single reader worker of the session.
func (s *PTYSession) readLoop(r io.Reader) {
	defer close(s.readerDone)
	defer close(s.chunks)

	dec := transform.NewReader(r, newTextSanitizer())
	buf := make([]byte, 4096)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			select {
			case s.chunks <- string(buf[:n]):
			case <-s.readerStop:
				return
			}
		}
		if err != nil {
			if !isTerminalEOF(err) {
				s.log.Debug("pty read ended", "err", err)
			}
			return
		}
	}
}

func (s *PTYSession) relay() {
	var (
		quiet  *time.Timer
		quietC <-chan time.Time
		exited = s.exited
	)
	defer func() {
		if quiet != nil {
			quiet.Stop()
		}
	}()

	for {
		select {
		case <-s.ctx.Done():
			s.teardown()
			return
		case chunk, ok := <-s.chunks:
			if !ok {
				s.teardown()
				return
			}
			if s.ctx.Err() != nil {
				s.teardown()
				return
			}
			s.mu.Lock()
			s.buf.WriteString(chunk)
			text := s.buf.String()
			s.mu.Unlock()
			s.surface.Show(text)
			if quiet != nil {
				quiet.Reset(drainGrace)
			}
		case <-exited:
			// The slave side is still held by the session, so the master never
			// reports end of stream on its own. Drain until output goes quiet.
			exited = nil
			quiet = time.NewTimer(drainGrace)
			quietC = quiet.C
		case <-quietC:
			s.teardown()
			return
		}
	}
}

// teardown runs once, on the relay goroutine.
func (s *PTYSession) teardown() {
	s.state.advance(StateClosing)
	s.cancel()

	// The child leads its own session, so its pid is also the group id.
	// Helpers it forked stay in the group after it exits.
	if err := killGroup(s.cmd.Process.Pid); err != nil {
		s.log.Debug("kill pty program", "err", err)
	}
	<-s.exited

	close(s.readerStop)
	s.closeDescriptors()
	s.finish()
}

// closeDescriptors closes the slave, waits for the reader worker to observe
// end of stream, then closes the master. Both closes are always attempted.
func (s *PTYSession) closeDescriptors() {
	slaveErr := s.pair.CloseSlave()
	if s.cmd != nil {
		select {
		case <-s.readerDone:
		case <-time.After(readerJoinTimeout):
			s.log.Warn("pty reader still blocked at teardown")
		}
	}
	masterErr := s.pair.CloseMaster()
	if err := errors.Join(slaveErr, masterErr); err != nil {
		s.log.Warn("pty teardown", "err", err)
	}
}

func (s *PTYSession) finish() {
	s.doneOnce.Do(func() {
		s.state.advance(StateClosed)
		s.cancel()
		close(s.done)
	})
}

// newTextSanitizer decodes UTF-8 and drops ill-formed bytes. Runes split
// across reads are reassembled by transform.Reader.
func newTextSanitizer() transform.Transformer { return illFormedDropper{} }

// illFormedDropper copies well-formed UTF-8 and skips every byte that does not
// start a valid sequence. A U+FFFD sent by the program is well-formed and kept.
type illFormedDropper struct{ transform.NopResetter }

func (illFormedDropper) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if c := src[nSrc]; c < utf8.RuneSelf {
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
			nSrc++
			continue
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		nSrc += size
	}
	return nDst, nSrc, nil
}

// isTerminalEOF reports errors that only mean the terminal has no writer left.
func isTerminalEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)
}
