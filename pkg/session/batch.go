package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultProbeTimeout = 10 * time.Second

	// ProbePlaceholder is shown while a batch is running.
	ProbePlaceholder = "Probing %d hosts..."
)

// Target is one row handed to the batch coordinator.
type Target struct {
	Name    string
	Address string
}

func (t Target) label() string {
	if t.Name == "" {
		return t.Address
	}
	return t.Name + " (" + t.Address + ")"
}

// ProbeResult is the outcome of one probe. Err is a *ProbeFailure when the
// probe failed.
type ProbeResult struct {
	Name    string
	Address string
	Output  string
	Status  ExitStatus
	Elapsed time.Duration
	Err     error
}

func (r ProbeResult) OK() bool { return r.Err == nil }

// BatchReport holds one result per dispatched target, in dispatch order.
type BatchReport struct {
	Results []ProbeResult
	// Skipped lists targets without a usable address. They were not probed.
	Skipped []Target
}

// Failed counts failed results.
func (r BatchReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}

// String renders one block per result separated by a blank line.
func (r BatchReport) String() string {
	blocks := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		var b strings.Builder
		b.WriteString("== ")
		b.WriteString(Target{Name: res.Name, Address: res.Address}.label())
		b.WriteString(" ==")
		var pf *ProbeFailure
		if errors.As(res.Err, &pf) {
			b.WriteString(" FAILED: ")
			b.WriteString(pf.Reason)
			if pf.Err != nil {
				b.WriteString(": ")
				b.WriteString(pf.Err.Error())
			}
		} else if res.Err != nil {
			b.WriteString(" FAILED: ")
			b.WriteString(res.Err.Error())
		}
		if out := strings.TrimRight(res.Output, "\r\n"); out != "" {
			b.WriteString("\n")
			b.WriteString(out)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// FailurePolicy decides which completed probes count as failed. Spawn errors
// and timeouts fail under every policy.
type FailurePolicy int

const (
	// FailOnEmptyOrExit fails a probe that printed nothing or exited non-zero.
	FailOnEmptyOrExit FailurePolicy = iota
	// FailOnEmptyOutput fails only a probe that printed nothing.
	FailOnEmptyOutput
	// FailOnExitStatus fails only a probe that exited non-zero.
	FailOnExitStatus
)

func (p FailurePolicy) String() string {
	switch p {
	case FailOnEmptyOrExit:
		return "empty-or-exit"
	case FailOnEmptyOutput:
		return "empty-output"
	case FailOnExitStatus:
		return "exit-status"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy accepts the names returned by FailurePolicy.String.
// The empty string selects FailOnEmptyOrExit.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "empty-or-exit":
		return FailOnEmptyOrExit, nil
	case "empty-output", "empty":
		return FailOnEmptyOutput, nil
	case "exit-status", "exit":
		return FailOnExitStatus, nil
	default:
		return 0, fmt.Errorf("unknown failure policy %q (expected empty-or-exit, empty-output or exit-status)", s)
	}
}

func (p FailurePolicy) judge(output string, st ExitStatus) string {
	empty := strings.TrimSpace(output) == ""
	switch p {
	case FailOnEmptyOutput:
		if empty {
			return "no output"
		}
	case FailOnExitStatus:
		if !st.Success() {
			return st.String()
		}
	default:
		if !st.Success() {
			return st.String()
		}
		if empty {
			return "no output"
		}
	}
	return ""
}

// Coordinator fans probes out over a set of targets.
type Coordinator struct {
	// Command builds the probe command for a target. Defaults to a single ping.
	Command func(Target) CommandSpec

	Policy FailurePolicy

	// Timeout bounds each probe. If <=0, defaults to 10s.
	Timeout time.Duration

	// Concurrency limits probes in flight. If <=0, all run at once.
	Concurrency int

	// Usable reports whether an address can be probed. Defaults to non-blank.
	Usable func(addr string) bool

	Logger *slog.Logger
}

// DefaultProbeCommand pings addr once with a two second reply deadline.
func DefaultProbeCommand(t Target) CommandSpec {
	return NewCommandSpec("ping", "-c", "1", "-W", "2", t.Address)
}

// Run probes every target with a usable address and returns the report.
//
// The surface first shows ProbePlaceholder and then, once every probe has
// finished, the rendered report exactly once. A probe failure never aborts
// the batch. When ctx is cancelled in-flight probes are killed and the final
// report is not shown.
func (c *Coordinator) Run(ctx context.Context, targets []Target, surface Surface) BatchReport {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	usable := c.Usable
	if usable == nil {
		usable = func(addr string) bool { return strings.TrimSpace(addr) != "" }
	}

	var report BatchReport
	dispatch := make([]Target, 0, len(targets))
	for _, t := range targets {
		if !usable(t.Address) {
			report.Skipped = append(report.Skipped, t)
			continue
		}
		dispatch = append(dispatch, t)
	}

	surface.Show(fmt.Sprintf(ProbePlaceholder, len(dispatch)))
	log.Info("batch probe started", "targets", len(dispatch), "skipped", len(report.Skipped), "policy", c.Policy.String())

	results := make([]ProbeResult, len(dispatch))
	var g errgroup.Group
	if c.Concurrency > 0 {
		g.SetLimit(c.Concurrency)
	}
	for i, t := range dispatch {
		g.Go(func() error {
			results[i] = c.probe(ctx, t)
			return nil
		})
	}
	_ = g.Wait()
	report.Results = results

	if ctx.Err() != nil {
		log.Info("batch probe cancelled")
		return report
	}
	log.Info("batch probe finished", "failed", report.Failed())
	surface.Show(report.String())
	return report
}

func (c *Coordinator) probe(ctx context.Context, t Target) ProbeResult {
	res := ProbeResult{Name: t.Name, Address: t.Address}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	build := c.Command
	if build == nil {
		build = DefaultProbeCommand
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	out, st, err := Capture(pctx, build(t))
	res.Output = out
	res.Status = st
	res.Elapsed = time.Since(started)

	switch {
	case err != nil && ctx.Err() == nil && errors.Is(pctx.Err(), context.DeadlineExceeded):
		res.Err = &ProbeFailure{Target: t.label(), Reason: "timed out after " + timeout.String()}
	case err != nil:
		res.Err = &ProbeFailure{Target: t.label(), Reason: "probe failed", Err: err}
	default:
		if reason := c.Policy.judge(out, st); reason != "" {
			res.Err = &ProbeFailure{Target: t.label(), Reason: reason}
		}
	}
	return res
}

// BatchSession runs one Coordinator pass as a cancellable session.
type BatchSession struct {
	id      string
	coord   *Coordinator
	targets []Target
	surface Surface
	log     *slog.Logger

	state stateCell

	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	doneOnce  sync.Once
	done      chan struct{}

	mu     sync.Mutex
	report BatchReport
}

var _ Session = (*BatchSession)(nil)

func NewBatchSession(coord *Coordinator, targets []Target, surface Surface, opts Options) *BatchSession {
	id, log := opts.resolve("batch")
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchSession{
		id:      id,
		coord:   coord,
		targets: append([]Target(nil), targets...),
		surface: surface,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (s *BatchSession) ID() string            { return s.id }
func (s *BatchSession) State() State          { return s.state.load() }
func (s *BatchSession) Done() <-chan struct{} { return s.done }

// Start runs the batch in the background.
func (s *BatchSession) Start(parent context.Context) error {
	first := false
	s.startOnce.Do(func() { first = true })
	if !first {
		return errors.New("batch session already started or closed")
	}
	stop := context.AfterFunc(parent, s.cancel)
	s.state.advance(StateStreaming)

	coord := *s.coord
	if coord.Logger == nil {
		coord.Logger = s.log
	}
	go func() {
		defer stop()
		report := coord.Run(s.ctx, s.targets, s.surface)
		s.mu.Lock()
		s.report = report
		s.mu.Unlock()
		s.state.advance(StateClosing)
		s.finish()
	}()
	return nil
}

// Close cancels in-flight probes.
func (s *BatchSession) Close() {
	s.cancel()
	s.startOnce.Do(s.finish)
}

// Report returns the finished report; empty until Done is closed.
func (s *BatchSession) Report() BatchReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

func (s *BatchSession) finish() {
	s.doneOnce.Do(func() {
		s.state.advance(StateClosed)
		s.cancel()
		close(s.done)
	})
}
