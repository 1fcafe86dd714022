package session

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestCommandSpec_IsImmutable(t *testing.T) {
	argv := []string{"ping", "-c", "4", "10.0.0.1"}
	spec := NewCommandSpec(argv...)
	argv[3] = "changed"

	got := spec.Argv()
	if got[3] != "10.0.0.1" {
		t.Fatalf("expected spec to keep its own copy, got %v", got)
	}
	got[0] = "rm"
	if spec.Program() != "ping" {
		t.Fatalf("expected Argv to return a copy, program is now %q", spec.Program())
	}
}

func TestCommandSpec_StringQuotesArguments(t *testing.T) {
	spec := NewCommandSpec("sh", "-c", "echo 'hi there'")
	want := `sh -c 'echo '\''hi there'\'''`
	if spec.String() != want {
		t.Fatalf("expected %s, got %s", want, spec.String())
	}
}

func TestStart_MissingProgramIsSpawnError(t *testing.T) {
	_, err := Start(context.Background(), NewCommandSpec("definitely-not-a-real-program-xyz"))
	if err == nil {
		t.Fatalf("expected spawn error, got nil")
	}
	var se *SpawnError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SpawnError, got %T: %v", err, err)
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Fatalf("expected wrapped exec.ErrNotFound, got %v", err)
	}
}

func TestStart_EmptyCommandIsSpawnError(t *testing.T) {
	_, err := Start(context.Background(), CommandSpec{})
	var se *SpawnError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SpawnError, got %v", err)
	}
}

func TestCapture_CombinesStdoutAndStderrInOrder(t *testing.T) {
	out, st, err := Capture(context.Background(), sh("echo one; echo two >&2; echo three"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "one\ntwo\nthree\n" {
		t.Fatalf("expected combined output in order, got %q", out)
	}
	if !st.Success() {
		t.Fatalf("expected success, got %s", st)
	}
}

func TestCapture_ReportsExitCode(t *testing.T) {
	_, st, err := Capture(context.Background(), sh("exit 3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Code != 3 || st.Success() {
		t.Fatalf("expected exit 3, got %+v", st)
	}
}

func TestCapture_TimeoutKillsProcess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := Capture(ctx, sh("sleep 30"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("expected capture to return promptly after timeout")
	}
}

func TestProcess_TerminateIsIdempotent(t *testing.T) {
	p, err := Start(context.Background(), sh("sleep 30"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Terminate(); err != nil {
		t.Fatalf("first terminate: %v", err)
	}
	if err := p.Terminate(); err != nil {
		t.Fatalf("second terminate: %v", err)
	}

	st, err := p.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if st.Signal == "" {
		t.Fatalf("expected process to be killed by a signal, got %s", st)
	}
	if err := p.Terminate(); err != nil {
		t.Fatalf("terminate after exit should be a no-op, got %v", err)
	}
	// A second Wait returns the cached status.
	st2, _ := p.Wait()
	if st2 != st {
		t.Fatalf("expected cached status %v, got %v", st, st2)
	}
}

func TestProcess_TerminateKillsProcessGroup(t *testing.T) {
	// The child shell forks a sleeper that also holds the output pipe.
	p, err := Start(context.Background(), sh("sleep 30 & wait"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = p.Terminate()
	if _, err := p.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	for {
		_, err := p.ReadChunk(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			t.Fatalf("expected output to close once the group is gone, got %v", err)
		}
	}
}

func TestCapture_KillsHelpersLeftAfterExit(t *testing.T) {
	spec, pidFile := forkingScript(t)
	out, st, err := Capture(context.Background(), spec)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if out != "started\n" || !st.Success() {
		t.Fatalf("expected %q with exit 0, got %q (%s)", "started\n", out, st)
	}
	waitProcessGone(t, readPid(t, pidFile), 3*time.Second)
}

func TestProcess_TerminateAfterExitKillsGroup(t *testing.T) {
	spec, pidFile := forkingScript(t)
	p, err := Start(context.Background(), spec)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	st, err := p.Wait()
	if err != nil || !st.Success() {
		t.Fatalf("expected exit 0, got %s (err=%v)", st, err)
	}
	if err := p.Terminate(); err != nil {
		t.Fatalf("terminate after exit: %v", err)
	}
	waitProcessGone(t, readPid(t, pidFile), 3*time.Second)
}

func TestProcess_ReadChunkDoesNotBlockPastExit(t *testing.T) {
	// The background sleeper keeps the pipe open after the shell exits.
	p, err := Start(context.Background(), sh("echo hi; (sleep 30 &) ; exit 0"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = killGroup(p.Pid()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var got strings.Builder
	for {
		chunk, err := p.ReadChunk(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("expected EOF after exit, got %v", err)
		}
		got.Write(chunk)
	}
	if got.String() != "hi\n" {
		t.Fatalf("expected %q, got %q", "hi\n", got.String())
	}
}

func TestProcess_ReadChunkHonorsCancellation(t *testing.T) {
	p, err := Start(context.Background(), sh("sleep 30"))
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		_ = p.Terminate()
		_, _ = p.Wait()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	if _, err := p.ReadChunk(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
