package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// recordingSurface keeps every text passed to Show.
type recordingSurface struct {
	mu    sync.Mutex
	shown []string
	ch    chan string
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{ch: make(chan string, 256)}
}

func (r *recordingSurface) Show(text string) {
	r.mu.Lock()
	r.shown = append(r.shown, text)
	r.mu.Unlock()
	select {
	case r.ch <- text:
	default:
	}
}

func (r *recordingSurface) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.shown...)
}

func (r *recordingSurface) last() string {
	s := r.snapshot()
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

// waitShown blocks until a shown text contains want.
func (r *recordingSurface) waitShown(t *testing.T, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if strings.Contains(r.last(), want) {
			return
		}
		select {
		case <-r.ch:
		case <-deadline:
			t.Fatalf("expected surface to show %q within %s, last shown: %q", want, timeout, r.last())
		}
	}
}

func waitDone(t *testing.T, s Session, timeout time.Duration) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(timeout):
		t.Fatalf("expected session %s to close within %s (state %s)", s.ID(), timeout, s.State())
	}
}

func sh(script string) CommandSpec {
	return NewCommandSpec("/bin/sh", "-c", script)
}

// forkingScript backgrounds a sleeper in the program's process group, records
// its pid in a file and exits right away.
func forkingScript(t *testing.T) (CommandSpec, string) {
	t.Helper()
	pidFile := filepath.Join(t.TempDir(), "helper.pid")
	return sh(fmt.Sprintf("sleep 30 & echo $! > %s; echo started", pidFile)), pidFile
}

func readPid(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("parse pid %q: %v", data, err)
	}
	return pid
}

// processGone reports whether pid has exited. An unreaped zombie counts as
// gone since it no longer runs.
func processGone(pid int) bool {
	if err := unix.Kill(pid, 0); errors.Is(err, unix.ESRCH) {
		return true
	}
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return os.IsNotExist(err)
	}
	// The state field follows the parenthesised command name.
	if i := bytes.LastIndexByte(stat, ')'); i >= 0 && i+2 < len(stat) {
		return stat[i+2] == 'Z'
	}
	return false
}

func waitProcessGone(t *testing.T, pid int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !processGone(pid) {
		if time.Now().After(deadline) {
			_ = unix.Kill(pid, unix.SIGKILL)
			t.Fatalf("expected helper pid %d to be gone within %s", pid, timeout)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
