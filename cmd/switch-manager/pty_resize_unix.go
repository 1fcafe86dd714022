//go:build unix

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// startPTYResizeWatcher copies the size of stdout's terminal onto ptmx on
// every SIGWINCH until the returned stop function is called. If stdout is not
// a terminal the watcher does nothing.
func startPTYResizeWatcher(ptmx *os.File) (stop func()) {
	if ptmx == nil {
		return func() {}
	}

	winchCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(winchCh, syscall.SIGWINCH)

	go func() {
		for {
			select {
			case <-done:
				return
			case <-winchCh:
			}
			fd := int(os.Stdout.Fd())
			if !term.IsTerminal(fd) {
				continue
			}
			if cols, rows, err := term.GetSize(fd); err == nil && rows > 0 && cols > 0 {
				_ = pty.Setsize(ptmx, &pty.Winsize{
					Rows: uint16(rows),
					Cols: uint16(cols),
				})
			}
		}
	}()

	return func() {
		signal.Stop(winchCh)
		close(done)
	}
}
