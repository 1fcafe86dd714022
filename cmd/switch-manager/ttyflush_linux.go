package main

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// flushDrainWindow is how long flushTTYInput keeps reading after the flush.
	flushDrainWindow = 200 * time.Millisecond

	// flushBurstExtension extends the window each time bytes arrive.
	flushBurstExtension = 75 * time.Millisecond
)

// flushTTYInput discards unread input queued on the controlling terminal,
// such as OSC or cursor position replies, before an interactive program
// starts reading it. If /dev/tty cannot be opened it does nothing.
func flushTTYInput() {
	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
	if err != nil {
		return
	}
	defer func() { _ = tty.Close() }()

	fd := int(tty.Fd())
	_ = unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH)

	// Replies can land right after the flush; read them off for a short while.
	if err := unix.SetNonblock(fd, true); err != nil {
		return
	}
	defer func() { _ = unix.SetNonblock(fd, false) }()

	deadline := time.Now().Add(flushDrainWindow)
	buf := make([]byte, 512)
	for time.Now().Before(deadline) {
		n, _ := unix.Read(fd, buf)
		if n <= 0 {
			break
		}
		deadline = time.Now().Add(flushBurstExtension)
	}
}
