package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"switch-manager/pkg/manager"
)

var connectCmd = &cobra.Command{
	Use:   "connect <name|address>",
	Short: "Open the ssh command for one device in this terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	row, ok := a.inv.FindRow(args[0])
	if !ok {
		return fmt.Errorf("no device named %q", args[0])
	}
	spec, err := a.cfg.CommandFor(manager.ActionSSH, row)
	if err != nil {
		return err
	}
	argv := spec.Argv()
	a.log.Info("connect", "device", row.Name(), "cmd", spec.String())

	// Terminal integrations may have queued replies that ssh would read as typed input.
	flushTTYInput()

	c := exec.Command(argv[0], argv[1:]...)
	ptmx, err := pty.Start(c)
	if err != nil {
		return fmt.Errorf("connect: pty start: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	// Without an explicit size the remote side can end up with a 0x0 window.
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if cols, rows, sizeErr := term.GetSize(int(os.Stdout.Fd())); sizeErr == nil && rows > 0 && cols > 0 {
			_ = pty.Setsize(ptmx, &pty.Winsize{
				Rows: uint16(rows),
				Cols: uint16(cols),
			})
		}
	}
	stopResize := startPTYResizeWatcher(ptmx)
	defer stopResize()

	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		oldState, sErr := term.MakeRaw(fd)
		if sErr == nil {
			defer func() { _ = term.Restore(fd, oldState) }()
		}
	}

	go func() {
		_, _ = io.Copy(ptmx, os.Stdin)
	}()
	_, _ = io.Copy(os.Stdout, ptmx)

	if err := c.Wait(); err != nil {
		a.log.Info("connect finished", "device", row.Name(), "err", err)
		return err
	}
	a.log.Info("connect finished", "device", row.Name())
	return nil
}
