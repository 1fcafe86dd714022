package manager

import (
	"fmt"
	"log/slog"
	"strings"

	"switch-manager/pkg/session"
)

// Action is an entry of the command bar.
type Action int

const (
	ActionSSH Action = iota
	ActionPing
	ActionTraceroute
	ActionProbeAll
	ActionDetail
	ActionExit
)

// CommandBar lists the actions in the order they are shown.
var CommandBar = []Action{ActionSSH, ActionPing, ActionTraceroute, ActionProbeAll, ActionDetail, ActionExit}

func (a Action) String() string {
	switch a {
	case ActionSSH:
		return "ssh"
	case ActionPing:
		return "ping"
	case ActionTraceroute:
		return "traceroute"
	case ActionProbeAll:
		return "probe-all"
	case ActionDetail:
		return "detail"
	case ActionExit:
		return "exit"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ParseAction accepts the names returned by Action.String.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range CommandBar {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// CommandFor builds the external command for a row-level action.
func (c *Config) CommandFor(a Action, row Row) (session.CommandSpec, error) {
	var tmpl []string
	switch a {
	case ActionSSH:
		tmpl = c.Commands.SSH
	case ActionPing:
		tmpl = c.Commands.Ping
	case ActionTraceroute:
		tmpl = c.Commands.Traceroute
	case ActionProbeAll:
		tmpl = c.Commands.Probe
	default:
		return session.CommandSpec{}, fmt.Errorf("%s does not run a command", a)
	}
	if !UsableAddress(row.IP()) {
		return session.CommandSpec{}, fmt.Errorf("%s: no usable address", rowLabel(row))
	}
	return c.expandTemplate(tmpl, row.Name(), row.IP()), nil
}

// NewCoordinator returns a batch probe coordinator driven by the probe settings.
func (c *Config) NewCoordinator(log *slog.Logger) *session.Coordinator {
	return &session.Coordinator{
		Command: func(t session.Target) session.CommandSpec {
			return c.expandTemplate(c.Commands.Probe, t.Name, t.Address)
		},
		Policy:      c.FailurePolicy(),
		Timeout:     c.ProbeTimeout(),
		Concurrency: c.Probe.Concurrency,
		Usable:      UsableAddress,
		Logger:      log,
	}
}

// Targets converts rows into probe targets, preserving order.
func Targets(rows []Row) []session.Target {
	out := make([]session.Target, len(rows))
	for i, r := range rows {
		out[i] = r.Target()
	}
	return out
}

func rowLabel(r Row) string {
	name := strings.TrimSpace(r.Name())
	ip := strings.TrimSpace(r.IP())
	switch {
	case name != "" && ip != "":
		return name + " (" + ip + ")"
	case name != "":
		return name
	case ip != "":
		return ip
	default:
		return "row"
	}
}
