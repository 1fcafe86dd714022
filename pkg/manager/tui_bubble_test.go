package manager

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, cfg *Config) model {
	t.Helper()
	t.Setenv(UserEnvVar, "")
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Theme = "none"
	inv := &Inventory{Path: "test.csv", Rows: testRows()}
	m := newModel(context.Background(), cfg, inv, UIOptions{}, DiscardLogger())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(model)
}

func press(m model, k tea.KeyMsg) (model, tea.Cmd) {
	next, cmd := m.Update(k)
	return next.(model), cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

// selectAction moves the command bar to a.
func selectAction(m model, a Action) model {
	for CommandBar[m.action] != a {
		m, _ = press(m, keyRight)
	}
	return m
}

// runUntilDone executes commands and feeds session messages back into the
// model until the active session reports completion. Other messages are
// dropped.
func runUntilDone(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	deadline := time.Now().Add(15 * time.Second)
	for len(queue) > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for the session to finish")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case outputMsg:
			var next tea.Model
			next, c = m.Update(msg)
			m = next.(model)
			queue = append(queue, c)
		case sessionDoneMsg:
			next, _ := m.Update(msg)
			return next.(model)
		}
	}
	t.Fatalf("session never finished")
	return m
}

func TestModel_TypingFiltersRows(t *testing.T) {
	m := newTestModel(t, nil)
	if len(m.filtered) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(m.filtered))
	}

	m, _ = press(m, runes("edge"))
	if !m.search.Focused() {
		t.Fatalf("expected printable keys to focus the search box")
	}
	if len(m.filtered) != 1 || m.current().Name() != "edge-sw2" {
		t.Fatalf("expected only edge-sw2, got %d rows", len(m.filtered))
	}

	m, _ = press(m, keyEsc)
	if m.search.Focused() || m.search.Value() != "" {
		t.Fatalf("expected esc to clear and blur the search")
	}
	if len(m.filtered) != 3 {
		t.Fatalf("expected filter reset, got %d rows", len(m.filtered))
	}
}

func TestModel_SortKeys(t *testing.T) {
	m := newTestModel(t, nil)

	m, _ = press(m, runes("s"))
	if m.sortColumn != ColName {
		t.Fatalf("expected sort by Name, got %q", m.sortColumn)
	}
	if got := m.filtered[0].Row.Name(); got != "Access-3" {
		t.Fatalf("expected Access-3 first, got %q", got)
	}

	m, _ = press(m, runes("S"))
	if !m.sortDesc {
		t.Fatalf("expected descending sort")
	}
	if got := m.filtered[0].Row.Name(); got != "edge-sw2" {
		t.Fatalf("expected edge-sw2 first, got %q", got)
	}
}

func TestModel_CommandBarWraps(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(m, keyLeft)
	if CommandBar[m.action] != ActionExit {
		t.Fatalf("expected wrap to exit, got %v", CommandBar[m.action])
	}
	m, _ = press(m, keyRight)
	if CommandBar[m.action] != ActionSSH {
		t.Fatalf("expected wrap to ssh, got %v", CommandBar[m.action])
	}
}

func TestModel_DetailOverlayReturnsFocus(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(m, keyDown)
	m = selectAction(m, ActionDetail)

	m, _ = press(m, keyEnter)
	if m.overlay != overlayDetail {
		t.Fatalf("expected detail overlay, got %v", m.overlay)
	}
	if !strings.Contains(m.output, "Name: edge-sw2") || !strings.Contains(m.output, "IP: 10.0.0.9") {
		t.Fatalf("unexpected detail text:\n%s", m.output)
	}

	m, _ = press(m, keyEsc)
	if m.overlay != overlayNone {
		t.Fatalf("expected overlay closed")
	}
	if !m.table.Focused() {
		t.Fatalf("expected focus back on the table")
	}
}

func TestModel_HelpOverlay(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(m, runes("?"))
	if m.overlay != overlayHelp {
		t.Fatalf("expected help overlay, got %v", m.overlay)
	}
	if !strings.Contains(m.output, "probe-all") {
		t.Fatalf("expected help to mention probe-all, got:\n%s", m.output)
	}
}

func TestModel_ExitActionQuits(t *testing.T) {
	m := newTestModel(t, nil)
	m = selectAction(m, ActionExit)
	m, cmd := press(m, keyEnter)
	if !m.quitting || cmd == nil {
		t.Fatalf("expected quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestModel_StreamSessionShowsOutputAndReleases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Commands.Ping = []string{"/bin/sh", "-c", "echo reply from {addr}; echo done"}
	m := newTestModel(t, cfg)
	m = selectAction(m, ActionPing)

	m, cmd := press(m, keyEnter)
	if m.overlay != overlayStream || cmd == nil {
		t.Fatalf("expected stream overlay with a pending command")
	}
	if m.owner.Active() == nil {
		t.Fatalf("expected the owner to hold the session")
	}

	m = runUntilDone(t, m, cmd)
	if m.owner.Active() != nil || m.active != nil {
		t.Fatalf("expected session released")
	}
	if m.overlay != overlayStream {
		t.Fatalf("expected output to stay visible after completion")
	}
	if m.output != "reply from 10.0.0.10\ndone\n" {
		t.Fatalf("unexpected output %q", m.output)
	}
	if !strings.Contains(m.overlayTitle, "exit 0") {
		t.Fatalf("expected exit status in title, got %q", m.overlayTitle)
	}

	m, _ = press(m, keyEsc)
	if m.overlay != overlayNone || !m.table.Focused() {
		t.Fatalf("expected focus back on the table")
	}
}

func TestModel_EscClosesRunningStream(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Commands.Ping = []string{"/bin/sh", "-c", "echo started; sleep 30"}
	m := newTestModel(t, cfg)
	m = selectAction(m, ActionPing)

	m, cmd := press(m, keyEnter)
	msg, ok := cmd().(outputMsg)
	if !ok {
		t.Fatalf("expected first output")
	}
	next, cmd := m.Update(msg)
	m = next.(model)
	if !strings.Contains(m.output, "started") {
		t.Fatalf("expected started, got %q", m.output)
	}

	start := time.Now()
	m, _ = press(m, keyEsc)
	if m.overlay != overlayNone {
		t.Fatalf("expected overlay dismissed on esc")
	}
	if m.active == nil {
		t.Fatalf("expected session to stay tracked until it finishes closing")
	}

	m = runUntilDone(t, m, cmd)
	if time.Since(start) > 5*time.Second {
		t.Fatalf("close took too long: %v", time.Since(start))
	}
	if m.owner.Active() != nil || m.active != nil {
		t.Fatalf("expected session released after close")
	}
	if m.overlay != overlayNone {
		t.Fatalf("expected no overlay to reappear")
	}
}

func TestModel_ProbeAllReportsFilteredRows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Commands.Probe = []string{"/bin/sh", "-c", "echo ok {addr}"}
	m := newTestModel(t, cfg)
	m, _ = press(m, runes("building"))
	m = selectAction(m, ActionProbeAll)

	m, cmd := press(m, keyEnter)
	if m.overlay != overlayBatch {
		t.Fatalf("expected batch overlay, got %v", m.overlay)
	}

	m = runUntilDone(t, m, cmd)
	want := "== core-sw1 (10.0.0.10) ==\nok 10.0.0.10\n\n" +
		"== edge-sw2 (10.0.0.9) ==\nok 10.0.0.9\n\n" +
		"== Access-3 (10.0.0.100) ==\nok 10.0.0.100"
	if m.output != want {
		t.Fatalf("unexpected report:\n%s", m.output)
	}
	if !strings.Contains(m.overlayTitle, "3 probed, 0 failed, 0 skipped") {
		t.Fatalf("unexpected title %q", m.overlayTitle)
	}
}

func TestModel_SSHSessionSelfCloses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Commands.SSH = []string{"/bin/sh", "-c", "echo hello {addr}"}
	m := newTestModel(t, cfg)
	m = selectAction(m, ActionSSH)

	m, cmd := press(m, keyEnter)
	if m.overlay != overlayPTY {
		t.Fatalf("expected pty overlay, got %v", m.overlay)
	}
	if !m.input.Focused() {
		t.Fatalf("expected the line input to take focus")
	}

	m = runUntilDone(t, m, cmd)
	if m.overlay != overlayNone {
		t.Fatalf("expected the window to close when the program exits")
	}
	if !m.table.Focused() {
		t.Fatalf("expected focus back on the table")
	}
	if !strings.Contains(m.status, "connection closed") {
		t.Fatalf("expected closed status, got %q", m.status)
	}
	if m.owner.Active() != nil {
		t.Fatalf("expected session released")
	}
}

func TestModel_UnusableAddressSetsStatus(t *testing.T) {
	m := newTestModel(t, nil)
	h := []string{"Name", "IP"}
	m.candidates = buildCandidates(&Inventory{Rows: []Row{NewRow(h, []string{"nowhere", ""})}})
	m.recomputeFilter()
	m = selectAction(m, ActionPing)

	m, cmd := press(m, keyEnter)
	if cmd != nil || m.overlay != overlayNone {
		t.Fatalf("expected no session for a row without an address")
	}
	if !strings.Contains(m.status, "no usable address") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestChanSurface_KeepsNewest(t *testing.T) {
	s := newChanSurface()
	s.Show("a")
	s.Show("ab")
	s.Show("abc")
	if got := <-s.ch; got != "abc" {
		t.Fatalf("expected newest buffer, got %q", got)
	}
	select {
	case v := <-s.ch:
		t.Fatalf("expected a single pending buffer, got extra %q", v)
	default:
	}
}

func TestTableColumns_FillWidth(t *testing.T) {
	cols := tableColumns(110)
	total := 0
	for _, c := range cols {
		total += c.Width + 2
	}
	if total != 110 {
		t.Fatalf("expected columns to fill 110 cells, got %d", total)
	}
}
