package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"switch-manager/pkg/session"
)

// shutdownTimeout bounds how long RunTUI waits for the live session to close on exit.
const shutdownTimeout = 5 * time.Second

// RunTUI runs the interactive inventory browser until the user quits.
func RunTUI(cfg *Config, inv *Inventory, opts UIOptions, log *slog.Logger) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if inv == nil {
		inv = &Inventory{}
	}
	if log == nil {
		log = DiscardLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := newModel(ctx, cfg, inv, opts, log)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()

	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	if serr := m.owner.Shutdown(sctx); serr != nil {
		log.Warn("session did not close before exit", "err", serr)
	}
	return err
}

// overlayKind is what covers the table, if anything.
type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayStream
	overlayPTY
	overlayBatch
	overlayDetail
	overlayHelp
	overlayLog
)

type statusMsg string

type errMsg struct {
	Err error
}

// outputMsg carries the latest full buffer of a session.
type outputMsg struct {
	id   string
	text string
}

// sessionDoneMsg is delivered once a session reaches StateClosed. final holds
// a buffer that was still pending when the session finished.
type sessionDoneMsg struct {
	id       string
	final    string
	hasFinal bool
}

// chanSurface hands session output to the Bubble Tea loop. It keeps only the
// newest buffer, so Show never blocks the session's reader.
type chanSurface struct {
	ch chan string
}

func newChanSurface() *chanSurface {
	return &chanSurface{ch: make(chan string, 1)}
}

func (s *chanSurface) Show(text string) {
	for {
		select {
		case s.ch <- text:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// startable is implemented by every session kind.
type startable interface {
	session.Session
	Start(parent context.Context) error
}

// waitSurface yields the next buffer of s, or its completion.
func waitSurface(s session.Session, surf *chanSurface) tea.Cmd {
	id := s.ID()
	return func() tea.Msg {
		select {
		case text := <-surf.ch:
			return outputMsg{id: id, text: text}
		case <-s.Done():
			select {
			case text := <-surf.ch:
				return sessionDoneMsg{id: id, final: text, hasFinal: true}
			default:
				return sessionDoneMsg{id: id}
			}
		}
	}
}

type keyMap struct {
	Up, Down, PageUp, PageDown key.Binding
	PrevCmd, NextCmd, Run      key.Binding
	Sort, Reverse              key.Binding
	Search, Logs, Help         key.Binding
	Close, Send, Quit          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		PrevCmd:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←/→", "command")),
		NextCmd:  key.NewBinding(key.WithKeys("right")),
		Run:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s/S", "sort")),
		Reverse:  key.NewBinding(key.WithKeys("S")),
		Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Logs:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Close:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Send:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send line")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

type model struct {
	ctx  context.Context
	cfg  *Config
	inv  *Inventory
	opts UIOptions
	log  *slog.Logger

	theme Theme
	keys  keyMap
	help  help.Model

	table    table.Model
	search   textinput.Model
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	candidates []candidate
	filtered   []candidate
	sortColumn string
	sortDesc   bool
	action     int // index into CommandBar

	owner   *session.Owner
	active  session.Session
	surface *chanSurface

	overlay      overlayKind
	overlayTitle string
	output       string
	running      bool // the overlay's session has not finished yet

	width, height int
	ready         bool

	status      string
	statusUntil time.Time
	quitting    bool
}

func newModel(ctx context.Context, cfg *Config, inv *Inventory, opts UIOptions, log *slog.Logger) model {
	theme := LoadTheme(cfg.Theme)

	si := textinput.New()
	si.Prompt = "/ "
	si.Placeholder = "search..."
	si.CharLimit = 256
	si.PromptStyle = theme.Accent.Bold(true)
	si.SetValue(strings.TrimSpace(opts.InitialQuery))

	li := textinput.New()
	li.Prompt = "> "
	li.Placeholder = "type a line and press enter"
	li.CharLimit = 1024
	li.PromptStyle = theme.Accent.Bold(true)

	tbl := table.New(
		table.WithColumns(tableColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithKeyMap(table.KeyMap{
			LineUp:       key.NewBinding(key.WithKeys("up")),
			LineDown:     key.NewBinding(key.WithKeys("down")),
			PageUp:       key.NewBinding(key.WithKeys("pgup")),
			PageDown:     key.NewBinding(key.WithKeys("pgdown")),
			HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
			HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
			GotoTop:      key.NewBinding(key.WithKeys("home")),
			GotoBottom:   key.NewBinding(key.WithKeys("end")),
		}),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Inherit(theme.Header)
	styles.Selected = theme.Selected
	tbl.SetStyles(styles)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.Accent

	sortCol, _ := canonicalColumn(opts.SortColumn)

	m := model{
		ctx:        ctx,
		cfg:        cfg,
		inv:        inv,
		opts:       opts,
		log:        log,
		theme:      theme,
		keys:       defaultKeyMap(),
		help:       help.New(),
		table:      tbl,
		search:     si,
		input:      li,
		viewport:   viewport.New(80, 20),
		spinner:    sp,
		candidates: buildCandidates(inv),
		sortColumn: sortCol,
		sortDesc:   opts.SortDesc,
		owner:      &session.Owner{},
	}
	m.recomputeFilter()
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case statusMsg:
		m.setStatus(string(msg), 2500)
		return m, nil

	case errMsg:
		if msg.Err != nil {
			m.setStatus(msg.Err.Error(), 4000)
		} else {
			m.setStatus("error", 2500)
		}
		return m, nil

	case outputMsg:
		if m.active == nil || msg.id != m.active.ID() {
			return m, nil
		}
		m.setOutput(msg.text)
		return m, waitSurface(m.active, m.surface)

	case sessionDoneMsg:
		if m.active == nil || msg.id != m.active.ID() {
			return m, nil
		}
		if msg.hasFinal {
			m.setOutput(msg.final)
		}
		m.sessionFinished()
		return m, nil

	case spinner.TickMsg:
		if m.overlay != overlayBatch || !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if m.overlay != overlayNone {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		if m.overlay != overlayNone {
			return m.updateOverlay(msg)
		}
		return m.updateTable(msg)
	}

	return m, nil
}

// updateTable handles keys while the table (or its search box) has focus.
func (m model) updateTable(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(k, m.keys.Run):
		return m.runAction(CommandBar[m.action])

	case key.Matches(k, m.keys.PrevCmd):
		m.action = (m.action + len(CommandBar) - 1) % len(CommandBar)
		return m, nil

	case key.Matches(k, m.keys.NextCmd):
		m.action = (m.action + 1) % len(CommandBar)
		return m, nil

	case key.Matches(k, m.keys.Up, m.keys.Down, m.keys.PageUp, m.keys.PageDown),
		k.Type == tea.KeyHome, k.Type == tea.KeyEnd:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(k)
		return m, cmd

	case key.Matches(k, m.keys.Close):
		if m.search.Focused() || m.search.Value() != "" {
			m.search.Blur()
			m.search.SetValue("")
			m.recomputeFilter()
		}
		return m, nil
	}

	if !m.search.Focused() {
		switch {
		case key.Matches(k, m.keys.Sort):
			m.sortColumn = nextSortColumn(m.sortColumn)
			m.recomputeFilter()
			m.setStatus("sort: "+m.sortLabel(), 1500)
			return m, nil
		case key.Matches(k, m.keys.Reverse):
			m.sortDesc = !m.sortDesc
			m.recomputeFilter()
			m.setStatus("sort: "+m.sortLabel(), 1500)
			return m, nil
		case key.Matches(k, m.keys.Help):
			m.openStatic(overlayHelp, "Help", renderHelp(m.viewport.Width, m.theme))
			return m, nil
		case key.Matches(k, m.keys.Logs):
			m.openLog()
			return m, nil
		case key.Matches(k, m.keys.Search):
			m.search.Focus()
			return m, textinput.Blink
		}
		// Printable keys start a search.
		if k.Type != tea.KeyRunes && k.Type != tea.KeySpace {
			return m, nil
		}
		m.search.Focus()
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(k)
	if m.search.Value() != before {
		m.recomputeFilter()
	}
	return m, cmd
}

// updateOverlay handles keys while an output window is open.
func (m model) updateOverlay(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(k, m.keys.Close):
		if m.running && m.active != nil {
			m.log.Debug("closing session", "session", m.active.ID())
			m.active.Close()
		}
		m.dismiss()
		return m, nil

	case key.Matches(k, m.keys.Up, m.keys.Down, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(k)
		return m, cmd
	}

	if m.overlay != overlayPTY || !m.running {
		return m, nil
	}
	pty, ok := m.active.(*session.PTYSession)
	if !ok {
		return m, nil
	}
	if key.Matches(k, m.keys.Send) {
		line := m.input.Value()
		m.input.Reset()
		if err := pty.Send(line); err != nil {
			m.setStatus("send: "+err.Error(), 2500)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(k)
	return m, cmd
}

// runAction starts the command bar action against the selected row.
func (m model) runAction(a Action) (tea.Model, tea.Cmd) {
	switch a {
	case ActionExit:
		return m.quit()

	case ActionDetail:
		row := m.current()
		if row == nil {
			m.setStatus("no row selected", 1500)
			return m, nil
		}
		m.openStatic(overlayDetail, "Detail: "+rowLabel(*row), row.Detail())
		return m, nil

	case ActionProbeAll:
		rows := m.filteredRows()
		coord := m.cfg.NewCoordinator(m.log)
		surf := newChanSurface()
		s := session.NewBatchSession(coord, Targets(rows), surf, m.sessionOptions())
		cmd := m.begin(s, surf, overlayBatch, fmt.Sprintf("probe-all (%d rows)", len(rows)))
		if cmd == nil {
			return m, nil
		}
		return m, tea.Batch(cmd, m.spinner.Tick)
	}

	row := m.current()
	if row == nil {
		m.setStatus("no row selected", 1500)
		return m, nil
	}
	spec, err := m.cfg.CommandFor(a, *row)
	if err != nil {
		m.setStatus(err.Error(), 2500)
		return m, nil
	}
	title := a.String() + " " + rowLabel(*row)
	surf := newChanSurface()

	if a == ActionSSH {
		rows, cols := m.ptySize()
		s := session.NewPTYSession(spec, surf, session.PTYOptions{
			Options: m.sessionOptions(),
			Rows:    rows,
			Cols:    cols,
			Env:     []string{"TERM=dumb"},
		})
		cmd := m.begin(s, surf, overlayPTY, title)
		if cmd == nil {
			return m, nil
		}
		m.input.Reset()
		blink := m.input.Focus()
		return m, tea.Batch(cmd, blink)
	}

	s := session.NewStreamSession(spec, surf, m.sessionOptions())
	return m, m.begin(s, surf, overlayStream, title)
}

func (m *model) sessionOptions() session.Options {
	return session.Options{ID: uuid.NewString(), Logger: m.log}
}

// begin registers s with the owner, opens its window and starts it. It
// returns nil when another session is still live.
func (m *model) begin(s startable, surf *chanSurface, kind overlayKind, title string) tea.Cmd {
	if err := m.owner.Begin(s); err != nil {
		if errors.Is(err, session.ErrSessionActive) {
			m.setStatus("previous session is still closing", 2000)
		} else {
			m.setStatus(err.Error(), 2500)
		}
		return nil
	}
	m.active = s
	m.surface = surf
	m.overlay = kind
	m.overlayTitle = title
	m.running = true
	m.output = ""
	m.viewport.SetContent("")
	m.table.Blur()
	m.search.Blur()
	m.layout()

	m.log.Info("session begin", "session", s.ID(), "title", title)
	if err := s.Start(m.ctx); err != nil {
		// The error is already on the surface and the session is closed.
		m.log.Warn("session start failed", "session", s.ID(), "err", err)
	}
	return waitSurface(s, surf)
}

// sessionFinished releases the active session once it reached StateClosed.
func (m *model) sessionFinished() {
	s := m.active
	m.owner.Release(s)
	m.active = nil
	m.surface = nil

	wasShown := m.running && m.overlay != overlayNone
	m.running = false

	var summary string
	switch s := s.(type) {
	case *session.StreamSession:
		summary = s.Status().String()
		if s.Err() != nil {
			summary = "failed"
		}
	case *session.PTYSession:
		summary = "connection closed (" + s.Status().String() + ")"
		if s.Err() != nil {
			summary = "failed"
		}
	case *session.BatchSession:
		rep := s.Report()
		summary = fmt.Sprintf("%d probed, %d failed, %d skipped", len(rep.Results), rep.Failed(), len(rep.Skipped))
	}
	m.log.Info("session closed", "session", s.ID(), "summary", summary)

	if !wasShown {
		return
	}
	switch m.overlay {
	case overlayPTY:
		// The remote side hung up; give the table back.
		title := m.overlayTitle
		m.dismiss()
		if ps, ok := s.(*session.PTYSession); ok && ps.Err() != nil {
			m.setStatus(title+": "+ps.Err().Error(), 4000)
		} else {
			m.setStatus(title+": "+summary, 3000)
		}
	default:
		m.overlayTitle += " [" + summary + "]"
	}
}

// setOutput replaces the displayed buffer, following the tail when the view
// was already at the bottom.
func (m *model) setOutput(text string) {
	follow := m.viewport.AtBottom() || m.output == ""
	if m.overlay == overlayPTY {
		text = ansi.Strip(text)
		text = strings.ReplaceAll(text, "\r", "")
	}
	m.output = text
	m.viewport.SetContent(wrapText(text, m.viewport.Width))
	if follow {
		m.viewport.GotoBottom()
	}
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Hardwrap(s, width, true)
}

// openStatic shows text that has no session behind it.
func (m *model) openStatic(kind overlayKind, title, text string) {
	m.overlay = kind
	m.overlayTitle = title
	m.running = false
	m.table.Blur()
	m.search.Blur()
	m.layout()
	m.output = text
	m.viewport.SetContent(wrapText(text, m.viewport.Width))
	m.viewport.GotoTop()
}

func (m *model) openLog() {
	if strings.TrimSpace(m.opts.LogPath) == "" {
		m.setStatus("logging is disabled", 1500)
		return
	}
	lines, err := ReadLastNLines(m.opts.LogPath, 200)
	if err != nil {
		m.setStatus("log: "+err.Error(), 2500)
		return
	}
	text := strings.Join(lines, "\n")
	if text == "" {
		text = "(no log lines)"
	}
	m.openStatic(overlayLog, "Log: "+m.opts.LogPath, text)
	m.viewport.GotoBottom()
}

// dismiss closes the overlay and returns focus to the table. A session that
// is still closing keeps its owner slot until its completion arrives.
func (m *model) dismiss() {
	m.overlay = overlayNone
	m.overlayTitle = ""
	m.output = ""
	m.running = false
	m.viewport.SetContent("")
	m.input.Blur()
	m.input.Reset()
	m.table.Focus()
	m.layout()
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if m.active != nil {
		m.active.Close()
	}
	m.quitting = true
	return m, tea.Quit
}

func (m *model) recomputeFilter() {
	q := strings.TrimSpace(m.search.Value())
	m.filtered = filterCandidates(m.candidates, q)
	sortCandidates(m.filtered, m.sortColumn, m.sortDesc)

	rows := make([]table.Row, len(m.filtered))
	for i, c := range m.filtered {
		rows[i] = table.Row(c.Row.Cells())
	}
	cur := m.table.Cursor()
	m.table.SetRows(rows)
	if cur >= len(rows) {
		cur = len(rows) - 1
	}
	if cur < 0 {
		cur = 0
	}
	m.table.SetCursor(cur)
}

func (m *model) current() *Row {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.filtered) {
		return nil
	}
	return &m.filtered[i].Row
}

// filteredRows snapshots the rows currently shown.
func (m *model) filteredRows() []Row {
	out := make([]Row, len(m.filtered))
	for i, c := range m.filtered {
		out[i] = c.Row
	}
	return out
}

func (m *model) sortLabel() string {
	if m.sortColumn == "" {
		return "file order"
	}
	if m.sortDesc {
		return m.sortColumn + " desc"
	}
	return m.sortColumn + " asc"
}

func (m *model) setStatus(s string, ms int) {
	m.status = s
	m.statusUntil = time.Now().Add(time.Duration(ms) * time.Millisecond)
}

// layout sizes the widgets for the current window.
func (m *model) layout() {
	w, h := m.width, m.height
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 24
	}
	m.help.Width = w
	m.search.Width = maxInt(10, w-4)
	m.input.Width = maxInt(10, w-4)

	// header, separator, command bar, search, status, help
	m.table.SetColumns(tableColumns(w))
	m.table.SetWidth(w)
	m.table.SetHeight(maxInt(3, h-6))

	// title, border (2), status, help, and the input line for ssh
	vh := h - 5
	if m.overlay == overlayPTY {
		vh--
	}
	m.viewport.Width = maxInt(10, w-2)
	m.viewport.Height = maxInt(3, vh)
	if m.overlay != overlayNone && m.output != "" {
		m.viewport.SetContent(wrapText(m.output, m.viewport.Width))
	}

	if p, ok := m.active.(*session.PTYSession); ok && m.running {
		rows, cols := m.ptySize()
		if err := p.Resize(rows, cols); err != nil {
			m.log.Debug("pty resize", "err", err)
		}
	}
}

func (m *model) ptySize() (rows, cols uint16) {
	return uint16(maxInt(1, m.viewport.Height)), uint16(maxInt(1, m.viewport.Width))
}

// tableColumns splits width across the display columns. Cell padding takes
// two characters per column.
func tableColumns(width int) []table.Column {
	weights := []int{22, 16, 18, 20, 24}
	avail := width - 2*len(DisplayColumns)
	if avail < len(DisplayColumns)*4 {
		avail = len(DisplayColumns) * 4
	}
	cols := make([]table.Column, len(DisplayColumns))
	used := 0
	for i, name := range DisplayColumns {
		w := avail * weights[i] / 100
		if i == len(DisplayColumns)-1 {
			w = avail - used
		}
		used += w
		cols[i] = table.Column{Title: name, Width: w}
	}
	return cols
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "switch-manager: loading...\n"
	}
	if m.overlay != overlayNone {
		return m.viewOverlay()
	}

	var b strings.Builder

	title := "switch-manager"
	if m.inv.Path != "" {
		title += "  " + m.inv.Path
	}
	b.WriteString(m.theme.HeaderLine(title) + "\n")
	b.WriteString(m.theme.Separator.Render(strings.Repeat("─", maxInt(3, minInt(m.width, 80)))) + "\n")
	b.WriteString(m.viewCommandBar() + "\n")
	b.WriteString(m.search.View() + "\n")
	b.WriteString(m.table.View() + "\n")

	info := fmt.Sprintf("%d/%d rows  sort: %s", len(m.filtered), len(m.candidates), m.sortLabel())
	b.WriteString(m.viewStatus(info) + "\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{
		m.keys.Run, m.keys.PrevCmd, m.keys.Search, m.keys.Sort, m.keys.Logs, m.keys.Help, m.keys.Quit,
	}))
	return b.String()
}

func (m model) viewCommandBar() string {
	parts := make([]string, len(CommandBar))
	for i, a := range CommandBar {
		if i == m.action {
			parts[i] = m.theme.SelectedText("[" + a.String() + "]")
		} else {
			parts[i] = m.theme.DimText(" " + a.String() + " ")
		}
	}
	return strings.Join(parts, " ")
}

func (m model) viewOverlay() string {
	var b strings.Builder

	title := m.overlayTitle
	if m.overlay == overlayBatch && m.running {
		title = m.spinner.View() + " " + title
	}
	b.WriteString(m.theme.HeaderLine(title) + "\n")
	b.WriteString(m.theme.Border.Render(m.viewport.View()) + "\n")
	if m.overlay == overlayPTY {
		b.WriteString(m.input.View() + "\n")
	}

	info := fmt.Sprintf("%3.f%%", m.viewport.ScrollPercent()*100)
	b.WriteString(m.viewStatus(info) + "\n")

	bindings := []key.Binding{m.keys.Close, m.keys.Up, m.keys.Down, m.keys.PageUp}
	if m.overlay == overlayPTY && m.running {
		bindings = append([]key.Binding{m.keys.Send}, bindings...)
	}
	b.WriteString(m.help.ShortHelpView(bindings))
	return b.String()
}

// viewStatus shows the transient status message, or info when there is none.
func (m model) viewStatus(info string) string {
	if m.status != "" && time.Now().Before(m.statusUntil) {
		return m.theme.WarnText(m.status)
	}
	return m.theme.DimText(info)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
