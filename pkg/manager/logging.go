package manager

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// The TUI owns stdout, so diagnostics go to a daily log file:
//
//	~/.config/switch-manager/logs/YYYY-MM-DD.log
//
// (or $XDG_CONFIG_HOME when set). A new file is created per calendar day and
// appended to. Bubble Tea's own log output is routed to the same file.

const (
	// DefaultLogsSubdir is appended under the app config directory.
	DefaultLogsSubdir = "logs"

	// DefaultLogExt is the extension used for daily logs.
	DefaultLogExt = ".log"

	// DefaultDayFormat controls the log filename date format.
	DefaultDayFormat = "2006-01-02"
)

// LogOptions controls how log file paths are computed and created.
type LogOptions struct {
	// BaseDir overrides the base logs directory. If empty, defaults to:
	//   $XDG_CONFIG_HOME/switch-manager/logs
	// or:
	//   ~/.config/switch-manager/logs
	BaseDir string

	// Timezone controls what "day" means for file rotation. If nil, local time is used.
	Timezone *time.Location

	// Debug lowers the level from Info to Debug.
	Debug bool

	// DirPerm is the permission mode used when creating the logs directory.
	// If 0, defaults to 0700.
	DirPerm os.FileMode
}

// DefaultLogOptions returns conservative defaults.
func DefaultLogOptions() LogOptions {
	return LogOptions{DirPerm: 0o700}
}

// LogsBaseDir resolves the base logs directory according to opts and XDG rules.
func LogsBaseDir(opts LogOptions) (string, error) {
	if strings.TrimSpace(opts.BaseDir) != "" {
		return expandPath(strings.TrimSpace(opts.BaseDir)), nil
	}
	dirs := configDirs()
	if len(dirs) == 0 {
		return "", errors.New("cannot resolve a config directory for logs")
	}
	return filepath.Join(dirs[0], DefaultLogsSubdir), nil
}

// DailyLogPath returns the log file path for the given date.
// If t is zero, it uses time.Now().
func DailyLogPath(t time.Time, opts LogOptions) (string, error) {
	if t.IsZero() {
		t = time.Now()
	}
	loc := opts.Timezone
	if loc == nil {
		loc = time.Local
	}
	base, err := LogsBaseDir(opts)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, t.In(loc).Format(DefaultDayFormat)+DefaultLogExt), nil
}

// Logger is an open daily log.
type Logger struct {
	*slog.Logger
	Path string
	file io.Closer
}

func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// OpenLogger opens today's log file and returns a text slog logger writing to it.
func OpenLogger(opts LogOptions) (*Logger, error) {
	p, err := DailyLogPath(time.Time{}, opts)
	if err != nil {
		return nil, err
	}
	perm := opts.DirPerm
	if perm == 0 {
		perm = 0o700
	}
	if err := os.MkdirAll(filepath.Dir(p), perm); err != nil {
		return nil, fmt.Errorf("mkdir logs dir: %w", err)
	}
	f, err := tea.LogToFile(p, "tea")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Logger{Logger: NewLogger(f, opts.Debug), Path: p, file: f}, nil
}

// NewLogger returns a text slog logger writing to w.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// DiscardLogger drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ReadLastNLines reads the last N lines of a file efficiently enough for typical log sizes.
// For very large logs, this does a bounded backward scan by blocks.
//
// Returns lines in normal order (oldest->newest within the returned window).
func ReadLastNLines(path string, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	f, err := os.Open(expandPath(strings.TrimSpace(path)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	const blockSize = 32 * 1024
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var (
		buf    []byte
		offset = st.Size()
	)
	for offset > 0 && bytes.Count(buf, []byte{'\n'}) <= n {
		readSize := int64(blockSize)
		if offset < readSize {
			readSize = offset
		}
		offset -= readSize
		block := make([]byte, readSize)
		if _, err := f.ReadAt(block, offset); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		buf = append(block, buf...)
	}

	s := strings.TrimRight(string(buf), "\r\n")
	if s == "" {
		return []string{}, nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
