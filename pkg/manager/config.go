// Package manager contains the inventory, configuration and terminal UI for switch-manager.
package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"switch-manager/pkg/session"
)

// Config represents the optional configuration file for switch-manager.
// Every field has a default, so running without a config file is normal.
//
// Example YAML:
//
// inventory: ~/net/data.csv
// delimiter: ";"
// ssh_user: netops
// commands:
//   ssh: [ssh, -o, ConnectTimeout=5, "{dest}"]
//   ping: [ping, -c, "4", "{addr}"]
// probe:
//   timeout_ms: 5000
//   concurrency: 16
//   failure_policy: exit-status
//
// The same keys are accepted in TOML when the file name ends in .toml.
type Config struct {
	// Inventory is the path of the delimited device table.
	Inventory string `yaml:"inventory" toml:"inventory"`

	// Delimiter separates inventory columns. Exactly one character.
	Delimiter string `yaml:"delimiter,omitempty" toml:"delimiter"`

	// SSHUser is the remote login name. $SWITCH_MANAGER_USER overrides it.
	// When both are empty the login name is left to ssh.
	SSHUser string `yaml:"ssh_user,omitempty" toml:"ssh_user"`

	// Theme selects a color palette: dark (default), light, catppuccin or none.
	Theme string `yaml:"theme,omitempty" toml:"theme"`

	// LogDir overrides the directory for daily log files.
	LogDir string `yaml:"log_dir,omitempty" toml:"log_dir"`

	Commands Commands    `yaml:"commands,omitempty" toml:"commands"`
	Probe    ProbeConfig `yaml:"probe,omitempty" toml:"probe"`
}

// Commands holds argv templates for each action. Elements may contain the
// placeholders {addr}, {name}, {user} and {dest} ("user@addr", or just addr
// when no user is configured). Elements that expand to "" are dropped.
type Commands struct {
	SSH        []string `yaml:"ssh,omitempty" toml:"ssh"`
	Ping       []string `yaml:"ping,omitempty" toml:"ping"`
	Traceroute []string `yaml:"traceroute,omitempty" toml:"traceroute"`
	Probe      []string `yaml:"probe,omitempty" toml:"probe"`
}

// ProbeConfig controls the bulk probe.
type ProbeConfig struct {
	// TimeoutMS bounds each probe. If <=0, defaults to 10000.
	TimeoutMS int `yaml:"timeout_ms,omitempty" toml:"timeout_ms"`

	// Concurrency limits probes in flight. 0 runs every probe at once.
	Concurrency int `yaml:"concurrency,omitempty" toml:"concurrency"`

	// FailurePolicy is one of empty-or-exit (default), empty-output, exit-status.
	FailurePolicy string `yaml:"failure_policy,omitempty" toml:"failure_policy"`
}

// UserEnvVar overrides Config.SSHUser when set.
const UserEnvVar = "SWITCH_MANAGER_USER"

// ConfigEnvVar points at a config file.
const ConfigEnvVar = "SWITCH_MANAGER_CONFIG"

// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
var ErrConfigNotFound = errors.New("config not found")

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Inventory: "data.csv",
		Delimiter: ";",
		Commands: Commands{
			SSH:        []string{"ssh", "{dest}"},
			Ping:       []string{"ping", "-c", "4", "{addr}"},
			Traceroute: []string{"traceroute", "{addr}"},
			Probe:      []string{"ping", "-c", "1", "-W", "2", "{addr}"},
		},
		Probe: ProbeConfig{
			TimeoutMS:     10000,
			FailurePolicy: session.FailOnEmptyOrExit.String(),
		},
	}
}

// LoadConfig discovers and loads the configuration.
// If explicitPath is empty, it searches common locations in order:
// 1. $SWITCH_MANAGER_CONFIG
// 2. $XDG_CONFIG_HOME/switch-manager/config.{yaml,toml}
// 3. ~/.config/switch-manager/config.{yaml,toml}
//
// Values from the file are layered over DefaultConfig. When no file exists
// the defaults are returned with an empty path. A missing explicitPath is
// an error.
func LoadConfig(explicitPath string) (*Config, string, error) {
	if explicitPath != "" {
		p := expandPath(explicitPath)
		if _, err := os.Stat(p); err != nil {
			return nil, p, fmt.Errorf("%w: %s", ErrConfigNotFound, p)
		}
	}
	for _, p := range ConfigPathCandidates(explicitPath) {
		p = expandPath(p)
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		cfg, err := parseConfig(p, data)
		if err != nil {
			return nil, p, err
		}
		return cfg, p, nil
	}
	return DefaultConfig(), "", nil
}

func parseConfig(path string, data []byte) (*Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse toml %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigPathCandidates returns possible configuration file paths, in priority order.
// If explicitPath is provided, it is the only candidate.
func ConfigPathCandidates(explicitPath string) []string {
	if explicitPath != "" {
		return []string{explicitPath}
	}
	var out []string
	if env := os.Getenv(ConfigEnvVar); env != "" {
		out = append(out, env)
	}
	for _, dir := range configDirs() {
		out = append(out, filepath.Join(dir, "config.yaml"), filepath.Join(dir, "config.toml"))
	}
	return out
}

func configDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "switch-manager"))
	}
	if home, _ := os.UserHomeDir(); home != "" {
		dirs = append(dirs, filepath.Join(home, ".config", "switch-manager"))
	}
	return dirs
}

// Validate performs basic sanity checks on the configuration.
//
// - delimiter must be a single character other than a quote or newline
// - every command template must name a program
// - probe timeout and concurrency must be >= 0
// - failure_policy must be a known policy
func (c *Config) Validate() error {
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}

	templates := []struct {
		name string
		argv []string
	}{
		{"ssh", c.Commands.SSH},
		{"ping", c.Commands.Ping},
		{"traceroute", c.Commands.Traceroute},
		{"probe", c.Commands.Probe},
	}
	for _, t := range templates {
		if len(t.argv) == 0 || strings.TrimSpace(t.argv[0]) == "" {
			return fmt.Errorf("commands.%s: program is required", t.name)
		}
	}

	if c.Probe.TimeoutMS < 0 {
		return fmt.Errorf("probe.timeout_ms: must be >= 0")
	}
	if c.Probe.Concurrency < 0 {
		return fmt.Errorf("probe.concurrency: must be >= 0")
	}
	if _, err := session.ParseFailurePolicy(c.Probe.FailurePolicy); err != nil {
		return fmt.Errorf("probe.failure_policy: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(c.Theme)) {
	case "", "dark", "light", "catppuccin", "none":
	default:
		return fmt.Errorf("theme: unknown theme %q (expected dark|light|catppuccin|none)", c.Theme)
	}
	return nil
}

// DelimiterRune returns the inventory delimiter.
func (c *Config) DelimiterRune() (rune, error) {
	d := c.Delimiter
	if d == "" {
		return ';', nil
	}
	if utf8.RuneCountInString(d) != 1 {
		return 0, fmt.Errorf("delimiter: must be a single character, got %q", d)
	}
	r, _ := utf8.DecodeRuneInString(d)
	if r == '"' || r == '\n' || r == '\r' || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter: %q cannot be used", d)
	}
	return r, nil
}

// InventoryPath returns the expanded inventory path.
func (c *Config) InventoryPath() string {
	if p := expandPath(c.Inventory); p != "" {
		return p
	}
	return "data.csv"
}

// EffectiveUser resolves the remote login name: $SWITCH_MANAGER_USER, then
// ssh_user, else "".
func (c *Config) EffectiveUser() string {
	if u := strings.TrimSpace(os.Getenv(UserEnvVar)); u != "" {
		return u
	}
	return strings.TrimSpace(c.SSHUser)
}

// ProbeTimeout returns the per-probe timeout.
func (c *Config) ProbeTimeout() time.Duration {
	if c.Probe.TimeoutMS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Probe.TimeoutMS) * time.Millisecond
}

// FailurePolicy returns the parsed probe failure policy. Invalid values fall
// back to the default; Validate reports them.
func (c *Config) FailurePolicy() session.FailurePolicy {
	p, err := session.ParseFailurePolicy(c.Probe.FailurePolicy)
	if err != nil {
		return session.FailOnEmptyOrExit
	}
	return p
}

// expandTemplate substitutes placeholders in argv for one device.
func (c *Config) expandTemplate(argv []string, name, addr string) session.CommandSpec {
	addr = NormalizeAddress(addr)
	user := c.EffectiveUser()
	dest := addr
	if user != "" {
		dest = user + "@" + addr
	}
	r := strings.NewReplacer(
		"{addr}", addr,
		"{name}", name,
		"{user}", user,
		"{dest}", dest,
	)
	out := make([]string, 0, len(argv))
	for _, a := range argv {
		if v := r.Replace(a); v != "" {
			out = append(out, v)
		}
	}
	return session.NewCommandSpec(out...)
}

// expandPath expands leading "~" and environment variables in a path.
// If the input is empty, returns "".
func expandPath(p string) string {
	if p == "" {
		return ""
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		home, _ := os.UserHomeDir()
		if home != "" {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}
