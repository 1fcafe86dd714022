package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"switch-manager/pkg/manager"
)

var (
	flagConfig    string
	flagInventory string
	flagDelimiter string
	flagDebug     bool

	flagQuery string
	flagSort  string
	flagDesc  bool
)

var rootCmd = &cobra.Command{
	Use:   "switch-manager",
	Short: "Browse a network device inventory and run ssh, ping and traceroute against it",
	Long: `switch-manager loads a delimited device table (data.csv by default) and
opens an interactive browser. Pick a row, choose a command from the bar and
press enter to run it; output streams into a window that esc closes.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to YAML or TOML config (defaults to XDG paths if empty)")
	pf.StringVar(&flagInventory, "inventory", "", "Inventory file (overrides the config)")
	pf.StringVar(&flagDelimiter, "delimiter", "", "Inventory column delimiter (overrides the config)")
	pf.BoolVar(&flagDebug, "debug", false, "Write debug records to the log file")

	rootCmd.Flags().StringVar(&flagQuery, "query", "", "Initial search query")
	rootCmd.Flags().StringVar(&flagSort, "sort", "", "Initial sort column (name, ip, subnet, aliases, comment)")
	rootCmd.Flags().BoolVar(&flagDesc, "desc", false, "Sort in descending order")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "switch-manager: %v\n", err)
		os.Exit(exitCodeFromErr(err))
	}
}

// app is what every subcommand needs: configuration, inventory and a logger.
type app struct {
	cfg *manager.Config
	inv *manager.Inventory
	log *slog.Logger

	logFile *manager.Logger
}

func (a *app) Close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// loadApp resolves the config, applies flag overrides, opens the daily log and
// reads the inventory. A missing inventory is reported on stderr and yields an
// empty table.
func loadApp() (*app, error) {
	cfg, cfgPath, err := manager.LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagInventory != "" {
		cfg.Inventory = flagInventory
	}
	if flagDelimiter != "" {
		cfg.Delimiter = flagDelimiter
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: manager.DiscardLogger()}
	lopts := manager.DefaultLogOptions()
	lopts.BaseDir = cfg.LogDir
	lopts.Debug = flagDebug
	if lg, lerr := manager.OpenLogger(lopts); lerr != nil {
		fmt.Fprintf(os.Stderr, "switch-manager: logging disabled: %v\n", lerr)
	} else {
		a.logFile = lg
		a.log = lg.Logger
	}
	a.log.Info("starting", "config", cfgPath, "inventory", cfg.InventoryPath())

	delim, _ := cfg.DelimiterRune()
	inv, err := manager.LoadInventory(cfg.InventoryPath(), delim)
	switch {
	case errors.Is(err, manager.ErrInventoryNotFound):
		a.log.Warn("inventory missing", "path", cfg.InventoryPath())
		fmt.Fprintf(os.Stderr, "switch-manager: %v\n", err)
	case err != nil:
		a.Close()
		return nil, err
	default:
		a.log.Info("inventory loaded", "rows", len(inv.Rows), "columns", strings.Join(inv.Header, ","))
	}
	a.inv = inv
	return a, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	sortCol, err := manager.ParseSortColumn(flagSort)
	if err != nil {
		return err
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts := manager.UIOptions{
		InitialQuery: flagQuery,
		SortColumn:   sortCol,
		SortDesc:     flagDesc,
	}
	if a.logFile != nil {
		opts.LogPath = a.logFile.Path
	}
	return manager.RunTUI(a.cfg, a.inv, opts, a.log)
}

func exitCodeFromErr(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if status, ok := ee.Sys().(syscall.WaitStatus); ok && status.Exited() {
			return status.ExitStatus()
		}
	}
	var ce *exitCodeError
	if errors.As(err, &ce) {
		return ce.code
	}
	return 1
}

// exitCodeError carries a process exit code through cobra.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }
