package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"switch-manager/pkg/manager"
	"switch-manager/pkg/session"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the inventory as a table",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var detailCmd = &cobra.Command{
	Use:   "detail <name|address>",
	Short: "Print every column of one device",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetail,
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe every matching device at once and print the report",
	Long: `probe runs the probe command (one ping by default) against every row
that matches --query and prints one block per device. Rows without a usable
address are skipped. The exit code is 1 when any probe failed.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	listCmd.Flags().StringVar(&flagQuery, "query", "", "Only rows matching every word")
	listCmd.Flags().StringVar(&flagSort, "sort", "", "Sort column (name, ip, subnet, aliases, comment)")
	listCmd.Flags().BoolVar(&flagDesc, "desc", false, "Sort in descending order")
	probeCmd.Flags().StringVar(&flagQuery, "query", "", "Only rows matching every word")

	rootCmd.AddCommand(listCmd, detailCmd, probeCmd, connectCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	sortCol, err := manager.ParseSortColumn(flagSort)
	if err != nil {
		return err
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rows := manager.FilterRows(a.inv.Rows, flagQuery)
	manager.SortRows(rows, sortCol, flagDesc)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(manager.DisplayColumns, "\t")))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r.Cells(), "\t"))
	}
	return w.Flush()
}

func runDetail(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	row, ok := a.inv.FindRow(args[0])
	if !ok {
		return fmt.Errorf("no device named %q", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), row.Detail())
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	rows := manager.FilterRows(a.inv.Rows, flagQuery)
	coord := a.cfg.NewCoordinator(a.log)
	report := coord.Run(ctx, manager.Targets(rows), session.SurfaceFunc(func(text string) {
		fmt.Fprintln(out, text)
	}))

	if ctx.Err() != nil {
		return ctx.Err()
	}
	for _, t := range report.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: no usable address\n", t.Name)
	}
	if n := report.Failed(); n > 0 {
		return &exitCodeError{code: 1, msg: fmt.Sprintf("%d of %d probes failed", n, len(report.Results))}
	}
	return nil
}
