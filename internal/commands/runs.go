package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/hbconv/internal/runlog"
)

func newRunsCommand(g *globalFlags) *cobra.Command {
	var last int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the conversions recorded in the run log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := load(cmd, *g, convertFlags{})
			if err != nil {
				return err
			}
			if cfg.RunLog == "" {
				return usageError(errors.New("no run log configured, set run_log in " + g.configPath))
			}

			entries, err := runlog.Read(cfg.RunLog)
			if err != nil {
				return &ExitError{Code: ExitFailed, Err: err}
			}
			if last > 0 && len(entries) > last {
				entries = entries[len(entries)-last:]
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No conversions recorded.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %-8s %-9s %s (%s): %d records, %d skipped",
					e.Timestamp.Local().Format(time.DateTime), e.RunID[:min(8, len(e.RunID))], e.Status, e.Input, e.Format, e.Records, e.Skipped)
				if len(e.Outputs) > 0 {
					fmt.Fprintf(out, " -> %s", strings.Join(e.Outputs, ", "))
				}
				if e.Error != "" {
					fmt.Fprintf(out, " [%s]", e.Error)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&last, "last", "n", 0, "only show the last n entries")

	return cmd
}
