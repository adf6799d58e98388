package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/hbconv/internal/importer"
	"github.com/cleared-dev/hbconv/internal/model"
)

func newFormatsCommand(g *globalFlags) *cobra.Command {
	var paymodes bool

	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List the supported formats and their file name patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := load(cmd, *g, convertFlags{})
			if err != nil {
				return err
			}

			registry := importer.DefaultRegistry(zerolog.Nop())
			detector, err := newDetector(cfg, registry)
			if err != nil {
				return usageError(err)
			}

			out := cmd.OutOrStdout()
			for _, format := range registry.Formats() {
				fmt.Fprintf(out, "%-22s %s\n", format, detector.Pattern(format))
			}

			if paymodes {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "HomeBank payment modes:")
				for i, name := range model.PayModeNames() {
					fmt.Fprintf(out, "%4d  %s\n", i, name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&paymodes, "paymodes", false, "also print the HomeBank payment mode table")

	return cmd
}
