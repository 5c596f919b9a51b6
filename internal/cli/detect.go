package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/setanarut/gridslicer"
	"github.com/setanarut/gridslicer/layered"
)

func NewDetectCommand() *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "detect <document>",
		Short: "Print the grid inferred from the grid layer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return wrapError(ExitConfigError, "invalid configuration", err)
			}
			img, err := layered.Open(args[0])
			if err != nil {
				return wrapError(ExitGeneralError, "cannot open document", err)
			}
			img.SetLogger(log().Named("host"))

			g, err := gridslicer.NewExporter(img, cfg.Options(), log().Named("detect")).Detect()
			if err != nil {
				return wrapError(exitCodeFor(err), "detection failed", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, g)
			}
			fmt.Fprintln(out, g.String())
			fmt.Fprintf(out, "%-12s %-8s %s\n", "AXIS", "POS", "THICKNESS")
			for _, l := range g.Horizontal {
				fmt.Fprintf(out, "%-12s %-8d %d\n", "horizontal", l.Pos, l.Thickness)
			}
			for _, l := range g.Vertical {
				fmt.Fprintf(out, "%-12s %-8d %d\n", "vertical", l.Pos, l.Thickness)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.configPath, "config", "", "YAML or JSONC settings file (same file as export)")
	cmd.Flags().StringVar(&flags.grid, "grid", "", `Grid layer name (substring match, default "Grid")`)
	return cmd
}
