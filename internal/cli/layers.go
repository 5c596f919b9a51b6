package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/setanarut/gridslicer/layered"
)

type layerInfo struct {
	Name    string  `json:"name"`
	Visible bool    `json:"visible"`
	Opacity float64 `json:"opacity"`
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
}

func NewLayersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layers <document>",
		Short: "List the layer stack, top first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := layered.Open(args[0])
			if err != nil {
				return wrapError(ExitGeneralError, "cannot open document", err)
			}
			var infos []layerInfo
			for _, l := range img.Stack() {
				b := l.Bounds()
				infos = append(infos, layerInfo{
					Name:    l.Name(),
					Visible: l.Visible(),
					Opacity: l.Opacity(),
					X:       b.Min.X,
					Y:       b.Min.Y,
					Width:   b.Dx(),
					Height:  b.Dy(),
				})
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, infos)
			}
			fmt.Fprintf(out, "%-24s %-8s %-8s %s\n", "NAME", "VISIBLE", "OPACITY", "BOUNDS")
			for _, li := range infos {
				fmt.Fprintf(out, "%-24s %-8t %-8.2f %dx%d+%d+%d\n",
					li.Name, li.Visible, li.Opacity, li.Width, li.Height, li.X, li.Y)
			}
			return nil
		},
	}
}
