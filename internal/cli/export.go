package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/setanarut/gridslicer"
	"github.com/setanarut/gridslicer/internal/config"
	"github.com/setanarut/gridslicer/layered"
)

type exportFlags struct {
	configPath    string
	grid          string
	background    string
	fallback      string
	manifest      string
	paletteColors int
	paletteMethod string
}

// exportReport is the --json output of the export command.
type exportReport struct {
	Files    []string            `json:"files"`
	Grid     gridslicer.Geometry `json:"grid"`
	Manifest string              `json:"manifest,omitempty"`
	Messages []string            `json:"messages"`
}

func NewExportCommand() *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export <document> <save-dir>",
		Short: "Write every non-empty grid cell to its own PNG",
		Long: `Detect the grid, hide the grid and background layers, and write each
non-empty cell to <save-dir>/<layer>.png. Names that are already taken get a
numeric suffix: Sprite.png, Sprite_1.png, ...

Examples:
  gridslicer export sheet.ora out/
  gridslicer export sheet.yaml out/ --grid Lines --background Paper
  gridslicer export sheet.ora out/ --manifest manifest.yaml --palette-colors 4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&flags.configPath, "config", "", "YAML or JSONC settings file")
	cmd.Flags().StringVar(&flags.grid, "grid", "", `Grid layer name (substring match, default "Grid")`)
	cmd.Flags().StringVar(&flags.background, "background", "", `Background layer name (substring match, default "Background")`)
	cmd.Flags().StringVar(&flags.fallback, "fallback", "", `Name used when no layer contributes (default "UnnamedLayer")`)
	cmd.Flags().StringVar(&flags.manifest, "manifest", "", "Also write a manifest with this file name into save-dir (.yaml or .json)")
	cmd.Flags().IntVar(&flags.paletteColors, "palette-colors", 0, "Colors per cell recorded in the manifest (0 disables)")
	cmd.Flags().StringVar(&flags.paletteMethod, "palette", "dominantcolor", "Palette method: dominantcolor or kmeans")
	return cmd
}

// resolveConfig merges the config file (if any) with explicitly set flags.
// Flags the command does not register are never reported as changed.
func resolveConfig(cmd *cobra.Command, flags *exportFlags) (config.Config, error) {
	var cfg config.Config
	if flags.configPath != "" {
		var err error
		if cfg, err = config.Load(flags.configPath); err != nil {
			return config.Config{}, err
		}
	}
	changed := cmd.Flags().Changed
	if changed("grid") {
		cfg.GridLayer = flags.grid
	}
	if changed("background") {
		cfg.BackgroundLayer = flags.background
	}
	if changed("fallback") {
		cfg.FallbackName = flags.fallback
	}
	if changed("manifest") {
		cfg.Manifest = flags.manifest
	}
	if changed("palette-colors") {
		cfg.PaletteColors = flags.paletteColors
	}
	if changed("palette") {
		cfg.PaletteMethod = flags.paletteMethod
	}
	return cfg, cfg.Validate()
}

func runExport(cmd *cobra.Command, flags *exportFlags, docPath, saveDir string) error {
	cfg, err := resolveConfig(cmd, flags)
	if err != nil {
		return wrapError(ExitConfigError, "invalid configuration", err)
	}

	img, err := layered.Open(docPath)
	if err != nil {
		return wrapError(ExitGeneralError, "cannot open document", err)
	}
	img.SetLogger(log().Named("host"))

	exp := gridslicer.NewExporter(img, cfg.Options(), log().Named("export"))
	res, err := exp.Export(saveDir)
	if err != nil && !errors.Is(err, gridslicer.ErrNoCells) {
		printMessages(cmd.ErrOrStderr(), img.Messages())
		return wrapError(exitCodeFor(err), "export failed", err)
	}

	manifest := ""
	if cfg.Manifest != "" && len(res.Records) > 0 {
		m, err := gridslicer.NewManifest(docPath, saveDir, res, cfg.Palette(), log())
		if err != nil {
			return wrapError(ExitGeneralError, "building manifest", err)
		}
		manifest = filepath.Join(saveDir, cfg.Manifest)
		if err := m.Write(manifest); err != nil {
			return wrapError(ExitGeneralError, "writing manifest", err)
		}
		log().Info("manifest written", zap.String("path", manifest), zap.String("run_id", m.RunID))
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, exportReport{
			Files:    res.Files(),
			Grid:     res.Geometry,
			Manifest: manifest,
			Messages: img.Messages(),
		})
	}
	printMessages(out, img.Messages())
	if manifest != "" {
		fmt.Fprintf(out, "Manifest: %s\n", manifest)
	}
	return nil
}

func printMessages(w io.Writer, msgs []string) {
	for _, m := range msgs {
		fmt.Fprintln(w, m)
	}
}
