package gridslicer

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrSaveDirectory = errors.New("save directory does not exist")
	ErrNoCells       = errors.New("no suitable cells found")
)

// ExportRecord describes one written cell.
type ExportRecord struct {
	File  string          `json:"file" yaml:"file"`
	Row   int             `json:"row" yaml:"row"`
	Col   int             `json:"col" yaml:"col"`
	Rect  image.Rectangle `json:"-" yaml:"-"`
	Layer string          `json:"layer" yaml:"layer"`
}

// Result is the outcome of an export run.
type Result struct {
	Geometry Geometry
	Records  []ExportRecord
}

// Files returns the written filenames in export order.
func (r Result) Files() []string {
	files := make([]string, len(r.Records))
	for i, rec := range r.Records {
		files[i] = rec.File
	}
	return files
}

// Exporter slices a host image into one file per non-empty grid cell.
type Exporter struct {
	host Host
	opt  Options
	log  *zap.Logger
}

func NewExporter(host Host, opt Options, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{host: host, opt: opt.withDefaults(), log: log}
}

// Detect locates the grid layer and infers the grid from its pixels.
func (e *Exporter) Detect() (Geometry, error) {
	grid := FindLayer(e.host.Layers(), e.opt.GridLayer)
	if grid == nil {
		return Geometry{}, fmt.Errorf("%w: %w: no layer name contains %q", ErrDetectionFailed, ErrGridLayerNotFound, e.opt.GridLayer)
	}
	buf, err := e.host.Pixels(grid)
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: reading %q: %v", ErrDetectionFailed, grid.Name(), err)
	}
	g, err := DetectGrid(buf, e.opt)
	if err != nil {
		return Geometry{}, err
	}
	e.log.Info("grid detected",
		zap.String("layer", grid.Name()),
		zap.Int("rows", g.Rows), zap.Int("cols", g.Cols),
		zap.Int("cell_width", g.CellWidth), zap.Int("cell_height", g.CellHeight))
	return g, nil
}

// Export writes every non-empty cell to saveDir, named after the layer that
// contributes its pixels. Background and grid layers are hidden for the run
// and their visibility restored afterwards.
//
// A run with nothing to write returns ErrNoCells with an empty Result.
// Errors from Save abort the run; files already written are kept and listed
// in the returned Result.
func (e *Exporter) Export(saveDir string) (Result, error) {
	e.host.Message("Starting grid cell export...")

	g, err := e.Detect()
	if err != nil {
		e.host.Message("Grid detection failed. Cannot export cells.")
		return Result{}, err
	}
	if fi, err := os.Stat(saveDir); err != nil || !fi.IsDir() {
		e.host.Message("Save directory does not exist: " + saveDir)
		return Result{}, fmt.Errorf("%w: %s", ErrSaveDirectory, saveDir)
	}

	layers := e.host.Layers()
	background := FindLayer(layers, e.opt.BackgroundLayer)
	grid := FindLayer(layers, e.opt.GridLayer)
	var fixed []Layer
	for _, l := range []Layer{background, grid} {
		if l != nil {
			fixed = append(fixed, l)
		}
	}
	snap := snapshotVisibility(fixed)
	defer snap.restore()
	hideAll(fixed)

	attr := NewAttributor(e.host, e.opt.FallbackName, e.log)
	res := Result{Geometry: g, Records: []ExportRecord{}}
	used := make(map[string]bool)
	bounds := e.host.Bounds()

	for row := range g.Rows {
		for col := range g.Cols {
			r := g.Cell(row, col)
			if !r.In(bounds) {
				e.log.Debug("cell outside image", zap.Int("row", row), zap.Int("col", col), zap.Stringer("rect", r))
				continue
			}
			if e.host.CountVisible(r) == 0 {
				e.log.Debug("empty cell", zap.Int("row", row), zap.Int("col", col))
				continue
			}

			name := attr.Contributor(r, candidates(e.host.Layers(), background, grid))
			file := e.uniqueName(saveDir, name, used)
			path := filepath.Join(saveDir, file)
			if err := e.host.Save(e.host.CopyVisible(r), path); err != nil {
				return res, fmt.Errorf("saving cell %d,%d to %s: %w", row, col, path, err)
			}
			used[file] = true
			res.Records = append(res.Records, ExportRecord{File: file, Row: row, Col: col, Rect: r, Layer: name})
			e.log.Info("cell exported", zap.Int("row", row), zap.Int("col", col), zap.String("file", file))
		}
	}

	if len(res.Records) == 0 {
		e.host.Message("No suitable cells found.")
		e.host.Message("Export completed.")
		return res, ErrNoCells
	}
	e.host.Message("Saved cells: " + strings.Join(res.Files(), ", "))
	e.host.Message("Export completed.")
	return res, nil
}

var unsafeName = strings.NewReplacer("/", "_", "\\", "_")

// uniqueName returns "<name><ext>", or "<name>_<n><ext>" with the smallest
// n >= 1 that is neither used in this run nor present in dir.
func (e *Exporter) uniqueName(dir, name string, used map[string]bool) string {
	base := unsafeName.Replace(name)
	if base == "" {
		base = e.opt.FallbackName
	}
	onDisk := 0
	taken := func(file string) bool {
		if used[file] {
			return true
		}
		_, err := os.Lstat(filepath.Join(dir, file))
		if err == nil {
			onDisk++
		}
		return err == nil
	}
	want := base + e.opt.Extension
	file := want
	for n := 1; taken(file); n++ {
		file = base + "_" + strconv.Itoa(n) + e.opt.Extension
	}
	if file != want {
		e.log.Warn("filename collision",
			zap.String("layer", name), zap.String("wanted", want), zap.String("file", file),
			zap.Int("existing_files", onDisk))
	}
	return file
}
