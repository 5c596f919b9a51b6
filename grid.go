package gridslicer

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrGridLayerNotFound = errors.New("grid layer not found")
	ErrDetectionFailed   = errors.New("grid detection failed")
)

// GridLine is one logical separator: the first raw index of a run of
// consecutive qualifying scan lines and the length of the run.
type GridLine struct {
	Pos       int `json:"pos" yaml:"pos"`
	Thickness int `json:"thickness" yaml:"thickness"`
}

// Geometry is the grid inferred from the grid layer. It is immutable once
// detected. Line positions are in image space.
type Geometry struct {
	Rows       int        `json:"rows" yaml:"rows"`
	Cols       int        `json:"cols" yaml:"cols"`
	CellWidth  int        `json:"cell_width" yaml:"cell_width"`
	CellHeight int        `json:"cell_height" yaml:"cell_height"`
	HThickness int        `json:"horizontal_thickness" yaml:"horizontal_thickness"`
	VThickness int        `json:"vertical_thickness" yaml:"vertical_thickness"`
	Horizontal []GridLine `json:"horizontal" yaml:"horizontal"`
	Vertical   []GridLine `json:"vertical" yaml:"vertical"`
}

// Cell returns the rectangle of cell (row, col). The cell starts one average
// line thickness past its top-left separators.
func (g Geometry) Cell(row, col int) image.Rectangle {
	x := g.Vertical[col].Pos + g.VThickness
	y := g.Horizontal[row].Pos + g.HThickness
	return image.Rect(x, y, x+g.CellWidth, y+g.CellHeight)
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d cells of %dx%d px (line thickness h=%d v=%d)",
		g.Rows, g.Cols, g.CellWidth, g.CellHeight, g.HThickness, g.VThickness)
}

// DetectGrid infers the grid from the grid layer's pixels.
//
// A row (column) is a line only if every pixel on it is dark enough and, when
// the buffer has alpha, opaque enough. One failing pixel voids the whole row,
// so anti-aliased artwork touching the grid cannot produce phantom lines.
// Consecutive line indices are merged into one GridLine.
func DetectGrid(buf PixelBuffer, opt Options) (Geometry, error) {
	if err := buf.validate(); err != nil {
		return Geometry{}, fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}
	rows, cols := scanLines(buf, opt)

	horizontal, hThick := GroupLines(rows)
	vertical, vThick := GroupLines(cols)
	if len(horizontal) < 2 || len(vertical) < 2 {
		return Geometry{}, fmt.Errorf("%w: found %d horizontal and %d vertical lines, need at least 2 of each",
			ErrDetectionFailed, len(horizontal), len(vertical))
	}

	g := Geometry{
		Rows:       len(horizontal) - 1,
		Cols:       len(vertical) - 1,
		CellHeight: horizontal[1].Pos - horizontal[0].Pos - hThick,
		CellWidth:  vertical[1].Pos - vertical[0].Pos - vThick,
		HThickness: hThick,
		VThickness: vThick,
		Horizontal: horizontal,
		Vertical:   vertical,
	}
	if g.CellWidth <= 0 || g.CellHeight <= 0 {
		return Geometry{}, fmt.Errorf("%w: non-positive cell size %dx%d", ErrDetectionFailed, g.CellWidth, g.CellHeight)
	}
	for i := range g.Horizontal {
		g.Horizontal[i].Pos += buf.Origin.Y
	}
	for i := range g.Vertical {
		g.Vertical[i].Pos += buf.Origin.X
	}
	return g, nil
}

func isLinePixel(p Pixel, opt Options) bool {
	if p.Intensity() > opt.IntensityThreshold {
		return false
	}
	if a, ok := p.Alpha(); ok && int(a) < opt.AlphaThreshold {
		return false
	}
	return true
}

// scanLines returns the qualifying row indices and column indices in
// increasing order.
func scanLines(buf PixelBuffer, opt Options) (rows, cols []int) {
	for y := range buf.H {
		line := buf.W > 0
		for x := range buf.W {
			if !isLinePixel(buf.At(x, y), opt) {
				line = false
				break
			}
		}
		if line {
			rows = append(rows, y)
		}
	}
	for x := range buf.W {
		line := buf.H > 0
		for y := range buf.H {
			if !isLinePixel(buf.At(x, y), opt) {
				line = false
				break
			}
		}
		if line {
			cols = append(cols, x)
		}
	}
	return rows, cols
}

// GroupLines merges runs of consecutive indices (difference exactly 1) into
// GridLines and returns them with the floored mean thickness. With no input
// the thickness is 1.
func GroupLines(indices []int) ([]GridLine, int) {
	if len(indices) == 0 {
		return nil, 1
	}
	var lines []GridLine
	cur := GridLine{Pos: indices[0], Thickness: 1}
	for i := 1; i < len(indices); i++ {
		if indices[i] == indices[i-1]+1 {
			cur.Thickness++
			continue
		}
		lines = append(lines, cur)
		cur = GridLine{Pos: indices[i], Thickness: 1}
	}
	lines = append(lines, cur)

	thicknesses := make([]float64, len(lines))
	for i, l := range lines {
		thicknesses[i] = float64(l.Thickness)
	}
	return lines, int(math.Floor(stat.Mean(thicknesses, nil)))
}
