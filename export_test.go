package gridslicer

import (
	"image"
	"image/color"
)

// Test fixtures shared with package gridslicer_test.

var Opaque = color.NRGBA{A: 255}

func Fill(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

// GridImage draws rows x cols cells of size cell separated by opaque black
// lines of the given thickness. Lines start at 0 and the image ends with a
// line, so it is cols*(cell+thick)+thick wide.
func GridImage(rows, cols, cell, thick int) *image.NRGBA {
	w := cols*(cell+thick) + thick
	h := rows*(cell+thick) + thick
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for r := 0; r <= rows; r++ {
		Fill(img, image.Rect(0, r*(cell+thick), w, r*(cell+thick)+thick), Opaque)
	}
	for c := 0; c <= cols; c++ {
		Fill(img, image.Rect(c*(cell+thick), 0, c*(cell+thick)+thick, h), Opaque)
	}
	return img
}

// CellInside returns the interior of cell (row, col) of a GridImage, shrunk
// by pad pixels on every side.
func CellInside(row, col, cell, thick, pad int) image.Rectangle {
	x := col*(cell+thick) + thick
	y := row*(cell+thick) + thick
	return image.Rect(x+pad, y+pad, x+cell-pad, y+cell-pad)
}
