// Package gridslicer cuts a layered raster into per-cell images.
//
// The grid is read from the pixels of a dedicated grid layer, and every
// non-empty cell is written to its own file named after the layer that
// contributes its visible pixels. Layer storage, compositing and file output
// belong to a Host; package layered provides an in-memory one.
package gridslicer
