package gridslicer

import (
	"image"
	"strings"
)

// Layer is a handle into the host's layer stack. Names need not be unique.
type Layer interface {
	Name() string
	Visible() bool
	SetVisible(bool)
}

// Host is the image environment the slicer runs against. It owns layer
// storage, compositing and file output.
type Host interface {
	Bounds() image.Rectangle
	// Layers returns the stack top to bottom.
	Layers() []Layer
	// Pixels dumps a layer's own pixels.
	Pixels(l Layer) (PixelBuffer, error)
	// CountVisible composites the currently visible layers, crops to r and
	// returns the number of non-transparent pixels.
	CountVisible(r image.Rectangle) int
	// CopyVisible materialises the visible composite cropped to r.
	CopyVisible(r image.Rectangle) image.Image
	// Save writes img losslessly to path.
	Save(img image.Image, path string) error
	// Message shows a status line to the user.
	Message(msg string)
}

// FindLayer returns the first layer, top to bottom, whose name contains id.
func FindLayer(layers []Layer, id string) Layer {
	if id == "" {
		return nil
	}
	for _, l := range layers {
		if strings.Contains(l.Name(), id) {
			return l
		}
	}
	return nil
}

// visibility is a snapshot of layer visibility flags.
type visibility struct {
	layers []Layer
	flags  []bool
}

func snapshotVisibility(layers []Layer) visibility {
	v := visibility{layers: layers, flags: make([]bool, len(layers))}
	for i, l := range layers {
		v.flags[i] = l.Visible()
	}
	return v
}

// restore puts every flag back. Meant to be deferred right after the snapshot.
func (v visibility) restore() {
	for i, l := range v.layers {
		if l.Visible() != v.flags[i] {
			l.SetVisible(v.flags[i])
		}
	}
}

func hideAll(layers []Layer) {
	for _, l := range layers {
		if l.Visible() {
			l.SetVisible(false)
		}
	}
}

// candidates returns visible layers other than skip, keeping stack order.
func candidates(layers []Layer, skip ...Layer) []Layer {
	var out []Layer
outer:
	for _, l := range layers {
		if !l.Visible() {
			continue
		}
		for _, s := range skip {
			if s != nil && l == s {
				continue outer
			}
		}
		out = append(out, l)
	}
	return out
}
