package layered

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// composite renders the visible layers inside r, bottom to top with
// source-over, into an image whose origin is r.Min.
func (m *Image) composite(r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for i := len(m.stack) - 1; i >= 0; i-- {
		l := m.stack[i]
		if !l.visible || l.opacity == 0 {
			continue
		}
		area := l.Bounds().Intersect(r)
		if area.Empty() {
			continue
		}
		src := l.img.Bounds().Min.Add(area.Min.Sub(l.offset))
		target := area.Sub(r.Min)
		if l.opacity >= 1 {
			draw.Draw(dst, target, l.img, src, draw.Over)
			continue
		}
		mask := image.NewUniform(color.Alpha{A: uint8(l.opacity*255 + 0.5)})
		draw.DrawMask(dst, target, l.img, src, mask, image.Point{}, draw.Over)
	}
	return dst
}
