package gridslicer

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Pixel is one sample of a PixelBuffer. It is either Gray or RGBA.
type Pixel interface {
	// Intensity is the raw value for Gray and the floored mean of R, G, B for RGBA.
	Intensity() int
	// Alpha reports the alpha channel, ok is false when the pixel has none.
	Alpha() (a uint8, ok bool)
}

// Gray is a single channel sample.
type Gray struct{ Y uint8 }

func (p Gray) Intensity() int       { return int(p.Y) }
func (p Gray) Alpha() (uint8, bool) { return 0, false }

// RGBA is a non-premultiplied 4 channel sample.
type RGBA struct{ R, G, B, A uint8 }

func (p RGBA) Intensity() int       { return (int(p.R) + int(p.G) + int(p.B)) / 3 }
func (p RGBA) Alpha() (uint8, bool) { return p.A, true }

// PixelBuffer is a raw layer dump. Bpp is 1 for grayscale and 4 for RGBA.
// Origin is the position of the buffer's top-left pixel in image space.
type PixelBuffer struct {
	W, H   int
	Bpp    int
	Pix    []uint8 // len = W*H*Bpp
	Origin image.Point
}

func pixelOffset(w, bpp, x, y int) int {
	return (y*w + x) * bpp
}

// At returns the pixel at buffer-local coordinates.
func (b PixelBuffer) At(x, y int) Pixel {
	off := pixelOffset(b.W, b.Bpp, x, y)
	if b.Bpp == 1 {
		return Gray{Y: b.Pix[off]}
	}
	return RGBA{R: b.Pix[off], G: b.Pix[off+1], B: b.Pix[off+2], A: b.Pix[off+3]}
}

func (b PixelBuffer) validate() error {
	if b.W < 0 || b.H < 0 {
		return fmt.Errorf("invalid buffer size %dx%d", b.W, b.H)
	}
	if b.Bpp != 1 && b.Bpp != 4 {
		return fmt.Errorf("unsupported bytes per pixel: %d", b.Bpp)
	}
	if len(b.Pix) < b.W*b.H*b.Bpp {
		return fmt.Errorf("short pixel data: have %d bytes, need %d", len(b.Pix), b.W*b.H*b.Bpp)
	}
	return nil
}

// NewPixelBuffer dumps img. *image.Gray keeps a single channel, every other
// model is converted to non-premultiplied RGBA.
func NewPixelBuffer(img image.Image) PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if g, ok := img.(*image.Gray); ok {
		pix := make([]uint8, w*h)
		for y := range h {
			row := g.Pix[g.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			copy(pix[y*w:(y+1)*w], row[:w])
		}
		return PixelBuffer{W: w, H: h, Bpp: 1, Pix: pix, Origin: bounds.Min}
	}
	nrgba := imaging.Clone(img)
	pix := make([]uint8, w*h*4)
	for y := range h {
		copy(pix[y*w*4:(y+1)*w*4], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+w*4])
	}
	return PixelBuffer{W: w, H: h, Bpp: 4, Pix: pix, Origin: bounds.Min}
}
