package utils

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"go.uber.org/zap"
)

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

func ParsePaletteMethod(s string) (PaletteMethod, error) {
	switch strings.ToLower(s) {
	case "", "dominantcolor", "dominant":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	}
	return 0, fmt.Errorf("unknown palette method %q (valid: dominantcolor, kmeans)", s)
}

// Colors closer than this (CIEDE2000) are merged when building a palette.
const minPaletteDistance = 0.05

type weightedColor struct {
	Col    colorful.Color
	Weight float64
}

// opaquePixels packs every pixel with non-zero alpha into a square tile,
// repeating them cyclically to fill the last row. Cell crops are mostly
// transparent and clustering must not see that.
func opaquePixels(img image.Image) (*image.NRGBA, int) {
	b := img.Bounds()
	var pix []uint8
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			pix = append(pix, c.R, c.G, c.B, 255)
		}
	}
	n := len(pix) / 4
	if n == 0 {
		return image.NewNRGBA(image.Rectangle{}), 0
	}
	side := int(math.Ceil(math.Sqrt(float64(n))))
	tile := image.NewNRGBA(image.Rect(0, 0, side, side))
	for i := 0; i < side*side; i++ {
		copy(tile.Pix[i*4:i*4+4], pix[(i%n)*4:])
	}
	return tile, n
}

// SortPaletteByBrightness orders colors from darkest to brightest by
// relative luminance.
func SortPaletteByBrightness(palette []colorful.Color) {
	luma := func(c colorful.Color) float64 {
		r, g, b := c.LinearRgb()
		return 0.2126*r + 0.7152*g + 0.0722*b
	}
	slices.SortStableFunc(palette, func(a, b colorful.Color) int {
		la, lb := luma(a), luma(b)
		switch {
		case la < lb:
			return -1
		case la > lb:
			return 1
		}
		return 0
	})
}

// pickDistinct keeps the heaviest colors, skipping any that is
// perceptually too close to one already kept.
func pickDistinct(cands []weightedColor, k int) []colorful.Color {
	slices.SortStableFunc(cands, func(a, b weightedColor) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		return 0
	})
	out := make([]colorful.Color, 0, k)
	for _, c := range cands {
		if len(out) == k {
			break
		}
		col := c.Col.Clamped()
		if slices.ContainsFunc(out, func(o colorful.Color) bool {
			return o.DistanceCIEDE2000(col) < minPaletteDistance
		}) {
			continue
		}
		out = append(out, col)
	}
	return out
}

func ExtractDominantPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}
	tile, n := opaquePixels(img)
	if n == 0 {
		return nil
	}
	found := dominantcolor.FindWeight(tile, max(8, k*4))
	cands := make([]weightedColor, 0, len(found))
	for _, c := range found {
		col, _ := colorful.MakeColor(c.RGBA)
		cands = append(cands, weightedColor{Col: col, Weight: c.Weight})
	}
	return pickDistinct(cands, k)
}

func ExtractKMeansPalette(img image.Image, k int) []colorful.Color {
	if k <= 0 {
		return nil
	}
	tile, n := opaquePixels(img)
	if n == 0 {
		return nil
	}
	dataset := make(clusters.Observations, 0, n)
	for i := range n {
		off := i * 4
		dataset = append(dataset, clusters.Coordinates{
			float64(tile.Pix[off]) / 255.0,
			float64(tile.Pix[off+1]) / 255.0,
			float64(tile.Pix[off+2]) / 255.0,
		})
	}
	cc, err := kmeans.New().Partition(dataset, min(k, len(dataset)))
	if err != nil {
		return nil
	}
	cands := make([]weightedColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Observations) == 0 || len(c.Center) < 3 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}
		cands = append(cands, weightedColor{Col: col, Weight: float64(len(c.Observations))})
	}
	return pickDistinct(cands, k)
}

// ExtractPalette returns up to k colors of the opaque part of img, darkest
// first. K-means falls back to dominantcolor when it yields nothing.
func ExtractPalette(img image.Image, k int, method PaletteMethod, log *zap.Logger) []colorful.Color {
	var p []colorful.Color
	if method == PaletteMethodKMeans {
		p = ExtractKMeansPalette(img, k)
		if len(p) == 0 && log != nil {
			log.Warn("kmeans returned empty palette, falling back to dominantcolor")
		}
	}
	if len(p) == 0 {
		p = ExtractDominantPalette(img, k)
	}
	SortPaletteByBrightness(p)
	return p
}

func HexPalette(palette []colorful.Color) []string {
	out := make([]string, len(palette))
	for i, c := range palette {
		out[i] = c.Hex()
	}
	return out
}

func ReadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
