package gridslicer

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupLines(t *testing.T) {
	tests := []struct {
		name      string
		indices   []int
		want      []GridLine
		thickness int
	}{
		{
			name:      "empty",
			indices:   nil,
			want:      nil,
			thickness: 1,
		},
		{
			name:      "single index",
			indices:   []int{7},
			want:      []GridLine{{Pos: 7, Thickness: 1}},
			thickness: 1,
		},
		{
			name:      "runs merge",
			indices:   []int{0, 1, 12, 13, 24, 25},
			want:      []GridLine{{0, 2}, {12, 2}, {24, 2}},
			thickness: 2,
		},
		{
			name:      "mean is floored",
			indices:   []int{0, 1, 10, 11, 20, 21, 22},
			want:      []GridLine{{0, 2}, {10, 2}, {20, 3}},
			thickness: 2,
		},
		{
			name:      "gap of two splits",
			indices:   []int{3, 5},
			want:      []GridLine{{3, 1}, {5, 1}},
			thickness: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, thick := GroupLines(tt.indices)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("GroupLines() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.thickness, thick)

			again, thick2 := GroupLines(tt.indices)
			assert.Equal(t, got, again, "grouping must be idempotent")
			assert.Equal(t, thick, thick2)
		})
	}
}

func TestDetectGridRGBA(t *testing.T) {
	buf := NewPixelBuffer(GridImage(3, 2, 10, 2))
	require.Equal(t, 4, buf.Bpp)

	g, err := DetectGrid(buf, DefaultOptions())
	require.NoError(t, err)

	want := Geometry{
		Rows: 3, Cols: 2,
		CellWidth: 10, CellHeight: 10,
		HThickness: 2, VThickness: 2,
		Horizontal: []GridLine{{0, 2}, {12, 2}, {24, 2}, {36, 2}},
		Vertical:   []GridLine{{0, 2}, {12, 2}, {24, 2}},
	}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Fatalf("DetectGrid() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, image.Rect(14, 26, 24, 36), g.Cell(2, 1))
}

func TestDetectGridGrayscale(t *testing.T) {
	src := GridImage(2, 4, 8, 1)
	gray := image.NewGray(src.Bounds())
	for y := range src.Bounds().Dy() {
		for x := range src.Bounds().Dx() {
			if src.NRGBAAt(x, y).A == 0 {
				gray.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	buf := NewPixelBuffer(gray)
	require.Equal(t, 1, buf.Bpp)

	g, err := DetectGrid(buf, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, g.Rows)
	assert.Equal(t, 4, g.Cols)
	assert.Equal(t, 8, g.CellWidth)
	assert.Equal(t, 8, g.CellHeight)
	assert.Equal(t, 1, g.HThickness)
}

func TestDetectGridAxisLengthAccounted(t *testing.T) {
	img := GridImage(4, 3, 7, 3)
	g, err := DetectGrid(NewPixelBuffer(img), DefaultOptions())
	require.NoError(t, err)

	covered := func(lines []GridLine) int {
		total := 0
		for i, l := range lines {
			total += l.Thickness
			if i+1 < len(lines) {
				total += lines[i+1].Pos - (l.Pos + l.Thickness)
			}
		}
		return total
	}
	assert.Equal(t, img.Bounds().Dy(), covered(g.Horizontal))
	assert.Equal(t, img.Bounds().Dx(), covered(g.Vertical))
}

func TestDetectGridLinePredicate(t *testing.T) {
	t.Run("one bright pixel voids the row", func(t *testing.T) {
		img := GridImage(2, 2, 10, 2)
		img.SetNRGBA(5, 12, color.NRGBA{60, 60, 60, 255})
		rows, _ := scanLines(NewPixelBuffer(img), DefaultOptions())
		assert.Equal(t, []int{0, 1, 13, 24, 25}, rows)
	})

	t.Run("semi transparent pixel voids the column", func(t *testing.T) {
		img := GridImage(2, 2, 10, 1)
		img.SetNRGBA(11, 3, color.NRGBA{0, 0, 0, 249})
		_, cols := scanLines(NewPixelBuffer(img), DefaultOptions())
		assert.Equal(t, []int{0, 22}, cols)
	})

	t.Run("threshold boundaries are inclusive", func(t *testing.T) {
		opt := DefaultOptions()
		assert.True(t, isLinePixel(RGBA{50, 50, 50, 250}, opt))
		assert.True(t, isLinePixel(RGBA{50, 51, 51, 255}, opt)) // mean 50.67 floors to 50
		assert.False(t, isLinePixel(RGBA{51, 51, 51, 255}, opt))
		assert.False(t, isLinePixel(RGBA{0, 0, 0, 249}, opt))
		assert.True(t, isLinePixel(Gray{50}, opt))
		assert.False(t, isLinePixel(Gray{51}, opt))
	})
}

func TestDetectGridFailures(t *testing.T) {
	cross := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	Fill(cross, image.Rect(0, 9, 20, 11), Opaque)
	Fill(cross, image.Rect(9, 0, 11, 20), Opaque)

	onlyRows := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	Fill(onlyRows, image.Rect(0, 0, 20, 1), Opaque)
	Fill(onlyRows, image.Rect(0, 10, 20, 11), Opaque)

	tests := []struct {
		name string
		buf  PixelBuffer
	}{
		{"transparent layer", NewPixelBuffer(image.NewNRGBA(image.Rect(0, 0, 16, 16)))},
		{"one group per axis", NewPixelBuffer(cross)},
		{"no vertical lines", NewPixelBuffer(onlyRows)},
		{"empty buffer", PixelBuffer{Bpp: 4}},
		{"bad bpp", PixelBuffer{W: 1, H: 1, Bpp: 3, Pix: []uint8{0, 0, 0}}},
		{"short data", PixelBuffer{W: 4, H: 4, Bpp: 4, Pix: make([]uint8, 8)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DetectGrid(tt.buf, DefaultOptions())
			assert.ErrorIs(t, err, ErrDetectionFailed)
		})
	}
}

func TestDetectGridOrigin(t *testing.T) {
	buf := NewPixelBuffer(GridImage(1, 1, 5, 1))
	buf.Origin = image.Pt(30, 40)
	g, err := DetectGrid(buf, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []GridLine{{40, 1}, {46, 1}}, g.Horizontal)
	assert.Equal(t, []GridLine{{30, 1}, {36, 1}}, g.Vertical)
	assert.Equal(t, image.Rect(31, 41, 36, 46), g.Cell(0, 0))
}

func TestNewPixelBufferSubImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(2, 2, color.NRGBA{1, 2, 3, 4})
	sub := img.SubImage(image.Rect(2, 2, 4, 4))

	buf := NewPixelBuffer(sub)
	assert.Equal(t, 2, buf.W)
	assert.Equal(t, 2, buf.H)
	assert.Equal(t, image.Pt(2, 2), buf.Origin)
	assert.Equal(t, RGBA{1, 2, 3, 4}, buf.At(0, 0))
}
