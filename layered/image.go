package layered

import (
	"fmt"
	"image"
	"slices"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/setanarut/gridslicer"
)

// Layer is one raster in the stack. Its content is placed at Offset in
// image space and composited with Opacity when visible.
type Layer struct {
	name    string
	img     image.Image
	offset  image.Point
	opacity float64
	visible bool
}

func (l *Layer) Name() string        { return l.name }
func (l *Layer) Visible() bool       { return l.visible }
func (l *Layer) SetVisible(v bool)   { l.visible = v }
func (l *Layer) Opacity() float64    { return l.opacity }
func (l *Layer) Offset() image.Point { return l.offset }
func (l *Layer) Image() image.Image  { return l.img }

// Bounds is the layer's extent in image space.
func (l *Layer) Bounds() image.Rectangle {
	b := l.img.Bounds()
	return b.Sub(b.Min).Add(l.offset)
}

type LayerOption func(*Layer)

func WithOffset(x, y int) LayerOption { return func(l *Layer) { l.offset = image.Pt(x, y) } }

func WithOpacity(o float64) LayerOption {
	return func(l *Layer) { l.opacity = max(0, min(1, o)) }
}

func Hidden() LayerOption { return func(l *Layer) { l.visible = false } }

// Image is an in-memory layered composition. It implements gridslicer.Host.
type Image struct {
	width, height int
	stack         []*Layer // top first
	messages      []string
	log           *zap.Logger
}

func New(width, height int) *Image {
	return &Image{width: width, height: height, log: zap.NewNop()}
}

func (m *Image) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	m.log = log
}

// Add puts a layer below the existing ones and returns it.
func (m *Image) Add(name string, img image.Image, opts ...LayerOption) *Layer {
	l := &Layer{name: name, img: img, opacity: 1, visible: true}
	for _, o := range opts {
		o(l)
	}
	m.stack = append(m.stack, l)
	return l
}

// Stack returns the layers top to bottom.
func (m *Image) Stack() []*Layer { return slices.Clone(m.stack) }

// Messages returns the status lines emitted so far.
func (m *Image) Messages() []string { return slices.Clone(m.messages) }

func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

func (m *Image) Layers() []gridslicer.Layer {
	out := make([]gridslicer.Layer, len(m.stack))
	for i, l := range m.stack {
		out[i] = l
	}
	return out
}

func (m *Image) Pixels(l gridslicer.Layer) (gridslicer.PixelBuffer, error) {
	ll, ok := l.(*Layer)
	if !ok || !slices.Contains(m.stack, ll) {
		return gridslicer.PixelBuffer{}, fmt.Errorf("layer %q does not belong to this image", l.Name())
	}
	buf := gridslicer.NewPixelBuffer(ll.img)
	buf.Origin = ll.offset
	return buf, nil
}

func (m *Image) CountVisible(r image.Rectangle) int {
	comp := m.composite(r)
	n := 0
	for i := 3; i < len(comp.Pix); i += 4 {
		if comp.Pix[i] != 0 {
			n++
		}
	}
	m.log.Debug("count visible", zap.Stringer("rect", r), zap.Int("pixels", n))
	return n
}

func (m *Image) CopyVisible(r image.Rectangle) image.Image {
	return imaging.Clone(m.composite(r))
}

// Flatten composites every visible layer over the full image.
func (m *Image) Flatten() *image.NRGBA {
	return m.CopyVisible(m.Bounds()).(*image.NRGBA)
}

// Save writes img as PNG (or whatever format the extension names).
func (m *Image) Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return err
	}
	m.log.Debug("saved", zap.String("path", path))
	return nil
}

func (m *Image) Message(msg string) {
	m.messages = append(m.messages, msg)
	m.log.Info(msg)
}
