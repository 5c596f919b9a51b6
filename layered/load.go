package layered

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"gopkg.in/yaml.v3"
)

// Open loads a layered document. The format follows the extension:
// .yaml/.yml stack documents, .ora OpenRaster archives, and any single
// raster imaging can decode, which becomes a one-layer image.
func Open(path string) (*Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadStack(path)
	case ".ora":
		return LoadORA(path)
	default:
		img, err := imaging.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		b := img.Bounds()
		m := New(b.Dx(), b.Dy())
		m.Add(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), img)
		return m, nil
	}
}

// StackDocument describes a composition as a list of raster files.
// Layers are listed top first; files are relative to the document.
type StackDocument struct {
	Width  int          `yaml:"width"`
	Height int          `yaml:"height"`
	Layers []StackLayer `yaml:"layers"`
}

type StackLayer struct {
	Name    string   `yaml:"name"`
	File    string   `yaml:"file"`
	X       int      `yaml:"x"`
	Y       int      `yaml:"y"`
	Opacity *float64 `yaml:"opacity,omitempty"`
	Visible *bool    `yaml:"visible,omitempty"`
}

func LoadStack(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc StackDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc.Width <= 0 || doc.Height <= 0 {
		return nil, fmt.Errorf("%s: invalid size %dx%d", path, doc.Width, doc.Height)
	}
	if len(doc.Layers) == 0 {
		return nil, fmt.Errorf("%s: no layers", path)
	}

	dir := filepath.Dir(path)
	m := New(doc.Width, doc.Height)
	for i, sl := range doc.Layers {
		if sl.File == "" {
			return nil, fmt.Errorf("%s: layer %d has no file", path, i)
		}
		file := sl.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		img, err := imaging.Open(file)
		if err != nil {
			return nil, fmt.Errorf("%s: layer %q: %w", path, sl.Name, err)
		}
		name := sl.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}
		opts := []LayerOption{WithOffset(sl.X, sl.Y)}
		if sl.Opacity != nil {
			opts = append(opts, WithOpacity(*sl.Opacity))
		}
		if sl.Visible != nil && !*sl.Visible {
			opts = append(opts, Hidden())
		}
		m.Add(name, img, opts...)
	}
	return m, nil
}

type oraImage struct {
	W     int      `xml:"w,attr"`
	H     int      `xml:"h,attr"`
	Stack oraStack `xml:"stack"`
}

type oraStack struct {
	Name     string     `xml:"name,attr"`
	Children []oraEntry `xml:",any"`
}

// oraEntry is either a <layer> or a nested <stack>.
type oraEntry struct {
	XMLName    xml.Name
	Name       string     `xml:"name,attr"`
	Src        string     `xml:"src,attr"`
	X          int        `xml:"x,attr"`
	Y          int        `xml:"y,attr"`
	Opacity    *float64   `xml:"opacity,attr"`
	Visibility string     `xml:"visibility,attr"`
	Children   []oraEntry `xml:",any"`
}

// LoadORA reads an OpenRaster archive. Nested stacks are flattened in
// document order. Offsets add up, opacities multiply and a hidden stack
// hides its layers.
func LoadORA(path string) (*Image, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var doc oraImage
	if err := decodeZipXML(&zr.Reader, "stack.xml", &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.W <= 0 || doc.H <= 0 {
		return nil, fmt.Errorf("%s: invalid size %dx%d", path, doc.W, doc.H)
	}

	m := New(doc.W, doc.H)
	var walk func(entries []oraEntry, off image.Point, opacity float64, hidden bool) error
	walk = func(entries []oraEntry, off image.Point, opacity float64, hidden bool) error {
		for _, e := range entries {
			pos := off.Add(image.Pt(e.X, e.Y))
			h := hidden || e.Visibility == "hidden"
			o := opacity
			if e.Opacity != nil {
				o *= *e.Opacity
			}
			switch e.XMLName.Local {
			case "stack":
				if err := walk(e.Children, pos, o, h); err != nil {
					return err
				}
			case "layer":
				img, err := decodeZipImage(&zr.Reader, e.Src)
				if err != nil {
					return fmt.Errorf("layer %q: %w", e.Name, err)
				}
				opts := []LayerOption{WithOffset(pos.X, pos.Y), WithOpacity(o)}
				if h {
					opts = append(opts, Hidden())
				}
				m.Add(e.Name, img, opts...)
			}
		}
		return nil
	}
	if err := walk(doc.Stack.Children, image.Point{}, 1, false); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(m.stack) == 0 {
		return nil, fmt.Errorf("%s: no layers", path)
	}
	return m, nil
}

func decodeZipXML(zr *zip.Reader, name string, v any) error {
	f, err := zr.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return xml.NewDecoder(f).Decode(v)
}

func decodeZipImage(zr *zip.Reader, name string) (image.Image, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return imaging.Decode(f)
}
