package gridslicer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/setanarut/gridslicer/utils"
)

// Manifest records what an export run wrote.
type Manifest struct {
	RunID    string         `json:"run_id" yaml:"run_id"`
	Created  time.Time      `json:"created" yaml:"created"`
	Source   string         `json:"source,omitempty" yaml:"source,omitempty"`
	Geometry Geometry       `json:"grid" yaml:"grid"`
	Cells    []ManifestCell `json:"cells" yaml:"cells"`
}

type ManifestCell struct {
	ExportRecord `yaml:",inline"`
	X            int      `json:"x" yaml:"x"`
	Y            int      `json:"y" yaml:"y"`
	Width        int      `json:"width" yaml:"width"`
	Height       int      `json:"height" yaml:"height"`
	Palette      []string `json:"palette,omitempty" yaml:"palette,omitempty"`
}

type PaletteOptions struct {
	Colors int // 0 disables palette extraction
	Method utils.PaletteMethod
}

// NewManifest describes res. When palettes are requested each written file
// is read back from dir and its opaque pixels are clustered.
func NewManifest(source, dir string, res Result, po PaletteOptions, log *zap.Logger) (Manifest, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m := Manifest{
		RunID:    uuid.NewString(),
		Created:  time.Now().UTC(),
		Source:   source,
		Geometry: res.Geometry,
		Cells:    make([]ManifestCell, 0, len(res.Records)),
	}
	for _, rec := range res.Records {
		c := ManifestCell{
			ExportRecord: rec,
			X:            rec.Rect.Min.X,
			Y:            rec.Rect.Min.Y,
			Width:        rec.Rect.Dx(),
			Height:       rec.Rect.Dy(),
		}
		if po.Colors > 0 {
			img, err := utils.ReadImage(filepath.Join(dir, rec.File))
			if err != nil {
				return Manifest{}, err
			}
			c.Palette = utils.HexPalette(utils.ExtractPalette(img, po.Colors, po.Method, log))
		}
		m.Cells = append(m.Cells, c)
	}
	return m, nil
}

// Write stores the manifest as JSON when path ends in .json, YAML otherwise.
func (m Manifest) Write(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(m, "", "  ")
	} else {
		data, err = yaml.Marshal(m)
	}
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
