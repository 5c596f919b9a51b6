package gridslicer_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/setanarut/gridslicer"
	"github.com/setanarut/gridslicer/utils"
)

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	res, err := gridslicer.NewExporter(sheet(), gridslicer.DefaultOptions(), nil).Export(dir)
	require.NoError(t, err)

	m, err := gridslicer.NewManifest("sheet.ora", dir, res, gridslicer.PaletteOptions{
		Colors: 2,
		Method: utils.PaletteMethodDominantColor,
	}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, m.RunID)
	assert.Equal(t, res.Geometry, m.Geometry)
	require.Len(t, m.Cells, 4)

	hero := m.Cells[3]
	assert.Equal(t, "Hero.png", hero.File)
	assert.Equal(t, [4]int{2, 26, 10, 10}, [4]int{hero.X, hero.Y, hero.Width, hero.Height})
	require.NotEmpty(t, hero.Palette)
	got, err := colorful.Hex(hero.Palette[0])
	require.NoError(t, err)
	want, _ := colorful.MakeColor(blue)
	assert.Less(t, got.DistanceCIEDE2000(want), 0.05)

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "manifest.yaml")
		require.NoError(t, m.Write(path))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var back gridslicer.Manifest
		require.NoError(t, yaml.Unmarshal(data, &back))
		assert.Equal(t, m.RunID, back.RunID)
		assert.Equal(t, "Sprite A_1.png", back.Cells[2].File)
		assert.Equal(t, 1, back.Cells[2].Row)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "manifest.json")
		require.NoError(t, m.Write(path))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Equal(t, m.RunID, raw["run_id"])
		assert.Len(t, raw["cells"], 4)
	})
}

func TestManifestWithoutPalette(t *testing.T) {
	res := gridslicer.Result{Records: []gridslicer.ExportRecord{{File: "gone.png", Layer: "X"}}}
	m, err := gridslicer.NewManifest("", t.TempDir(), res, gridslicer.PaletteOptions{}, nil)
	require.NoError(t, err)
	require.Len(t, m.Cells, 1)
	assert.Nil(t, m.Cells[0].Palette)

	_, err = gridslicer.NewManifest("", t.TempDir(), res, gridslicer.PaletteOptions{Colors: 1}, nil)
	assert.Error(t, err, "palette extraction reads the written file")
}
