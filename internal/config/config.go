// Package config loads gridslicer run settings from YAML or JSONC files.
//
// Every field is optional. Unset fields keep the defaults of
// gridslicer.DefaultOptions; command line flags override file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/setanarut/gridslicer"
	"github.com/setanarut/gridslicer/utils"
)

type Config struct {
	GridLayer       string `yaml:"grid_layer" json:"grid_layer"`
	BackgroundLayer string `yaml:"background_layer" json:"background_layer"`

	// Pointers so an explicit 0 is distinguishable from "not set".
	IntensityThreshold *int `yaml:"intensity_threshold" json:"intensity_threshold"`
	AlphaThreshold     *int `yaml:"alpha_threshold" json:"alpha_threshold"`

	FallbackName string `yaml:"fallback_name" json:"fallback_name"`

	// Manifest is the manifest file name inside the save directory.
	// Empty disables the manifest.
	Manifest      string `yaml:"manifest" json:"manifest"`
	PaletteColors int    `yaml:"palette_colors" json:"palette_colors"`
	PaletteMethod string `yaml:"palette_method" json:"palette_method"`
}

// Load reads path. Files ending in .json or .jsonc may carry comments and
// trailing commas; everything else is parsed as YAML.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var c Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), &c)
	default:
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.IntensityThreshold != nil && (*c.IntensityThreshold < 0 || *c.IntensityThreshold > 255) {
		return fmt.Errorf("intensity_threshold %d out of range 0-255", *c.IntensityThreshold)
	}
	if c.AlphaThreshold != nil && (*c.AlphaThreshold < 0 || *c.AlphaThreshold > 255) {
		return fmt.Errorf("alpha_threshold %d out of range 0-255", *c.AlphaThreshold)
	}
	if c.PaletteColors < 0 {
		return fmt.Errorf("palette_colors must not be negative")
	}
	if _, err := utils.ParsePaletteMethod(c.PaletteMethod); err != nil {
		return err
	}
	if c.Manifest != "" && filepath.Base(c.Manifest) != c.Manifest {
		return fmt.Errorf("manifest must be a file name, got %q", c.Manifest)
	}
	return nil
}

// Options converts c to slicer options on top of the defaults.
func (c Config) Options() gridslicer.Options {
	opt := gridslicer.DefaultOptions()
	if c.GridLayer != "" {
		opt.GridLayer = c.GridLayer
	}
	if c.BackgroundLayer != "" {
		opt.BackgroundLayer = c.BackgroundLayer
	}
	if c.IntensityThreshold != nil {
		opt.IntensityThreshold = *c.IntensityThreshold
	}
	if c.AlphaThreshold != nil {
		opt.AlphaThreshold = *c.AlphaThreshold
	}
	if c.FallbackName != "" {
		opt.FallbackName = c.FallbackName
	}
	return opt
}

// Palette returns the manifest palette settings. The method was checked by
// Validate; an unknown value falls back to dominantcolor.
func (c Config) Palette() gridslicer.PaletteOptions {
	m, _ := utils.ParsePaletteMethod(c.PaletteMethod)
	return gridslicer.PaletteOptions{Colors: c.PaletteColors, Method: m}
}
