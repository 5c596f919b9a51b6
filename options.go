package gridslicer

type Options struct {
	// Substring identifying the grid layer. First match top to bottom wins.
	GridLayer string
	// Substring identifying the background layer. The layer is optional.
	BackgroundLayer string
	// A grid line pixel must have intensity <= IntensityThreshold.
	// Intensity is the raw value for grayscale and mean(R,G,B) otherwise.
	IntensityThreshold int
	// A grid line pixel with an alpha channel must have alpha >= AlphaThreshold.
	// Lower it to accept semi transparent grids, at the risk of matching
	// anti-aliased artwork next to the lines.
	AlphaThreshold int
	// Name reported when no candidate layer makes a cell non-empty.
	FallbackName string
	// Extension appended to contributor names, including the dot.
	Extension string
}

func DefaultOptions() Options {
	return Options{
		GridLayer:          "Grid",
		BackgroundLayer:    "Background",
		IntensityThreshold: 50,
		AlphaThreshold:     250,
		FallbackName:       "UnnamedLayer",
		Extension:          ".png",
	}
}

// withDefaults fills empty names from DefaultOptions. Thresholds are taken
// as given since zero is a meaningful value for both.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.GridLayer == "" {
		o.GridLayer = def.GridLayer
	}
	if o.BackgroundLayer == "" {
		o.BackgroundLayer = def.BackgroundLayer
	}
	if o.FallbackName == "" {
		o.FallbackName = def.FallbackName
	}
	if o.Extension == "" {
		o.Extension = def.Extension
	}
	return o
}
