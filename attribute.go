package gridslicer

import (
	"image"
	"slices"

	"go.uber.org/zap"
)

// Attributor names the layer responsible for the visible pixels of a region,
// using nothing but visibility toggles and the host's pixel count.
type Attributor struct {
	host     Host
	fallback string
	log      *zap.Logger
}

func NewAttributor(host Host, fallback string, log *zap.Logger) *Attributor {
	if fallback == "" {
		fallback = DefaultOptions().FallbackName
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Attributor{host: host, fallback: fallback, log: log}
}

// Contributor returns the name of the topmost candidate that makes r
// non-empty. cands must be ordered top to bottom.
//
// Every layer of the host is hidden first, then each candidate is tried on
// its own. If none is visible alone, candidates are revealed cumulatively
// and the one whose addition first yields pixels is reported; in a true
// multi-layer blend that is the layer that triggered visibility, not
// necessarily the one owning the pixels. The fallback name is returned when
// nothing shows. Visibility of all layers is restored before returning.
func (a *Attributor) Contributor(r image.Rectangle, cands []Layer) string {
	layers := slices.Concat(a.host.Layers(), cands)
	snap := snapshotVisibility(layers)
	defer snap.restore()

	hideAll(layers)

	for _, l := range cands {
		l.SetVisible(true)
		n := a.host.CountVisible(r)
		a.log.Debug("solo query", zap.String("layer", l.Name()), zap.Stringer("rect", r), zap.Int("pixels", n))
		if n > 0 {
			return l.Name()
		}
		l.SetVisible(false)
	}

	for _, l := range cands {
		l.SetVisible(true)
		n := a.host.CountVisible(r)
		a.log.Debug("cumulative query", zap.String("layer", l.Name()), zap.Stringer("rect", r), zap.Int("pixels", n))
		if n > 0 {
			return l.Name()
		}
	}

	a.log.Debug("no contributing layer", zap.Stringer("rect", r), zap.Int("candidates", len(cands)))
	return a.fallback
}
