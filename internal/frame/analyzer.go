package frame

import (
	"math"

	"github.com/ru-wallace/triton/internal/mask"
	"github.com/ru-wallace/triton/internal/photometry"
	"gonum.org/v1/gonum/stat"
)

// RegionStats is the per-channel mean and saturated-pixel fraction for one
// masked region (§3's DerivedStats inner/outer/corner regions).
type RegionStats struct {
	MeanPerChannel     []float64 // one entry for mono, three (R, G, B) for RGB
	SaturationFraction float64
}

// DerivedStats is the lazily-computed, cached derivation of a Frame (§3).
// Recomputing it is a pure function of the raw frame plus the mask
// parameters and thresholds captured at construction — see Analyzer.Stats.
type DerivedStats struct {
	Inner, Outer, Corner RegionStats
	RingSaturation       []float64 // one per concentric annulus, inner radius outward
	RelativeLuminance    float64
	AbsoluteLuminance    float64
	CorrectSaturation    bool
	DemosaicMethod       DemosaicMethod // zero value for mono frames, which need no demosaic
}

// AnalyzerConfig captures the mask parameters and thresholds an Analyzer
// pins at construction time; DerivedStats is a pure function of these plus
// the raw Frame (§3 invariant).
type AnalyzerConfig struct {
	Threshold      byte // saturation threshold, default 250
	Target         float64
	Margin         float64
	MaskParams     *mask.Params // nil selects mask.DefaultParams for the frame's analysis-plane size
	DemosaicMethod DemosaicMethod
}

// DefaultAnalyzerConfig returns the §4.2/§4.3 defaults: threshold 250,
// target saturation 0.01, margin 0.005, average-greens demosaic.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Threshold:      250,
		Target:         0.01,
		Margin:         0.005,
		DemosaicMethod: AverageGreens,
	}
}

// Analyzer lazily computes and caches one Frame's DerivedStats. It is not
// safe for concurrent use from multiple goroutines without external
// synchronization; callers own at most one Analyzer per Frame, matching the
// single-owner SessionRecorder pipeline (§4.4).
type Analyzer struct {
	frame *Frame
	cfg   AnalyzerConfig

	plan  *mask.Plan
	rgb   *RGBImage
	stats *DerivedStats
}

// NewAnalyzer wraps a Frame for lazy analysis using cfg.
func NewAnalyzer(f *Frame, cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{frame: f, cfg: cfg}
}

// planeSize returns the pixel dimensions of the plane DerivedStats are
// computed over: the raw frame size for mono, or the half-resolution
// demosaiced size for Bayer.
func (a *Analyzer) planeSize() (int, int) {
	if a.frame.Format == FormatBayerRGGB8 {
		return a.frame.Width / 2, a.frame.Height / 2
	}
	return a.frame.Width, a.frame.Height
}

func (a *Analyzer) ensurePlan() *mask.Plan {
	if a.plan != nil {
		return a.plan
	}
	w, h := a.planeSize()
	params := a.cfg.MaskParams
	if params == nil {
		d := mask.DefaultParams(w, h)
		params = &d
	}
	a.plan = mask.Resolve(w, h, *params)
	return a.plan
}

func (a *Analyzer) ensureRGB() (*RGBImage, error) {
	if a.frame.Format != FormatBayerRGGB8 {
		return nil, nil
	}
	if a.rgb != nil {
		return a.rgb, nil
	}
	rgb, err := Demosaic(a.frame, a.cfg.DemosaicMethod)
	if err != nil {
		return nil, err
	}
	a.rgb = rgb
	return rgb, nil
}

// Stats computes (on first call) and returns the Frame's DerivedStats.
// Subsequent calls return the cached value without recomputing, per §3's
// "lazily computed and cached on first access".
func (a *Analyzer) Stats() (*DerivedStats, error) {
	if a.stats != nil {
		return a.stats, nil
	}
	plan := a.ensurePlan()

	var inner, outer, corner RegionStats
	var relLum float64
	var method DemosaicMethod

	if a.frame.Format == FormatBayerRGGB8 {
		rgb, err := a.ensureRGB()
		if err != nil {
			return nil, err
		}
		method = a.cfg.DemosaicMethod
		inner = regionStatsRGB(rgb, plan.ActiveCircle, a.cfg.Threshold)
		outer = regionStatsRGB(rgb, plan.OuterAnnulus, a.cfg.Threshold)
		corner = regionStatsRGB(rgb, plan.Corners, a.cfg.Threshold)
		relLum = photometry.RelativeLuminanceRGB(
			inner.MeanPerChannel[0]/255,
			inner.MeanPerChannel[1]/255,
			inner.MeanPerChannel[2]/255,
		)
	} else {
		inner = regionStatsMono(a.frame.Pix, a.frame.Width, plan.ActiveCircle, a.cfg.Threshold)
		outer = regionStatsMono(a.frame.Pix, a.frame.Width, plan.OuterAnnulus, a.cfg.Threshold)
		corner = regionStatsMono(a.frame.Pix, a.frame.Width, plan.Corners, a.cfg.Threshold)
		relLum = photometry.RelativeLuminanceMono(inner.MeanPerChannel[0])
	}

	rings := make([]float64, len(plan.Rings))
	for i, ring := range plan.Rings {
		if a.frame.Format == FormatBayerRGGB8 {
			rings[i] = regionStatsRGB(a.rgb, ring, a.cfg.Threshold).SaturationFraction
		} else {
			rings[i] = regionStatsMono(a.frame.Pix, a.frame.Width, ring, a.cfg.Threshold).SaturationFraction
		}
	}

	isoSpeed := a.frame.Gain.AsISOSpeed()
	absLum := photometry.AbsoluteLuminance(relLum, a.frame.Aperture, a.frame.IntegrationTime.Seconds(), isoSpeed)
	correct := math.Abs(inner.SaturationFraction-a.cfg.Target) <= a.cfg.Margin

	a.stats = &DerivedStats{
		Inner:             inner,
		Outer:             outer,
		Corner:            corner,
		RingSaturation:    rings,
		RelativeLuminance: relLum,
		AbsoluteLuminance: absLum,
		CorrectSaturation: correct,
		DemosaicMethod:    method,
	}
	return a.stats, nil
}

func regionStatsMono(pix []byte, stride int, m *mask.Mask, threshold byte) RegionStats {
	var vals []float64
	satCount, total := 0, 0
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.At(x, y) {
				continue
			}
			v := pix[y*stride+x]
			vals = append(vals, float64(v))
			if v > threshold {
				satCount++
			}
			total++
		}
	}
	return RegionStats{
		MeanPerChannel:     []float64{round3(meanOf(vals))},
		SaturationFraction: fraction(satCount, total),
	}
}

func regionStatsRGB(im *RGBImage, m *mask.Mask, threshold byte) RegionStats {
	var r, g, b []float64
	satCount, total := 0, 0
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.At(x, y) {
				continue
			}
			rr, gg, bb := im.At(x, y)
			r = append(r, float64(rr))
			g = append(g, float64(gg))
			b = append(b, float64(bb))
			if rr > threshold || gg > threshold || bb > threshold {
				satCount++
			}
			total++
		}
	}
	return RegionStats{
		MeanPerChannel:     []float64{round3(meanOf(r)), round3(meanOf(g)), round3(meanOf(b))},
		SaturationFraction: fraction(satCount, total),
	}
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}

func fraction(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
