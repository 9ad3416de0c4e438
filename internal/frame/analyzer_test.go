package frame

import (
	"image"
	"testing"
	"time"

	"github.com/ru-wallace/triton/internal/mask"
	"github.com/ru-wallace/triton/internal/units"
)

func uniformMono(w, h int, val byte, maskParams *mask.Params) *Analyzer {
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = val
	}
	f := New(w, h, FormatMono8, pix, time.Now(), units.FromSeconds(0.1), units.Gain(0), 1.0, false)
	cfg := DefaultAnalyzerConfig()
	cfg.MaskParams = maskParams
	return NewAnalyzer(f, cfg)
}

func TestStatsCachedAfterFirstCall(t *testing.T) {
	params := &mask.Params{Centre: image.Point{X: 5, Y: 5}, Radius: 2, Margin: 1}
	a := uniformMono(10, 10, 200, params)
	s1, err := a.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	s2, err := a.Stats()
	if err != nil {
		t.Fatalf("Stats (cached): %v", err)
	}
	if s1 != s2 {
		t.Fatal("expected cached pointer to be returned on second call")
	}
}

func TestUniformFrameSaturationFraction(t *testing.T) {
	params := &mask.Params{Centre: image.Point{X: 5, Y: 5}, Radius: 2, Margin: 1}
	a := uniformMono(10, 10, 255, params)
	s, err := a.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.Inner.SaturationFraction != 1 {
		t.Fatalf("inner saturation = %v, want 1", s.Inner.SaturationFraction)
	}
	if s.Inner.MeanPerChannel[0] != 255 {
		t.Fatalf("inner mean = %v, want 255", s.Inner.MeanPerChannel[0])
	}
}

func TestUniformFrameNotCorrectSaturation(t *testing.T) {
	params := &mask.Params{Centre: image.Point{X: 5, Y: 5}, Radius: 2, Margin: 1}
	a := uniformMono(10, 10, 255, params)
	s, _ := a.Stats()
	if s.CorrectSaturation {
		t.Fatal("fully saturated frame should not report correct_saturation")
	}
}
