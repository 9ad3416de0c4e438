package frame

import (
	"testing"
	"time"

	"github.com/ru-wallace/triton/internal/units"
)

func monoFrame(w, h int, val byte) *Frame {
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = val
	}
	return New(w, h, FormatMono8, pix, time.Now(), units.FromSeconds(0.1), units.Gain(1), 1.0, false)
}

func TestSetDepthOnceOnly(t *testing.T) {
	f := monoFrame(4, 4, 10)
	d := units.Metres(5)
	if err := f.SetDepth(&d); err != nil {
		t.Fatalf("first SetDepth: %v", err)
	}
	if err := f.SetDepth(&d); err == nil {
		t.Fatal("second SetDepth should fail")
	}
}

func TestSetDepthNilRecordsNull(t *testing.T) {
	f := monoFrame(4, 4, 10)
	if err := f.SetDepth(nil); err != nil {
		t.Fatalf("SetDepth(nil): %v", err)
	}
	info := f.Info(1)
	if info["depth_m"] != "null" {
		t.Fatalf("depth_m = %q, want null", info["depth_m"])
	}
}

func TestAttachmentsComplete(t *testing.T) {
	f := monoFrame(4, 4, 10)
	if f.AttachmentsComplete() {
		t.Fatal("should not be complete before any attachment set")
	}
	d := units.Metres(1)
	p := units.Millibar(1013)
	e := units.Celsius(20)
	dv := units.Celsius(30)
	f.SetDepth(&d)
	f.SetPressure(&p)
	f.SetEnvTemperature(&e)
	f.SetDeviceTemperature(&dv)
	if !f.AttachmentsComplete() {
		t.Fatal("should be complete after all four attachments set")
	}
}

func TestInfoOrderedMatchesKeys(t *testing.T) {
	f := monoFrame(4, 4, 10)
	f.SetDepth(nil)
	f.SetPressure(nil)
	f.SetEnvTemperature(nil)
	f.SetDeviceTemperature(nil)
	ordered := f.InfoOrdered(3)
	if len(ordered) != len(InfoKeys()) {
		t.Fatalf("got %d columns, want %d", len(ordered), len(InfoKeys()))
	}
	if ordered[0] != "3" {
		t.Fatalf("first column (image_number) = %q, want 3", ordered[0])
	}
}

func TestDemosaicRejectsMono(t *testing.T) {
	f := monoFrame(4, 4, 10)
	if _, err := Demosaic(f, AverageGreens); err == nil {
		t.Fatal("expected error demosaicing a mono frame")
	}
}

func TestDemosaicAverageGreens(t *testing.T) {
	// 2x2 Bayer RGGB tile: R=100, G1=110, G2=130, B=200.
	pix := []byte{100, 110, 130, 200}
	f := New(2, 2, FormatBayerRGGB8, pix, time.Now(), units.FromSeconds(0.1), units.Gain(1), 1.0, false)
	rgb, err := Demosaic(f, AverageGreens)
	if err != nil {
		t.Fatalf("Demosaic: %v", err)
	}
	if rgb.Width != 1 || rgb.Height != 1 {
		t.Fatalf("got %dx%d, want 1x1", rgb.Width, rgb.Height)
	}
	r, g, b := rgb.At(0, 0)
	if r != 100 || g != 120 || b != 200 {
		t.Fatalf("got (%d,%d,%d), want (100,120,200)", r, g, b)
	}
}
