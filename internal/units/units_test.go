package units

import "testing"

func TestIntegrationTimeRoundTrip(t *testing.T) {
	got := FromSeconds(0.1)
	if got != 100000 {
		t.Fatalf("FromSeconds(0.1) = %d, want 100000", got)
	}
	if s := got.Seconds(); s != 0.1 {
		t.Fatalf("Seconds() = %v, want 0.1", s)
	}
}

func TestGainAsISOSpeed(t *testing.T) {
	g := Gain(0)
	if s := g.AsISOSpeed(); s != 100 {
		t.Fatalf("AsISOSpeed() = %v, want 100", s)
	}
	g = Gain(20)
	if s := g.AsISOSpeed(); s != 1000 {
		t.Fatalf("AsISOSpeed() = %v, want 1000", s)
	}
}

func TestStringers(t *testing.T) {
	if s := IntegrationTime(1500).String(); s != "1500us" {
		t.Fatalf("got %q", s)
	}
	if s := Celsius(18.5).String(); s != "18.50°C" {
		t.Fatalf("got %q", s)
	}
}
