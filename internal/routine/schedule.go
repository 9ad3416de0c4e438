// Package routine implements the deterministic, time-and-count-driven
// capture schedule state machine (§4.1): the settings-matrix construction
// rules and the tick-driven state machine that decides when to capture and
// when to stop.
package routine

import "github.com/ru-wallace/triton/internal/units"

// Setting is one (integration time, gain) pair in a schedule.
type Setting struct {
	IntegrationTime units.IntegrationTime
	Gain            units.Gain
}

// ScheduleParams are the inputs to BuildSchedule (§4.1).
type ScheduleParams struct {
	IntegrationTimesSecs []float64
	GainsDB              []float64
	AllCombinations      bool
	LoopIntegrationTime  bool
	LoopGain             bool
	NumberLimit          int
	Repeat               int // 0 means fill to NumberLimit
}

// BuildSchedule constructs the settings matrix per §4.1.
func BuildSchedule(p ScheduleParams) []Setting {
	sched, _ := BuildScheduleWithBase(p)
	return sched
}

// BuildScheduleWithBase constructs the settings matrix per §4.1 and also
// returns the length of one un-repeated pass through it, which New's
// caller needs to detect repeat-interval boundaries (§4.1 AdvanceNextCapture).
func BuildScheduleWithBase(p ScheduleParams) (schedule []Setting, baseLength int) {
	var base []Setting
	if p.AllCombinations {
		base = cartesianProduct(dedupPreserveOrder(p.IntegrationTimesSecs), dedupPreserveOrder(p.GainsDB))
	} else {
		integ := append([]float64(nil), p.IntegrationTimesSecs...)
		gains := append([]float64(nil), p.GainsDB...)

		switch {
		case len(integ) == 1 && len(gains) > 1:
			integ = broadcast(integ[0], len(gains))
		case len(gains) == 1 && len(integ) > 1:
			gains = broadcast(gains[0], len(integ))
		case len(integ) == 1 && len(gains) == 1:
			n := p.NumberLimit
			if n <= 0 {
				n = 1
			}
			integ = broadcast(integ[0], n)
			gains = broadcast(gains[0], n)
		}

		if len(integ) != len(gains) {
			if len(gains) < len(integ) {
				if p.LoopGain {
					gains = tileTo(gains, len(integ))
				} else {
					integ = integ[:len(gains)]
				}
			} else {
				if p.LoopIntegrationTime {
					integ = tileTo(integ, len(gains))
				} else {
					gains = gains[:len(integ)]
				}
			}
		}

		base = make([]Setting, len(integ))
		for i := range integ {
			base[i] = Setting{IntegrationTime: units.FromSeconds(integ[i]), Gain: units.Gain(gains[i])}
		}
	}

	if len(base) == 0 {
		return nil, 0
	}

	repeat := p.Repeat
	if repeat == 0 {
		repeat = p.NumberLimit / len(base)
		if repeat == 0 {
			repeat = 1
		}
	}

	tiled := make([]Setting, 0, len(base)*repeat)
	for i := 0; i < repeat; i++ {
		tiled = append(tiled, base...)
	}

	if p.NumberLimit > 0 && len(tiled) > p.NumberLimit {
		tiled = tiled[:p.NumberLimit]
	}
	return tiled, len(base)
}

func cartesianProduct(integSecs, gainsDB []float64) []Setting {
	out := make([]Setting, 0, len(integSecs)*len(gainsDB))
	for _, g := range gainsDB {
		for _, i := range integSecs {
			out = append(out, Setting{IntegrationTime: units.FromSeconds(i), Gain: units.Gain(g)})
		}
	}
	return out
}

func dedupPreserveOrder(in []float64) []float64 {
	seen := make(map[float64]bool, len(in))
	out := make([]float64, 0, len(in))
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func broadcast(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func tileTo(in []float64, n int) []float64 {
	if len(in) == 0 {
		return make([]float64, n)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = in[i%len(in)]
	}
	return out
}
