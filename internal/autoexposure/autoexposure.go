// Package autoexposure implements the closed-loop integration-time
// regulator of §4.2: a pure function mapping measured saturation to a new
// integration time, plus the bounded iteration loop that drives a Sensor
// to convergence.
package autoexposure

import (
	"context"
	"time"

	"github.com/ru-wallace/triton/internal/frame"
	"github.com/ru-wallace/triton/internal/mask"
	"github.com/ru-wallace/triton/internal/sensorport"
	"github.com/ru-wallace/triton/internal/units"
)

// Config are the regulator's tunables (§4.2 defaults).
type Config struct {
	Target        float64 // default 0.01
	Margin        float64 // default 0.005
	MaxIterations int     // default 20
	Threshold     byte    // saturation threshold, default 250 (passed to the analyzer)
	MaskParams    *mask.Params // nil selects the analyzer's default for the frame's size
}

// DefaultConfig returns the §4.2 defaults.
func DefaultConfig() Config {
	return Config{Target: 0.01, Margin: 0.005, MaxIterations: 20, Threshold: 250}
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NextIntegrationTime computes the new integration time from the current
// one and the measured inner saturation fraction, per §4.2:
//
//	new_t = current_t * clamp(1 - (sat - target) / target, 0.1, 10)
func NextIntegrationTime(current units.IntegrationTime, sat, target float64) units.IntegrationTime {
	factor := clamp(1-(sat-target)/target, 0.1, 10)
	return units.IntegrationTime(float64(current) * factor)
}

// Converged reports whether sat is within margin of target.
func Converged(sat, target, margin float64) bool {
	d := sat - target
	if d < 0 {
		d = -d
	}
	return d <= margin
}

// Result is the outcome of Run.
type Result struct {
	Frame           *frame.Frame
	Iterations      int
	Converged       bool
	InnerSaturation float64
	DeviceTemp      *units.Celsius // the last accepted fetch's device-temperature chunk metadata, if any
}

// Run drives sensor's integration time toward Config.Target, fetching
// fresh frames and recomputing inner saturation until convergence or
// Config.MaxIterations is exhausted (§4.2 step 3). After commanding a new
// integration time, frames whose reported EffectiveIntegrationTime differs
// from that commanded value by more than 10% are discarded and refetched,
// since the sensor has a warm-up buffer that can still deliver a frame
// exposed at the previous setting.
//
// Every frame Run builds is marked auto=true. On non-convergence, Run
// returns the last frame fetched with Result.Converged false (its analyzer
// reports correct_saturation false for it).
func Run(ctx context.Context, sensor sensorport.Sensor, gain units.Gain, aperture float64, cfg Config) (Result, error) {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 20
	}

	var last *frame.Frame
	var lastSat float64
	var lastDeviceTemp *units.Celsius
	var commanded *units.IntegrationTime // nil until Run itself has set one

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		fetched, effective, err := fetchFresh(ctx, sensor, commanded)
		if err != nil {
			return Result{}, err
		}
		f := frame.New(fetched.Width, fetched.Height, fetched.Format, fetched.Pix, fetched.SensorTime, fetched.EffectiveIntegrationTime, gain, aperture, true)
		analyzer := frame.NewAnalyzer(f, analyzerConfig(cfg))
		stats, err := analyzer.Stats()
		if err != nil {
			return Result{}, err
		}
		sat := stats.Inner.SaturationFraction
		last = f
		lastSat = sat
		lastDeviceTemp = fetched.AmbientTemp

		if Converged(sat, cfg.Target, cfg.Margin) {
			return Result{Frame: f, Iterations: iter + 1, Converged: true, InnerSaturation: sat, DeviceTemp: fetched.AmbientTemp}, nil
		}

		next := NextIntegrationTime(effective, sat, cfg.Target)
		if err := sensor.SetIntegrationTimeMicros(next); err != nil {
			return Result{}, err
		}
		commanded = &next
	}

	return Result{Frame: last, Iterations: cfg.MaxIterations, Converged: false, InnerSaturation: lastSat, DeviceTemp: lastDeviceTemp}, nil
}

// fetchRetryDelay paces discard-and-refetch attempts in fetchFresh; the
// original has no explicit delay here since WaitForFinishedBuffer blocks on
// real hardware, so this substitutes for that block against the in-process
// Simulated sensor.
const fetchRetryDelay = 50 * time.Millisecond

// maxFetchDiscards bounds how many mismatched frames fetchFresh will
// discard before giving up (§4.2 step 3 doesn't bound this explicitly;
// matches the retry ceiling used elsewhere in this domain for a single
// suspension point, e.g. internal/supervisor's fetch retry budget).
const maxFetchDiscards = 10

// fetchFresh fetches a frame and, if desired is non-nil, discards and
// refetches any whose reported EffectiveIntegrationTime differs from
// *desired by more than 10% (§4.2 step 3's warm-up-buffer handling). A nil
// desired accepts the first fetch unconditionally — there is nothing yet
// to compare against before Run has commanded its own first integration
// time. It returns the accepted fetch and the integration time that was
// actually in effect for it.
func fetchFresh(ctx context.Context, sensor sensorport.Sensor, desired *units.IntegrationTime) (sensorport.FetchedFrame, units.IntegrationTime, error) {
	timeout := 2 * time.Second
	for i := 0; i < maxFetchDiscards; i++ {
		if i > 0 {
			time.Sleep(fetchRetryDelay)
		}
		fetched, err := sensor.FetchFrame(ctx, timeout)
		if err != nil {
			return sensorport.FetchedFrame{}, 0, err
		}
		if desired == nil || *desired == 0 || !mismatchedIntegrationTime(fetched.EffectiveIntegrationTime, *desired) {
			return fetched, fetched.EffectiveIntegrationTime, nil
		}
	}
	return sensorport.FetchedFrame{}, 0, context.DeadlineExceeded
}

// mismatchedIntegrationTime reports whether got differs from want by more
// than 10% of want, per §4.2 step 3.
func mismatchedIntegrationTime(got, want units.IntegrationTime) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) > float64(want)*0.10
}

func analyzerConfig(cfg Config) frame.AnalyzerConfig {
	ac := frame.DefaultAnalyzerConfig()
	ac.Threshold = cfg.Threshold
	ac.Target = cfg.Target
	ac.Margin = cfg.Margin
	ac.MaskParams = cfg.MaskParams
	return ac
}
