package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ru-wallace/triton/internal/routine"
)

// acceptedParams is the §6 key table: every recognized non-unit key and
// the Go type its value must coerce to. Mirrors routine.py's
// ACCEPTED_PARAMS.
var acceptedParams = map[string]string{
	"name":                  "string",
	"initial_delay_time":    "number",
	"number_limit":          "number",
	"time_limit":            "number",
	"repeat":                "number",
	"repeat_interval_time":  "number",
	"interval_mode":         "string",
	"interval_time":         "number",
	"integration_time":      "numberOrList",
	"gain":                  "numberOrList",
	"loop_integration_time": "bool",
	"loop_gain":             "bool",
	"all_combinations":      "bool",
	"min_tick_length":       "number",
}

// timeParams names every key whose value is a duration expressed in a
// resolvable unit (the companion "<key>_unit" key, or default_time_unit).
var timeParams = map[string]bool{
	"initial_delay_time":   true,
	"time_limit":           true,
	"interval_time":        true,
	"min_tick_length":      true,
	"repeat_interval_time": true,
}

// secondsPerUnit maps a unit token (case-insensitive) to its multiplier
// against seconds, mirroring routine.py's convert_to_seconds.
func secondsPerUnit(unit string) float64 {
	switch strings.ToLower(unit) {
	case "hours", "hour", "hrs", "hr", "hs", "h":
		return 60 * 60
	case "minutes", "minute", "mins", "min", "m":
		return 60
	case "milliseconds", "millisecond", "ms":
		return 1.0 / 1000
	case "microseconds", "microsecond", "us":
		return 1.0 / 1000 / 1000
	default: // "seconds", "second", "sec", "secs", "s", and anything unrecognized
		return 1
	}
}

const (
	maxNumberLimit = 5000
	maxTimeLimitS  = 345600 // 96 hours
)

// Routine is a fully resolved routine file: the Engine lifecycle Params and
// the ScheduleParams used to build its capture sequence.
type Routine struct {
	EngineParams   routine.Params
	ScheduleParams routine.ScheduleParams
}

// Resolve validates raw against acceptedParams, resolves every time
// parameter to seconds via its companion _unit key (or default_time_unit),
// and applies the §6 clamps (number_limit <= 5000, time_limit <= 96h).
// Unrecognized keys are ignored, matching routine.py's from_dict.
func Resolve(raw RawParams) (Routine, error) {
	raw = filterAccepted(raw)

	defaultUnit := "s"
	if v, ok := raw["default_time_unit"]; ok {
		if s, ok := v.(string); ok {
			defaultUnit = s
		}
	}

	seconds := func(key string) (float64, bool) {
		v, ok := raw[key]
		if !ok {
			return 0, false
		}
		f, ok := v.(float64)
		if !ok {
			return 0, false
		}
		unit := defaultUnit
		if u, ok := raw[key+"_unit"]; ok {
			if s, ok := u.(string); ok {
				unit = s
			}
		}
		return f * secondsPerUnit(unit), true
	}

	str := func(key, def string) string {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return def
	}

	boolOf := func(key string) bool {
		if v, ok := raw[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}

	numberLimit := 5000
	if v, ok := raw["number_limit"]; ok {
		if f, ok := v.(float64); ok {
			numberLimit = int(f)
		}
	}
	if numberLimit > maxNumberLimit {
		numberLimit = maxNumberLimit
	}

	timeLimitS := float64(maxTimeLimitS)
	if f, ok := seconds("time_limit"); ok {
		timeLimitS = f
	}
	if timeLimitS > maxTimeLimitS {
		timeLimitS = maxTimeLimitS
	}

	initialDelayS, _ := seconds("initial_delay_time")
	intervalS, _ := seconds("interval_time")
	repeatIntervalS, _ := seconds("repeat_interval_time")
	minTickS, _ := seconds("min_tick_length")

	intervalMode := routine.IntervalCaptureEnd
	switch strings.ToLower(str("interval_mode", "capture_end")) {
	case "capture_start":
		intervalMode = routine.IntervalCaptureStart
	case "capture_end":
		intervalMode = routine.IntervalCaptureEnd
	}

	integ, ok := FloatList(raw["integration_time"])
	if !ok {
		integ = []float64{0}
	}
	gain, ok := FloatList(raw["gain"])
	if !ok {
		gain = []float64{1}
	}

	repeat := 1
	if v, ok := raw["repeat"]; ok {
		if f, ok := v.(float64); ok {
			repeat = int(f)
		}
	}

	sched := routine.ScheduleParams{
		IntegrationTimesSecs: integ,
		GainsDB:              gain,
		AllCombinations:      boolOf("all_combinations"),
		LoopIntegrationTime:  boolOf("loop_integration_time"),
		LoopGain:             boolOf("loop_gain"),
		NumberLimit:          numberLimit,
		Repeat:               repeat,
	}

	params := routine.Params{
		Name:           str("name", ""),
		InitialDelay:   durationOf(initialDelayS),
		NumberLimit:    numberLimit,
		TimeLimit:      durationOf(timeLimitS),
		RepeatInterval: durationOf(repeatIntervalS),
		IntervalMode:   intervalMode,
		Interval:       durationOf(intervalS),
		MinTickLength:  durationOf(minTickS),
	}

	if params.Name == "" {
		return Routine{}, errors.New("config: routine file has no name")
	}

	return Routine{EngineParams: params, ScheduleParams: sched}, nil
}

func durationOf(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// BuildEngine constructs the schedule and a ready-to-run Engine from r.
func (r Routine) BuildEngine() *routine.Engine {
	schedule, baseLength := routine.BuildScheduleWithBase(r.ScheduleParams)
	params := r.EngineParams
	params.Schedule = schedule
	return routine.New(params, baseLength)
}

// filterAccepted drops any entry that is neither a recognized _unit key,
// default_time_unit, nor a key in acceptedParams whose value's shape
// matches — mismatched types (e.g. a string where acceptedParams wants a
// number) are dropped rather than erroring, matching routine.py's
// isinstance guard in from_dict.
func filterAccepted(raw RawParams) RawParams {
	out := make(RawParams, len(raw))
	for key, value := range raw {
		if key == "default_time_unit" || (timeParams[strings.TrimSuffix(key, "_unit")] && strings.HasSuffix(key, "_unit")) {
			out[key] = value
			continue
		}
		kind, known := acceptedParams[key]
		if !known {
			continue
		}
		switch kind {
		case "string":
			if _, ok := value.(string); ok {
				out[key] = value
			}
		case "bool":
			if _, ok := value.(bool); ok {
				out[key] = value
			}
		case "number":
			if _, ok := value.(float64); ok {
				out[key] = value
			}
		case "numberOrList":
			if _, ok := value.(float64); ok {
				out[key] = value
			} else if _, ok := value.([]interface{}); ok {
				out[key] = value
			}
		}
	}
	return out
}
