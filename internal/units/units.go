// Package units declares the physical units carried on a Frame: integration
// time, sensor gain, and the environmental attachments (depth, pressure,
// temperature).
//
// It follows the fixed-unit-per-type convention of
// periph.io/x/periph/conn/physic and periph.io/x/periph/devices, trimmed to
// the handful of quantities this system measures; the general SI-prefixed
// parser of physic.Angle is not needed here since routine files only ever
// carry a small, fixed set of time units (see internal/config).
package units

import (
	"fmt"
	"math"
)

// IntegrationTime is a sensor exposure duration, stored in whole
// microseconds as the sensor driver contract (§6) requires.
type IntegrationTime int64

// Seconds returns the integration time as a float64 number of seconds.
func (t IntegrationTime) Seconds() float64 {
	return float64(t) / 1e6
}

// String returns the integration time formatted in microseconds.
func (t IntegrationTime) String() string {
	return fmt.Sprintf("%dus", int64(t))
}

// FromSeconds converts a floating point second value to an IntegrationTime,
// rounding to the nearest microsecond.
func FromSeconds(s float64) IntegrationTime {
	return IntegrationTime(s*1e6 + 0.5)
}

// Gain is a sensor amplification value expressed in decibels.
type Gain float64

// String implements fmt.Stringer.
func (g Gain) String() string {
	return fmt.Sprintf("%.2fdB", float64(g))
}

// AsISOSpeed converts a gain in decibels to an equivalent ISO sensor speed,
// per the ISO 2720:1974 relation used by the absolute-luminance computation
// in internal/photometry: S = 100 * 10^(gain/20).
func (g Gain) AsISOSpeed() float64 {
	return 100 * math.Pow(10, float64(g)/20)
}

// Metres is a depth reading, in metres, signed (surface is near zero,
// positive increasing with depth).
type Metres float64

// String implements fmt.Stringer.
func (m Metres) String() string {
	return fmt.Sprintf("%.3fm", float64(m))
}

// Millibar is an absolute pressure reading.
type Millibar float64

// String implements fmt.Stringer.
func (m Millibar) String() string {
	return fmt.Sprintf("%.2fmbar", float64(m))
}

// Celsius is a temperature reading, following the naming of
// periph.io/x/periph/devices.Celsius but stored as a plain float64 since
// this system has no need for devices.Milli's fixed-point precision and
// every environmental reading already arrives as a float from the driver
// contract (§6).
type Celsius float64

// String implements fmt.Stringer.
func (c Celsius) String() string {
	return fmt.Sprintf("%.2f°C", float64(c))
}

