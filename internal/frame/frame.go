// Package frame defines the immutable Frame record captured from the sensor
// (§3) and its lazily-computed, cached Analysis (DerivedStats, §4.3).
//
// Frame itself carries no behavior beyond simple field access and the
// once-only environmental-attachment setters: per DESIGN NOTES §9, the
// lazily-memoising "big object" shape of the original is deliberately
// replaced here with a plain immutable value plus a separate Analysis cache
// keyed by frame identity (see analyzer.go), the same separation
// periph.io/x/periph keeps between a Frame's raw pixel data
// (devices/lepton.Frame) and any derived interpretation of it.
package frame

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ru-wallace/triton/internal/units"
)

// Format declares the sensor pixel format a Frame's raw buffer is in.
type Format int

// Recognized pixel formats. Others may be recognized upstream by the sensor
// driver but are out of scope for equivalent processing (§3).
const (
	FormatUnknown Format = iota
	FormatMono8
	FormatBayerRGGB8
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case FormatMono8:
		return "mono8"
	case FormatBayerRGGB8:
		return "bayer_rggb8"
	default:
		return "unknown"
	}
}

// Frame is an immutable record created at capture (§3). Environmental
// attachments are the only fields that may be set after construction, and
// each only once — SetDepth, SetPressure, SetEnvTemperature, and
// SetDeviceTemperature enforce that, returning an error on a second call.
type Frame struct {
	Width, Height int
	Format        Format
	Pix           []byte

	Timestamp       time.Time
	IntegrationTime units.IntegrationTime
	Gain            units.Gain
	Aperture        float64
	Auto            bool

	depthSet  bool
	depth     *units.Metres
	pressSet  bool
	pressure  *units.Millibar
	envSet    bool
	envTemp   *units.Celsius
	devSet    bool
	devTemp   *units.Celsius
}

// New constructs a Frame. Aperture defaults to 1.0 when zero is passed,
// matching the spec's stated default.
func New(width, height int, format Format, pix []byte, ts time.Time, integrationTime units.IntegrationTime, gain units.Gain, aperture float64, auto bool) *Frame {
	if aperture == 0 {
		aperture = 1.0
	}
	return &Frame{
		Width:           width,
		Height:          height,
		Format:          format,
		Pix:             pix,
		Timestamp:       ts,
		IntegrationTime: integrationTime,
		Gain:            gain,
		Aperture:        aperture,
		Auto:            auto,
	}
}

var errAlreadySet = fmt.Errorf("frame: environmental attachment already set")

// SetDepth attaches a depth reading. Pass nil to record an explicit null
// (failed read) rather than leaving the attachment unset — §3's invariant
// is that every persisted Frame has all attachments set or explicitly null,
// never simply absent.
func (f *Frame) SetDepth(v *units.Metres) error {
	if f.depthSet {
		return errAlreadySet
	}
	f.depthSet = true
	f.depth = v
	return nil
}

// SetPressure attaches a pressure reading; see SetDepth for null semantics.
func (f *Frame) SetPressure(v *units.Millibar) error {
	if f.pressSet {
		return errAlreadySet
	}
	f.pressSet = true
	f.pressure = v
	return nil
}

// SetEnvTemperature attaches an ambient temperature reading.
func (f *Frame) SetEnvTemperature(v *units.Celsius) error {
	if f.envSet {
		return errAlreadySet
	}
	f.envSet = true
	f.envTemp = v
	return nil
}

// SetDeviceTemperature attaches a sensor-device temperature reading.
func (f *Frame) SetDeviceTemperature(v *units.Celsius) error {
	if f.devSet {
		return errAlreadySet
	}
	f.devSet = true
	f.devTemp = v
	return nil
}

// AttachmentsComplete reports whether every environmental attachment has
// been set (to a value or to null), which the SessionRecorder requires
// before persisting a Frame (§3 invariant).
func (f *Frame) AttachmentsComplete() bool {
	return f.depthSet && f.pressSet && f.envSet && f.devSet
}

// infoKeys is the fixed, ordered key set of Frame.Info's output. The order
// is load-bearing: §4.4 derives the CSV header from the first Frame's key
// set in this order, and every later row must match it.
var infoKeys = []string{
	"image_number",
	"timestamp",
	"integration_time_us",
	"gain_db",
	"aperture",
	"auto",
	"format",
	"depth_m",
	"pressure_mbar",
	"env_temp_c",
	"device_temp_c",
}

// InfoKeys returns the ordered key set Info will populate.
func InfoKeys() []string {
	out := make([]string, len(infoKeys))
	copy(out, infoKeys)
	return out
}

// Info renders the Frame's public fields as an ordered string map, suitable
// for PNG text metadata chunks and CSV/JSON persistence (§3, §4.4). The
// image number is injected by the caller (the SessionRecorder), since a
// Frame alone doesn't know its position in a Session.
func (f *Frame) Info(imageNumber int) map[string]string {
	m := make(map[string]string, len(infoKeys))
	m["image_number"] = strconv.Itoa(imageNumber)
	m["timestamp"] = f.Timestamp.Format(time.RFC3339Nano)
	m["integration_time_us"] = strconv.FormatInt(int64(f.IntegrationTime), 10)
	m["gain_db"] = strconv.FormatFloat(float64(f.Gain), 'f', 3, 64)
	m["aperture"] = strconv.FormatFloat(f.Aperture, 'f', 3, 64)
	m["auto"] = strconv.FormatBool(f.Auto)
	m["format"] = f.Format.String()
	if f.depth != nil {
		m["depth_m"] = f.depth.String()
	} else {
		m["depth_m"] = "null"
	}
	if f.pressure != nil {
		m["pressure_mbar"] = f.pressure.String()
	} else {
		m["pressure_mbar"] = "null"
	}
	if f.envTemp != nil {
		m["env_temp_c"] = f.envTemp.String()
	} else {
		m["env_temp_c"] = "null"
	}
	if f.devTemp != nil {
		m["device_temp_c"] = f.devTemp.String()
	} else {
		m["device_temp_c"] = "null"
	}
	return m
}

// InfoOrdered renders the same data as Info but as ordered key/value pairs,
// used directly by the CSV writer to avoid depending on Go's randomized map
// iteration order.
func (f *Frame) InfoOrdered(imageNumber int) []string {
	m := f.Info(imageNumber)
	out := make([]string, len(infoKeys))
	for i, k := range infoKeys {
		out[i] = m[k]
	}
	return out
}

