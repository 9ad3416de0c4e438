// Package sensorport declares the narrow driver-boundary contracts this
// system requires of the image sensor and pressure sensor (§6). Like
// periph.io/x/periph/conn's Resource/Bus interfaces, these are contracts
// only — the concrete vendor binding is an external collaborator, not
// re-specified here (§1 Non-goals).
package sensorport

import (
	"context"
	"time"

	"github.com/ru-wallace/triton/internal/frame"
	"github.com/ru-wallace/triton/internal/units"
)

// AcquisitionMode selects the sensor's operating mode; switching is
// required when an integration time crosses the current mode's supported
// range (§4.2 Bounds, §6 sensor driver contract).
type AcquisitionMode int

// Recognized acquisition modes.
const (
	ModeDefault AcquisitionMode = iota
	ModeLongExposure
)

// FetchedFrame is what the sensor driver hands back on a successful fetch
// (§6): the raw buffer, its declared format, the sensor's own timestamp,
// ambient/device temperature if the driver reports it inline, and the
// integration time the sensor actually used (which may differ slightly
// from what was requested).
type FetchedFrame struct {
	Width, Height          int
	Format                 frame.Format
	Pix                    []byte
	SensorTime             time.Time
	EffectiveIntegrationTime units.IntegrationTime

	// AmbientTemp is the sensor's own device-temperature chunk metadata, if
	// the driver reports one inline with the fetch; nil if unavailable. This
	// becomes the Frame's device_temp_c attachment directly, with no retry
	// (unlike the pressure sensor's environment reading, it's part of the
	// same fetch rather than a separate suspension point).
	AmbientTemp *units.Celsius
}

// Sensor is the narrow capture-port contract the Routine and Supervisor
// require of the image sensor (§6, §9 DESIGN NOTES — a callback-style
// capture function is replaced here by this explicit port interface).
type Sensor interface {
	Connect(ctx context.Context) error
	Disconnect() error

	SetPixelFormat(format frame.Format) error
	SetIntegrationTimeMicros(us units.IntegrationTime) error
	SetGainDB(db units.Gain) error
	SetAcquisitionMode(mode AcquisitionMode) error
	StartAcquisition() error
	StopAcquisition() error

	// IntegrationRangeMicros returns the queryable [min, max] integration
	// time supported by the given mode.
	IntegrationRangeMicros(mode AcquisitionMode) (min, max units.IntegrationTime)

	// FetchFrame blocks until a frame is available or timeout elapses
	// (§5 suspension points: timeout = max(2s, integration_time + 0.5s)).
	FetchFrame(ctx context.Context, timeout time.Duration) (FetchedFrame, error)

	LoadUserSet(name string) error
}

// PressureSensor is the narrow contract required of the depth/pressure
// sensor (§6). Any read may fail; the Frame-attachment call (see
// internal/supervisor) retries once and on persistent failure records null
// and logs a warning, per §6.
type PressureSensor interface {
	Init() error
	SetFluidDensity(kgPerM3 float64) error
	Read() error
	Depth() (units.Metres, error)
	Pressure() (units.Millibar, error)
	Temperature() (units.Celsius, error)
}
