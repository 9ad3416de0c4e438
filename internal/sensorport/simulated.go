package sensorport

import (
	"context"
	"sync"
	"time"

	"github.com/ru-wallace/triton/internal/frame"
	"github.com/ru-wallace/triton/internal/units"
)

// Simulated is an in-memory Sensor implementation for tests and the
// end-to-end scenarios of §8. SaturationFn, if set, lets a test express
// "inner saturation is a monotone function of requested integration time"
// (§8 scenario 5) without any real hardware.
type Simulated struct {
	mu sync.Mutex

	Width, Height int
	Format        frame.Format

	integrationTime units.IntegrationTime
	gain            units.Gain
	mode            AcquisitionMode
	connected       bool
	acquiring       bool

	// SaturationFn maps a requested integration time to a uniform pixel
	// value in [0,255] used to fill the simulated frame, letting tests
	// drive AutoExposure convergence deterministically.
	SaturationFn func(units.IntegrationTime) byte

	// RangeDefault and RangeLong are the queryable integration-time ranges
	// per mode (§6).
	RangeDefault [2]units.IntegrationTime
	RangeLong    [2]units.IntegrationTime

	FetchCount int

	// AmbientTemp, if set, is reported as the synthesized frame's device
	// temperature chunk metadata (FetchedFrame.AmbientTemp).
	AmbientTemp *units.Celsius
}

// NewSimulated returns a Simulated sensor with sensible default ranges.
func NewSimulated(width, height int, format frame.Format) *Simulated {
	return &Simulated{
		Width:        width,
		Height:       height,
		Format:       format,
		RangeDefault: [2]units.IntegrationTime{1, 30000},
		RangeLong:    [2]units.IntegrationTime{30001, 1000000},
		SaturationFn: func(units.IntegrationTime) byte { return 128 },
	}
}

// Connect implements Sensor.
func (s *Simulated) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

// Disconnect implements Sensor.
func (s *Simulated) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

// SetPixelFormat implements Sensor.
func (s *Simulated) SetPixelFormat(format frame.Format) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Format = format
	return nil
}

// SetIntegrationTimeMicros implements Sensor.
func (s *Simulated) SetIntegrationTimeMicros(us units.IntegrationTime) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := s.rangeForMode(s.mode)
	if us < lo {
		us = lo
	}
	if us > hi {
		us = hi
	}
	s.integrationTime = us
	return nil
}

// SetGainDB implements Sensor.
func (s *Simulated) SetGainDB(db units.Gain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gain = db
	return nil
}

// SetAcquisitionMode implements Sensor.
func (s *Simulated) SetAcquisitionMode(mode AcquisitionMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	return nil
}

// StartAcquisition implements Sensor.
func (s *Simulated) StartAcquisition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquiring = true
	return nil
}

// StopAcquisition implements Sensor.
func (s *Simulated) StopAcquisition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquiring = false
	return nil
}

// IntegrationRangeMicros implements Sensor.
func (s *Simulated) IntegrationRangeMicros(mode AcquisitionMode) (units.IntegrationTime, units.IntegrationTime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rangeForMode(mode)
}

func (s *Simulated) rangeForMode(mode AcquisitionMode) (units.IntegrationTime, units.IntegrationTime) {
	if mode == ModeLongExposure {
		return s.RangeLong[0], s.RangeLong[1]
	}
	return s.RangeDefault[0], s.RangeDefault[1]
}

// FetchFrame implements Sensor, synthesizing a uniform frame whose pixel
// value is driven by SaturationFn(currentIntegrationTime).
func (s *Simulated) FetchFrame(ctx context.Context, timeout time.Duration) (FetchedFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchCount++
	val := s.SaturationFn(s.integrationTime)
	pix := make([]byte, s.Width*s.Height)
	for i := range pix {
		pix[i] = val
	}
	return FetchedFrame{
		Width:                    s.Width,
		Height:                   s.Height,
		Format:                   s.Format,
		Pix:                      pix,
		SensorTime:               time.Now(),
		EffectiveIntegrationTime: s.integrationTime,
		AmbientTemp:              s.AmbientTemp,
	}, nil
}

// LoadUserSet implements Sensor.
func (s *Simulated) LoadUserSet(name string) error {
	return nil
}

// SimulatedPressure is an in-memory PressureSensor for tests.
type SimulatedPressure struct {
	DepthM     units.Metres
	PressureMB units.Millibar
	TempC      units.Celsius
	FailNext   bool
}

// Init implements PressureSensor.
func (p *SimulatedPressure) Init() error { return nil }

// SetFluidDensity implements PressureSensor.
func (p *SimulatedPressure) SetFluidDensity(float64) error { return nil }

// Read implements PressureSensor.
func (p *SimulatedPressure) Read() error {
	if p.FailNext {
		p.FailNext = false
		return errSimulatedReadFailure
	}
	return nil
}

// Depth implements PressureSensor.
func (p *SimulatedPressure) Depth() (units.Metres, error) { return p.DepthM, nil }

// Pressure implements PressureSensor.
func (p *SimulatedPressure) Pressure() (units.Millibar, error) { return p.PressureMB, nil }

// Temperature implements PressureSensor.
func (p *SimulatedPressure) Temperature() (units.Celsius, error) { return p.TempC, nil }

var errSimulatedReadFailure = simulatedError("simulated pressure read failure")

type simulatedError string

func (e simulatedError) Error() string { return string(e) }
