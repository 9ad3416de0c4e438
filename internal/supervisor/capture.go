package supervisor

import (
	"context"
	"time"

	"github.com/ru-wallace/triton/internal/autoexposure"
	"github.com/ru-wallace/triton/internal/frame"
	"github.com/ru-wallace/triton/internal/routine"
	"github.com/ru-wallace/triton/internal/sensorport"
	"github.com/ru-wallace/triton/internal/tlog"
	"github.com/ru-wallace/triton/internal/units"
)

// maxFetchAttempts bounds retries of a single capture request against
// transient sensor errors (§5). fetchRetryDelay mirrors the original
// driver's fixed ~50ms inter-attempt pause (ids_interface.py).
const (
	maxFetchAttempts = 10
	fetchRetryDelay  = 50 * time.Millisecond
)

// captureWorker drains routine.WorkItems from a Routine Engine, drives the
// sensor (directly, or via autoexposure.Run when the item calls for it),
// attaches environmental readings, and hands the completed Frame to the
// Recorder (§4.5 capture worker, §5 suspension points).
type captureWorker struct {
	sensor   sensorport.Sensor
	pressure sensorport.PressureSensor
	engine   *routine.Engine
	recorder frameEnqueuer
	log      *tlog.Logger
	aeConfig autoexposure.Config
}

// frameEnqueuer is the narrow subset of session.Recorder the capture
// worker needs, letting tests substitute a stub recorder.
type frameEnqueuer interface {
	Enqueue(f *frame.Frame) error
	QueueSize() int
}

// run processes one WorkItem, returning once the resulting Frame (if any)
// has been enqueued for persistence and the Engine has been told the
// capture completed. A Sentinel item is a no-op signal to the caller that
// the Engine is complete and draining should stop.
func (w *captureWorker) run(ctx context.Context, item routine.WorkItem) {
	if item.Sentinel {
		return
	}
	if item.Setting.IntegrationTime != 0 {
		if err := w.sensor.SetIntegrationTimeMicros(item.Setting.IntegrationTime); err != nil {
			w.log.Errorf("supervisor: setting integration time: %v", err)
			w.engine.CaptureCompleted(time.Now(), false)
			return
		}
	}
	if err := w.sensor.SetGainDB(item.Setting.Gain); err != nil {
		w.log.Errorf("supervisor: setting gain: %v", err)
		w.engine.CaptureCompleted(time.Now(), false)
		return
	}
	if err := w.sensor.SetAcquisitionMode(sensorport.ModeDefault); err != nil {
		w.log.Errorf("supervisor: setting acquisition mode: %v", err)
		w.engine.CaptureCompleted(time.Now(), false)
		return
	}
	if err := w.sensor.StartAcquisition(); err != nil {
		w.log.Errorf("supervisor: starting acquisition: %v", err)
		w.engine.CaptureCompleted(time.Now(), false)
		return
	}

	f, deviceTemp, err := w.acquire(ctx, item)
	if err != nil {
		w.log.Errorf("supervisor: capture failed: %v", err)
		w.engine.CaptureCompleted(time.Now(), false)
		return
	}

	w.attachEnvironment(f, deviceTemp)

	if err := w.recorder.Enqueue(f); err != nil {
		w.log.Errorf("supervisor: enqueueing captured frame: %v", err)
		w.engine.CaptureCompleted(time.Now(), false)
		return
	}
	w.engine.CaptureCompleted(time.Now(), true)
}

// acquire fetches a single Frame, either by driving autoexposure.Run
// (item.Auto) or by a direct fetch at the already-commanded settings,
// retrying transient fetch errors up to maxFetchAttempts times (§5).
func (w *captureWorker) acquire(ctx context.Context, item routine.WorkItem) (*frame.Frame, *units.Celsius, error) {
	if item.Auto {
		res, err := autoexposure.Run(ctx, w.sensor, item.Setting.Gain, 1.0, w.aeConfig)
		if err != nil {
			return nil, nil, err
		}
		return res.Frame, res.DeviceTemp, nil
	}

	timeout := 2 * time.Second
	if want := time.Duration(item.Setting.IntegrationTime)*time.Microsecond + 500*time.Millisecond; want > timeout {
		timeout = want
	}

	var lastErr error
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(fetchRetryDelay)
		}
		fetched, err := w.sensor.FetchFrame(ctx, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		f := frame.New(fetched.Width, fetched.Height, fetched.Format, fetched.Pix, fetched.SensorTime, fetched.EffectiveIntegrationTime, item.Setting.Gain, 1.0, false)
		return f, fetched.AmbientTemp, nil
	}
	return nil, nil, lastErr
}

// attachEnvironment fills in every one of a Frame's environmental
// attachments, always — per §3's invariant that a persisted Frame never
// has an attachment left unset. device_temp_c comes from the sensor's own
// fetch metadata with no retry (it's part of the same suspension point);
// depth_m/pressure_mbar/env_temp_c come from the pressure sensor, each
// retried once on failure and recorded null (with a warning logged) if the
// retry also fails (§6).
func (w *captureWorker) attachEnvironment(f *frame.Frame, deviceTemp *units.Celsius) {
	_ = f.SetDeviceTemperature(deviceTemp)

	depth, err := w.readDepth()
	if err != nil {
		w.log.Warnf("supervisor: pressure sensor depth read failed twice: %v", err)
	}
	_ = f.SetDepth(depth)

	pressure, err := w.readPressure()
	if err != nil {
		w.log.Warnf("supervisor: pressure sensor pressure read failed twice: %v", err)
	}
	_ = f.SetPressure(pressure)

	envTemp, err := w.readEnvTemp()
	if err != nil {
		w.log.Warnf("supervisor: pressure sensor temperature read failed twice: %v", err)
	}
	_ = f.SetEnvTemperature(envTemp)
}

// readDepth, readPressure and readEnvTemp each read the pressure sensor
// once and, on failure, retry exactly once more before giving up, per §6's
// "retries once, then records null on persistent failure" contract.
func (w *captureWorker) readDepth() (*units.Metres, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if err := w.pressure.Read(); err != nil {
			continue
		}
		if v, err := w.pressure.Depth(); err == nil {
			return &v, nil
		}
	}
	return nil, errPressureReadFailed
}

func (w *captureWorker) readPressure() (*units.Millibar, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if err := w.pressure.Read(); err != nil {
			continue
		}
		if v, err := w.pressure.Pressure(); err == nil {
			return &v, nil
		}
	}
	return nil, errPressureReadFailed
}

func (w *captureWorker) readEnvTemp() (*units.Celsius, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if err := w.pressure.Read(); err != nil {
			continue
		}
		if v, err := w.pressure.Temperature(); err == nil {
			return &v, nil
		}
	}
	return nil, errPressureReadFailed
}

var errPressureReadFailed = captureError("supervisor: pressure sensor read failed")

type captureError string

func (e captureError) Error() string { return string(e) }
