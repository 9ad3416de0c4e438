package supervisor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ru-wallace/triton/internal/autoexposure"
	"github.com/ru-wallace/triton/internal/config"
	"github.com/ru-wallace/triton/internal/routine"
	"github.com/ru-wallace/triton/internal/sensorport"
	"github.com/ru-wallace/triton/internal/session"
	"github.com/ru-wallace/triton/internal/tlog"
)

// outputLogName is the Session on-disk layout's log file (§3): every
// error the supervisor propagates is routed through here once a Session
// directory exists (§7).
const outputLogName = "output.log"

const (
	// fifoPerm matches os.mkfifo's default in auto_capture.py (0o666 is
	// narrowed by the process umask on creation).
	fifoPerm = 0o666

	// tempLogInterval is §4.5's "every 300 s, log temperatures and
	// depth" — not the original driver's 120s check_time_long threshold,
	// which the spec supersedes.
	tempLogInterval          = 300 * time.Second
	statusTickInterval       = 1 * time.Second
	stopAckCount             = 10
	stopAckInterval          = 200 * time.Millisecond
	maxConsecutiveTickErrors = 5
)

// Config are the resolved inputs to Run (§4.5, §6): everything ParseEnv
// and ResolveRoutineFile produce, plus the live sensor ports.
type Config struct {
	Env         config.Env
	RoutinesDir string

	Sensor         sensorport.Sensor
	PressureSensor sensorport.PressureSensor

	Logger *tlog.Logger
}

// Run wires a Routine Engine, a Session Recorder and the control FIFOs
// together and drives the main tick loop until the Routine completes, the
// operator sends STOP, or five consecutive tick errors abort the run
// (§4.5). It returns a non-nil error only for unrecoverable setup/runtime
// failures; a normal completion or cooperative stop returns nil.
func Run(ctx context.Context, cfg Config) error {
	log := cfg.Logger
	if log == nil {
		log = tlog.Discard()
	}

	resolved, routinePath, err := ResolveRoutineFile(cfg.RoutinesDir, cfg.Env.RoutineNameOrPath)
	if err != nil {
		return fmt.Errorf("supervisor: resolving routine %q: %w", cfg.Env.RoutineNameOrPath, err)
	}
	log.Infof("supervisor: using routine file %q (name=%q)", routinePath, resolved.EngineParams.Name)

	sess, err := session.Open(filepath.Join(cfg.Env.DataDirectory, "sessions"), cfg.Env.SessionName)
	if err != nil {
		return fmt.Errorf("supervisor: opening session %q: %w", cfg.Env.SessionName, err)
	}
	log.Infof("supervisor: session %q opened at %q (%d images so far)", sess.Name, sess.Dir, sess.ImageCount())

	logFile, err := os.OpenFile(filepath.Join(sess.Dir, outputLogName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("supervisor: opening %s: %w", outputLogName, err)
	}
	if err := log.Sink().SwitchToFile(logFile); err != nil {
		logFile.Close()
		return fmt.Errorf("supervisor: switching log output to %s: %w", outputLogName, err)
	}
	log.Infof("supervisor: logging to %q", logFile.Name())

	if err := ensureFIFO(cfg.Env.PipeInFile, fifoPerm); err != nil {
		return err
	}
	if err := ensureFIFO(cfg.Env.PipeOutFile, fifoPerm); err != nil {
		return err
	}
	inbound, err := openInboundFIFO(cfg.Env.PipeInFile)
	if err != nil {
		return err
	}
	defer inbound.Close()

	if err := cfg.Sensor.Connect(ctx); err != nil {
		return fmt.Errorf("supervisor: connecting to sensor: %w", err)
	}
	defer cfg.Sensor.Disconnect()

	if err := cfg.PressureSensor.Init(); err != nil {
		return fmt.Errorf("supervisor: connecting to pressure sensor: %w", err)
	}

	recorder := session.NewRecorder(sess, log)
	recorder.Start()
	defer recorder.Stop()

	engine := resolved.BuildEngine()
	queue := make(chan routine.WorkItem, 1)
	worker := &captureWorker{
		sensor:   cfg.Sensor,
		pressure: cfg.PressureSensor,
		engine:   engine,
		recorder: recorder,
		log:      log,
		aeConfig: autoexposure.DefaultConfig(),
	}

	return runLoop(ctx, engine, queue, worker, recorder, inbound, cfg.Env.PipeOutFile, sess, log)
}

// runLoop is Run's tick loop, split out so tests can drive it against a
// faster clock without touching real FIFOs or sensors.
func runLoop(ctx context.Context, engine *routine.Engine, queue chan routine.WorkItem, worker *captureWorker, recorder frameEnqueuer, inbound messageReader, pipeOutFile string, sess *session.Session, log *tlog.Logger) error {
	lastTempLog := time.Now()
	lastStatus := time.Now()
	consecutiveErrors := 0
	stopping := false

	for {
		if message, ok := inbound.ReadMessage(); ok && message != "" {
			switch message {
			case "STOP":
				log.Infof("supervisor: received STOP message")
				engine.RequestStop()
				stopping = true
				go ackStop(pipeOutFile)
			case "STATUS":
				// An on-demand status write; doesn't reset the periodic timer.
				writeOutbound(pipeOutFile, statusMessage(engine, sess, recorder.QueueSize(), stopping))
			default:
				log.Infof("supervisor: received message: %s", message)
			}
		}

		now := time.Now()
		if !stopping && now.Sub(lastTempLog) >= tempLogInterval {
			lastTempLog = now
			logAmbientConditions(worker, log)
		}

		if now.Sub(lastStatus) >= statusTickInterval {
			lastStatus = now
			writeOutbound(pipeOutFile, statusMessage(engine, sess, recorder.QueueSize(), stopping))
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					consecutiveErrors++
					log.Errorf("supervisor: tick panic: %v (consecutive error count %d)", r, consecutiveErrors)
				}
			}()
			engine.Tick(now, queue)
			consecutiveErrors = 0
		}()

		if consecutiveErrors >= maxConsecutiveTickErrors {
			return fmt.Errorf("supervisor: too many consecutive tick errors (%d), aborting", consecutiveErrors)
		}

		select {
		case item := <-queue:
			if item.Sentinel {
				log.Infof("supervisor: routine complete")
				return nil
			}
			worker.run(ctx, item)
		default:
		}
	}
}

func ackStop(pipeOutFile string) {
	for i := 0; i < stopAckCount; i++ {
		writeOutbound(pipeOutFile, "STOPPING")
		time.Sleep(stopAckInterval)
	}
}

func logAmbientConditions(worker *captureWorker, log *tlog.Logger) {
	depth, err := worker.readDepth()
	if err != nil {
		log.Warnf("supervisor: periodic depth read failed: %v", err)
	}
	temp, err := worker.readEnvTemp()
	if err != nil {
		log.Warnf("supervisor: periodic temperature read failed: %v", err)
	}
	depthV, tempV := 0.0, 0.0
	if depth != nil {
		depthV = float64(*depth)
	}
	if temp != nil {
		tempV = float64(*temp)
	}
	log.Infof("supervisor: depth=%.2fm pressure-sensor-temp=%.2f°C", depthV, tempV)
}

func statusMessage(engine *routine.Engine, sess *session.Session, queueSize int, stopping bool) string {
	snap := engine.Snapshot()
	runtime := time.Duration(0)
	if !snap.StartTime.IsZero() {
		runtime = time.Since(snap.StartTime).Round(time.Second)
	}
	msg := fmt.Sprintf("Routine: %s\nSession: %s\nRuntime: %s\nImages Captured: %d\nQueue: %d\n",
		engine.Name, sess.Name, runtime, sess.ImageCount(), queueSize)
	if stopping {
		msg += "STOPPING\n"
	}
	return msg
}
