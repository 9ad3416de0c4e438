// tritond runs one capture campaign: it resolves a routine file and a
// session by name, connects the image and pressure sensors, and drives the
// Supervisor's tick loop until the routine completes or is stopped (§4.5).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ru-wallace/triton/internal/config"
	"github.com/ru-wallace/triton/internal/frame"
	"github.com/ru-wallace/triton/internal/sensorport"
	"github.com/ru-wallace/triton/internal/supervisor"
	"github.com/ru-wallace/triton/internal/tlog"
)

func mainImpl() error {
	// config.ParseEnv is the single pflag.FlagSet for the whole process
	// (-v/--verbose included): running os.Args[1:] through a second,
	// stdlib flag.FlagSet first would reject --routine/--session before
	// ParseEnv ever saw them.
	env, err := config.ParseEnv(os.Args[1:])
	if err != nil {
		return err
	}

	sink := tlog.NewSink(0)
	log := tlog.New(sink, "tritond: ")
	log.SetVerbose(env.Verbose)

	// The real vendor sensor binding is an external collaborator (§1
	// Non-goals): tritond drives a Simulated port until one is wired in.
	sensor := sensorport.NewSimulated(1936, 1216, frame.FormatBayerRGGB8)
	pressure := &sensorport.SimulatedPressure{}

	cfg := supervisor.Config{
		Env:            env,
		RoutinesDir:    filepath.Join(env.DataDirectory, "routines"),
		Sensor:         sensor,
		PressureSensor: pressure,
		Logger:         log,
	}

	return supervisor.Run(context.Background(), cfg)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "tritond: %s.\n", err)
		os.Exit(1)
	}
}
