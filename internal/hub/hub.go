// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package hub owns the rover's inertial sensor and range finders and turns their raw
// output into bias-corrected readings.
//
// A SensorHub is driven by exactly one poller. None of its methods are safe for
// concurrent use; the hardware bus underneath is not reentrant either.
package hub

import (
	"log"

	"github.com/relabs-tech/rover_sensors/internal/imu"
	"github.com/relabs-tech/rover_sensors/internal/ranging"
)

// DefaultCalibrationSamples is the number of samples averaged when Options leaves it unset.
const DefaultCalibrationSamples = 1

// State is the hub lifecycle. The only transition is Uninitialized -> Ready.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

// Options configures calibration.
type Options struct {
	// CalibrationSamples is how many samples are averaged into the bias.
	CalibrationSamples int
	// AccelRange is the accelerometer full-scale setting the driver was brought up with.
	// It determines the gravity term added to the Z axis during calibration.
	AccelRange imu.AccelRange
	// Logf receives the one-time calibration report. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// SensorHub wraps the inertial driver and the front/rear range finders.
type SensorHub struct {
	inertial    imu.Driver
	front, rear ranging.Finder
	opts        Options

	state    State
	bias     imu.Bias
	distance ranging.Reading
	motion   imu.Sample
}

// Snapshot is a copy of everything the hub currently holds.
type Snapshot struct {
	Range    ranging.Reading `json:"range"`
	Inertial imu.Sample      `json:"inertial"`
	Bias     imu.Bias        `json:"bias"`
}

// New returns an Uninitialized hub. Init must be called before any read.
func New(inertial imu.Driver, front, rear ranging.Finder, opts Options) *SensorHub {
	if opts.CalibrationSamples <= 0 {
		opts.CalibrationSamples = DefaultCalibrationSamples
	}
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	return &SensorHub{
		inertial: inertial,
		front:    front,
		rear:     rear,
		opts:     opts,
	}
}

// Init brings up the inertial driver, estimates the bias and moves the hub to Ready.
// Any error is an *InitError and leaves the hub Uninitialized.
func (h *SensorHub) Init() error {
	if h.state == Ready {
		return ErrAlreadyInitialized
	}
	if err := h.opts.AccelRange.Validate(); err != nil {
		return &InitError{Stage: "configuration", Err: err}
	}
	if err := h.inertial.Initialize(); err != nil {
		return &InitError{Stage: "inertial driver", Err: err}
	}
	if err := h.calibrateBias(); err != nil {
		return &InitError{Stage: "calibration", Err: err}
	}
	h.state = Ready
	return nil
}

// calibrateBias averages CalibrationSamples raw samples per axis into the bias.
// One g worth of counts is added to every Z sample so the stored Z bias is the
// sensor offset rather than gravity.
func (h *SensorHub) calibrateBias() error {
	n := h.opts.CalibrationSamples
	gravity := h.opts.AccelRange.CountsPerG()

	var sum imu.Bias
	for i := 0; i < n; i++ {
		raw, err := h.inertial.ReadSample()
		if err != nil {
			return &ReadFailure{Source: "inertial", Err: err}
		}
		sum.Ax += float64(raw.Ax)
		sum.Ay += float64(raw.Ay)
		sum.Az += float64(raw.Az) + gravity
		sum.Gx += float64(raw.Gx)
		sum.Gy += float64(raw.Gy)
		sum.Gz += float64(raw.Gz)
	}

	count := float64(n)
	h.bias = imu.Bias{
		Ax: sum.Ax / count,
		Ay: sum.Ay / count,
		Az: sum.Az / count,
		Gx: sum.Gx / count,
		Gy: sum.Gy / count,
		Gz: sum.Gz / count,
	}

	h.opts.Logf("hub: calibrated over %d sample(s), accel %s", n, h.opts.AccelRange)
	h.opts.Logf("hub: accel bias X=%.2f Y=%.2f Z=%.2f", h.bias.Ax, h.bias.Ay, h.bias.Az)
	h.opts.Logf("hub: gyro bias  X=%.2f Y=%.2f Z=%.2f", h.bias.Gx, h.bias.Gy, h.bias.Gz)
	return nil
}

// State reports where the hub is in its lifecycle.
func (h *SensorHub) State() State { return h.state }

// ReadSensors polls the range finders, then the inertial sensor.
// The first failure is returned as a *ReadFailure.
func (h *SensorHub) ReadSensors() error {
	if h.state != Ready {
		return ErrNotInitialized
	}
	if err := h.readRange(); err != nil {
		return err
	}
	return h.readInertial()
}

// readRange reads both range finders. Distances, including ranging.NoEcho, are stored as reported.
func (h *SensorHub) readRange() error {
	if h.state != Ready {
		return ErrNotInitialized
	}
	front, err := h.front.Distance()
	if err != nil {
		return &ReadFailure{Source: "range front", Err: err}
	}
	rear, err := h.rear.Distance()
	if err != nil {
		return &ReadFailure{Source: "range rear", Err: err}
	}
	h.distance = ranging.Reading{Front: front, Rear: rear}
	return nil
}

// readInertial reads one raw sample and stores it with the bias subtracted.
func (h *SensorHub) readInertial() error {
	if h.state != Ready {
		return ErrNotInitialized
	}
	raw, err := h.inertial.ReadSample()
	if err != nil {
		return &ReadFailure{Source: "inertial", Err: err}
	}
	h.motion = h.bias.Correct(raw)
	return nil
}

// Range returns the latest range reading.
func (h *SensorHub) Range() (ranging.Reading, error) {
	if h.state != Ready {
		return ranging.Reading{}, ErrNotInitialized
	}
	return h.distance, nil
}

// Inertial returns the latest bias-corrected inertial sample.
func (h *SensorHub) Inertial() (imu.Sample, error) {
	if h.state != Ready {
		return imu.Sample{}, ErrNotInitialized
	}
	return h.motion, nil
}

// Bias returns the offsets estimated by Init.
func (h *SensorHub) Bias() (imu.Bias, error) {
	if h.state != Ready {
		return imu.Bias{}, ErrNotInitialized
	}
	return h.bias, nil
}

// Snapshot returns the current range reading, inertial sample and bias together.
func (h *SensorHub) Snapshot() (Snapshot, error) {
	if h.state != Ready {
		return Snapshot{}, ErrNotInitialized
	}
	return Snapshot{Range: h.distance, Inertial: h.motion, Bias: h.bias}, nil
}
