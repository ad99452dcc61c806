// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/relabs-tech/rover_sensors/internal/config"
	"github.com/relabs-tech/rover_sensors/internal/hub"
	"github.com/relabs-tech/rover_sensors/internal/imu"
	"github.com/relabs-tech/rover_sensors/internal/ranging"
	"github.com/relabs-tech/rover_sensors/internal/sensors"
)

// hubCloser releases the inertial driver, when it holds a bus, and the range finders.
type hubCloser struct {
	inertial imu.Driver
	ranges   io.Closer
}

func (c hubCloser) Close() error {
	var errs []error
	if cl, ok := c.inertial.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			errs = append(errs, fmt.Errorf("inertial: %w", err))
		}
	}
	if err := c.ranges.Close(); err != nil {
		errs = append(errs, fmt.Errorf("range finders: %w", err))
	}
	return errors.Join(errs...)
}

// openHub builds the drivers named in cfg and brings the hub to Ready.
// Any error here means no sensor data can be trusted.
func openHub(cfg *config.Config) (*hub.SensorHub, io.Closer, error) {
	inertial, err := sensors.NewInertial(cfg)
	if err != nil {
		return nil, nil, err
	}
	front, rear, closer, err := sensors.OpenRangeFinders(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("range finders: %w", err)
	}
	return startHub(cfg, inertial, front, rear, closer)
}

// startHub runs Init on the given drivers. Every driver is closed when Init fails;
// otherwise the returned closer owns them.
func startHub(cfg *config.Config, inertial imu.Driver, front, rear ranging.Finder, ranges io.Closer) (*hub.SensorHub, io.Closer, error) {
	closer := hubCloser{inertial: inertial, ranges: ranges}

	h := hub.New(inertial, front, rear, hub.Options{
		CalibrationSamples: cfg.CalibrationSamples,
		AccelRange:         cfg.IMUAccelRange,
	})
	if err := h.Init(); err != nil {
		closer.Close()
		return nil, nil, err
	}
	return h, closer, nil
}
