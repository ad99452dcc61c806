// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"io"

	"github.com/relabs-tech/rover_sensors/internal/config"
	"github.com/relabs-tech/rover_sensors/internal/imu"
	"github.com/relabs-tech/rover_sensors/internal/ranging"
)

// NewInertial picks the inertial driver named by IMU_DRIVER.
// The returned driver has not touched the bus yet; the hub calls Initialize.
func NewInertial(cfg *config.Config) (imu.Driver, error) {
	switch cfg.IMUDriver {
	case "mpu6050":
		return NewMPU6050(cfg.IMUI2CBus, cfg.IMUI2CAddr, cfg.IMUAccelRange, cfg.IMUGyroRange), nil
	case "mpu9250":
		return NewMPU9250(cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange, cfg.IMUGyroRange), nil
	case "mock":
		return NewMockIMU(cfg.IMUAccelRange), nil
	default:
		return nil, fmt.Errorf("unknown IMU driver %q", cfg.IMUDriver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenRangeFinders brings up the front and rear range finders named by IR_DRIVER.
// The closer releases whatever bus they hold.
func OpenRangeFinders(cfg *config.Config) (ranging.Finder, ranging.Finder, io.Closer, error) {
	switch cfg.IRDriver {
	case "ads1115":
		pair, err := OpenIRPair(cfg.IRI2CBus, cfg.IRADCAddr,
			IRChannel{Pin: cfg.IRFrontChannel, Model: cfg.IRFrontModel},
			IRChannel{Pin: cfg.IRRearChannel, Model: cfg.IRRearModel},
			cfg.IRSamples)
		if err != nil {
			return nil, nil, nil, err
		}
		return pair.Front, pair.Rear, pair, nil
	case "mock":
		f, err := NewMockRange(cfg.IRFrontModel, 45, 50)
		if err != nil {
			return nil, nil, nil, err
		}
		r, err := NewMockRange(cfg.IRRearModel, 30, 15)
		if err != nil {
			return nil, nil, nil, err
		}
		return f, r, nopCloser{}, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown range finder driver %q", cfg.IRDriver)
	}
}
