// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"testing"

	"go.viam.com/test"

	"github.com/relabs-tech/rover_sensors/internal/config"
)

func TestNewInertialSelectsDriver(t *testing.T) {
	cfg := config.Default()

	drv, err := NewInertial(cfg)
	test.That(t, err, test.ShouldBeNil)
	_, ok := drv.(*MPU6050)
	test.That(t, ok, test.ShouldBeTrue)

	cfg.IMUDriver = "mpu9250"
	drv, err = NewInertial(cfg)
	test.That(t, err, test.ShouldBeNil)
	_, ok = drv.(*MPU9250)
	test.That(t, ok, test.ShouldBeTrue)

	cfg.IMUDriver = "mock"
	drv, err = NewInertial(cfg)
	test.That(t, err, test.ShouldBeNil)
	_, ok = drv.(*MockIMU)
	test.That(t, ok, test.ShouldBeTrue)

	cfg.IMUDriver = "lsm9ds1"
	_, err = NewInertial(cfg)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestOpenMockRangeFinders(t *testing.T) {
	cfg := config.Default()
	cfg.IRDriver = "mock"

	front, rear, closer, err := OpenRangeFinders(cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, front, test.ShouldNotBeNil)
	test.That(t, rear, test.ShouldNotBeNil)
	test.That(t, closer.Close(), test.ShouldBeNil)
}
