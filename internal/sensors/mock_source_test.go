// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/relabs-tech/rover_sensors/internal/imu"
	"github.com/relabs-tech/rover_sensors/internal/ranging"
)

func TestMockIMUAtRest(t *testing.T) {
	start := time.Unix(1000, 0)
	m := NewMockIMU(imu.Accel2G)
	m.now = func() time.Time { return start }
	test.That(t, m.Initialize(), test.ShouldBeNil)

	s, err := m.ReadSample()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s, test.ShouldResemble, imu.RawSample{Ax: 120, Ay: 220, Az: -16324, Gx: 215, Gy: -22, Gz: 9})
}

func TestMockRangeNoEcho(t *testing.T) {
	start := time.Unix(1000, 0)
	m, err := NewMockRange(ranging.GP2Y0A21YK, 70, 30)
	test.That(t, err, test.ShouldBeNil)
	m.start = start

	m.now = func() time.Time { return start }
	d, err := m.Distance()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, 70.0)

	// sin(0.3*t) = 1 at t = pi/0.6 seconds: 100 cm is beyond the 80 cm limit.
	m.now = func() time.Time { return start.Add(5236 * time.Millisecond) }
	d, err = m.Distance()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, ranging.NoEcho)
}
