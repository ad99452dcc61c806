// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/rover_sensors/internal/imu"
	"github.com/relabs-tech/rover_sensors/internal/ranging"
)

// MockIMU generates a level, slowly rocking sensor with a fixed offset on every axis.
// Z reads -1 g at rest.
type MockIMU struct {
	accel imu.AccelRange
	start time.Time
	now   func() time.Time
}

// NewMockIMU creates a mock inertial driver for bench runs without hardware.
func NewMockIMU(accel imu.AccelRange) *MockIMU {
	return &MockIMU{accel: accel, now: time.Now}
}

func (m *MockIMU) Initialize() error {
	m.start = m.now()
	return nil
}

func (m *MockIMU) ReadSample() (imu.RawSample, error) {
	elapsed := m.now().Sub(m.start).Seconds()
	g := m.accel.CountsPerG()
	return imu.RawSample{
		Ax: int16(120 + 400*math.Sin(elapsed)),
		Ay: int16(-80 + 300*math.Cos(elapsed*0.7)),
		Az: int16(-g + 60),
		Gx: int16(15 + 200*math.Cos(elapsed)),
		Gy: int16(-22 - 140*math.Sin(elapsed*0.7)),
		Gz: int16(9),
	}, nil
}

// MockRange sweeps a distance back and forth; past MaxCM it reports ranging.NoEcho.
type MockRange struct {
	base, swing float64
	curve       ranging.Curve
	start       time.Time
	now         func() time.Time
}

// NewMockRange creates a mock range finder centered on base centimeters.
func NewMockRange(model ranging.Model, base, swing float64) (*MockRange, error) {
	curve, err := model.Curve()
	if err != nil {
		return nil, err
	}
	return &MockRange{base: base, swing: swing, curve: curve, start: time.Now(), now: time.Now}, nil
}

func (m *MockRange) Distance() (float64, error) {
	elapsed := m.now().Sub(m.start).Seconds()
	d := m.base + m.swing*math.Sin(elapsed*0.3)
	if d < m.curve.MinCM || d > m.curve.MaxCM {
		return ranging.NoEcho, nil
	}
	return d, nil
}
