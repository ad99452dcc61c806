// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// RawSample is a single six-axis motion sample in driver counts.
type RawSample struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// Sample is a bias-corrected six-axis sample, still in driver counts.
type Sample struct {
	Ax float64 `json:"ax"`
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Gx float64 `json:"gx"`
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`
}

// Bias holds the per-axis zero offsets estimated at calibration.
type Bias struct {
	Ax float64 `json:"ax"`
	Ay float64 `json:"ay"`
	Az float64 `json:"az"`

	Gx float64 `json:"gx"`
	Gy float64 `json:"gy"`
	Gz float64 `json:"gz"`
}

// Correct subtracts b from raw, axis by axis.
func (b Bias) Correct(raw RawSample) Sample {
	return Sample{
		Ax: float64(raw.Ax) - b.Ax,
		Ay: float64(raw.Ay) - b.Ay,
		Az: float64(raw.Az) - b.Az,
		Gx: float64(raw.Gx) - b.Gx,
		Gy: float64(raw.Gy) - b.Gy,
		Gz: float64(raw.Gz) - b.Gz,
	}
}

// Driver is the capability set the hub needs from an inertial sensor.
// Initialize brings up the bus and the chip; ReadSample reads all six axes once.
type Driver interface {
	Initialize() error
	ReadSample() (RawSample, error)
}
