// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "fmt"

// AccelRange is the accelerometer full-scale selector (ACCEL_FS_SEL).
// 0=±2g, 1=±4g, 2=±8g, 3=±16g
type AccelRange byte

// GyroRange is the gyroscope full-scale selector (GYRO_FS_SEL).
// 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
type GyroRange byte

const (
	Accel2G AccelRange = iota
	Accel4G
	Accel8G
	Accel16G
)

const (
	Gyro250 GyroRange = iota
	Gyro500
	Gyro1000
	Gyro2000
)

// rawSpan is the magnitude of a signed 16-bit register: readings cover [-32768, 32767].
const rawSpan = 32768

var accelG = [...]int{2, 4, 8, 16}
var gyroDPS = [...]int{250, 500, 1000, 2000}

// Validate reports whether r is a known selector.
func (r AccelRange) Validate() error {
	if int(r) >= len(accelG) {
		return fmt.Errorf("accel range must be 0-3, got %d", r)
	}
	return nil
}

// Validate reports whether r is a known selector.
func (r GyroRange) Validate() error {
	if int(r) >= len(gyroDPS) {
		return fmt.Errorf("gyro range must be 0-3, got %d", r)
	}
	return nil
}

// G returns the full-scale value in g.
func (r AccelRange) G() int { return accelG[r] }

// DPS returns the full-scale value in degrees per second.
func (r GyroRange) DPS() int { return gyroDPS[r] }

// CountsPerG is the raw reading of 1 g at this range (16384 at ±2g).
func (r AccelRange) CountsPerG() float64 {
	return float64(rawSpan) / float64(accelG[r])
}

// CountsPerDPS is the raw reading of 1 °/s at this range (131.072 at ±250°/s).
func (r GyroRange) CountsPerDPS() float64 {
	return float64(rawSpan) / float64(gyroDPS[r])
}

func (r AccelRange) String() string { return fmt.Sprintf("±%dg", accelG[r]) }

func (r GyroRange) String() string { return fmt.Sprintf("±%d°/s", gyroDPS[r]) }
