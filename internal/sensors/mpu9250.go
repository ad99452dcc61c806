// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/rover_sensors/internal/imu"
)

// MPU9250 reads the accel and gyro of an MPU9250 over SPI.
type MPU9250 struct {
	spiDev string
	csPin  string
	accel  imu.AccelRange
	gyro   imu.GyroRange

	imu *mpu9250.MPU9250
}

// NewMPU9250 returns a driver for the chip on spiDev with chip select csPin.
func NewMPU9250(spiDev, csPin string, accel imu.AccelRange, gyro imu.GyroRange) *MPU9250 {
	return &MPU9250{spiDev: spiDev, csPin: csPin, accel: accel, gyro: gyro}
}

// Initialize opens the SPI transport, initializes the chip and applies the ranges.
func (s *MPU9250) Initialize() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("mpu9250: periph host init: %w", err)
	}

	cs := gpioreg.ByName(s.csPin)
	if cs == nil {
		return fmt.Errorf("mpu9250: CS pin %q not found", s.csPin)
	}

	tr, err := mpu9250.NewSpiTransport(s.spiDev, cs)
	if err != nil {
		return fmt.Errorf("mpu9250: SPI transport (%s): %w", s.spiDev, err)
	}

	dev, err := mpu9250.New(*tr)
	if err != nil {
		return fmt.Errorf("mpu9250: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return fmt.Errorf("mpu9250: initialization: %w", err)
	}

	if err := dev.SetAccelRange(byte(s.accel)); err != nil {
		return fmt.Errorf("mpu9250: set accel range: %w", err)
	}
	log.Printf("mpu9250: accelerometer range set to %d (%s)", s.accel, s.accel)

	if err := dev.SetGyroRange(byte(s.gyro)); err != nil {
		return fmt.Errorf("mpu9250: set gyro range: %w", err)
	}
	log.Printf("mpu9250: gyroscope range set to %d (%s)", s.gyro, s.gyro)

	// Self-test failures are reported but do not stop bring-up.
	testResult, err := dev.SelfTest()
	if err != nil {
		log.Printf("mpu9250: WARNING: self-test failed: %v", err)
	} else {
		log.Printf("mpu9250: self-test passed:")
		log.Printf("  Accelerometer deviation: X: %.2f%%, Y: %.2f%%, Z: %.2f%%",
			testResult.AccelDeviation.X, testResult.AccelDeviation.Y, testResult.AccelDeviation.Z)
		log.Printf("  Gyroscope deviation: X: %.2f%%, Y: %.2f%%, Z: %.2f%%",
			testResult.GyroDeviation.X, testResult.GyroDeviation.Y, testResult.GyroDeviation.Z)
	}

	s.imu = dev
	return nil
}

// ReadSample reads accelerometer and gyroscope axes one register pair at a time.
func (s *MPU9250) ReadSample() (imu.RawSample, error) {
	if s.imu == nil {
		return imu.RawSample{}, fmt.Errorf("mpu9250: not initialized")
	}

	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.RawSample{}, fmt.Errorf("mpu9250 accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.RawSample{}, fmt.Errorf("mpu9250 accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.RawSample{}, fmt.Errorf("mpu9250 accel Z: %w", err)
	}

	gx, err := s.imu.GetRotationX()
	if err != nil {
		return imu.RawSample{}, fmt.Errorf("mpu9250 gyro X: %w", err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return imu.RawSample{}, fmt.Errorf("mpu9250 gyro Y: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return imu.RawSample{}, fmt.Errorf("mpu9250 gyro Z: %w", err)
	}

	return imu.RawSample{Ax: ax, Ay: ay, Az: az, Gx: gx, Gy: gy, Gz: gz}, nil
}
