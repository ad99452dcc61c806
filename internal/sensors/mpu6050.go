// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"log"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/rover_sensors/internal/imu"
)

// MPU6050 registers used by this driver.
const (
	regGyroConfig  = 0x1B
	regAccelConfig = 0x1C
	regAccelXOutH  = 0x3B // start of the 14 byte accel/temp/gyro burst
	regPwrMgmt1    = 0x6B
	regWhoAmI      = 0x75

	mpu6050WhoAmI = 0x68
	// Wake up with the X gyro PLL as clock source.
	pwrClockPLLGyroX = 0x01
	motionBurstLen   = 14
)

// MPU6050 reads an InvenSense MPU6050 over I2C.
type MPU6050 struct {
	busName string
	addr    uint16
	accel   imu.AccelRange
	gyro    imu.GyroRange

	bus i2c.BusCloser
	dev *i2c.Dev
}

// NewMPU6050 returns a driver for the chip at addr on busName ("" picks the first bus).
// Nothing touches the hardware until Initialize.
func NewMPU6050(busName string, addr uint16, accel imu.AccelRange, gyro imu.GyroRange) *MPU6050 {
	return &MPU6050{busName: busName, addr: addr, accel: accel, gyro: gyro}
}

// Initialize opens the I2C bus, checks the chip identity and applies the ranges.
func (m *MPU6050) Initialize() error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "mpu6050: periph host init")
	}
	if m.bus != nil {
		m.bus.Close()
		m.bus = nil
	}
	bus, err := i2creg.Open(m.busName)
	if err != nil {
		return errors.Wrapf(err, "mpu6050: open I2C bus %q", m.busName)
	}
	if err := m.initOnBus(bus); err != nil {
		bus.Close()
		return err
	}
	m.bus = bus
	return nil
}

// initOnBus is split from Initialize so tests can supply a recorded bus.
func (m *MPU6050) initOnBus(bus i2c.Bus) error {
	m.dev = &i2c.Dev{Bus: bus, Addr: m.addr}

	id := make([]byte, 1)
	if err := m.dev.Tx([]byte{regWhoAmI}, id); err != nil {
		return errors.Wrapf(err, "mpu6050: read WHO_AM_I at 0x%02X", m.addr)
	}
	if id[0] != mpu6050WhoAmI {
		return errors.Errorf("mpu6050: unexpected WHO_AM_I 0x%02X at 0x%02X (want 0x%02X)", id[0], m.addr, mpu6050WhoAmI)
	}

	writes := []struct {
		name     string
		reg, val byte
	}{
		{"PWR_MGMT_1", regPwrMgmt1, pwrClockPLLGyroX},
		{"GYRO_CONFIG", regGyroConfig, byte(m.gyro) << 3},
		{"ACCEL_CONFIG", regAccelConfig, byte(m.accel) << 3},
	}
	for _, w := range writes {
		if err := m.dev.Tx([]byte{w.reg, w.val}, nil); err != nil {
			return errors.Wrapf(err, "mpu6050: write %s", w.name)
		}
	}
	log.Printf("mpu6050: ready at 0x%02X, accel %s, gyro %s", m.addr, m.accel, m.gyro)
	return nil
}

// ReadSample reads accelerometer and gyroscope in one burst.
func (m *MPU6050) ReadSample() (imu.RawSample, error) {
	if m.dev == nil {
		return imu.RawSample{}, errors.New("mpu6050: not initialized")
	}
	buf := make([]byte, motionBurstLen)
	if err := m.dev.Tx([]byte{regAccelXOutH}, buf); err != nil {
		return imu.RawSample{}, errors.Wrap(err, "mpu6050: read motion burst")
	}
	return decodeMotionBurst(buf), nil
}

// decodeMotionBurst unpacks ACCEL_XOUT_H..GYRO_ZOUT_L. Bytes 6-7 hold the temperature.
func decodeMotionBurst(b []byte) imu.RawSample {
	word := func(i int) int16 { return int16(binary.BigEndian.Uint16(b[i:])) }
	return imu.RawSample{
		Ax: word(0),
		Ay: word(2),
		Az: word(4),
		Gx: word(8),
		Gy: word(10),
		Gz: word(12),
	}
}

// Close releases the I2C bus.
func (m *MPU6050) Close() error {
	if m.bus == nil {
		return nil
	}
	return m.bus.Close()
}
