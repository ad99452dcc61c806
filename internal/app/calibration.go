// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/relabs-tech/rover_sensors/internal/config"
	"github.com/relabs-tech/rover_sensors/internal/imu"
)

// CalibrationResult is the bias file written by the calibration tool.
// Values are raw counts; Z includes the gravity term.
type CalibrationResult struct {
	Version    int       `json:"version"`
	IMU        string    `json:"imu"`
	Timestamp  time.Time `json:"timestamp"`
	Samples    int       `json:"samples"`
	AccelRange string    `json:"accel_range"`
	GyroRange  string    `json:"gyro_range"`

	AccelBiasX float64 `json:"accel_bias_x"`
	AccelBiasY float64 `json:"accel_bias_y"`
	AccelBiasZ float64 `json:"accel_bias_z"`
	GyroBiasX  float64 `json:"gyro_bias_x"`
	GyroBiasY  float64 `json:"gyro_bias_y"`
	GyroBiasZ  float64 `json:"gyro_bias_z"`
}

func newCalibrationResult(cfg *config.Config, b imu.Bias, at time.Time) CalibrationResult {
	return CalibrationResult{
		Version:    1,
		IMU:        cfg.IMUDriver,
		Timestamp:  at,
		Samples:    cfg.CalibrationSamples,
		AccelRange: cfg.IMUAccelRange.String(),
		GyroRange:  cfg.IMUGyroRange.String(),
		AccelBiasX: b.Ax,
		AccelBiasY: b.Ay,
		AccelBiasZ: b.Az,
		GyroBiasX:  b.Gx,
		GyroBiasY:  b.Gy,
		GyroBiasZ:  b.Gz,
	}
}

// writeResult stores res under dir and returns the file name it used.
func writeResult(dir string, res CalibrationResult) (string, error) {
	ts := res.Timestamp.UTC().Format("2006-01-02T15-04-05Z")
	name := filepath.Join(dir, fmt.Sprintf("%s_%s_rover_bias.json", res.IMU, ts))

	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(name, b, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// RunCalibration initializes the hub once, which measures the bias, and writes
// the result to dir. samples overrides CALIBRATION_SAMPLES when positive.
func RunCalibration(samples int, dir string) (string, error) {
	cfg := *config.Get()
	if samples > 0 {
		cfg.CalibrationSamples = samples
	}

	h, closer, err := openHub(&cfg)
	if err != nil {
		return "", err
	}
	defer closer.Close()

	bias, err := h.Bias()
	if err != nil {
		return "", err
	}
	return writeResult(dir, newCalibrationResult(&cfg, bias, time.Now()))
}
