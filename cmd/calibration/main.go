// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibration/main.go
//
// One-shot bias calibration for the rover inertial sensor.
// Averages CALIBRATION_SAMPLES readings with the rover at rest and level,
// the same procedure the rover runs at startup, and writes the result as JSON.
//
// Run:
//
//	go run ./cmd/calibration -samples 200
//
// Notes / assumptions:
//   - Bias is stored in raw counts. The Z bias includes one g at the configured accel range.
//   - Range finders are brought up too so a wiring fault shows here rather than on the rover.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/relabs-tech/rover_sensors/internal/app"
	"github.com/relabs-tech/rover_sensors/internal/config"
)

func main() {
	configPath := flag.String("config", "rover_config.txt", "Path to configuration file")
	samples := flag.Int("samples", 0, "Samples to average (0 uses CALIBRATION_SAMPLES)")
	outDir := flag.String("out", "calibration", "Directory for the result file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	fmt.Println("=== Bias Calibration (Accel + Gyro) ===")
	fmt.Println("Place the rover on a level surface and do not touch it.")
	fmt.Print("Press ENTER to start...")
	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		log.Fatalf("read stdin: %v", err)
	}

	name, err := app.RunCalibration(*samples, *outDir)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	fmt.Printf("\nWrote: %s\n", name)
}
