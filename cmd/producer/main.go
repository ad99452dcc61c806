// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/rover_sensors/internal/app"
	"github.com/relabs-tech/rover_sensors/internal/config"
)

func main() {
	configPath := flag.String("config", "./rover_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting rover MQTT producer (mock)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Same pipeline as the rover, fed by generated readings and without the serial link
	cfg := config.Get()
	cfg.IMUDriver = "mock"
	cfg.IRDriver = "mock"
	cfg.SerialPort = ""

	if err := app.RunRover(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
