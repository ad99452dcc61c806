// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/rover_sensors/internal/config"
	"github.com/relabs-tech/rover_sensors/internal/hub"
)

// RunMockConsole drives a hub built from the mock drivers and prints the
// readable report on every poll, with no broker or hardware involved.
func RunMockConsole() error {
	cfg := *config.Get()
	cfg.IMUDriver = "mock"
	cfg.IRDriver = "mock"

	h, closer, err := openHub(&cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ticker := time.NewTicker(time.Duration(cfg.PollInterval) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		if err := h.ReadSensors(); err != nil {
			var rf *hub.ReadFailure
			if errors.As(err, &rf) {
				log.Printf("mock: %v", rf)
				continue
			}
			return err
		}

		report, err := h.FormatReadableReport()
		if err != nil {
			return err
		}
		fmt.Print(report)
	}
	return nil
}
