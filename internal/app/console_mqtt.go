// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/rover_sensors/internal/config"
	"github.com/relabs-tech/rover_sensors/internal/hub"
	"github.com/relabs-tech/rover_sensors/internal/imu"
)

func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	biasToken := client.Subscribe(cfg.TopicBias, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var b imu.Bias
		if err := json.Unmarshal(msg.Payload(), &b); err != nil {
			log.Printf("console: bias unmarshal error: %v", err)
			return
		}
		fmt.Println(formatBiasLine(b))
	})
	biasToken.Wait()
	if biasToken.Error() != nil {
		return biasToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicBias)

	readingsToken := client.Subscribe(cfg.TopicReadings, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s hub.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: readings unmarshal error: %v", err)
			return
		}
		fmt.Println(formatSnapshotLine(s))
	})
	readingsToken.Wait()
	if readingsToken.Error() != nil {
		return readingsToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicReadings)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

func formatBiasLine(b imu.Bias) string {
	return fmt.Sprintf(
		"[BIAS] ax=%8.2f ay=%8.2f az=%8.2f  gx=%7.2f gy=%7.2f gz=%7.2f",
		b.Ax, b.Ay, b.Az, b.Gx, b.Gy, b.Gz,
	)
}

func formatSnapshotLine(s hub.Snapshot) string {
	return fmt.Sprintf(
		"[IR ] front=%6.2f rear=%6.2f  [IMU] ax=%7.1f ay=%7.1f az=%7.1f  gx=%6.1f gy=%6.1f gz=%6.1f",
		s.Range.Front, s.Range.Rear,
		s.Inertial.Ax, s.Inertial.Ay, s.Inertial.Az,
		s.Inertial.Gx, s.Inertial.Gy, s.Inertial.Gz,
	)
}
