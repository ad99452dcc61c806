// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/rover_sensors/internal/config"
	"github.com/relabs-tech/rover_sensors/internal/hub"
	"github.com/relabs-tech/rover_sensors/internal/link"
)

// publisher is the slice of an MQTT client the poller needs.
type publisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

type mqttPublisher struct {
	client mqtt.Client
}

func (p mqttPublisher) Publish(topic string, retained bool, payload []byte) error {
	token := p.client.Publish(topic, 0, retained, payload)
	token.Wait()
	return token.Error()
}

// sensorSource is what the poller needs from the hub.
type sensorSource interface {
	ReadSensors() error
	Snapshot() (hub.Snapshot, error)
	FormatReadableReport() (string, error)
}

// poller is the only caller of the hub once it is Ready.
type poller struct {
	hub sensorSource
	pub publisher
	cfg *config.Config
}

// publishBias publishes the calibration result once, retained.
func (p *poller) publishBias() error {
	s, err := p.hub.Snapshot()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(s.Bias)
	if err != nil {
		return fmt.Errorf("bias marshal: %w", err)
	}
	return p.pub.Publish(p.cfg.TopicBias, true, payload)
}

// tick polls the hub once and publishes the snapshot and the readable report.
// A read failure is returned untouched so the caller can tell it from a publish error.
func (p *poller) tick() (hub.Snapshot, error) {
	if err := p.hub.ReadSensors(); err != nil {
		return hub.Snapshot{}, err
	}
	s, err := p.hub.Snapshot()
	if err != nil {
		return hub.Snapshot{}, err
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return s, fmt.Errorf("readings marshal: %w", err)
	}
	if err := p.pub.Publish(p.cfg.TopicReadings, true, payload); err != nil {
		return s, fmt.Errorf("publish %s: %w", p.cfg.TopicReadings, err)
	}

	report, err := p.hub.FormatReadableReport()
	if err != nil {
		return s, err
	}
	if err := p.pub.Publish(p.cfg.TopicReport, false, []byte(report)); err != nil {
		return s, fmt.Errorf("publish %s: %w", p.cfg.TopicReport, err)
	}
	return s, nil
}

// RunRover brings up the sensors, calibrates, then polls forever, publishing every
// reading to MQTT and answering the remote console on the serial link.
func RunRover() error {
	log.Println("rover: starting sensor hub")
	cfg := config.Get()

	h, closer, err := openHub(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDRover)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("rover: connected to MQTT broker at %s", cfg.MQTTBroker)

	p := &poller{hub: h, pub: mqttPublisher{client: client}, cfg: cfg}
	if err := p.publishBias(); err != nil {
		log.Printf("rover: bias publish error: %v", err)
	}

	var requests <-chan link.Request
	var remote *link.Link
	if cfg.SerialPort != "" {
		port, err := link.OpenSerial(cfg.SerialPort, cfg.SerialBaud)
		if err != nil {
			return err
		}
		defer port.Close()

		remote = link.New(port, link.Framing(cfg.SerialFraming))
		if err := remote.Greet(); err != nil {
			return fmt.Errorf("link greeting: %w", err)
		}
		go func() {
			if err := remote.Listen(); err != nil {
				log.Printf("link: listen stopped: %v", err)
			}
		}()
		requests = remote.Requests()
		log.Printf("rover: remote link on %s at %d baud (%s)", cfg.SerialPort, cfg.SerialBaud, cfg.SerialFraming)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.PollInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("rover: polling")
	for {
		select {
		case <-ticker.C:
			if _, err := p.tick(); err != nil {
				var rf *hub.ReadFailure
				if errors.As(err, &rf) {
					log.Printf("rover: %v", rf)
					continue
				}
				log.Printf("rover: publish error: %v", err)
			}

		case _, ok := <-requests:
			if !ok {
				log.Println("rover: remote link closed")
				requests = nil
				continue
			}
			s, err := h.Snapshot()
			if err != nil {
				log.Printf("rover: snapshot: %v", err)
				continue
			}
			if err := remote.SendReadings(s); err != nil {
				log.Printf("link: send readings: %v", err)
			}

		case <-sigCh:
			log.Println("rover: shutting down")
			return nil
		}
	}
}
