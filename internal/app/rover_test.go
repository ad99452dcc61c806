// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"testing"

	"go.viam.com/test"

	"github.com/relabs-tech/rover_sensors/internal/config"
	"github.com/relabs-tech/rover_sensors/internal/hub"
	"github.com/relabs-tech/rover_sensors/internal/imu"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type recordingPublisher struct {
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(topic string, retained bool, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic: topic, retained: retained, payload: payload})
	return nil
}

type failingSource struct {
	err error
}

func (f failingSource) ReadSensors() error                    { return f.err }
func (f failingSource) Snapshot() (hub.Snapshot, error)       { return hub.Snapshot{}, nil }
func (f failingSource) FormatReadableReport() (string, error) { return "", nil }

func mockConfig() *config.Config {
	cfg := config.Default()
	cfg.IMUDriver = "mock"
	cfg.IRDriver = "mock"
	cfg.MQTTBroker = "tcp://localhost:1883"
	cfg.PollInterval = 10
	cfg.CalibrationSamples = 4
	return cfg
}

func TestOpenHubWithMockDrivers(t *testing.T) {
	h, closer, err := openHub(mockConfig())
	test.That(t, err, test.ShouldBeNil)
	defer closer.Close()

	test.That(t, h.State(), test.ShouldEqual, hub.Ready)

	b, err := h.Bias()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Az, test.ShouldEqual, 60.0)
	test.That(t, b.Gz, test.ShouldEqual, 9.0)
}

type closingIMU struct {
	readErr error
	closed  int
}

func (c *closingIMU) Initialize() error { return nil }

func (c *closingIMU) ReadSample() (imu.RawSample, error) {
	return imu.RawSample{Az: -16384}, c.readErr
}

func (c *closingIMU) Close() error {
	c.closed++
	return nil
}

type countingCloser struct{ closed int }

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

type fixedFinder float64

func (f fixedFinder) Distance() (float64, error) { return float64(f), nil }

func TestStartHubClosesDriversWhenCalibrationFails(t *testing.T) {
	drv := &closingIMU{readErr: errors.New("bus timeout")}
	ranges := &countingCloser{}

	_, _, err := startHub(mockConfig(), drv, fixedFinder(10), fixedFinder(20), ranges)
	var initErr *hub.InitError
	test.That(t, errors.As(err, &initErr), test.ShouldBeTrue)
	test.That(t, drv.closed, test.ShouldEqual, 1)
	test.That(t, ranges.closed, test.ShouldEqual, 1)
}

func TestStartHubCloserReleasesInertialDriver(t *testing.T) {
	drv := &closingIMU{}
	ranges := &countingCloser{}

	h, closer, err := startHub(mockConfig(), drv, fixedFinder(10), fixedFinder(20), ranges)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.State(), test.ShouldEqual, hub.Ready)
	test.That(t, drv.closed, test.ShouldEqual, 0)

	test.That(t, closer.Close(), test.ShouldBeNil)
	test.That(t, drv.closed, test.ShouldEqual, 1)
	test.That(t, ranges.closed, test.ShouldEqual, 1)
}

func TestOpenHubUnknownDriver(t *testing.T) {
	cfg := mockConfig()
	cfg.IMUDriver = "bmi160"
	_, _, err := openHub(cfg)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bmi160")
}

func TestPollerTickPublishesReadingsAndReport(t *testing.T) {
	cfg := mockConfig()
	h, closer, err := openHub(cfg)
	test.That(t, err, test.ShouldBeNil)
	defer closer.Close()

	pub := &recordingPublisher{}
	p := &poller{hub: h, pub: pub, cfg: cfg}

	s, err := p.tick()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Inertial.Az, test.ShouldEqual, -16384.0)
	test.That(t, s.Inertial.Gz, test.ShouldEqual, 0.0)

	test.That(t, len(pub.msgs), test.ShouldEqual, 2)

	readings := pub.msgs[0]
	test.That(t, readings.topic, test.ShouldEqual, cfg.TopicReadings)
	test.That(t, readings.retained, test.ShouldBeTrue)
	var got hub.Snapshot
	test.That(t, json.Unmarshal(readings.payload, &got), test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, s)

	report := pub.msgs[1]
	test.That(t, report.topic, test.ShouldEqual, cfg.TopicReport)
	test.That(t, string(report.payload), test.ShouldEqual, hub.FormatReport(s))
}

func TestPollerTickReadFailurePublishesNothing(t *testing.T) {
	rf := &hub.ReadFailure{Source: "range front", Err: errors.New("nack")}
	pub := &recordingPublisher{}
	p := &poller{hub: failingSource{err: rf}, pub: pub, cfg: mockConfig()}

	_, err := p.tick()
	var got *hub.ReadFailure
	test.That(t, errors.As(err, &got), test.ShouldBeTrue)
	test.That(t, got.Source, test.ShouldEqual, "range front")
	test.That(t, pub.msgs, test.ShouldBeEmpty)
}

func TestPollerTickPublishError(t *testing.T) {
	cfg := mockConfig()
	h, closer, err := openHub(cfg)
	test.That(t, err, test.ShouldBeNil)
	defer closer.Close()

	p := &poller{hub: h, pub: &recordingPublisher{err: errors.New("not connected")}, cfg: cfg}
	_, err = p.tick()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, cfg.TopicReadings)

	var rf *hub.ReadFailure
	test.That(t, errors.As(err, &rf), test.ShouldBeFalse)
}

func TestPollerPublishBiasRetained(t *testing.T) {
	cfg := mockConfig()
	h, closer, err := openHub(cfg)
	test.That(t, err, test.ShouldBeNil)
	defer closer.Close()

	pub := &recordingPublisher{}
	p := &poller{hub: h, pub: pub, cfg: cfg}
	test.That(t, p.publishBias(), test.ShouldBeNil)

	test.That(t, len(pub.msgs), test.ShouldEqual, 1)
	test.That(t, pub.msgs[0].topic, test.ShouldEqual, cfg.TopicBias)
	test.That(t, pub.msgs[0].retained, test.ShouldBeTrue)

	var b imu.Bias
	test.That(t, json.Unmarshal(pub.msgs[0].payload, &b), test.ShouldBeNil)
	want, _ := h.Bias()
	test.That(t, b, test.ShouldResemble, want)
}
