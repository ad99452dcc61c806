// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sse "github.com/alexandrevicenzi/go-sse"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"go.viam.com/test"

	"github.com/relabs-tech/rover_sensors/internal/hub"
	"github.com/relabs-tech/rover_sensors/internal/imu"
	"github.com/relabs-tech/rover_sensors/internal/ranging"
)

var sampleSnapshot = hub.Snapshot{
	Range:    ranging.Reading{Front: 12.3, Rear: ranging.NoEcho},
	Inertial: imu.Sample{Ax: 1, Ay: 2, Az: 3, Gx: 4, Gy: 5, Gz: 6},
	Bias:     imu.Bias{Az: 16384},
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAPIBeforeData(t *testing.T) {
	mux := newLiveState().routes()
	for _, path := range []string{"/api/readings", "/api/report", "/api/bias"} {
		rec := get(t, mux, path)
		test.That(t, rec.Code, test.ShouldEqual, http.StatusServiceUnavailable)
	}
}

func TestAPIReadings(t *testing.T) {
	state := newLiveState()
	state.setSnapshot(sampleSnapshot)

	rec := get(t, state.routes(), "/api/readings")
	test.That(t, rec.Code, test.ShouldEqual, http.StatusOK)
	test.That(t, rec.Header().Get("Content-Type"), test.ShouldEqual, "application/json")

	var got hub.Snapshot
	test.That(t, json.Unmarshal(rec.Body.Bytes(), &got), test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, sampleSnapshot)
}

func TestAPIReportAndBias(t *testing.T) {
	state := newLiveState()
	state.setReport(hub.FormatReport(sampleSnapshot))
	state.setBias(sampleSnapshot.Bias)
	mux := state.routes()

	rec := get(t, mux, "/api/report")
	test.That(t, rec.Code, test.ShouldEqual, http.StatusOK)
	test.That(t, rec.Body.String(), test.ShouldStartWith, "IR_FRONT:\n12.30\n")

	rec = get(t, mux, "/api/bias")
	test.That(t, rec.Code, test.ShouldEqual, http.StatusOK)
	var b imu.Bias
	test.That(t, json.Unmarshal(rec.Body.Bytes(), &b), test.ShouldBeNil)
	test.That(t, b, test.ShouldResemble, sampleSnapshot.Bias)
}

func TestLiveResponseUnknownAction(t *testing.T) {
	resp := newLiveState().response("reboot")
	test.That(t, resp.Type, test.ShouldEqual, "error")
	test.That(t, resp.Message, test.ShouldContainSubstring, "reboot")
}

func TestLiveWebsocket(t *testing.T) {
	state := newLiveState()
	state.setBias(sampleSnapshot.Bias)

	srv := httptest.NewServer(state.routes())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	// Request/response first so the session is subscribed before the push.
	test.That(t, conn.WriteJSON(WSMessage{Action: "bias"}), test.ShouldBeNil)
	var msg WSResponse
	test.That(t, conn.ReadJSON(&msg), test.ShouldBeNil)
	test.That(t, msg.Type, test.ShouldEqual, "bias")
	test.That(t, *msg.Bias, test.ShouldResemble, sampleSnapshot.Bias)

	state.setSnapshot(sampleSnapshot)
	msg = WSResponse{}
	test.That(t, conn.ReadJSON(&msg), test.ShouldBeNil)
	test.That(t, msg.Type, test.ShouldEqual, "snapshot")
	test.That(t, *msg.Snapshot, test.ShouldResemble, sampleSnapshot)
}

func TestLiveWebsocketRejectsPlainHTTP(t *testing.T) {
	srv := httptest.NewServer(newLiveState().routes())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/ws/live")
	test.That(t, err, test.ShouldBeNil)
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)
	test.That(t, res.StatusCode, test.ShouldEqual, http.StatusBadRequest)
}

type brokerMessage struct {
	topic   string
	payload []byte
}

func (m brokerMessage) Duplicate() bool   { return false }
func (m brokerMessage) Qos() byte         { return 0 }
func (m brokerMessage) Retained() bool    { return false }
func (m brokerMessage) Topic() string     { return m.topic }
func (m brokerMessage) MessageID() uint16 { return 0 }
func (m brokerMessage) Payload() []byte   { return m.payload }
func (m brokerMessage) Ack()              {}

var _ mqtt.Message = brokerMessage{}

func TestTopicHandlersKeepLastValues(t *testing.T) {
	cfg := mockConfig()
	state := newLiveState()
	events := sse.NewServer(nil)
	defer events.Shutdown()

	handlers := state.topicHandlers(cfg, events)
	payload, err := json.Marshal(sampleSnapshot)
	test.That(t, err, test.ShouldBeNil)
	handlers[cfg.TopicReadings](nil, brokerMessage{topic: cfg.TopicReadings, payload: payload})
	handlers[cfg.TopicReport](nil, brokerMessage{topic: cfg.TopicReport, payload: []byte("IR_FRONT:\n")})
	handlers[cfg.TopicReadings](nil, brokerMessage{topic: cfg.TopicReadings, payload: []byte("{broken")})

	got := state.response("snapshot")
	test.That(t, got.Type, test.ShouldEqual, "snapshot")
	test.That(t, *got.Snapshot, test.ShouldResemble, sampleSnapshot)
	test.That(t, state.response("report").Report, test.ShouldEqual, "IR_FRONT:\n")
	test.That(t, state.response("bias").Type, test.ShouldEqual, "error")
}

func TestReadingsReachEventStream(t *testing.T) {
	cfg := mockConfig()
	state := newLiveState()
	events := sse.NewServer(nil)
	defer events.Shutdown()
	handlers := state.topicHandlers(cfg, events)

	mux := http.NewServeMux()
	mux.Handle("/events/", events)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	payload, err := json.Marshal(sampleSnapshot)
	test.That(t, err, test.ShouldBeNil)

	// The client registers asynchronously, so keep publishing until it sees one.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				handlers[cfg.TopicReadings](nil, brokerMessage{topic: cfg.TopicReadings, payload: payload})
			case <-stop:
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+eventsChannel, nil)
	test.That(t, err, test.ShouldBeNil)
	res, err := http.DefaultClient.Do(req)
	test.That(t, err, test.ShouldBeNil)
	defer res.Body.Close()
	test.That(t, res.Header.Get("Content-Type"), test.ShouldContainSubstring, "text/event-stream")

	var sawEvent bool
	var data string
	scanner := bufio.NewScanner(res.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event: readings" {
			sawEvent = true
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	test.That(t, sawEvent, test.ShouldBeTrue)

	var got hub.Snapshot
	test.That(t, json.Unmarshal([]byte(data), &got), test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, sampleSnapshot)
}
