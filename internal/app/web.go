// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	sse "github.com/alexandrevicenzi/go-sse"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/rover_sensors/internal/config"
	"github.com/relabs-tech/rover_sensors/internal/hub"
	"github.com/relabs-tech/rover_sensors/internal/imu"
)

// eventsChannel is the SSE channel every snapshot is pushed to.
const eventsChannel = "/events/readings"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// liveState keeps the last values seen on the broker and fans snapshots out to
// websocket sessions.
type liveState struct {
	mu           sync.RWMutex
	snapshot     hub.Snapshot
	haveSnapshot bool
	report       string
	bias         imu.Bias
	haveBias     bool
	subs         map[chan hub.Snapshot]struct{}
}

func newLiveState() *liveState {
	return &liveState{subs: make(map[chan hub.Snapshot]struct{})}
}

func (l *liveState) setSnapshot(s hub.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshot = s
	l.haveSnapshot = true
	for ch := range l.subs {
		select {
		case ch <- s:
		default: // slow reader, it gets the next one
		}
	}
}

func (l *liveState) setReport(r string) {
	l.mu.Lock()
	l.report = r
	l.mu.Unlock()
}

func (l *liveState) setBias(b imu.Bias) {
	l.mu.Lock()
	l.bias = b
	l.haveBias = true
	l.mu.Unlock()
}

func (l *liveState) subscribe() chan hub.Snapshot {
	ch := make(chan hub.Snapshot, 4)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()
	return ch
}

func (l *liveState) unsubscribe(ch chan hub.Snapshot) {
	l.mu.Lock()
	delete(l.subs, ch)
	l.mu.Unlock()
}

// WSMessage is a request from a live view client.
type WSMessage struct {
	Action string `json:"action"` // snapshot, report, bias
}

type WSResponse struct {
	Type     string        `json:"type"` // snapshot, report, bias, error
	Snapshot *hub.Snapshot `json:"snapshot,omitempty"`
	Bias     *imu.Bias     `json:"bias,omitempty"`
	Report   string        `json:"report,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// liveSession serializes writes to one websocket connection.
type liveSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *liveSession) send(resp WSResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(resp)
}

func (s *liveSession) sendError(msg string) {
	if err := s.send(WSResponse{Type: "error", Message: msg}); err != nil {
		log.Printf("web: websocket write error: %v", err)
	}
}

func (l *liveState) response(action string) WSResponse {
	l.mu.RLock()
	defer l.mu.RUnlock()

	switch action {
	case "snapshot":
		if !l.haveSnapshot {
			return WSResponse{Type: "error", Message: "no data yet"}
		}
		s := l.snapshot
		return WSResponse{Type: "snapshot", Snapshot: &s}
	case "report":
		if l.report == "" {
			return WSResponse{Type: "error", Message: "no data yet"}
		}
		return WSResponse{Type: "report", Report: l.report}
	case "bias":
		if !l.haveBias {
			return WSResponse{Type: "error", Message: "no data yet"}
		}
		b := l.bias
		return WSResponse{Type: "bias", Bias: &b}
	default:
		return WSResponse{Type: "error", Message: fmt.Sprintf("unknown action: %s", action)}
	}
}

// handleLiveWS pushes every new snapshot to the client and answers its requests.
func (l *liveState) handleLiveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := &liveSession{conn: conn}
	updates := l.subscribe()
	defer l.unsubscribe(updates)

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case s := <-updates:
				if err := session.send(WSResponse{Type: "snapshot", Snapshot: &s}); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("web: websocket error: %v", err)
			}
			return
		}
		if err := session.send(l.response(msg.Action)); err != nil {
			log.Printf("web: websocket write error: %v", err)
			return
		}
	}
}

func (l *liveState) handleReadings(w http.ResponseWriter, r *http.Request) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.haveSnapshot {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(l.snapshot); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func (l *liveState) handleReport(w http.ResponseWriter, r *http.Request) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.report == "" {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, l.report)
}

func (l *liveState) handleBias(w http.ResponseWriter, r *http.Request) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.haveBias {
		http.Error(w, "not calibrated yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(l.bias); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func (l *liveState) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/readings", l.handleReadings)
	mux.HandleFunc("/api/report", l.handleReport)
	mux.HandleFunc("/api/bias", l.handleBias)
	mux.HandleFunc("/ws/live", l.handleLiveWS)
	return mux
}

// topicHandlers keeps the last value of each topic and forwards readings to the SSE feed.
func (l *liveState) topicHandlers(cfg *config.Config, events *sse.Server) map[string]mqtt.MessageHandler {
	return map[string]mqtt.MessageHandler{
		cfg.TopicReadings: func(_ mqtt.Client, msg mqtt.Message) {
			var s hub.Snapshot
			if err := json.Unmarshal(msg.Payload(), &s); err != nil {
				log.Printf("MQTT payload unmarshal error: %v", err)
				return
			}
			l.setSnapshot(s)
			events.SendMessage(eventsChannel, sse.NewMessage("", string(msg.Payload()), "readings"))
		},
		cfg.TopicReport: func(_ mqtt.Client, msg mqtt.Message) {
			l.setReport(string(msg.Payload()))
		},
		cfg.TopicBias: func(_ mqtt.Client, msg mqtt.Message) {
			var b imu.Bias
			if err := json.Unmarshal(msg.Payload(), &b); err != nil {
				log.Printf("MQTT payload unmarshal error: %v", err)
				return
			}
			l.setBias(b)
		},
	}
}

func RunWeb() error {
	cfg := config.Get()
	state := newLiveState()

	events := sse.NewServer(nil)
	defer events.Shutdown()

	// 1) Connect to MQTT broker on the Pi
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe and keep the last value of each topic
	subs := state.topicHandlers(cfg, events)
	for topic, handler := range subs {
		token := client.Subscribe(topic, 0, handler)
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("subscribed to MQTT topic %s", topic)
	}

	// 3) API, live feeds and static files from ./web as the root
	mux := state.routes()
	mux.Handle("/events/", events)
	mux.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
