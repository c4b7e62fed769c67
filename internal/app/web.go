// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"cmp"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/motion_monitor/internal/motion"
)

// logHistory is how many log lines per source a new client gets on connect.
const logHistory = 50

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// FeedbackMessage is pushed to websocket clients.
type FeedbackMessage struct {
	Type      string    `json:"type"` // indicator, log
	Source    string    `json:"source"`
	Color     string    `json:"color,omitempty"`
	Indicator string    `json:"indicator,omitempty"`
	Message   string    `json:"message,omitempty"`
	Time      time.Time `json:"time"`
}

// IndicatorState is the current indicator of one source.
type IndicatorState struct {
	Source    string    `json:"source"`
	Color     string    `json:"color"`
	Indicator string    `json:"indicator"`
	Updated   time.Time `json:"updated"`
}

type sourceFeed struct {
	indicator IndicatorState
	log       []FeedbackMessage
}

// Hub is a feedback sink that mirrors the indicator and log of every source
// to connected websocket clients.
type Hub struct {
	palette motion.Palette

	mu      sync.Mutex
	feeds   map[string]*sourceFeed
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan FeedbackMessage
}

// NewHub returns a hub with no sources and no clients.
func NewHub(palette motion.Palette) *Hub {
	return &Hub{
		palette: palette,
		feeds:   make(map[string]*sourceFeed),
		clients: make(map[*wsClient]struct{}),
	}
}

// Sinks returns a factory for per-source sinks backed by the hub.
func (h *Hub) Sinks() SinkFactory {
	return func(source string) motion.FeedbackSink {
		return hubSink{hub: h, source: source}
	}
}

type hubSink struct {
	hub    *Hub
	source string
}

func (s hubSink) SetIndicator(c motion.Color) {
	s.hub.publish(FeedbackMessage{
		Type:      "indicator",
		Source:    s.source,
		Color:     c.String(),
		Indicator: s.hub.palette.Name(c),
		Time:      time.Now(),
	})
}

func (s hubSink) AppendLogMessage(msg string) {
	s.hub.publish(FeedbackMessage{Type: "log", Source: s.source, Message: msg, Time: time.Now()})
}

func (h *Hub) publish(msg FeedbackMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	feed := h.feed(msg.Source)
	switch msg.Type {
	case "indicator":
		if feed.indicator.Color == msg.Color {
			return
		}
		feed.indicator = IndicatorState{Source: msg.Source, Color: msg.Color, Indicator: msg.Indicator, Updated: msg.Time}
	case "log":
		feed.log = append(feed.log, msg)
		if len(feed.log) > logHistory {
			feed.log = slices.Delete(feed.log, 0, len(feed.log)-logHistory)
		}
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Warnf("web: client send buffer full, dropping %s message", msg.Type)
		}
	}
}

func (h *Hub) feed(source string) *sourceFeed {
	f, ok := h.feeds[source]
	if !ok {
		f = &sourceFeed{indicator: IndicatorState{Source: source}}
		h.feeds[source] = f
	}
	return f
}

// Indicators returns the current indicator of every source, sorted by source.
func (h *Hub) Indicators() []IndicatorState {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]IndicatorState, 0, len(h.feeds))
	for _, f := range h.feeds {
		out = append(out, f.indicator)
	}
	slices.SortFunc(out, func(a, b IndicatorState) int { return cmp.Compare(a.Source, b.Source) })
	return out
}

// register adds a client and returns the snapshot it should be sent first.
func (h *Hub) register(c *wsClient) []FeedbackMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}

	var snapshot []FeedbackMessage
	for source, f := range h.feeds {
		if f.indicator.Color != "" {
			snapshot = append(snapshot, FeedbackMessage{
				Type:      "indicator",
				Source:    source,
				Color:     f.indicator.Color,
				Indicator: f.indicator.Indicator,
				Time:      f.indicator.Updated,
			})
		}
		snapshot = append(snapshot, f.log...)
	}
	slices.SortStableFunc(snapshot, func(a, b FeedbackMessage) int { return a.Time.Compare(b.Time) })
	return snapshot
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// HandleFeedbackWS streams feedback messages to one websocket client until it disconnects.
func (h *Hub) HandleFeedbackWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &wsClient{conn: conn, send: make(chan FeedbackMessage, 64)}
	snapshot := h.register(c)
	defer h.unregister(c)

	for _, msg := range snapshot {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}

	// Reader only watches for the close; clients don't send commands.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	}
}

// NewWebMux wires the feedback endpoints and the static UI.
func NewWebMux(h *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/feedback", h.HandleFeedbackWS)

	// JSON API endpoint: current indicator per source
	mux.HandleFunc("/api/indicator", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(h.Indicators()); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// Static files from ./web as the root
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}
