// Package notify pushes progress events to websocket subscribers.
package notify

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

const (
	EventProgressUpdate = "progress-update"

	defaultQueueSize = 16
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
)

// Message is the frame sent to subscribers.
type Message struct {
	Event string          `json:"event"`
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

type subscriber struct {
	topic string
	queue chan []byte
}

// Hub fans events out to the subscribers of a topic.
// Each subscriber has its own bounded queue: a full queue drops the event for that subscriber only.
type Hub struct {
	mu        sync.RWMutex
	topics    map[string]map[*subscriber]struct{}
	queueSize int
	closed    bool
	logger    core.Logger
	upgrader  websocket.Upgrader
}

var _ core.Notifier = (*Hub)(nil) // interface compliance check

func NewHub(logger core.Logger, queueSize int, checkOrigin func(r *http.Request) bool) *Hub {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Hub{
		topics:    make(map[string]map[*subscriber]struct{}),
		queueSize: queueSize,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// AllowOrigins accepts handshakes from origins, or without an Origin header (non-browser clients).
// "*" accepts any origin.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}

// Publish never blocks.
func (h *Hub) Publish(topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encoding event", errors.Wrap(err, topic))
		return
	}
	frame, err := json.Marshal(Message{Event: EventProgressUpdate, Topic: topic, Data: data})
	if err != nil {
		h.logger.Error("encoding frame", errors.Wrap(err, topic))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	var dropped int
	for sub := range h.topics[topic] {
		select {
		case sub.queue <- frame:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("slow subscribers, event dropped", map[string]interface{}{"topic": topic, "dropped": dropped})
	}
}

// Subscribe registers a subscriber to topic. The returned func unsubscribes it and closes the queue.
func (h *Hub) Subscribe(topic string) (<-chan []byte, func()) {
	sub := &subscriber{topic: topic, queue: make(chan []byte, h.queueSize)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.queue)
		return sub.queue, func() {}
	}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*subscriber]struct{})
	}
	h.topics[topic][sub] = struct{}{}

	var once sync.Once
	return sub.queue, func() {
		once.Do(func() { h.unsubscribe(sub) })
	}
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok = subs[sub]; !ok {
		return // already closed by Close
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
	close(sub.queue)
}

func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for topic, subs := range h.topics {
		for sub := range subs {
			close(sub.queue)
		}
		delete(h.topics, topic)
	}
}

// ServeWS upgrades the request and streams the events of topic until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, topic string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errors.Wrap(err, "upgrading connection")
	}
	defer conn.Close()

	queue, unsubscribe := h.Subscribe(topic)
	defer unsubscribe()

	// read pump: only control frames are expected, it detects closed connections
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case frame, ok := <-queue:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return nil
			}
			if err = conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err = conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-gone:
			return nil
		}
	}
}
