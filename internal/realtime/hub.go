// Package realtime fans broadcast events out to every connected listener.
// Delivery is best effort: there is no replay for late listeners and a
// listener whose buffer is full misses the event.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrHubClosed is returned by Broadcast and Subscribe after Close.
var ErrHubClosed = errors.New("realtime hub closed")

// Message is the wire frame sent to listeners.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Observer receives hub statistics. MetricsService implements it.
type Observer interface {
	ListenersChanged(n int)
	BroadcastDelivered(event string, delivered, dropped int)
}

type listener struct {
	id   string
	kind string
	send chan []byte
}

// Hub tracks listeners and broadcasts frames to them.
type Hub struct {
	mu        sync.RWMutex
	listeners map[string]*listener
	closed    bool

	cfg      Config
	logger   *zap.Logger
	observer Observer
}

// NewHub builds a hub. Zero config values fall back to defaults.
func NewHub(cfg Config) *Hub {
	cfg = cfg.withDefaults()
	return &Hub{
		listeners: make(map[string]*listener),
		cfg:       cfg,
		logger:    cfg.Logger,
		observer:  cfg.Observer,
	}
}

// Broadcast encodes payload once and offers it to every current listener.
func (h *Hub) Broadcast(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", event, err)
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrHubClosed
	}
	delivered, dropped := 0, 0
	for _, l := range h.listeners {
		select {
		case l.send <- frame:
			delivered++
		default:
			dropped++
			h.logger.Sugar().Warnw("listener buffer full, event dropped", "listener_id", l.id, "event", event)
		}
	}
	h.mu.RUnlock()

	if h.observer != nil {
		h.observer.BroadcastDelivered(event, delivered, dropped)
	}
	return nil
}

// Count returns the number of connected listeners.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Close disconnects every listener. Further broadcasts fail with ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for id, l := range h.listeners {
		close(l.send)
		delete(h.listeners, id)
	}
	h.mu.Unlock()

	if h.observer != nil {
		h.observer.ListenersChanged(0)
	}
	h.logger.Sugar().Infow("realtime hub closed")
}

func (h *Hub) register(kind, remote string, buffer int) (*listener, error) {
	if buffer <= 0 {
		buffer = h.cfg.ClientBuffer
	}
	l := &listener{id: uuid.NewString(), kind: kind, send: make(chan []byte, buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.listeners[l.id] = l
	n := len(h.listeners)
	h.mu.Unlock()

	h.logger.Sugar().Infow("listener connected", "listener_id", l.id, "kind", kind, "remote", remote, "listeners", n)
	if h.observer != nil {
		h.observer.ListenersChanged(n)
	}
	return l, nil
}

func (h *Hub) unregister(l *listener) {
	h.mu.Lock()
	if _, ok := h.listeners[l.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.listeners, l.id)
	close(l.send)
	n := len(h.listeners)
	h.mu.Unlock()

	h.logger.Sugar().Infow("listener disconnected", "listener_id", l.id, "kind", l.kind, "listeners", n)
	if h.observer != nil {
		h.observer.ListenersChanged(n)
	}
}

// Subscription is an in-process listener.
type Subscription struct {
	hub *Hub
	l   *listener
}

// Subscribe registers an in-process listener with its own buffer size.
func (h *Hub) Subscribe(buffer int) (*Subscription, error) {
	l, err := h.register("local", "", buffer)
	if err != nil {
		return nil, err
	}
	return &Subscription{hub: h, l: l}, nil
}

// C delivers raw frames. It is closed when the subscription or hub closes.
func (s *Subscription) C() <-chan []byte {
	return s.l.send
}

// Next waits for the next frame and decodes it.
func (s *Subscription) Next(ctx context.Context) (Message, error) {
	select {
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case frame, ok := <-s.l.send:
		if !ok {
			return Message{}, ErrHubClosed
		}
		var msg Message
		if err := json.Unmarshal(frame, &msg); err != nil {
			return Message{}, fmt.Errorf("decode frame: %w", err)
		}
		return msg, nil
	}
}

// Close unregisters the subscription.
func (s *Subscription) Close() {
	s.hub.unregister(s.l)
}
