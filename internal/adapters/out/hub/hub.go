// Package hub fans order events out to the connections watching an order.
//
// Publish never blocks the caller: it marshals the message once, snapshots
// the channel's subscribers and queues a dispatch task. A single dispatcher
// goroutine started with Run delivers tasks in FIFO order. A subscriber
// whose own buffer is full is removed from its channel and closed.
//
//	h := hub.New(hub.WithLogger(logger))
//	go h.Run(ctx)
//	h.Subscribe(orderID, conn)
//	_ = h.Publish(ctx, orderID, order.EventOrderConfirmed, snapshot)
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"tracking/internal/core/domain/model/kernel"
	"tracking/internal/core/domain/model/order"
	"tracking/internal/pkg/metrics"

	"github.com/rs/zerolog"
)

// DefaultQueueSize is the dispatch queue capacity when none is configured.
const DefaultQueueSize = 1024

// ErrQueueFull is returned by Publish when the dispatcher is behind.
var ErrQueueFull = errors.New("hub dispatch queue is full")

// Subscriber is one live connection.
type Subscriber interface {
	// Enqueue queues msg without blocking and reports whether it fit.
	Enqueue(msg []byte) bool
	// Close releases the connection. It may be called more than once.
	Close()
}

// Message is the frame sent to subscribers.
type Message struct {
	Event   order.EventName `json:"event"`
	OrderID kernel.ID       `json:"orderId"`
	Data    any             `json:"data"`
}

// Stats describes the hub at one instant.
type Stats struct {
	Channels    int `json:"channels"`
	Subscribers int `json:"subscribers"`
}

type task struct {
	orderID     kernel.ID
	event       order.EventName
	payload     []byte
	subscribers []Subscriber
}

type Hub struct {
	mu       sync.Mutex
	channels map[kernel.ID]map[Subscriber]struct{}
	tasks    chan task

	logger  zerolog.Logger
	metrics *metrics.HubMetrics
}

// Option configures a Hub.
type Option func(*Hub)

// WithQueueSize sets the dispatch queue capacity. Non-positive values keep
// the default.
func WithQueueSize(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.tasks = make(chan task, size)
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.HubMetrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}

func New(opts ...Option) *Hub {
	h := &Hub{
		channels: make(map[kernel.ID]map[Subscriber]struct{}),
		tasks:    make(chan task, DefaultQueueSize),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe adds sub to the channel of orderID. It reports false when sub
// was already subscribed.
func (h *Hub) Subscribe(orderID kernel.ID, sub Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[orderID]
	if !ok {
		subs = make(map[Subscriber]struct{})
		h.channels[orderID] = subs
	}
	if _, exists := subs[sub]; exists {
		return false
	}
	subs[sub] = struct{}{}
	h.updateSizeLocked()
	return true
}

// Unsubscribe removes sub from the channel of orderID and drops the channel
// once it is empty. It does not close sub.
func (h *Hub) Unsubscribe(orderID kernel.ID, sub Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(orderID, sub)
}

// Publish queues event for the subscribers present right now. Subscribers
// that join later do not receive it.
func (h *Hub) Publish(_ context.Context, orderID kernel.ID, event order.EventName, payload any) error {
	h.mu.Lock()
	subs := h.channels[orderID]
	snapshot := make([]Subscriber, 0, len(subs))
	for sub := range subs {
		snapshot = append(snapshot, sub)
	}
	h.mu.Unlock()

	if len(snapshot) == 0 {
		return nil
	}

	msg, err := json.Marshal(Message{Event: event, OrderID: orderID, Data: payload})
	if err != nil {
		return err
	}

	select {
	case h.tasks <- task{orderID: orderID, event: event, payload: msg, subscribers: snapshot}:
		h.metrics.IncPublished(event.String())
		return nil
	default:
		h.metrics.IncQueueFull()
		return ErrQueueFull
	}
}

// Run dispatches queued tasks until ctx is done, then closes every
// remaining subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-h.tasks:
			h.dispatch(t)
		}
	}
}

// Stats returns the number of channels and subscribers.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statsLocked()
}

func (h *Hub) dispatch(t task) {
	delivered := 0
	for _, sub := range t.subscribers {
		if sub.Enqueue(t.payload) {
			delivered++
			continue
		}

		h.mu.Lock()
		removed := h.removeLocked(t.orderID, sub)
		h.mu.Unlock()
		sub.Close()

		if removed {
			h.metrics.IncSlowSubscriber()
			h.logger.Warn().
				Str("order_id", t.orderID.String()).
				Str("event", t.event.String()).
				Msg("dropping slow subscriber")
		}
	}
	h.metrics.AddDelivered(delivered)
}

func (h *Hub) removeLocked(orderID kernel.ID, sub Subscriber) bool {
	subs, ok := h.channels[orderID]
	if !ok {
		return false
	}
	if _, exists := subs[sub]; !exists {
		return false
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.channels, orderID)
	}
	h.updateSizeLocked()
	return true
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	channels := h.channels
	h.channels = make(map[kernel.ID]map[Subscriber]struct{})
	h.updateSizeLocked()
	h.mu.Unlock()

	for _, subs := range channels {
		for sub := range subs {
			sub.Close()
		}
	}
}

func (h *Hub) statsLocked() Stats {
	s := Stats{Channels: len(h.channels)}
	for _, subs := range h.channels {
		s.Subscribers += len(subs)
	}
	return s
}

func (h *Hub) updateSizeLocked() {
	s := h.statsLocked()
	h.metrics.SetSize(s.Channels, s.Subscribers)
}
