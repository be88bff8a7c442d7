// Package ws serves the live order channel over websocket. Each connection
// joins exactly one order channel for its lifetime.
package ws

import (
	"net/http"
	"time"

	"tracking/internal/adapters/out/hub"
	"tracking/internal/core/domain/model/kernel"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	DefaultSendBuffer = 64

	defaultWriteWait = 10 * time.Second
	defaultPongWait  = 60 * time.Second
	maxMessageSize   = 512
)

// Channels is the part of the hub a connection needs.
type Channels interface {
	Subscribe(orderID kernel.ID, sub hub.Subscriber) bool
	Unsubscribe(orderID kernel.ID, sub hub.Subscriber) bool
}

type Handler struct {
	channels Channels
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	sendBuffer int
	writeWait  time.Duration
	pongWait   time.Duration
}

type Option func(*Handler)

// WithSendBuffer sets how many messages a connection may have queued before
// the hub treats it as slow.
func WithSendBuffer(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithPongWait sets how long a silent peer is kept. Pings go out at 90% of it.
func WithPongWait(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.pongWait = d
		}
	}
}

func NewHandler(channels Channels, opts ...Option) *Handler {
	h := &Handler{
		channels: channels,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		logger:     zerolog.Nop(),
		sendBuffer: DefaultSendBuffer,
		writeWait:  defaultWriteWait,
		pongWait:   defaultPongWait,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve upgrades the request and keeps the connection subscribed to orderID
// until the peer disconnects. It blocks for the lifetime of the connection.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, orderID kernel.ID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := newClient(conn, h.sendBuffer, h.writeWait, h.pongWait)
	h.channels.Subscribe(orderID, client)
	h.logger.Debug().Str("order_id", orderID.String()).Msg("live channel joined")

	go client.writePump()
	client.readPump()

	h.channels.Unsubscribe(orderID, client)
	client.Close()
	h.logger.Debug().Str("order_id", orderID.String()).Msg("live channel left")
	return nil
}
