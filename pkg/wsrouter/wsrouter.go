package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

var ErrUnknownMessageType = errors.New("unknown message type")

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, conn *websocket.Conn, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

// ErrorHandler is called for every message that fails to decode or whose
// handler returns an error. The connection stays open.
type ErrorHandler func(ctx context.Context, conn *websocket.Conn, err error)

type route struct {
	decode func(json.RawMessage) (any, error)
	handle HandlerFunc[any]
}

type WSRouter struct {
	routes      map[string]route
	middlewares []Middleware
	onError     ErrorHandler
}

func New() *WSRouter {
	return &WSRouter{
		routes:  make(map[string]route),
		onError: func(context.Context, *websocket.Conn, error) {},
	}
}

func (r *WSRouter) Use(mw ...Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *WSRouter) OnError(h ErrorHandler) {
	r.onError = h
}

// Handle registers handler for messageType. Payloads are decoded into T;
// a missing payload leaves T at its zero value.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = route{
		decode: func(raw json.RawMessage) (any, error) {
			var payload T
			if len(raw) == 0 || string(raw) == "null" {
				return payload, nil
			}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return nil, fmt.Errorf("failed to decode %s payload: %w", messageType, err)
			}
			return payload, nil
		},
		handle: func(ctx context.Context, conn *websocket.Conn, payload any) error {
			return handler(ctx, conn, payload.(T))
		},
	}
}

// ServeConn reads messages until the connection fails and returns that
// error.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)

		rt, ok := r.routes[msg.Type]
		if !ok {
			r.onError(msgCtx, conn, fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type))
			continue
		}

		payload, err := rt.decode(msg.Payload)
		if err != nil {
			r.onError(msgCtx, conn, err)
			continue
		}

		h := rt.handle
		for i := len(r.middlewares) - 1; i >= 0; i-- {
			h = r.middlewares[i](h)
		}

		if err := h(msgCtx, conn, payload); err != nil {
			r.onError(msgCtx, conn, err)
		}
	}
}
