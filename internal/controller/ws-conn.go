package controller

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/smartpresent/internal/service/presentation"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// wsConn serializes writes to one websocket. Playback events, mic events
// and handler replies are written from different goroutines.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func newWSConn(conn *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (c *wsConn) send(_ context.Context, messageType string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}

	return c.conn.WriteJSON(&Output{
		Type:    messageType,
		Payload: payload,
	})
}

func (c *wsConn) close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(c.writeTimeout),
	)
	c.conn.Close()
}

func (c *wsConn) SendState(ctx context.Context, state presentation.PlaybackState) error {
	return c.send(ctx, "PLAYBACK_STATE", state)
}

func (c *wsConn) SendLog(ctx context.Context, entry presentation.LogEntry) error {
	return c.send(ctx, "COMMAND_LOG", entry)
}

func (c *wsConn) SendMicStatus(ctx context.Context, status presentation.MicStatus) error {
	return c.send(ctx, "MIC_STATUS", status)
}

func (c *wsConn) RequestMicStart(ctx context.Context) error {
	return c.send(ctx, "MIC_START", nil)
}

func (c *wsConn) ShowSlide(ctx context.Context, view presentation.SlideView) error {
	return c.send(ctx, "CHANGE_SLIDE", view)
}
