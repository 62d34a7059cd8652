package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/sharetube/smartpresent/pkg/wsrouter"
)

var errNoSession = errors.New("no presenter session")

func (c controller) getPresenterWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())
	mux.OnError(c.handleWSError)

	// playback
	wsrouter.Handle(mux, "START", c.handleStart)
	wsrouter.Handle(mux, "COMMAND", c.handleCommand)
	wsrouter.Handle(mux, "GET_STATE", c.handleGetState)

	// microphone
	wsrouter.Handle(mux, "TRANSCRIPT", c.handleTranscript)
	wsrouter.Handle(mux, "MIC_STARTED", c.handleMicStarted)
	wsrouter.Handle(mux, "MIC_ENDED", c.handleMicEnded)
	wsrouter.Handle(mux, "MIC_ERROR", c.handleMicError)

	return mux
}

func (c controller) handleWSError(ctx context.Context, _ *websocket.Conn, err error) {
	c.logger.InfoContext(ctx, "failed to handle websocket message", "error", err)

	ws := c.getWSConnFromCtx(ctx)
	if ws == nil {
		return
	}

	if err := ws.send(ctx, "ERROR", map[string]string{"error": err.Error()}); err != nil {
		c.logger.DebugContext(ctx, "failed to send error", "error", fmt.Errorf("failed to write json: %w", err))
	}
}
