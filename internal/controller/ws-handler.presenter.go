package controller

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

type EmptyInput struct{}

func (c controller) handleStart(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return errNoSession
	}

	return sess.HandleCommand(ctx, "start", "")
}

type CommandInput struct {
	Action  string `json:"action" validate:"required,oneof=next prev pause start goto"`
	Payload string `json:"payload" validate:"required_if=Action goto,max=128"`
}

func (c controller) handleCommand(ctx context.Context, _ *websocket.Conn, input CommandInput) error {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return errNoSession
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("invalid command: %s", validationErrors[0].Message)
	}

	return sess.HandleCommand(ctx, input.Action, input.Payload)
}

func (c controller) handleGetState(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	sess := c.getSessionFromCtx(ctx)
	ws := c.getWSConnFromCtx(ctx)
	if sess == nil || ws == nil {
		return errNoSession
	}

	return ws.SendState(ctx, sess.State())
}

type TranscriptInput struct {
	Text string `json:"text"`
}

func (c controller) handleTranscript(ctx context.Context, _ *websocket.Conn, input TranscriptInput) error {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return errNoSession
	}

	sess.Transcript(input.Text)
	return nil
}

func (c controller) handleMicStarted(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	c.logger.DebugContext(ctx, "mic started")
	return nil
}

func (c controller) handleMicEnded(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return errNoSession
	}

	sess.MicEnded()
	return nil
}

type MicErrorInput struct {
	Error string `json:"error"`
}

func (c controller) handleMicError(ctx context.Context, _ *websocket.Conn, input MicErrorInput) error {
	sess := c.getSessionFromCtx(ctx)
	if sess == nil {
		return errNoSession
	}

	sess.MicError(input.Error)
	return nil
}
