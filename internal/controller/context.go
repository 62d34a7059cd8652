package controller

import (
	"context"

	"github.com/sharetube/smartpresent/internal/service/presentation"
)

type contextKey int

const (
	sessionCtxKey contextKey = iota
	wsConnCtxKey
)

func (c controller) getSessionFromCtx(ctx context.Context) *presentation.Session {
	sess, ok := ctx.Value(sessionCtxKey).(*presentation.Session)
	if !ok {
		return nil
	}

	return sess
}

func (c controller) getWSConnFromCtx(ctx context.Context) *wsConn {
	conn, ok := ctx.Value(wsConnCtxKey).(*wsConn)
	if !ok {
		return nil
	}

	return conn
}
