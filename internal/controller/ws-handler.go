package controller

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sharetube/smartpresent/internal/service/presentation"
)

func (c controller) presenter(w http.ResponseWriter, r *http.Request) {
	presentationID := c.getPresentationID(r)

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	ws := newWSConn(conn, c.writeTimeout)

	sess, err := c.presentationService.OpenPresenter(r.Context(), &presentation.OpenPresenterParams{
		PresentationID: presentationID,
		Token:          c.getToken(r),
		Sink:           ws,
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to open presenter session", "error", err)
		c.rejectWS(r.Context(), ws, err)
		return
	}
	defer sess.Close()
	defer conn.Close()

	ctx := context.WithValue(r.Context(), sessionCtxKey, sess)
	ctx = context.WithValue(ctx, wsConnCtxKey, ws)

	if err := c.presenterMux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(r.Context(), "presenter disconnected", "error", err)
	}
}

func (c controller) audience(w http.ResponseWriter, r *http.Request) {
	presentationID := c.getPresentationID(r)

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	ws := newWSConn(conn, c.writeTimeout)

	replica, err := c.presentationService.OpenAudience(r.Context(), presentationID, ws)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to open audience", "error", err)
		c.rejectWS(r.Context(), ws, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The audience never sends anything; reading only detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := replica.Run(ctx); err != nil {
		c.logger.InfoContext(r.Context(), "audience replica stopped", "error", err)
	}
}

func (c controller) rejectWS(ctx context.Context, ws *wsConn, err error) {
	code := websocket.CloseInternalServerErr
	reason := "internal server error"
	if status := c.errorStatus(err); status != http.StatusInternalServerError {
		code = websocket.ClosePolicyViolation
		reason = err.Error()
	}

	if err := ws.send(ctx, "ERROR", map[string]string{"error": reason}); err != nil {
		c.logger.DebugContext(ctx, "failed to send error", "error", err)
	}
	ws.close(code, truncateReason(reason, maxCloseReasonBytes))
}
