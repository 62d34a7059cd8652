package controller

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/smartpresent/internal/playback"
	"github.com/sharetube/smartpresent/internal/service/presentation"
	"github.com/sharetube/smartpresent/pkg/rest"
)

func (c controller) getPresentationID(r *http.Request) string {
	return chi.URLParam(r, "presentation-id")
}

// getToken reads the presenter token from the Authorization header or, for
// websocket upgrades, from the token query parameter.
func (c controller) getToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	return r.URL.Query().Get("token")
}

func (c controller) errorStatus(err error) int {
	switch {
	case errors.Is(err, presentation.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, presentation.ErrPresentationNotFound),
		errors.Is(err, presentation.ErrConfigNotFound),
		errors.Is(err, presentation.ErrIndexNotFound),
		errors.Is(err, presentation.ErrBlobNotFound):
		return http.StatusNotFound
	case errors.Is(err, presentation.ErrPresenterActive):
		return http.StatusConflict
	case errors.Is(err, presentation.ErrInvalidCommand),
		errors.Is(err, presentation.ErrInvalidParams),
		errors.Is(err, presentation.ErrEmptyBlob),
		errors.Is(err, playback.ErrEmptyDeck):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (c controller) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := c.errorStatus(err)
	if status == http.StatusInternalServerError {
		c.logger.ErrorContext(r.Context(), "request failed", "error", err)
		rest.WriteJSON(w, status, rest.Envelope{"error": "internal server error"})
		return
	}

	c.logger.InfoContext(r.Context(), "request rejected", "status", status, "error", err)
	rest.WriteJSON(w, status, rest.Envelope{"error": err.Error()})
}

// Close frame reasons are limited to 123 bytes.
const maxCloseReasonBytes = 123

// truncateReason cuts s to at most limit bytes without splitting a rune.
func truncateReason(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}
