package inmemory

import (
	"log/slog"
	"sync"

	"github.com/sharetube/smartpresent/internal/repository/presenter"
)

// repo tracks the live presenter session of every presentation.
type repo struct {
	sessions map[string]string
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		sessions: make(map[string]string),
		logger:   logger,
	}
}

func (r *repo) Add(presentationID, sessionID string) error {
	funcName := "presenter.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "presentation_id", presentationID, "session_id", sessionID)
	if _, ok := r.sessions[presentationID]; ok {
		r.logger.Info(funcName, "error", presenter.ErrAlreadyExists)
		return presenter.ErrAlreadyExists
	}

	r.sessions[presentationID] = sessionID

	r.logger.Debug(funcName, "result", "OK")
	return nil
}

// Remove releases the presentation only if sessionID still holds it.
func (r *repo) Remove(presentationID, sessionID string) error {
	funcName := "presenter.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "presentation_id", presentationID, "session_id", sessionID)
	current, ok := r.sessions[presentationID]
	if !ok || current != sessionID {
		r.logger.Info(funcName, "error", presenter.ErrNotFound)
		return presenter.ErrNotFound
	}

	delete(r.sessions, presentationID)

	r.logger.Debug(funcName, "result", "OK")
	return nil
}

func (r *repo) Get(presentationID string) (string, error) {
	funcName := "presenter.inmemory.Get"
	r.mu.RLock()
	defer r.mu.RUnlock()

	r.logger.Debug(funcName, "presentation_id", presentationID)
	sessionID, ok := r.sessions[presentationID]
	if !ok {
		r.logger.Info(funcName, "error", presenter.ErrNotFound)
		return "", presenter.ErrNotFound
	}

	r.logger.Debug(funcName, "result", sessionID)
	return sessionID, nil
}
