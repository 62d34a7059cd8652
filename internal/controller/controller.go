package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sharetube/smartpresent/internal/playback"
	"github.com/sharetube/smartpresent/internal/replication"
	"github.com/sharetube/smartpresent/internal/service/presentation"
	"github.com/sharetube/smartpresent/pkg/validator"
	"github.com/sharetube/smartpresent/pkg/wsrouter"
)

type iPresentationService interface {
	CreatePresentation(context.Context, *presentation.CreatePresentationParams) (presentation.CreatePresentationResponse, error)
	GetPresentation(context.Context, string) (presentation.Presentation, error)
	UpdateConfig(context.Context, *presentation.UpdateConfigParams) error
	GetConfig(context.Context, string) (playback.Deck, error)
	SetBlob(context.Context, *presentation.SetBlobParams) error
	GetBlob(context.Context, string) ([]byte, error)
	GetCurrentIndex(context.Context, string) (int, error)
	SendRemoteCommand(context.Context, *presentation.SendRemoteCommandParams) error
	OpenPresenter(context.Context, *presentation.OpenPresenterParams) (*presentation.Session, error)
	OpenAudience(context.Context, string, presentation.AudienceSink) (*replication.Replica, error)
}

type controller struct {
	presentationService iPresentationService
	upgrader            websocket.Upgrader
	validate            *validator.Validator
	presenterMux        *wsrouter.WSRouter
	writeTimeout        time.Duration
	logger              *slog.Logger
}

func NewController(presentationService iPresentationService, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		presentationService: presentationService,
		validate:            validator.NewValidator(),
		writeTimeout:        10 * time.Second,
		logger:              logger,
	}
	c.presenterMux = c.getPresenterWSRouter()

	return c
}

func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
