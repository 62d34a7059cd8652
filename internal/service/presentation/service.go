package presentation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sharetube/smartpresent/internal/playback"
	"github.com/sharetube/smartpresent/internal/replication"
	"github.com/sharetube/smartpresent/internal/repository/presentation"
)

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrPresentationNotFound = errors.New("presentation not found")
	ErrConfigNotFound       = errors.New("presentation config not found")
	ErrIndexNotFound        = errors.New("presentation has not been shown yet")
	ErrBlobNotFound         = errors.New("presentation document not found")
	ErrPresenterActive      = errors.New("presenter already connected")
	ErrInvalidCommand       = errors.New("invalid command")
	ErrEmptyBlob            = errors.New("presentation document is empty")
	ErrInvalidParams        = errors.New("invalid params")
)

type iPresentationRepo interface {
	Create(ctx context.Context, presentationID string, meta presentation.Meta, deck playback.Deck) error
	Exists(ctx context.Context, presentationID string) (bool, error)
	SetConfig(ctx context.Context, presentationID string, deck playback.Deck) error
	GetConfig(ctx context.Context, presentationID string) (playback.Deck, error)
	SetCurrentIndex(ctx context.Context, presentationID string, index int) error
	GetCurrentIndex(ctx context.Context, presentationID string) (int, error)
	SetBlob(ctx context.Context, presentationID string, blob []byte) error
	GetBlob(ctx context.Context, presentationID string) ([]byte, error)
	GetMeta(ctx context.Context, presentationID string) (presentation.Meta, error)
}

type iPresenterRepo interface {
	Add(presentationID, sessionID string) error
	Remove(presentationID, sessionID string) error
}

type Config struct {
	Secret          string
	Policy          playback.Policy
	TickInterval    time.Duration
	SyncInterval    time.Duration
	MicRestartDelay time.Duration
}

type service struct {
	presentationRepo iPresentationRepo
	presenterRepo    iPresenterRepo
	broker           replication.Broker
	cfg              Config
	logger           *slog.Logger
}

func NewService(presentationRepo iPresentationRepo, presenterRepo iPresenterRepo, broker replication.Broker, cfg Config, logger *slog.Logger) *service {
	return &service{
		presentationRepo: presentationRepo,
		presenterRepo:    presenterRepo,
		broker:           broker,
		cfg:              cfg,
		logger:           logger,
	}
}

func (s service) publisher(presentationID string) *replication.Publisher {
	return replication.NewPublisher(presentationID, s.presentationRepo, s.broker, s.logger)
}
