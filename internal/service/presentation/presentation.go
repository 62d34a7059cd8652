package presentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/sharetube/smartpresent/internal/grammar"
	"github.com/sharetube/smartpresent/internal/playback"
	"github.com/sharetube/smartpresent/internal/repository/presentation"
	"github.com/sharetube/smartpresent/pkg/ctxlogger"
)

type CreatePresentationParams struct {
	Owner     string
	FileName  string
	PageCount int
}

type CreatePresentationResponse struct {
	ID             string `json:"id"`
	PresenterToken string `json:"presenter_token"`
}

func (s service) CreatePresentation(ctx context.Context, params *CreatePresentationParams) (CreatePresentationResponse, error) {
	if err := validation.ValidateStructWithContext(ctx, params,
		validation.Field(&params.Owner, OwnerRule...),
		validation.Field(&params.FileName, FileNameRule...),
		validation.Field(&params.PageCount, PageCountRule...),
	); err != nil {
		return CreatePresentationResponse{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	presentationID := uuid.NewString()
	ctx = ctxlogger.AppendCtx(ctx, slog.String("presentation_id", presentationID))

	meta := presentation.Meta{
		Owner:     params.Owner,
		FileName:  params.FileName,
		PageCount: params.PageCount,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.presentationRepo.Create(ctx, presentationID, meta, playback.DefaultDeck(params.PageCount)); err != nil {
		s.logger.InfoContext(ctx, "failed to create presentation", "error", err)
		return CreatePresentationResponse{}, fmt.Errorf("failed to create presentation: %w", err)
	}

	token, err := s.generateJWT(presentationID)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to generate presenter token", "error", err)
		return CreatePresentationResponse{}, fmt.Errorf("failed to generate presenter token: %w", err)
	}

	s.logger.InfoContext(ctx, "presentation created", "page_count", params.PageCount)

	return CreatePresentationResponse{
		ID:             presentationID,
		PresenterToken: token,
	}, nil
}

func (s service) ensureExists(ctx context.Context, presentationID string) error {
	// IDs that could never have been issued are not looked up.
	if err := validation.ValidateWithContext(ctx, presentationID, PresentationIDRule...); err != nil {
		return ErrPresentationNotFound
	}

	exists, err := s.presentationRepo.Exists(ctx, presentationID)
	if err != nil {
		return fmt.Errorf("failed to check presentation: %w", err)
	}

	if !exists {
		return ErrPresentationNotFound
	}

	return nil
}

func (s service) GetPresentation(ctx context.Context, presentationID string) (Presentation, error) {
	if err := s.ensureExists(ctx, presentationID); err != nil {
		return Presentation{}, err
	}

	meta, err := s.presentationRepo.GetMeta(ctx, presentationID)
	if err != nil {
		return Presentation{}, fmt.Errorf("failed to get meta: %w", err)
	}

	deck, err := s.GetConfig(ctx, presentationID)
	if err != nil {
		return Presentation{}, err
	}

	p := Presentation{
		ID:     presentationID,
		Meta:   meta,
		Slides: deck,
	}

	index, err := s.presentationRepo.GetCurrentIndex(ctx, presentationID)
	switch {
	case err == nil:
		p.CurrentIndex = &index
	case !errors.Is(err, presentation.ErrNotFound):
		return Presentation{}, fmt.Errorf("failed to get current index: %w", err)
	}

	return p, nil
}

type UpdateConfigParams struct {
	PresentationID string
	Token          string
	Slides         playback.Deck
}

func (s service) UpdateConfig(ctx context.Context, params *UpdateConfigParams) error {
	if err := s.authorize(params.PresentationID, params.Token); err != nil {
		return err
	}

	if len(params.Slides) == 0 {
		return playback.ErrEmptyDeck
	}

	if err := s.ensureExists(ctx, params.PresentationID); err != nil {
		return err
	}

	if err := s.presentationRepo.SetConfig(ctx, params.PresentationID, params.Slides); err != nil {
		s.logger.InfoContext(ctx, "failed to set config", "error", err)
		return fmt.Errorf("failed to set config: %w", err)
	}

	return nil
}

func (s service) GetConfig(ctx context.Context, presentationID string) (playback.Deck, error) {
	deck, err := s.presentationRepo.GetConfig(ctx, presentationID)
	if err != nil {
		if errors.Is(err, presentation.ErrNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	return deck, nil
}

type SetBlobParams struct {
	PresentationID string
	Token          string
	Data           []byte
}

func (s service) SetBlob(ctx context.Context, params *SetBlobParams) error {
	if err := s.authorize(params.PresentationID, params.Token); err != nil {
		return err
	}

	if len(params.Data) == 0 {
		return ErrEmptyBlob
	}

	if err := s.ensureExists(ctx, params.PresentationID); err != nil {
		return err
	}

	if err := s.presentationRepo.SetBlob(ctx, params.PresentationID, params.Data); err != nil {
		s.logger.InfoContext(ctx, "failed to set blob", "error", err)
		return fmt.Errorf("failed to set blob: %w", err)
	}

	return nil
}

func (s service) GetBlob(ctx context.Context, presentationID string) ([]byte, error) {
	blob, err := s.presentationRepo.GetBlob(ctx, presentationID)
	if err != nil {
		if errors.Is(err, presentation.ErrNotFound) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to get blob: %w", err)
	}

	return blob, nil
}

func (s service) GetCurrentIndex(ctx context.Context, presentationID string) (int, error) {
	index, err := s.presentationRepo.GetCurrentIndex(ctx, presentationID)
	if err != nil {
		if errors.Is(err, presentation.ErrNotFound) {
			return 0, ErrIndexNotFound
		}
		return 0, fmt.Errorf("failed to get current index: %w", err)
	}

	return index, nil
}

type SendRemoteCommandParams struct {
	PresentationID string
	Token          string
	Action         string
	Payload        string
}

// SendRemoteCommand forwards a control action to the presenter session.
// Delivery is best-effort.
func (s service) SendRemoteCommand(ctx context.Context, params *SendRemoteCommandParams) error {
	if err := s.authorize(params.PresentationID, params.Token); err != nil {
		return err
	}

	cmd := grammar.FromAction(params.Action, params.Payload)
	if cmd.Kind == grammar.KindUnrecognized {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, params.Action)
	}

	if err := s.ensureExists(ctx, params.PresentationID); err != nil {
		return err
	}

	if err := s.publisher(params.PresentationID).RemoteCommand(ctx, params.Action, cmd.Target); err != nil {
		s.logger.InfoContext(ctx, "failed to send remote command", "error", err)
		return err
	}

	return nil
}
