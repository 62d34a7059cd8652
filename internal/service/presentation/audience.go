package presentation

import (
	"context"
	"log/slog"

	"github.com/sharetube/smartpresent/internal/replication"
	"github.com/sharetube/smartpresent/pkg/ctxlogger"
)

type AudienceSink interface {
	ShowSlide(ctx context.Context, view SlideView) error
}

// OpenAudience returns a replica that mirrors the presenter onto sink. The
// caller drives it with Run.
func (s service) OpenAudience(ctx context.Context, presentationID string, sink AudienceSink) (*replication.Replica, error) {
	ctx = ctxlogger.AppendCtx(ctx, slog.String("presentation_id", presentationID))
	if err := s.ensureExists(ctx, presentationID); err != nil {
		return nil, err
	}

	renderer := replication.RendererFunc(func(ctx context.Context, index int) error {
		view := SlideView{Index: index, Page: index + 1}
		// The deck may be reconfigured while the audience is watching.
		if deck, err := s.presentationRepo.GetConfig(ctx, presentationID); err == nil && index >= 0 && index < len(deck) {
			view.Page = deck[index].Page
		}
		return sink.ShowSlide(ctx, view)
	})

	s.logger.InfoContext(ctx, "audience connected")

	return replication.NewReplica(presentationID, s.presentationRepo, s.broker, renderer, s.cfg.SyncInterval, s.logger), nil
}
