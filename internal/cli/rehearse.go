package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sharetube/smartpresent/internal/playback"
	"github.com/sharetube/smartpresent/internal/replication"
	repo "github.com/sharetube/smartpresent/internal/repository/presentation"
	"github.com/sharetube/smartpresent/internal/repository/presentation/sqlite"
	"github.com/sharetube/smartpresent/internal/repository/presenter/inmemory"
	"github.com/sharetube/smartpresent/internal/service/presentation"
	"github.com/sharetube/smartpresent/internal/voice"
	"github.com/spf13/cobra"
)

type rehearseOptions struct {
	deckPath    string
	pages       int
	transcripts string
	dbPath      string
	boundary    string
	expiry      string
	tick        time.Duration
	autostart   bool
	verbose     bool
}

func newRehearseCmd(newLogger func(*cobra.Command) (*slog.Logger, error)) *cobra.Command {
	opts := rehearseOptions{}

	cmd := &cobra.Command{
		Use:   "rehearse",
		Short: "Run a local presenter session driven by transcript lines",
		Long:  "rehearse opens a presenter and an audience view against a local SQLite store and feeds them one transcript per line, printing the command log, playback state and audience slides.",
		Example: `  slidectl rehearse --deck deck.toml --transcripts talk.txt
  echo "next slide" | slidectl rehearse --pages 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return rehearse(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.deckPath, "deck", "", "Deck file (TOML, [[slides]] page/command/duration)")
	flags.IntVar(&opts.pages, "pages", 5, "Page count of the default deck when --deck is not set")
	flags.StringVar(&opts.transcripts, "transcripts", "-", "Transcript file, one utterance per line, - for stdin")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite file to keep the rehearsal in, a temporary file when empty")
	flags.StringVar(&opts.boundary, "boundary", "clamp", "What next/prev do past the deck ends: clamp or wrap")
	flags.StringVar(&opts.expiry, "expiry", "hold", "What happens when a slide's time runs out: hold or advance")
	flags.DurationVar(&opts.tick, "tick", time.Second, "Countdown tick interval")
	flags.BoolVar(&opts.autostart, "autostart", true, "Start the presentation before reading transcripts")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Print every countdown tick")

	return cmd
}

func rehearse(ctx context.Context, opts rehearseOptions, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	boundary, err := playback.ParseBoundaryPolicy(opts.boundary)
	if err != nil {
		return err
	}
	expiry, err := playback.ParseExpiryPolicy(opts.expiry)
	if err != nil {
		return err
	}

	deck := playback.DefaultDeck(opts.pages)
	if opts.deckPath != "" {
		if deck, err = LoadDeck(opts.deckPath); err != nil {
			return err
		}
	}
	if len(deck) == 0 {
		return playback.ErrEmptyDeck
	}

	source := stdin
	if opts.transcripts != "-" {
		f, err := os.Open(opts.transcripts)
		if err != nil {
			return fmt.Errorf("open transcripts: %w", err)
		}
		defer f.Close()
		source = f
	}

	dbPath := opts.dbPath
	if dbPath == "" {
		dir, err := os.MkdirTemp("", "slidectl-")
		if err != nil {
			return fmt.Errorf("create temp dir: %w", err)
		}
		defer os.RemoveAll(dir)
		dbPath = filepath.Join(dir, "rehearsal.db")
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := presentation.NewService(
		repo.NewStore(store),
		inmemory.NewRepo(logger),
		replication.NewLocalBroker(),
		presentation.Config{
			Secret:       uuid.NewString(),
			Policy:       playback.Policy{Boundary: boundary, Expiry: expiry},
			TickInterval: opts.tick,
		},
		logger,
	)

	created, err := svc.CreatePresentation(ctx, &presentation.CreatePresentationParams{
		Owner:     "slidectl",
		FileName:  deckName(opts.deckPath),
		PageCount: len(deck),
	})
	if err != nil {
		return err
	}

	if err := svc.UpdateConfig(ctx, &presentation.UpdateConfigParams{
		PresentationID: created.ID,
		Token:          created.PresenterToken,
		Slides:         deck,
	}); err != nil {
		return err
	}

	p := &printer{w: stdout, verbose: opts.verbose}

	sess, err := svc.OpenPresenter(ctx, &presentation.OpenPresenterParams{
		PresentationID: created.ID,
		Token:          created.PresenterToken,
		Sink:           p,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	audience, err := svc.OpenAudience(ctx, created.ID, p)
	if err != nil {
		return err
	}

	audienceCtx, cancelAudience := context.WithCancel(ctx)
	audienceDone := make(chan error, 1)
	go func() { audienceDone <- audience.Run(audienceCtx) }()

	if opts.autostart {
		if err := sess.HandleCommand(ctx, "start", ""); err != nil {
			cancelAudience()
			return err
		}
	}

	// Transcripts are handled synchronously so the log keeps input order.
	listener := voice.NewSession(voice.NewReaderEngine(source), sess.HandleTranscript, voice.WithLogger(logger))
	listener.Start(ctx)

	select {
	case <-listener.Done():
	case <-ctx.Done():
		listener.Stop()
	}

	if err := audience.Reconcile(ctx); err != nil {
		logger.DebugContext(ctx, "failed to reconcile audience", "error", err)
	}
	cancelAudience()
	if err := <-audienceDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.InfoContext(ctx, "audience stopped", "error", err)
	}

	final := sess.State()
	sess.Close()
	p.summary(final)

	if err := listener.Err(); err != nil && !errors.Is(err, voice.ErrEndOfStream) {
		return err
	}

	return nil
}

// printer renders presenter and audience events as plain lines.
type printer struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	last    *presentation.PlaybackState
}

func (p *printer) printf(format string, args ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := fmt.Fprintf(p.w, format, args...)
	return err
}

func (p *printer) SendState(_ context.Context, state presentation.PlaybackState) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.verbose && p.last != nil &&
		p.last.CurrentIndex == state.CurrentIndex &&
		p.last.IsRunning == state.IsRunning &&
		p.last.IsPaused == state.IsPaused {
		return nil
	}
	p.last = &state

	_, err := fmt.Fprintf(p.w, "state    [%d/%d] %s | %s | %ds left | %s\n",
		state.CurrentIndex+1, state.SlideCount, state.Label, status(state), state.TimeLeft, state.Upcoming)
	return err
}

func (p *printer) SendLog(_ context.Context, entry presentation.LogEntry) error {
	return p.printf("log      %s\n", entry.Text)
}

func (p *printer) SendMicStatus(_ context.Context, st presentation.MicStatus) error {
	if st.Error != "" {
		return p.printf("mic      %s (%s)\n", st.Status, st.Error)
	}
	return p.printf("mic      %s\n", st.Status)
}

func (p *printer) RequestMicStart(context.Context) error { return nil }

func (p *printer) ShowSlide(_ context.Context, view presentation.SlideView) error {
	return p.printf("audience slide %d (page %d)\n", view.Index+1, view.Page)
}

func (p *printer) summary(state presentation.PlaybackState) {
	p.printf("done     [%d/%d] %s | %s\n", state.CurrentIndex+1, state.SlideCount, state.Label, status(state))
}

func deckName(path string) string {
	if path == "" {
		return "default deck"
	}
	return filepath.Base(path)
}

func status(state presentation.PlaybackState) string {
	switch {
	case !state.IsRunning:
		return "stopped"
	case state.IsPaused:
		return "paused"
	default:
		return "running"
	}
}
