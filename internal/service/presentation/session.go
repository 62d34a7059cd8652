package presentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/sharetube/smartpresent/internal/grammar"
	"github.com/sharetube/smartpresent/internal/playback"
	"github.com/sharetube/smartpresent/internal/replication"
	"github.com/sharetube/smartpresent/internal/repository/presenter"
	"github.com/sharetube/smartpresent/internal/voice"
	"github.com/sharetube/smartpresent/pkg/ctxlogger"
)

// Sink receives everything a presenter view displays. Calls are made from
// several goroutines; implementations serialize their own writes.
type Sink interface {
	SendState(ctx context.Context, state PlaybackState) error
	SendLog(ctx context.Context, entry LogEntry) error
	SendMicStatus(ctx context.Context, status MicStatus) error
	// RequestMicStart asks the remote recognizer to start listening.
	RequestMicStart(ctx context.Context) error
}

// Session is the live presenter of one presentation and the only writer of
// its playback state.
type Session struct {
	presentationID string
	sessionID      string
	deck           playback.Deck
	policy         playback.Policy

	machine   *playback.Machine
	publisher *replication.Publisher
	engine    *voice.FeedEngine
	voice     *voice.Session
	sub       replication.Subscription
	sink      Sink
	release   func()
	logger    *slog.Logger

	// dispatchMu makes guard checks and the transition they guard atomic.
	dispatchMu sync.Mutex

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type OpenPresenterParams struct {
	PresentationID string
	Token          string
	Sink           Sink
}

// OpenPresenter claims the presenter role, restores the last shown slide
// and starts consuming remote commands.
func (s service) OpenPresenter(ctx context.Context, params *OpenPresenterParams) (*Session, error) {
	if err := s.authorize(params.PresentationID, params.Token); err != nil {
		return nil, err
	}

	ctx = ctxlogger.AppendCtx(ctx, slog.String("presentation_id", params.PresentationID))

	deck, err := s.GetConfig(ctx, params.PresentationID)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get config", "error", err)
		return nil, err
	}

	sessionID := uuid.NewString()
	if err := s.presenterRepo.Add(params.PresentationID, sessionID); err != nil {
		if errors.Is(err, presenter.ErrAlreadyExists) {
			return nil, ErrPresenterActive
		}
		return nil, fmt.Errorf("failed to register presenter: %w", err)
	}

	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess := &Session{
		presentationID: params.PresentationID,
		sessionID:      sessionID,
		deck:           deck,
		policy:         s.cfg.Policy,
		publisher:      s.publisher(params.PresentationID),
		sink:           params.Sink,
		logger:         s.logger,
		ctx:            sessCtx,
		cancel:         cancel,
		release: func() {
			if err := s.presenterRepo.Remove(params.PresentationID, sessionID); err != nil {
				s.logger.InfoContext(sessCtx, "failed to release presenter", "error", err)
			}
		},
	}

	sess.machine, err = playback.NewMachine(deck, playback.Config{
		Policy:       s.cfg.Policy,
		TickInterval: s.cfg.TickInterval,
	}, s.logger, playback.ListenerFuncs{
		SlideChanged: sess.onSlideChanged,
		StateChanged: sess.onStateChanged,
	})
	if err != nil {
		sess.abort()
		return nil, err
	}

	sess.engine = voice.NewFeedEngine(sess.requestMicStart)
	sess.voice = voice.NewSession(sess.engine, sess.HandleTranscript,
		voice.WithRestartDelay(s.cfg.MicRestartDelay),
		voice.WithStatusFunc(sess.onMicStatus),
		voice.WithLogger(s.logger),
	)

	sess.sub, err = s.broker.Subscribe(sessCtx, replication.Topic(params.PresentationID))
	if err != nil {
		sess.abort()
		return nil, fmt.Errorf("failed to subscribe to remote commands: %w", err)
	}

	sess.wg.Add(1)
	go sess.consumeRemote()

	start := 0
	if index, err := s.presentationRepo.GetCurrentIndex(ctx, params.PresentationID); err == nil {
		start = index
	}
	sess.machine.Goto(start)

	s.logger.InfoContext(ctx, "presenter connected", "session_id", sessionID, "slides", len(deck))

	return sess, nil
}

func (sess *Session) abort() {
	if sess.machine != nil {
		sess.machine.Close()
	}
	sess.cancel()
	sess.release()
}

func (sess *Session) ID() string { return sess.sessionID }

func (sess *Session) State() PlaybackState {
	return newPlaybackState(sess.deck, sess.policy, sess.machine.State())
}

// MicActive reports whether the recognition loop is running.
func (sess *Session) MicActive() bool {
	return sess.voice.Active()
}

// HandleTranscript interprets one finalized transcript. Voice pause and
// start only act when they would change something.
func (sess *Session) HandleTranscript(text string) {
	ctx := sess.ctx
	cmd := grammar.Parse(text)

	sess.dispatchMu.Lock()
	defer sess.dispatchMu.Unlock()

	switch cmd.Kind {
	case grammar.KindNext:
		sess.machine.Next()
		sess.log(ctx, ">> CMD: Next Slide", LogCommand)
	case grammar.KindPrev:
		sess.machine.Prev()
		sess.log(ctx, ">> CMD: Previous Slide", LogCommand)
	case grammar.KindPause:
		if !sess.machine.State().IsPaused {
			sess.togglePause(ctx)
		}
		sess.log(ctx, ">> CMD: Pause", LogCommand)
	case grammar.KindStart:
		if st := sess.machine.State(); st.IsPaused || !st.IsRunning {
			sess.start(ctx)
		}
		sess.log(ctx, ">> CMD: Start/Resume", LogCommand)
	case grammar.KindGoto:
		sess.gotoLabel(ctx, cmd.Target)
	default:
		sess.logger.InfoContext(ctx, "transcript ignored", "transcript", text)
		sess.log(ctx, fmt.Sprintf("(Ignored): %q", text), LogNeutral)
	}
}

// HandleCommand applies a control action from the presenter view or a
// remote controller. Pause toggles.
func (sess *Session) HandleCommand(ctx context.Context, action, payload string) error {
	cmd := grammar.FromAction(action, payload)

	sess.dispatchMu.Lock()
	defer sess.dispatchMu.Unlock()

	switch cmd.Kind {
	case grammar.KindNext:
		sess.machine.Next()
	case grammar.KindPrev:
		sess.machine.Prev()
	case grammar.KindPause:
		sess.togglePause(ctx)
	case grammar.KindStart:
		sess.start(ctx)
	case grammar.KindGoto:
		sess.gotoLabel(ctx, cmd.Target)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCommand, action)
	}

	return nil
}

func (sess *Session) start(ctx context.Context) {
	st := sess.machine.State()
	if st.IsRunning && !st.IsPaused {
		return
	}

	sess.machine.Start()
	sess.voice.Start(sess.ctx)
	sess.log(ctx, "Presentation Active - Mic Listening...", LogNeutral)
}

func (sess *Session) togglePause(ctx context.Context) {
	st := sess.machine.TogglePause()
	if st.IsPaused {
		sess.log(ctx, "Paused", LogNeutral)
	} else {
		sess.log(ctx, "Resumed", LogNeutral)
	}
}

func (sess *Session) gotoLabel(ctx context.Context, target string) {
	index, ok := grammar.Resolve(sess.deck.Labels(), target)
	if !ok {
		sess.log(ctx, fmt.Sprintf("(Unrecognized Slide: %q)", target), LogNeutral)
		return
	}

	sess.log(ctx, ">> Jumping to: "+sess.deck[index].Command, LogCommand)
	sess.machine.Goto(index)
}

// Transcript feeds a recognizer result. Results that arrive while the
// microphone loop is not running are dropped.
func (sess *Session) Transcript(text string) {
	if !sess.voice.Active() {
		sess.logger.DebugContext(sess.ctx, "transcript dropped, mic inactive", "transcript", text)
		return
	}
	if !sess.engine.Feed(text) {
		sess.logger.WarnContext(sess.ctx, "transcript dropped, recognizer not listening or queue full", "transcript", text)
	}
}

// MicEnded reports that the remote recognizer stopped on its own.
func (sess *Session) MicEnded() {
	sess.engine.Terminate(nil)
}

// MicError reports a recognizer error code such as "not-allowed".
func (sess *Session) MicError(code string) {
	sess.logger.InfoContext(sess.ctx, "mic error", "code", code)
	sess.engine.Terminate(voice.MapErrorCode(code))
}

func (sess *Session) requestMicStart() {
	if err := sess.sink.RequestMicStart(sess.ctx); err != nil {
		sess.logger.InfoContext(sess.ctx, "failed to request mic start", "error", err)
	}
}

func (sess *Session) onMicStatus(st voice.Status, err error) {
	status := MicStatus{Status: st.String()}
	if err != nil {
		status.Error = err.Error()
	}
	if e := sess.sink.SendMicStatus(sess.ctx, status); e != nil {
		sess.logger.InfoContext(sess.ctx, "failed to send mic status", "error", e)
	}

	if st == voice.StatusBlocked && errors.Is(err, voice.ErrPermissionDenied) {
		sess.log(sess.ctx, "Mic Blocked. Click 'Allow' in URL bar.", LogError)
	}
}

func (sess *Session) onSlideChanged(index int) {
	// Publisher logs its own failures; replicas recover by polling.
	_ = sess.publisher.SlideChanged(sess.ctx, index)
}

func (sess *Session) onStateChanged(state playback.State) {
	if err := sess.sink.SendState(sess.ctx, newPlaybackState(sess.deck, sess.policy, state)); err != nil {
		sess.logger.DebugContext(sess.ctx, "failed to send state", "error", err)
	}
}

func (sess *Session) log(ctx context.Context, text string, kind LogKind) {
	if err := sess.sink.SendLog(ctx, LogEntry{Text: text, Kind: kind}); err != nil {
		sess.logger.DebugContext(ctx, "failed to send log entry", "error", err)
	}
}

func (sess *Session) consumeRemote() {
	defer sess.wg.Done()

	for msg := range sess.sub.Messages() {
		if msg.Type != replication.TypeRemoteCommand {
			continue
		}

		if err := sess.HandleCommand(sess.ctx, msg.Action, msg.PayloadString()); err != nil {
			sess.logger.InfoContext(sess.ctx, "failed to handle remote command", "action", msg.Action, "error", err)
		}
	}
}

// Close stops the session and releases the presenter role.
func (sess *Session) Close() {
	sess.closeOnce.Do(func() {
		if err := sess.sub.Close(); err != nil {
			sess.logger.DebugContext(sess.ctx, "failed to close subscription", "error", err)
		}
		sess.wg.Wait()
		sess.voice.Stop()
		sess.machine.Close()
		sess.cancel()
		sess.release()
		sess.logger.InfoContext(sess.ctx, "presenter disconnected", "session_id", sess.sessionID)
	})
}
