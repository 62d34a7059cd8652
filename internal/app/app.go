package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sharetube/smartpresent/internal/controller"
	"github.com/sharetube/smartpresent/internal/playback"
	"github.com/sharetube/smartpresent/internal/replication"
	"github.com/sharetube/smartpresent/internal/replication/redisbroker"
	"github.com/sharetube/smartpresent/internal/repository/presentation"
	presentationRedis "github.com/sharetube/smartpresent/internal/repository/presentation/redis"
	"github.com/sharetube/smartpresent/internal/repository/presentation/sqlite"
	"github.com/sharetube/smartpresent/internal/repository/presenter/inmemory"
	presentationService "github.com/sharetube/smartpresent/internal/service/presentation"
	"github.com/sharetube/smartpresent/pkg/ctxlogger"
	"github.com/sharetube/smartpresent/pkg/redisclient"
	"github.com/sharetube/smartpresent/pkg/validator"
)

const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type AppConfig struct {
	Secret          string        `json:"-" validate:"required"`
	Host            string        `json:"host" validate:"required"`
	Port            int           `json:"port" validate:"min=1,max=65535"`
	LogLevel        string        `json:"log_level" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Store           string        `json:"store" validate:"oneof=redis sqlite"`
	SQLitePath      string        `json:"sqlite_path" validate:"required_if=Store sqlite"`
	Boundary        string        `json:"boundary" validate:"oneof=clamp wrap"`
	Expiry          string        `json:"expiry" validate:"oneof=hold advance"`
	SyncInterval    time.Duration `json:"sync_interval" validate:"min=0"`
	MicRestartDelay time.Duration `json:"mic_restart_delay" validate:"min=0"`
	DataTTL         time.Duration `json:"data_ttl" validate:"min=0"`
	RedisPort       int           `json:"redis_port" validate:"required_if=Store redis,max=65535"`
	RedisHost       string        `json:"redis_host" validate:"required_if=Store redis"`
	RedisPassword   string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	validationErrors, ok := validator.NewValidator().Validate(cfg)
	if ok {
		return nil
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, e.Message)
	}

	return fmt.Errorf("invalid config: %s", strings.Join(messages, "; "))
}

func (cfg *AppConfig) policy() (playback.Policy, error) {
	boundary, err := playback.ParseBoundaryPolicy(cfg.Boundary)
	if err != nil {
		return playback.Policy{}, err
	}

	expiry, err := playback.ParseExpiryPolicy(cfg.Expiry)
	if err != nil {
		return playback.Policy{}, err
	}

	return playback.Policy{Boundary: boundary, Expiry: expiry}, nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, err
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

// newHandler wires storage, replication and the presentation service into
// the http handler. The returned cleanup releases the store.
func newHandler(cfg *AppConfig, logger *slog.Logger) (http.Handler, func(), error) {
	policy, err := cfg.policy()
	if err != nil {
		return nil, nil, err
	}

	var (
		kv      presentation.KV
		broker  replication.Broker
		cleanup func()
	)

	switch cfg.Store {
	case StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		kv = store
		broker = replication.NewLocalBroker()
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close sqlite store", "error", err)
			}
		}
	case StoreRedis:
		rc, err := redisclient.NewRedisClient(&redisclient.Config{
			Port:     cfg.RedisPort,
			Host:     cfg.RedisHost,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		kv = presentationRedis.NewRepo(rc, cfg.DataTTL, logger)
		broker = redisbroker.New(rc, logger)
		cleanup = func() {
			if err := rc.Close(); err != nil {
				logger.Error("failed to close redis client", "error", err)
			}
		}
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	service := presentationService.NewService(
		presentation.NewStore(kv),
		inmemory.NewRepo(logger),
		broker,
		presentationService.Config{
			Secret:          cfg.Secret,
			Policy:          policy,
			TickInterval:    time.Second,
			SyncInterval:    cfg.SyncInterval,
			MicRestartDelay: cfg.MicRestartDelay,
		},
		logger,
	)

	return controller.NewController(service, logger).GetMux(), cleanup, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logger, err := newLogger(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}

	handler, cleanup, err := newHandler(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: handler}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "store", cfg.Store)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-serverCtx.Done()

	return nil
}
