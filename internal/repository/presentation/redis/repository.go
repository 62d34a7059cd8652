package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/smartpresent/internal/repository/presentation"
)

type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
	logger         *slog.Logger
}

func NewRepo(rc *redis.Client, expireDuration time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
		logger:         logger,
	}
}

func (r repo) Get(ctx context.Context, presentationID, key string) ([]byte, error) {
	redisKey := presentation.Key(presentationID, key)
	data, err := r.rc.Get(ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, presentation.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}

	if r.expireDuration > 0 {
		r.rc.Expire(ctx, redisKey, r.expireDuration)
	}

	return data, nil
}

func (r repo) Put(ctx context.Context, presentationID, key string, value []byte) error {
	if err := r.rc.Set(ctx, presentation.Key(presentationID, key), value, r.expireDuration).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}

func (r repo) PutMany(ctx context.Context, presentationID string, values map[string][]byte) error {
	pipe := r.rc.TxPipeline()
	for key, value := range values {
		pipe.Set(ctx, presentation.Key(presentationID, key), value, r.expireDuration)
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set records: %w", err)
	}

	return nil
}

// Exists reports whether the presentation has metadata. Existing records
// get their expiry refreshed.
func (r repo) Exists(ctx context.Context, presentationID string) (bool, error) {
	metaKey := presentation.Key(presentationID, presentation.KeyMeta)
	res, err := r.rc.Exists(ctx, metaKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if presentation exists: %w", err)
	}

	if res == 0 {
		return false, nil
	}

	if r.expireDuration <= 0 {
		return true, nil
	}

	pipe := r.rc.Pipeline()
	for _, key := range []string{presentation.KeyMeta, presentation.KeyConfig, presentation.KeyCurrentIndex, presentation.KeyBlob} {
		pipe.Expire(ctx, presentation.Key(presentationID, key), r.expireDuration)
	}
	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.WarnContext(ctx, "failed to refresh presentation expiry", "presentation_id", presentationID, "error", err)
	}

	return true, nil
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}
