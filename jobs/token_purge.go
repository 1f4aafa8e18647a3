package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	jobmetrics "github.com/taskhive/taskhive/internal/jobs"
	"github.com/taskhive/taskhive/internal/platform/cache"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const (
	tokenPurgeLockKey = "auth:token_purge:lock"
	tokenPurgeLockTTL = 10 * time.Minute
)

// TokenPurger removes dead refresh-token rows older than retention.
type TokenPurger interface {
	PurgeDead(ctx context.Context, retention time.Duration) (int64, error)
}

// TokenPurgeJob deletes refresh-token rows whose tokens expired or were
// revoked before the retention cutoff. A redis lock keeps overlapping
// workers from double-running; a skipped run is not a failure.
type TokenPurgeJob struct {
	Purger  TokenPurger
	Redis   *redis.Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	lockTTL time.Duration
}

// NewTokenPurgeJob wires dependencies for the purge handler.
func NewTokenPurgeJob(purger TokenPurger, redisClient *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *TokenPurgeJob {
	return &TokenPurgeJob{
		Purger:  purger,
		Redis:   redisClient,
		Logger:  logger,
		Metrics: metrics,
		lockTTL: tokenPurgeLockTTL,
	}
}

// Handle processes token purge tasks.
func (j *TokenPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Purger == nil {
		return errors.New("token purge: handler not configured")
	}
	var payload TokenPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionHours <= 0 {
		payload.RetentionHours = DefaultTokenRetentionHours
	}

	tracker := j.metrics().Track(TaskTokenPurge)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("retention_hours", payload.RetentionHours))

	if j.Redis != nil {
		ok, err := cache.AcquireLock(ctx, j.Redis, tokenPurgeLockKey, j.lockTTL)
		if err != nil {
			resultErr = err
			logger.Error("acquire purge lock", slog.Any("error", err))
			return resultErr
		}
		if !ok {
			logger.Info("purge lock held elsewhere, skipping run")
			return nil
		}
		defer func() {
			if err := cache.ReleaseLock(ctx, j.Redis, tokenPurgeLockKey); err != nil {
				logger.Warn("release purge lock", slog.Any("error", err))
			}
		}()
	}

	retention := time.Duration(payload.RetentionHours) * time.Hour
	purged, err := j.Purger.PurgeDead(ctx, retention)
	if err != nil {
		resultErr = err
		logger.Error("purge dead tokens", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed token purge", slog.Int64("purged", purged))
	return resultErr
}

func (j *TokenPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTokenPurge))
	}
	return slog.Default().With(slog.String("job", TaskTokenPurge))
}

func (j *TokenPurgeJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
