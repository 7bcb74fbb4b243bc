package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/backoffice/internal/jobs"
)

const maxWarmupDays = 31

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// StatsWarmer fills the cache of the range ending at day.
type StatsWarmer interface {
	Warm(ctx context.Context, day time.Time) error
}

// StatsWarmupJob pre-populates the stats cache so the first page view of the
// day does not wait on the database.
type StatsWarmupJob struct {
	Stats   StatsWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewStatsWarmupJob wires dependencies for the warmup handler.
func NewStatsWarmupJob(stats StatsWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *StatsWarmupJob {
	return &StatsWarmupJob{
		Stats:   stats,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskStatsWarmup tasks.
func (j *StatsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Stats == nil {
		return errors.New("stats warmup: handler not configured")
	}
	var payload StatsWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	days := min(max(payload.Days, 1), maxWarmupDays)

	tracker := j.metrics().Track(TaskStatsWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("days", days))
	start := time.Now()
	today := j.now()
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, -i)
		dayCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		err := j.Stats.Warm(dayCtx, day)
		cancel()
		if err != nil {
			logger.Error("warm stats range", slog.String("day", day.Format("2006-01-02")), slog.Any("error", err))
			return err
		}
		j.metrics().AddWarmed("stats", 1)
	}
	logger.Info("completed stats warmup", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *StatsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskStatsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskStatsWarmup))
}

func (j *StatsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *StatsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
