package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatsWarmup fills the stats cache for the default date ranges.
	TaskStatsWarmup = "stats:warmup"
)

// StatsWarmupPayload selects how many trailing days get their default range
// warmed. Zero warms today's range only.
type StatsWarmupPayload struct {
	Days int `json:"days"`
}

// NewStatsWarmupTask constructs a warmup task.
func NewStatsWarmupTask(payload StatsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsWarmup, data), nil
}
