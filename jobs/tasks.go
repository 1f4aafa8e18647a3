package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTokenPurge removes refresh-token rows that expired or were
	// revoked longer than the retention window ago.
	TaskTokenPurge = "auth:token_purge"
)

// DefaultTokenRetentionHours keeps dead refresh-token rows for one week
// before the purge removes them.
const DefaultTokenRetentionHours = 168

// TokenPurgePayload bounds the purge window for one run.
type TokenPurgePayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewTokenPurgeTask constructs an Asynq task for purging dead refresh
// tokens. Non-positive retention falls back to the default.
func NewTokenPurgeTask(retentionHours int) (*asynq.Task, error) {
	if retentionHours <= 0 {
		retentionHours = DefaultTokenRetentionHours
	}
	payload := TokenPurgePayload{RetentionHours: retentionHours}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTokenPurge, body, asynq.Queue(QueueDefault)), nil
}
