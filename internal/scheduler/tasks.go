// Package scheduler defines the background tasks and the asynq client and
// worker that carry them.
package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskEngagementRescore applies engagement events to a prospect's score.
const TaskEngagementRescore = "engagement:rescore"

// EngagementRescorePayload is the task body for TaskEngagementRescore.
type EngagementRescorePayload struct {
	ProspectID uuid.UUID `json:"prospectId"`
	Events     []string  `json:"events"`
}

// NewEngagementRescoreTask builds the rescore task. Retries are safe: the
// engagement store deduplicates applied event types.
func NewEngagementRescoreTask(prospectID uuid.UUID, events []string) (*asynq.Task, error) {
	payload, err := json.Marshal(EngagementRescorePayload{ProspectID: prospectID, Events: events})
	if err != nil {
		return nil, fmt.Errorf("marshal rescore payload: %w", err)
	}
	return asynq.NewTask(TaskEngagementRescore, payload,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}

// ParseEngagementRescorePayload decodes a task body.
func ParseEngagementRescorePayload(task *asynq.Task) (EngagementRescorePayload, error) {
	var payload EngagementRescorePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EngagementRescorePayload{}, fmt.Errorf("unmarshal rescore payload: %w", err)
	}
	if payload.ProspectID == uuid.Nil {
		return EngagementRescorePayload{}, fmt.Errorf("rescore payload missing prospect id")
	}
	return payload, nil
}
