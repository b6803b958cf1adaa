package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskSyncSubmission = "leadsync.submission"

// SyncSubmissionPayload carries one webhook delivery to the worker. Fields is
// the raw submission body so key order survives the queue.
type SyncSubmissionPayload struct {
	FormID     int64           `json:"formId"`
	EntryID    int64           `json:"entryId"`
	Fields     json.RawMessage `json:"fields"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

func NewSyncSubmissionTask(payload SyncSubmissionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSyncSubmission, data), nil
}

func ParseSyncSubmissionPayload(task *asynq.Task) (SyncSubmissionPayload, error) {
	var payload SyncSubmissionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SyncSubmissionPayload{}, err
	}
	return payload, nil
}
