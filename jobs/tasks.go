package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/escotilha/nuvini-ai-fpa/internal/consol"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskConsolidationRun executes a full consolidation in the background.
	TaskConsolidationRun = "consol:run"
)

// ConsolidationRunPayload carries the input of one queued consolidation run.
type ConsolidationRunPayload struct {
	Input consol.RunInput `json:"input"`
}

// NewConsolidationRunTask constructs an Asynq task for a consolidation run.
func NewConsolidationRunTask(input consol.RunInput) (*asynq.Task, error) {
	body, err := json.Marshal(ConsolidationRunPayload{Input: input})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConsolidationRun, body, asynq.Queue(QueueDefault)), nil
}
