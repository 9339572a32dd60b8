// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"yoga-guide/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// WorkerOptions configures one job worker subscription.
type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for opts.TaskType that dispatches to handler.
func NewWorker(client zbc.Client, opts WorkerOptions, handler worker.JobHandler, log logger.Logger) *CamundaWorker {
	jobWorker := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(handler).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   log,
		taskType: opts.TaskType,
	}
}

// Stop closes the subscription and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
