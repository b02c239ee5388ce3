// Package jobs contains the worker's scheduled jobs.
package jobs

import (
	"context"

	"github.com/champtrack/champtrack-hub/pkg/logger"
)

// DeadLetterQueue is the part of the outbox the requeue job needs.
type DeadLetterQueue interface {
	Requeue() int
	Pending() int
}

// RequeueDeadLettersJob gives buried writes another chance, typically after
// the backend has been down for longer than the retry window.
type RequeueDeadLettersJob struct {
	queue DeadLetterQueue
	log   *logger.Logger
}

func NewRequeueDeadLettersJob(queue DeadLetterQueue, log *logger.Logger) *RequeueDeadLettersJob {
	if log == nil {
		log = logger.Nop()
	}
	return &RequeueDeadLettersJob{queue: queue, log: log}
}

func (j *RequeueDeadLettersJob) Name() string { return "requeue_dead_letters" }

func (j *RequeueDeadLettersJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n := j.queue.Requeue(); n > 0 {
		j.log.Info("dead letters requeued",
			logger.Int("requeued", n),
			logger.Int("pending", j.queue.Pending()),
		)
	}
	return nil
}
