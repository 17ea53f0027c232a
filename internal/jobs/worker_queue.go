package jobs

import (
	"errors"

	"github.com/vytor/flashgenius/internal/metrics"
	"github.com/vytor/flashgenius/internal/worker"
)

// WorkerQueue implements JobQueue using worker pools
type WorkerQueue struct {
	refreshPool *worker.Pool
	refresher   worker.LeaderboardRefresher
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(refreshPool *worker.Pool, refresher worker.LeaderboardRefresher) JobQueue {
	return &WorkerQueue{
		refreshPool: refreshPool,
		refresher:   refresher,
	}
}

// EnqueueLeaderboardRefresh schedules a cache rebuild. A full queue already
// holds a pending refresh, so the job is dropped and counted.
func (q *WorkerQueue) EnqueueLeaderboardRefresh() error {
	job := &worker.RefreshLeaderboardJob{Refresher: q.refresher}
	err := q.refreshPool.Submit(job)
	if errors.Is(err, worker.ErrQueueFull) {
		metrics.JobsDropped.WithLabelValues(job.Name()).Inc()
	}
	return err
}
