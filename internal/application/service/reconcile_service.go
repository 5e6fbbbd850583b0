// Package service manages asynchronous reconciliation jobs on top of the
// reconcile orchestrator. Jobs run in background goroutines detached from
// the originating HTTP request.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finbridge/reconcile-backend/internal/application/reconcile"
)

// JobStatus represents the current state of a reconciliation job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job staleness thresholds
const (
	// DefaultJobStaleThreshold is how long a job can go without progress
	// updates before being considered hung or crashed.
	DefaultJobStaleThreshold = 15 * time.Minute

	// DefaultJobMaxDuration caps how long a single job may run.
	DefaultJobMaxDuration = 1 * time.Hour
)

// JobRequest holds parameters for starting a reconciliation.
type JobRequest struct {
	AccountIDs    []string
	From, To      time.Time
	ToleranceDays int
	DryRun        bool
}

// JobProgress holds coarse progress information for a job.
type JobProgress struct {
	CurrentPhase string // "pending", "reconciling", "completed", "failed", "cancelled"
	LastUpdate   time.Time
}

// Job represents a running or completed reconciliation job.
type Job struct {
	ID          string
	Status      JobStatus
	Request     JobRequest
	StartedAt   time.Time
	CompletedAt *time.Time
	Progress    JobProgress
	Result      *reconcile.Result
	Error       error
	cancelFunc  context.CancelFunc
}

// Runner executes a reconciliation pass. Satisfied by *reconcile.Orchestrator.
type Runner interface {
	Run(ctx context.Context, opts reconcile.Options) (*reconcile.Result, error)
}

// ReconcileService manages reconciliation jobs. Only one job runs at a time;
// concurrent start attempts are rejected so two runs never consume the same
// ledger snapshot.
type ReconcileService struct {
	runner Runner
	logger *slog.Logger

	jobs      map[string]*Job
	jobsMutex sync.RWMutex

	runLock sync.Mutex

	cleanupStop chan struct{}
	cleanupDone chan struct{}
}

// NewReconcileService creates a new job service.
func NewReconcileService(runner Runner, logger *slog.Logger) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		runner: runner,
		logger: logger,
		jobs:   make(map[string]*Job),
	}
}

// StartReconcile starts a new reconciliation job asynchronously.
// The passed context is NOT used as the parent for the background job:
// jobs derive from context.Background() so they survive the HTTP request
// that started them. Use CancelJob to cancel a running job.
func (s *ReconcileService) StartReconcile(_ context.Context, req JobRequest) (string, error) {
	if !s.runLock.TryLock() {
		return "", fmt.Errorf("a reconciliation is already running")
	}

	jobID := uuid.NewString()

	jobCtx, cancel := context.WithCancel(context.Background())

	job := &Job{
		ID:         jobID,
		Status:     StatusPending,
		Request:    req,
		StartedAt:  time.Now(),
		cancelFunc: cancel,
		Progress:   JobProgress{CurrentPhase: "pending", LastUpdate: time.Now()},
	}

	s.jobsMutex.Lock()
	s.jobs[jobID] = job
	s.jobsMutex.Unlock()

	go s.runJob(jobCtx, job)

	s.logger.Info("reconciliation job started",
		"job_id", jobID,
		"accounts", len(req.AccountIDs),
		"dry_run", req.DryRun,
	)

	return jobID, nil
}

// GetJob retrieves a job by ID.
func (s *ReconcileService) GetJob(jobID string) (*Job, error) {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	return job, nil
}

// ListActiveJobs returns all running or pending jobs.
func (s *ReconcileService) ListActiveJobs() []*Job {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	var active []*Job
	for _, job := range s.jobs {
		if job.Status == StatusPending || job.Status == StatusRunning {
			active = append(active, job)
		}
	}
	return active
}

// ListAllJobs returns all jobs (for debugging/monitoring).
func (s *ReconcileService) ListAllJobs() []*Job {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// CancelJob cancels a running job.
func (s *ReconcileService) CancelJob(jobID string) error {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if job.Status != StatusPending && job.Status != StatusRunning {
		return fmt.Errorf("job cannot be cancelled: status=%s", job.Status)
	}

	job.cancelFunc()
	job.Status = StatusCancelled
	now := time.Now()
	job.CompletedAt = &now
	job.Progress.CurrentPhase = "cancelled"
	job.Progress.LastUpdate = now

	s.logger.Info("reconciliation job cancelled", "job_id", jobID)
	return nil
}

// runJob executes the job in a background goroutine.
func (s *ReconcileService) runJob(ctx context.Context, job *Job) {
	defer s.runLock.Unlock()

	s.updateJobStatus(job.ID, StatusRunning, JobProgress{
		CurrentPhase: "reconciling",
		LastUpdate:   time.Now(),
	})

	result, err := s.runner.Run(ctx, reconcile.Options{
		JobID:         job.ID,
		AccountIDs:    job.Request.AccountIDs,
		From:          job.Request.From,
		To:            job.Request.To,
		ToleranceDays: job.Request.ToleranceDays,
		DryRun:        job.Request.DryRun,
	})

	if err != nil {
		if ctx.Err() == context.Canceled {
			// Already marked as cancelled in CancelJob
			return
		}
		s.failJob(job.ID, err)
		return
	}

	s.completeJob(job.ID, result)
}

// updateJobStatus updates a job's status and progress.
func (s *ReconcileService) updateJobStatus(jobID string, status JobStatus, progress JobProgress) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if job, exists := s.jobs[jobID]; exists {
		job.Status = status
		job.Progress = progress
	}
}

// completeJob marks a job as completed with its result.
func (s *ReconcileService) completeJob(jobID string, result *reconcile.Result) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if job, exists := s.jobs[jobID]; exists {
		now := time.Now()
		job.Status = StatusCompleted
		job.CompletedAt = &now
		job.Result = result
		job.Progress.CurrentPhase = "completed"
		job.Progress.LastUpdate = now
		s.logger.Info("reconciliation job completed",
			"job_id", jobID,
			"matched", result.MatchedCount(),
			"missing", result.MissingCount(),
		)
	}
}

// failJob marks a job as failed with an error.
func (s *ReconcileService) failJob(jobID string, err error) {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	if job, exists := s.jobs[jobID]; exists {
		now := time.Now()
		job.Status = StatusFailed
		job.CompletedAt = &now
		job.Error = err
		job.Progress = JobProgress{
			CurrentPhase: "failed",
			LastUpdate:   now,
		}
		s.logger.Error("reconciliation job failed", "job_id", jobID, "error", err)
	}
}

// CleanupOldJobs removes completed jobs older than the specified duration.
func (s *ReconcileService) CleanupOldJobs(maxAge time.Duration) int {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, job := range s.jobs {
		if job.Status == StatusCompleted || job.Status == StatusFailed || job.Status == StatusCancelled {
			if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
				delete(s.jobs, id)
				removed++
			}
		}
	}

	if removed > 0 {
		s.logger.Debug("cleaned up old reconciliation jobs", "removed", removed)
	}

	return removed
}

// MarkStaleJobsAsFailed finds jobs that appear stuck and marks them as failed.
// A job is stale when it has run longer than maxDuration or its progress has
// not updated within staleThreshold. This covers goroutines that panicked
// without updating status and jobs orphaned by a server restart.
func (s *ReconcileService) MarkStaleJobsAsFailed(staleThreshold, maxDuration time.Duration) int {
	s.jobsMutex.Lock()
	defer s.jobsMutex.Unlock()

	now := time.Now()
	marked := 0

	for id, job := range s.jobs {
		if job.Status != StatusRunning && job.Status != StatusPending {
			continue
		}

		isStale := false
		reason := ""

		if now.Sub(job.StartedAt) > maxDuration {
			isStale = true
			reason = fmt.Sprintf("exceeded max duration of %v (started %v ago)", maxDuration, now.Sub(job.StartedAt).Round(time.Second))
		}

		if !isStale && now.Sub(job.Progress.LastUpdate) > staleThreshold {
			isStale = true
			reason = fmt.Sprintf("no progress update for %v (threshold: %v)", now.Sub(job.Progress.LastUpdate).Round(time.Second), staleThreshold)
		}

		if isStale {
			if job.cancelFunc != nil {
				job.cancelFunc()
			}

			job.Status = StatusFailed
			job.CompletedAt = &now
			job.Error = fmt.Errorf("job marked as stale: %s", reason)
			job.Progress.CurrentPhase = "failed"
			job.Progress.LastUpdate = now

			s.logger.Warn("marked stale job as failed",
				"job_id", id,
				"reason", reason,
				"started_at", job.StartedAt,
				"last_update", job.Progress.LastUpdate,
			)

			marked++
		}
	}

	return marked
}

// IsJobStale checks whether a specific job is considered stale.
func (s *ReconcileService) IsJobStale(jobID string, staleThreshold, maxDuration time.Duration) bool {
	s.jobsMutex.RLock()
	defer s.jobsMutex.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return false
	}

	if job.Status != StatusRunning && job.Status != StatusPending {
		return false
	}

	now := time.Now()
	return now.Sub(job.StartedAt) > maxDuration || now.Sub(job.Progress.LastUpdate) > staleThreshold
}

// StartBackgroundCleanup starts a goroutine that periodically marks stale
// jobs as failed and removes old completed jobs. Runs every checkInterval
// until StopBackgroundCleanup is called.
func (s *ReconcileService) StartBackgroundCleanup(checkInterval time.Duration) {
	s.cleanupStop = make(chan struct{})
	s.cleanupDone = make(chan struct{})

	go func() {
		defer close(s.cleanupDone)

		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		s.logger.Info("background job cleanup started",
			"check_interval", checkInterval,
			"stale_threshold", DefaultJobStaleThreshold,
			"max_duration", DefaultJobMaxDuration,
		)

		for {
			select {
			case <-s.cleanupStop:
				s.logger.Info("background job cleanup stopped")
				return
			case <-ticker.C:
				staleMarked := s.MarkStaleJobsAsFailed(DefaultJobStaleThreshold, DefaultJobMaxDuration)
				if staleMarked > 0 {
					s.logger.Info("marked stale jobs as failed", "count", staleMarked)
				}

				cleaned := s.CleanupOldJobs(24 * time.Hour)
				if cleaned > 0 {
					s.logger.Debug("cleaned up old jobs", "count", cleaned)
				}
			}
		}
	}()
}

// StopBackgroundCleanup stops the background cleanup goroutine and blocks
// until it has fully stopped.
func (s *ReconcileService) StopBackgroundCleanup() {
	if s.cleanupStop == nil {
		return
	}

	close(s.cleanupStop)
	<-s.cleanupDone
}
