package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbridge/reconcile-backend/internal/application/reconcile"
)

// stubRunner is a controllable Runner for exercising job lifecycle.
type stubRunner struct {
	mu      sync.Mutex
	result  *reconcile.Result
	err     error
	block     chan struct{} // when set, Run blocks until closed or ctx done
	started   chan struct{} // closed once Run has been entered
	startOnce sync.Once
}

func (r *stubRunner) Run(ctx context.Context, opts reconcile.Options) (*reconcile.Result, error) {
	if r.started != nil {
		r.startOnce.Do(func() { close(r.started) })
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	result := r.result
	if result == nil {
		result = &reconcile.Result{JobID: opts.JobID}
	}
	return result, nil
}

// Helper to create a test logger
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// waitForStatus polls until the job reaches one of the terminal states.
func waitForStatus(t *testing.T, svc *ReconcileService, jobID string, want JobStatus) *Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.GetJob(jobID)
		require.NoError(t, err)
		if job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return nil
}

func TestReconcileService_StartReconcile_RunsToCompletion(t *testing.T) {
	runner := &stubRunner{}
	svc := NewReconcileService(runner, testLogger())

	jobID, err := svc.StartReconcile(context.Background(), JobRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	job := waitForStatus(t, svc, jobID, StatusCompleted)
	assert.NotNil(t, job.Result)
	assert.NotNil(t, job.CompletedAt)
	assert.Equal(t, "completed", job.Progress.CurrentPhase)
}

func TestReconcileService_StartReconcile_RejectsConcurrent(t *testing.T) {
	runner := &stubRunner{block: make(chan struct{}), started: make(chan struct{})}
	svc := NewReconcileService(runner, testLogger())

	jobID, err := svc.StartReconcile(context.Background(), JobRequest{})
	require.NoError(t, err)
	<-runner.started

	_, err = svc.StartReconcile(context.Background(), JobRequest{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	close(runner.block)
	waitForStatus(t, svc, jobID, StatusCompleted)

	// The lock releases once the first job finishes
	_, err = svc.StartReconcile(context.Background(), JobRequest{})
	assert.NoError(t, err)
}

func TestReconcileService_StartReconcile_FailedJob(t *testing.T) {
	runner := &stubRunner{err: errors.New("ledger unavailable")}
	svc := NewReconcileService(runner, testLogger())

	jobID, err := svc.StartReconcile(context.Background(), JobRequest{})
	require.NoError(t, err)

	job := waitForStatus(t, svc, jobID, StatusFailed)
	assert.EqualError(t, job.Error, "ledger unavailable")
	assert.Equal(t, "failed", job.Progress.CurrentPhase)
}

func TestReconcileService_CancelJob(t *testing.T) {
	runner := &stubRunner{block: make(chan struct{}), started: make(chan struct{})}
	svc := NewReconcileService(runner, testLogger())

	jobID, err := svc.StartReconcile(context.Background(), JobRequest{})
	require.NoError(t, err)
	<-runner.started

	err = svc.CancelJob(jobID)
	require.NoError(t, err)

	job, err := svc.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, job.Status)
	assert.Equal(t, "cancelled", job.Progress.CurrentPhase)
}

func TestReconcileService_CancelJob_NotFound(t *testing.T) {
	svc := NewReconcileService(&stubRunner{}, testLogger())

	err := svc.CancelJob("non-existent")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReconcileService_CancelJob_AlreadyCompleted(t *testing.T) {
	runner := &stubRunner{}
	svc := NewReconcileService(runner, testLogger())

	jobID, err := svc.StartReconcile(context.Background(), JobRequest{})
	require.NoError(t, err)
	waitForStatus(t, svc, jobID, StatusCompleted)

	err = svc.CancelJob(jobID)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be cancelled")
}

func TestReconcileService_GetJob_NotFound(t *testing.T) {
	svc := NewReconcileService(&stubRunner{}, testLogger())

	_, err := svc.GetJob("non-existent")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReconcileService_ListActiveJobs_Empty(t *testing.T) {
	svc := NewReconcileService(&stubRunner{}, testLogger())

	jobs := svc.ListActiveJobs()

	assert.Empty(t, jobs)
}

func TestReconcileService_ListActiveJobs_ExcludesTerminal(t *testing.T) {
	svc := NewReconcileService(&stubRunner{}, testLogger())

	svc.jobsMutex.Lock()
	svc.jobs["running"] = &Job{ID: "running", Status: StatusRunning}
	svc.jobs["done"] = &Job{ID: "done", Status: StatusCompleted}
	svc.jobsMutex.Unlock()

	active := svc.ListActiveJobs()

	require.Len(t, active, 1)
	assert.Equal(t, "running", active[0].ID)
	assert.Len(t, svc.ListAllJobs(), 2)
}

func TestReconcileService_CleanupOldJobs(t *testing.T) {
	svc := NewReconcileService(&stubRunner{}, testLogger())

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-1 * time.Hour)

	svc.jobsMutex.Lock()
	svc.jobs["old"] = &Job{ID: "old", Status: StatusCompleted, CompletedAt: &old}
	svc.jobs["recent"] = &Job{ID: "recent", Status: StatusCompleted, CompletedAt: &recent}
	svc.jobs["running"] = &Job{ID: "running", Status: StatusRunning, StartedAt: old}
	svc.jobsMutex.Unlock()

	removed := svc.CleanupOldJobs(24 * time.Hour)

	assert.Equal(t, 1, removed)
	_, err := svc.GetJob("old")
	assert.Error(t, err)
	_, err = svc.GetJob("running")
	assert.NoError(t, err)
}

func TestReconcileService_IsJobStale(t *testing.T) {
	svc := NewReconcileService(&stubRunner{}, testLogger())

	svc.jobsMutex.Lock()
	svc.jobs["healthy"] = &Job{
		ID:        "healthy",
		Status:    StatusRunning,
		StartedAt: time.Now().Add(-5 * time.Minute),
		Progress:  JobProgress{LastUpdate: time.Now()},
	}
	svc.jobs["no-progress"] = &Job{
		ID:        "no-progress",
		Status:    StatusRunning,
		StartedAt: time.Now().Add(-20 * time.Minute),
		Progress:  JobProgress{LastUpdate: time.Now().Add(-20 * time.Minute)},
	}
	svc.jobs["too-long"] = &Job{
		ID:        "too-long",
		Status:    StatusRunning,
		StartedAt: time.Now().Add(-2 * time.Hour),
		Progress:  JobProgress{LastUpdate: time.Now()},
	}
	svc.jobs["done"] = &Job{
		ID:        "done",
		Status:    StatusCompleted,
		StartedAt: time.Now().Add(-3 * time.Hour),
		Progress:  JobProgress{LastUpdate: time.Now().Add(-3 * time.Hour)},
	}
	svc.jobsMutex.Unlock()

	assert.False(t, svc.IsJobStale("healthy", 15*time.Minute, time.Hour))
	assert.True(t, svc.IsJobStale("no-progress", 15*time.Minute, time.Hour))
	assert.True(t, svc.IsJobStale("too-long", 15*time.Minute, time.Hour))
	assert.False(t, svc.IsJobStale("done", 15*time.Minute, time.Hour))
	assert.False(t, svc.IsJobStale("missing", 15*time.Minute, time.Hour))
}

func TestReconcileService_MarkStaleJobsAsFailed(t *testing.T) {
	svc := NewReconcileService(&stubRunner{}, testLogger())

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.jobsMutex.Lock()
	svc.jobs["stale"] = &Job{
		ID:         "stale",
		Status:     StatusRunning,
		StartedAt:  time.Now().Add(-30 * time.Minute),
		Progress:   JobProgress{LastUpdate: time.Now().Add(-30 * time.Minute)},
		cancelFunc: cancel,
	}
	svc.jobs["fresh"] = &Job{
		ID:        "fresh",
		Status:    StatusRunning,
		StartedAt: time.Now(),
		Progress:  JobProgress{LastUpdate: time.Now()},
	}
	svc.jobsMutex.Unlock()

	marked := svc.MarkStaleJobsAsFailed(15*time.Minute, time.Hour)

	assert.Equal(t, 1, marked)
	stale, err := svc.GetJob("stale")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stale.Status)
	assert.ErrorContains(t, stale.Error, "stale")
	fresh, err := svc.GetJob("fresh")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, fresh.Status)
}

func TestReconcileService_BackgroundCleanup_StartStop(t *testing.T) {
	svc := NewReconcileService(&stubRunner{}, testLogger())

	svc.StartBackgroundCleanup(10 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	svc.StopBackgroundCleanup()
}

func TestJobStatus_Values(t *testing.T) {
	assert.Equal(t, "pending", string(StatusPending))
	assert.Equal(t, "running", string(StatusRunning))
	assert.Equal(t, "completed", string(StatusCompleted))
	assert.Equal(t, "failed", string(StatusFailed))
	assert.Equal(t, "cancelled", string(StatusCancelled))
}
