package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finbridge/reconcile-backend/internal/api/dto"
	"github.com/finbridge/reconcile-backend/internal/application/service"
)

// ReconcileHandler handles reconciliation job requests.
type ReconcileHandler struct {
	svc *service.ReconcileService
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(svc *service.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{svc: svc}
}

// Start handles POST /api/reconcile - starts a new reconciliation job.
func (h *ReconcileHandler) Start(c *gin.Context) {
	var req dto.StartReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	var from, to time.Time
	var err error
	if req.From != "" {
		from, err = time.Parse("2006-01-02", req.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ValidationError("from must be YYYY-MM-DD"))
			return
		}
	}
	if req.To != "" {
		to, err = time.Parse("2006-01-02", req.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ValidationError("to must be YYYY-MM-DD"))
			return
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		c.JSON(http.StatusBadRequest, dto.ValidationError("to must not be before from"))
		return
	}
	if req.ToleranceDays < 0 {
		c.JSON(http.StatusBadRequest, dto.ValidationError("tolerance_days must not be negative"))
		return
	}

	jobID, err := h.svc.StartReconcile(c.Request.Context(), service.JobRequest{
		AccountIDs:    req.AccountIDs,
		From:          from,
		To:            to,
		ToleranceDays: req.ToleranceDays,
		DryRun:        req.DryRun,
	})
	if err != nil {
		c.JSON(http.StatusConflict, dto.ConflictError(err.Error()))
		return
	}

	c.JSON(http.StatusAccepted, dto.StartReconcileResponse{
		JobID:  jobID,
		Status: string(service.StatusPending),
	})
}

// GetStatus handles GET /api/reconcile/:jobId - gets job status.
func (h *ReconcileHandler) GetStatus(c *gin.Context) {
	job, err := h.svc.GetJob(c.Param("jobId"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.NotFoundError("job"))
		return
	}

	c.JSON(http.StatusOK, toJobResponse(job))
}

// ListActive handles GET /api/reconcile/active - lists running and pending jobs.
func (h *ReconcileHandler) ListActive(c *gin.Context) {
	jobs := h.svc.ListActiveJobs()

	response := dto.ActiveJobsResponse{
		Jobs:  make([]dto.JobResponse, 0, len(jobs)),
		Count: len(jobs),
	}
	for _, job := range jobs {
		response.Jobs = append(response.Jobs, toJobResponse(job))
	}

	c.JSON(http.StatusOK, response)
}

// ListAll handles GET /api/reconcile - lists all jobs.
func (h *ReconcileHandler) ListAll(c *gin.Context) {
	jobs := h.svc.ListAllJobs()

	response := dto.AllJobsResponse{
		Jobs:  make([]dto.JobResponse, 0, len(jobs)),
		Count: len(jobs),
	}
	for _, job := range jobs {
		response.Jobs = append(response.Jobs, toJobResponse(job))
	}

	c.JSON(http.StatusOK, response)
}

// Cancel handles DELETE /api/reconcile/:jobId - cancels a running job.
func (h *ReconcileHandler) Cancel(c *gin.Context) {
	jobID := c.Param("jobId")

	if err := h.svc.CancelJob(jobID); err != nil {
		c.JSON(http.StatusConflict, dto.ConflictError(err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "job cancelled"})
}

// toJobResponse converts a service job to an API response.
func toJobResponse(job *service.Job) dto.JobResponse {
	resp := dto.JobResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		DryRun:    job.Request.DryRun,
		StartedAt: job.StartedAt.UTC().Format(time.RFC3339),
		Progress: dto.JobProgressResponse{
			CurrentPhase: job.Progress.CurrentPhase,
			LastUpdate:   job.Progress.LastUpdate.UTC().Format(time.RFC3339),
		},
	}

	if job.CompletedAt != nil {
		completed := job.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &completed
	}

	if job.Result != nil {
		resp.Result = &dto.JobResultResponse{
			RunID:        job.Result.RunID,
			MatchedCount: job.Result.MatchedCount(),
			MissingCount: job.Result.MissingCount(),
			Duration:     job.Result.Duration.Round(time.Millisecond).String(),
		}
	}

	if job.Error != nil {
		msg := job.Error.Error()
		resp.Error = &msg
	}

	return resp
}
