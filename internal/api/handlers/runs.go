package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/finbridge/reconcile-backend/internal/api/dto"
	"github.com/finbridge/reconcile-backend/internal/infrastructure/storage"
)

// RunsHandler handles reconciliation run history requests.
type RunsHandler struct {
	repo storage.RunRepository
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo storage.RunRepository) *RunsHandler {
	return &RunsHandler{repo: repo}
}

// List handles GET /api/runs - returns recent runs, newest first.
func (h *RunsHandler) List(c *gin.Context) {
	limit := ParseIntQuery(c, "limit", 20)

	runs, err := h.repo.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, toRunResponse(run))
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/runs/:id - returns a run with its outcomes.
func (h *RunsHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid run ID"))
		return
	}

	run, err := h.repo.GetRun(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, dto.NotFoundError("run"))
		return
	}

	outcomes, err := h.repo.ListOutcomes(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RunDetailResponse{
		Run:      toRunResponse(*run),
		Outcomes: make([]dto.OutcomeResponse, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		response.Outcomes = append(response.Outcomes, toOutcomeResponse(o))
	}

	c.JSON(http.StatusOK, response)
}

// toRunResponse converts a storage run to an API response.
func toRunResponse(run storage.ReconciliationRun) dto.RunResponse {
	resp := dto.RunResponse{
		ID:            run.ID,
		JobID:         run.JobID,
		StartedAt:     run.StartedAt.UTC().Format(time.RFC3339),
		ToleranceDays: run.ToleranceDays,
		BankCount:     run.BankCount,
		LedgerCount:   run.LedgerCount,
		MatchedCount:  run.MatchedCount,
		MissingCount:  run.MissingCount,
		Status:        run.Status,
		ErrorMessage:  run.ErrorMessage,
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// toOutcomeResponse converts a storage outcome to an API response.
func toOutcomeResponse(o storage.TransactionOutcome) dto.OutcomeResponse {
	return dto.OutcomeResponse{
		BankTransactionID:   o.BankTransactionID,
		AccountID:           o.AccountID,
		Date:                o.Date.UTC().Format("2006-01-02"),
		Amount:              o.Amount,
		DisplayName:         o.DisplayName,
		Status:              o.Status,
		LedgerTransactionID: o.LedgerTransactionID,
		DateDiffDays:        o.DateDiffDays,
		CategoryID:          o.CategoryID,
		CategoryName:        o.CategoryName,
	}
}
