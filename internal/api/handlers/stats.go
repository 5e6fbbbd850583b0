package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finbridge/reconcile-backend/internal/api/dto"
	"github.com/finbridge/reconcile-backend/internal/infrastructure/storage"
)

// StatsHandler handles aggregate statistics requests.
type StatsHandler struct {
	repo storage.RunRepository
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.RunRepository) *StatsHandler {
	return &StatsHandler{repo: repo}
}

// Get handles GET /api/stats.
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.repo.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{
		TotalRuns:             stats.TotalRuns,
		TotalBankTransactions: stats.TotalBankTransactions,
		TotalMatched:          stats.TotalMatched,
		TotalMissing:          stats.TotalMissing,
		MatchRate:             stats.MatchRate,
		CategoryBreakdown:     stats.CategoryBreakdown,
	})
}
