package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbridge/reconcile-backend/internal/api"
	"github.com/finbridge/reconcile-backend/internal/api/dto"
	"github.com/finbridge/reconcile-backend/internal/infrastructure/storage"
)

// These tests use a real SQLite database to exercise the full stack:
// HTTP request, router, handlers, storage, SQLite. They catch issues that
// mock-based tests miss, like SQL NULL handling and JSON serialization
// through the whole pipeline.

func createIntegrationServer(t *testing.T) (*httptest.Server, *storage.Storage, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "api_integration_*.db")
	require.NoError(t, err)
	tmpFile.Close()

	store, err := storage.NewStorage(tmpFile.Name())
	require.NoError(t, err)

	server := api.NewServer(api.DefaultConfig(), store, nil, nil)
	ts := httptest.NewServer(server.Router())

	cleanup := func() {
		ts.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	}

	return ts, store, cleanup
}

func TestAPI_Integration_HealthCheck(t *testing.T) {
	ts, _, cleanup := createIntegrationServer(t)
	defer cleanup()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
}

func TestAPI_Integration_ListRuns_Empty(t *testing.T) {
	ts, _, cleanup := createIntegrationServer(t)
	defer cleanup()

	resp, err := http.Get(ts.URL + "/api/runs")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var runs dto.RunListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	assert.Equal(t, 0, runs.Count)
}

func TestAPI_Integration_RunLifecycle(t *testing.T) {
	ts, store, cleanup := createIntegrationServer(t)
	defer cleanup()

	runID, err := store.StartRun(&storage.ReconciliationRun{
		JobID:         "job-int-1",
		StartedAt:     time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		ToleranceDays: 3,
		BankCount:     2,
		LedgerCount:   2,
		Status:        storage.RunStatusRunning,
	})
	require.NoError(t, err)

	require.NoError(t, store.SaveOutcomes(runID, []storage.TransactionOutcome{
		{
			BankTransactionID:   "b1",
			AccountID:           "acct-1",
			Date:                time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			Amount:              "-42.99",
			DisplayName:         "Riverside Grocery",
			Status:              storage.OutcomeMatched,
			LedgerTransactionID: "l1",
			DateDiffDays:        1,
		},
		{
			BankTransactionID: "b2",
			AccountID:         "acct-1",
			Date:              time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
			Amount:            "-7.25",
			DisplayName:       "Metro Transit",
			Status:            storage.OutcomeMissing,
			CategoryID:        "transport",
			CategoryName:      "Transportation",
		},
	}))
	require.NoError(t, store.CompleteRun(runID, 1, 1))

	// Run detail carries both outcomes through JSON
	resp, err := http.Get(ts.URL + "/api/runs/1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail dto.RunDetailResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, "job-int-1", detail.Run.JobID)
	assert.Equal(t, "completed", detail.Run.Status)
	require.Len(t, detail.Outcomes, 2)
	assert.Equal(t, "-42.99", detail.Outcomes[0].Amount)
	assert.Equal(t, "l1", detail.Outcomes[0].LedgerTransactionID)
	assert.Equal(t, "Transportation", detail.Outcomes[1].CategoryName)

	// Stats aggregate the completed run
	statsResp, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	defer statsResp.Body.Close()

	var stats dto.StatsResponse
	require.NoError(t, json.NewDecoder(statsResp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.TotalMatched)
	assert.Equal(t, 1, stats.TotalMissing)
}
