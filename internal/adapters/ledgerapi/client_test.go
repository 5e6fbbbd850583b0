package ledgerapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	require.NoError(t, err)
	return client
}

func TestClient_FetchLedgerRecords(t *testing.T) {
	// Arrange
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transactions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, []string{"A", "B"}, r.URL.Query()["account_id"])
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("from"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactions": [
			{"id": "l1", "account_id": "A", "date": "2024-01-11T00:00:00Z", "amount": "-20.00", "description": "Grocery run"}
		]}`))
	})

	// Act
	records, err := client.FetchLedgerRecords(context.Background(), []string{"A", "B"},
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	// Assert
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "l1", records[0].ID)
	assert.True(t, records[0].Amount.Valid)
	assert.Equal(t, "-20", records[0].Amount.Decimal.String())
}

func TestClient_FetchBankRecords(t *testing.T) {
	// Arrange
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/bank-transactions", r.URL.Path)
		assert.Equal(t, "2024-01-31", r.URL.Query().Get("to"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactions": [
			{"id": "b1", "account_id": "A", "date": "2024-01-12T00:00:00Z", "amount": "-20.00", "description": "GROCERY RUN", "merchant_name": "Riverside Grocery"}
		]}`))
	})

	// Act
	records, err := client.FetchBankRecords(context.Background(), []string{"A"},
		time.Time{}, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))

	// Assert
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b1", records[0].ID)
	assert.Equal(t, "Riverside Grocery", records[0].MerchantName)
}

func TestClient_FetchCategoryMappings(t *testing.T) {
	// Arrange
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/category-mappings", r.URL.Path)
		_, _ = w.Write([]byte(`{"mappings": [
			{"patterns": ["starbucks"], "category_id": "dining", "category_name": "Dining", "confidence": 0.9, "occurrences": 12}
		]}`))
	})

	// Act
	mappings, err := client.FetchCategoryMappings(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "dining", mappings[0].CategoryID)
	assert.Equal(t, 0.9, mappings[0].Confidence)
}

func TestClient_ErrorResponsePreservesFields(t *testing.T) {
	// Arrange
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"id": "rate_limit_001", "name": "RateLimited", "detail": "try again in 30s"}}`))
	})

	// Act
	_, err := client.FetchCategoryMappings(context.Background())

	// Assert
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.StatusCode)
	assert.Equal(t, "rate_limit_001", apiErr.ErrorID)
	assert.Equal(t, "RateLimited", apiErr.ErrorName)
	assert.Equal(t, "try again in 30s", apiErr.Detail)
	assert.True(t, apiErr.IsRateLimited())
	assert.True(t, apiErr.IsClientError(), "429 is in the 4xx range")
	assert.False(t, apiErr.IsServerError())
}

func TestClient_ServerError(t *testing.T) {
	// Arrange
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	// Act
	_, err := client.FetchLedgerRecords(context.Background(), []string{"A"}, time.Time{}, time.Time{})

	// Assert
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 502, apiErr.StatusCode)
	assert.True(t, apiErr.IsServerError())
	assert.False(t, apiErr.IsClientError())
	assert.False(t, apiErr.IsRateLimited())
}

func TestClient_ConnectivityFailure(t *testing.T) {
	// Arrange - a server that is already closed
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client, err := NewClient(Config{BaseURL: server.URL, Timeout: time.Second})
	require.NoError(t, err)

	// Act
	_, err = client.FetchCategoryMappings(context.Background())

	// Assert - status code defaults to 0, cause is preserved
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.Empty(t, apiErr.ErrorID)
	assert.NotNil(t, errors.Unwrap(apiErr))
	assert.False(t, apiErr.IsClientError())
	assert.False(t, apiErr.IsServerError())
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
