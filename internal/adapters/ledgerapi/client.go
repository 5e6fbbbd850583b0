// Package ledgerapi is the HTTP client for the remote budgeting ledger.
// It loads the imported bank feed, recorded ledger transactions, and the
// learned category-mapping catalog, translating upstream failures into
// structured APIError values so the orchestrator can decide what to retry.
package ledgerapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/finbridge/reconcile-backend/internal/adapters/sources"
	"github.com/finbridge/reconcile-backend/internal/domain/categorizer"
)

// Config holds ledger API client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // Default: 30s
}

// Client talks to the budgeting ledger's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new ledger API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ledger api base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// errorBody is the ledger API's error envelope.
type errorBody struct {
	Error struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Detail string `json:"detail"`
	} `json:"error"`
}

type transactionsResponse struct {
	Transactions []sources.LedgerRecord `json:"transactions"`
}

type bankTransactionsResponse struct {
	Transactions []sources.BankRecord `json:"transactions"`
}

type mappingsResponse struct {
	Mappings []categorizer.Mapping `json:"mappings"`
}

// FetchBankRecords loads the imported bank feed for the given accounts in
// [from, to]. These are the raw transactions to reconcile against the ledger.
func (c *Client) FetchBankRecords(ctx context.Context, accountIDs []string, from, to time.Time) ([]sources.BankRecord, error) {
	query := url.Values{}
	for _, id := range accountIDs {
		query.Add("account_id", id)
	}
	if !from.IsZero() {
		query.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		query.Set("to", to.Format("2006-01-02"))
	}

	var payload bankTransactionsResponse
	if err := c.get(ctx, "/v1/bank-transactions", query, &payload); err != nil {
		return nil, err
	}
	return payload.Transactions, nil
}

// FetchLedgerRecords loads recorded transactions for the given accounts in
// [from, to]. The ledger returns them in stable id order.
func (c *Client) FetchLedgerRecords(ctx context.Context, accountIDs []string, from, to time.Time) ([]sources.LedgerRecord, error) {
	query := url.Values{}
	for _, id := range accountIDs {
		query.Add("account_id", id)
	}
	if !from.IsZero() {
		query.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		query.Set("to", to.Format("2006-01-02"))
	}

	var payload transactionsResponse
	if err := c.get(ctx, "/v1/transactions", query, &payload); err != nil {
		return nil, err
	}
	return payload.Transactions, nil
}

// FetchCategoryMappings loads the learned category-mapping catalog. The
// snapshot is immutable for the duration of a reconciliation run.
func (c *Client) FetchCategoryMappings(ctx context.Context) ([]categorizer.Mapping, error) {
	var payload mappingsResponse
	if err := c.get(ctx, "/v1/category-mappings", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Mappings, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("build request for %s", path), cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// No response: status code stays 0 and identifying fields absent.
		return &APIError{Message: fmt.Sprintf("request %s failed: %v", path, err), cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("request %s returned %s", path, resp.Status),
		}
		var body errorBody
		if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr == nil {
			apiErr.ErrorID = body.Error.ID
			apiErr.ErrorName = body.Error.Name
			apiErr.Detail = body.Error.Detail
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("decode %s response", path),
			cause:      err,
		}
	}
	return nil
}
