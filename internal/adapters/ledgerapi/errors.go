package ledgerapi

import "fmt"

// APIError is a structured error from the remote budgeting ledger API. It
// preserves the upstream status code and identifying fields even when some
// are unavailable: pure connectivity failures carry only a message and a
// wrapped cause, with StatusCode zero.
type APIError struct {
	StatusCode int    // HTTP status, 0 when the request never got a response
	ErrorID    string // provider-specific error identifier, optional
	ErrorName  string // provider-specific error name, optional
	Detail     string // provider-specific detail, optional
	Message    string
	cause      error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("ledger api: %s", e.Message)
	case e.ErrorName != "":
		return fmt.Sprintf("ledger api: %s (status %d, %s)", e.Message, e.StatusCode, e.ErrorName)
	default:
		return fmt.Sprintf("ledger api: %s (status %d)", e.Message, e.StatusCode)
	}
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *APIError) Unwrap() error {
	return e.cause
}

// IsClientError reports a 4xx response. Not retried by callers.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// IsServerError reports a 5xx response. Retryable by callers.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRateLimited reports a 429 response. Retryable with backoff.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}
