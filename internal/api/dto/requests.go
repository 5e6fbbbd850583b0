package dto

// StartReconcileRequest is the request body for starting a reconciliation.
type StartReconcileRequest struct {
	AccountIDs    []string `json:"account_ids"`    // Accounts to reconcile (empty = all)
	From          string   `json:"from"`           // Window start, YYYY-MM-DD
	To            string   `json:"to"`             // Window end, YYYY-MM-DD
	ToleranceDays int      `json:"tolerance_days"` // Date window half-width (0 = server default)
	DryRun        bool     `json:"dry_run"`        // Skip persistence
}
