package api

// SubmitAlertRequest is the HTTP request body for POST /api/v1/alerts.
type SubmitAlertRequest struct {
	AlertName      string `json:"alert_name"`
	Namespace      string `json:"namespace"`
	Diagnostics    string `json:"diagnostics,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
	RunbookURL     string `json:"runbook_url,omitempty"`
}
