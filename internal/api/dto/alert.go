package dto

// ResolveAlertRequest carries an optional resolution note
type ResolveAlertRequest struct {
	Resolution string `json:"resolution,omitempty" validate:"omitempty,max=1000"`
}

// TestAlertRequest creates a synthetic alert. Empty fields fall back to
// a system/info alert titled "Test Alert".
type TestAlertRequest struct {
	Type     string `json:"type,omitempty" validate:"omitempty,alert_type"`
	Severity string `json:"severity,omitempty" validate:"omitempty,alert_severity"`
	Title    string `json:"title,omitempty" validate:"omitempty,max=200"`
	Message  string `json:"message,omitempty" validate:"omitempty,max=1000"`
}
