package handlers

import "scanhub/pkg/findings"

type ScanRequest struct {
	Target string `json:"target" binding:"required"`
	Type   string `json:"type" binding:"required"`
}

type ScanResponse struct {
	Result *findings.ScanResult `json:"result"`
}

type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse is the error body shape. Result carries partial findings
// on timeout, and is omitted otherwise.
type ErrorResponse struct {
	Error  ErrorInfo            `json:"error"`
	Result *findings.ScanResult `json:"result,omitempty"`
}

type CancelResponse struct {
	JobID     string `json:"job_id"`
	Cancelled bool   `json:"cancelled"`
}
