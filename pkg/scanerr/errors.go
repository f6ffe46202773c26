// Package scanerr defines the error taxonomy shared across the orchestration
// engine and the HTTP surface.
package scanerr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrInvalidRequest    = errors.New("invalid scan request")
	ErrInvalidTarget     = errors.New("invalid target")
	ErrAdmissionRejected = errors.New("admission rejected")
	ErrSpawn             = errors.New("tool spawn failed")
	ErrTimeout           = errors.New("scan timed out")
	ErrCancelled         = errors.New("scan cancelled")
	ErrParse             = errors.New("tool output unparseable")
	ErrToolExecution     = errors.New("tool execution failed")
)

// RejectReason explains why the admission controller refused a scan.
type RejectReason string

const (
	ReasonDuplicateTarget RejectReason = "duplicate_target"
	ReasonOverloaded      RejectReason = "overloaded"
)

type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid scan request: %s: %s", e.Field, e.Reason)
}

func (e *InvalidRequestError) Unwrap() error { return ErrInvalidRequest }

type InvalidTargetError struct {
	Raw    string
	Reason string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %q: %s", e.Raw, e.Reason)
}

func (e *InvalidTargetError) Unwrap() error { return ErrInvalidTarget }

type AdmissionRejectedError struct {
	Target string
	Reason RejectReason
}

func (e *AdmissionRejectedError) Error() string {
	return fmt.Sprintf("scan of %s rejected: %s", e.Target, e.Reason)
}

func (e *AdmissionRejectedError) Unwrap() error { return ErrAdmissionRejected }

type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return ErrSpawn }

// TimeoutError signals the wall-clock limit expired. Partial results parsed
// from output captured before the kill travel alongside it, not inside it.
type TimeoutError struct {
	JobID   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job %s exceeded timeout of %s", e.JobID, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

type CancelledError struct {
	JobID string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("job %s cancelled", e.JobID)
}

func (e *CancelledError) Unwrap() error { return ErrCancelled }

type ParseError struct {
	Tool   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s output unparseable: %s", e.Tool, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

type ToolExecutionError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ToolExecutionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed with exit code %d: %s", e.Tool, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s failed with exit code %d", e.Tool, e.ExitCode)
}

func (e *ToolExecutionError) Unwrap() error { return ErrToolExecution }

// Kind returns the machine-readable taxonomy kind for err, or "internal"
// when the error falls outside the taxonomy.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, ErrAdmissionRejected):
		return "admission_rejected"
	case errors.Is(err, ErrSpawn):
		return "spawn_error"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, ErrToolExecution):
		return "tool_execution_error"
	}
	return "internal"
}

// HTTPStatus maps a taxonomy error onto its HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidTarget):
		return http.StatusBadRequest
	case errors.Is(err, ErrAdmissionRejected):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrCancelled):
		// Client closed request, nginx convention.
		return 499
	case errors.Is(err, ErrSpawn), errors.Is(err, ErrParse), errors.Is(err, ErrToolExecution):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
