package scanerr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scanhub/pkg/scanerr"
)

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err    error
		kind   string
		status int
	}{
		{&scanerr.InvalidRequestError{Field: "type", Reason: "unknown"}, "invalid_request", http.StatusBadRequest},
		{&scanerr.InvalidTargetError{Raw: "x;y", Reason: "illegal character"}, "invalid_target", http.StatusBadRequest},
		{&scanerr.AdmissionRejectedError{Target: "a", Reason: scanerr.ReasonOverloaded}, "admission_rejected", http.StatusTooManyRequests},
		{&scanerr.SpawnError{Command: "nmap", Err: errors.New("not found")}, "spawn_error", http.StatusInternalServerError},
		{&scanerr.TimeoutError{JobID: "j1", Timeout: time.Minute}, "timeout", http.StatusGatewayTimeout},
		{&scanerr.CancelledError{JobID: "j1"}, "cancelled", 499},
		{&scanerr.ParseError{Tool: "nikto", Reason: "garbage"}, "parse_error", http.StatusInternalServerError},
		{&scanerr.ToolExecutionError{Tool: "nmap", ExitCode: 255}, "tool_execution_error", http.StatusInternalServerError},
		{errors.New("plain"), "internal", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			assert.Equal(t, tc.kind, scanerr.Kind(tc.err))
			assert.Equal(t, tc.status, scanerr.HTTPStatus(tc.err))
		})
	}
}

func TestErrorUnwrapping(t *testing.T) {
	wrapped := fmt.Errorf("scan of example.com: %w", &scanerr.AdmissionRejectedError{
		Target: "example.com",
		Reason: scanerr.ReasonDuplicateTarget,
	})

	assert.True(t, errors.Is(wrapped, scanerr.ErrAdmissionRejected))

	var rejected *scanerr.AdmissionRejectedError
	if assert.True(t, errors.As(wrapped, &rejected)) {
		assert.Equal(t, scanerr.ReasonDuplicateTarget, rejected.Reason)
	}
}
