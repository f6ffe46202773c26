// Package findings defines the normalized result model shared by all tool adapters.
package findings

import (
	"strings"
	"time"
)

// ScanKind identifies which class of external tool produced a result.
type ScanKind string

const (
	KindPortScan  ScanKind = "nmap"
	KindWebVuln   ScanKind = "nuclei"
	KindMisconfig ScanKind = "nikto"
)

// ParseKind maps a request type string onto a ScanKind. The set of accepted
// values is closed; anything else is reported as unknown.
func ParseKind(s string) (ScanKind, bool) {
	switch ScanKind(s) {
	case KindPortScan, KindWebVuln, KindMisconfig:
		return ScanKind(s), true
	}
	return "", false
}

// PortState is the normalized state of a scanned port.
type PortState string

const (
	StateOpen     PortState = "open"
	StateClosed   PortState = "closed"
	StateFiltered PortState = "filtered"
	StateUnknown  PortState = "unknown"
)

// NormalizePortState maps a raw tool state token onto a PortState.
// Unrecognized tokens become StateUnknown rather than an error.
func NormalizePortState(raw string) PortState {
	switch s := PortState(strings.ToLower(raw)); s {
	case StateOpen, StateClosed, StateFiltered:
		return s
	}
	return StateUnknown
}

// Severity is the normalized severity of a web vulnerability finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// NormalizeSeverity maps a raw tool severity string onto a Severity.
// Missing or unrecognized values default to SeverityLow.
func NormalizeSeverity(raw string) Severity {
	switch s := Severity(strings.ToLower(raw)); s {
	case SeverityMedium, SeverityHigh, SeverityCritical:
		return s
	}
	return SeverityLow
}

type PortFinding struct {
	Port    int       `json:"port"`
	State   PortState `json:"state"`
	Service string    `json:"service"`
}

type WebVulnFinding struct {
	Title       string   `json:"title"`
	Severity    Severity `json:"severity"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
}

type MisconfigFinding struct {
	Endpoint    string `json:"endpoint"`
	Description string `json:"description"`
}

// Finding is a tagged union discriminated by Kind: exactly one of the
// payload pointers is non-nil, matching the kind.
type Finding struct {
	Kind      ScanKind          `json:"kind"`
	Port      *PortFinding      `json:"port,omitempty"`
	WebVuln   *WebVulnFinding   `json:"web_vuln,omitempty"`
	Misconfig *MisconfigFinding `json:"misconfig,omitempty"`
}

func NewPortFinding(port int, state PortState, service string) Finding {
	return Finding{Kind: KindPortScan, Port: &PortFinding{Port: port, State: state, Service: service}}
}

func NewWebVulnFinding(title string, severity Severity, url, description string) Finding {
	return Finding{Kind: KindWebVuln, WebVuln: &WebVulnFinding{Title: title, Severity: severity, URL: url, Description: description}}
}

func NewMisconfigFinding(endpoint, description string) Finding {
	return Finding{Kind: KindMisconfig, Misconfig: &MisconfigFinding{Endpoint: endpoint, Description: description}}
}

// ScanResult is the immutable outcome of one scan. Findings preserve the
// tool's emission order.
type ScanResult struct {
	Kind         ScanKind  `json:"scan_kind"`
	Target       string    `json:"target"`
	JobID        string    `json:"job_id"`
	StartedAt    time.Time `json:"started_at"`
	DurationMS   int64     `json:"duration_ms"`
	ToolExitCode int       `json:"tool_exit_code"`
	Findings     []Finding `json:"findings"`
}

// MaxSeverity returns the highest severity present among web vulnerability
// findings, or empty when the result holds none.
func (r *ScanResult) MaxSeverity() Severity {
	rank := map[Severity]int{SeverityLow: 1, SeverityMedium: 2, SeverityHigh: 3, SeverityCritical: 4}
	var max Severity
	for _, f := range r.Findings {
		if f.WebVuln == nil {
			continue
		}
		if rank[f.WebVuln.Severity] > rank[max] {
			max = f.WebVuln.Severity
		}
	}
	return max
}
