package adapters

import (
	"bytes"
	"encoding/json"
	"strings"

	"scanhub/pkg/executor"
	"scanhub/pkg/findings"
	"scanhub/pkg/scanerr"
	"scanhub/pkg/target"
)

// nucleiRecord mirrors the JSON-lines emitted by the web vulnerability
// scanner, one finding per record.
type nucleiRecord struct {
	TemplateID string                 `json:"template-id"`
	Info       map[string]interface{} `json:"info"`
	Host       string                 `json:"host"`
	URL        string                 `json:"url"`
	MatchedAt  string                 `json:"matched-at"`
}

// NucleiAdapter parses one-finding-per-record JSON-lines output.
type NucleiAdapter struct {
	cfg ToolConfig
}

func NewNucleiAdapter(cfg ToolConfig) *NucleiAdapter {
	return &NucleiAdapter{cfg: cfg}
}

func (a *NucleiAdapter) Kind() findings.ScanKind { return findings.KindWebVuln }

func (a *NucleiAdapter) BuildInvocation(t target.ValidatedTarget) executor.CommandSpec {
	return a.cfg.buildSpec(t.Host)
}

// Parse skips records that fail to decode (including a truncated trailing
// line when the tool was killed mid-write) and keeps the rest.
func (a *NucleiAdapter) Parse(stdout []byte, exitCode int) ([]findings.Finding, error) {
	if a.cfg.fatalExit(exitCode, stdout) {
		return nil, &scanerr.ToolExecutionError{Tool: a.cfg.Name, ExitCode: exitCode}
	}

	var out []findings.Finding
	total := 0
	for _, line := range bytes.Split(stdout, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		total++

		var rec nucleiRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}

		url := rec.MatchedAt
		if url == "" {
			url = rec.URL
		}
		if url == "" {
			url = rec.Host
		}

		out = append(out, findings.NewWebVulnFinding(
			recordTitle(rec),
			findings.NormalizeSeverity(recordInfoString(rec.Info, "severity")),
			url,
			recordInfoString(rec.Info, "description"),
		))
	}

	if total > 0 && len(out) == 0 {
		return nil, &scanerr.ParseError{Tool: a.cfg.Name, Reason: "no decodable finding records in output"}
	}
	return out, nil
}

func recordTitle(rec nucleiRecord) string {
	if name := recordInfoString(rec.Info, "name"); name != "" {
		return name
	}
	return rec.TemplateID
}

func recordInfoString(info map[string]interface{}, key string) string {
	if v, ok := info[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
