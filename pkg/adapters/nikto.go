package adapters

import (
	"strings"

	"scanhub/pkg/executor"
	"scanhub/pkg/findings"
	"scanhub/pkg/scanerr"
	"scanhub/pkg/target"
)

// NiktoAdapter parses free-text advisory lines from the server
// misconfiguration scanner. Advisory lines start with "+ "; banner and
// summary lines start with "- " and are not findings.
type NiktoAdapter struct {
	cfg ToolConfig
}

func NewNiktoAdapter(cfg ToolConfig) *NiktoAdapter {
	return &NiktoAdapter{cfg: cfg}
}

func (a *NiktoAdapter) Kind() findings.ScanKind { return findings.KindMisconfig }

func (a *NiktoAdapter) BuildInvocation(t target.ValidatedTarget) executor.CommandSpec {
	return a.cfg.buildSpec(t.Host)
}

func (a *NiktoAdapter) Parse(stdout []byte, exitCode int) ([]findings.Finding, error) {
	if a.cfg.fatalExit(exitCode, stdout) {
		return nil, &scanerr.ToolExecutionError{Tool: a.cfg.Name, ExitCode: exitCode}
	}

	var out []findings.Finding
	recognized := 0
	total := 0
	for _, line := range strings.Split(string(stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		total++
		if strings.HasPrefix(line, "-") {
			recognized++
			continue
		}
		if !strings.HasPrefix(line, "+ ") {
			continue
		}
		recognized++

		endpoint, description := splitAdvisory(strings.TrimPrefix(line, "+ "))
		out = append(out, findings.NewMisconfigFinding(endpoint, description))
	}

	if total > 0 && recognized == 0 {
		return nil, &scanerr.ParseError{Tool: a.cfg.Name, Reason: "no recognizable advisory lines in output"}
	}
	return out, nil
}

// splitAdvisory separates "/path/: description" advisories. The endpoint
// defaults to "/" when the advisory names no path.
func splitAdvisory(body string) (endpoint, description string) {
	if strings.HasPrefix(body, "/") {
		if idx := strings.Index(body, ": "); idx >= 0 {
			return strings.TrimSuffix(body[:idx], ":"), strings.TrimSpace(body[idx+2:])
		}
		if idx := strings.IndexAny(body, " \t"); idx >= 0 {
			return strings.TrimSuffix(body[:idx], ":"), strings.TrimSpace(body[idx:])
		}
		return body, ""
	}
	return "/", body
}
