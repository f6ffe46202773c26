package adapters

import (
	"strconv"
	"strings"

	"scanhub/pkg/executor"
	"scanhub/pkg/findings"
	"scanhub/pkg/scanerr"
	"scanhub/pkg/target"
)

// NmapAdapter parses port scanner output in greppable form: "Host:" lines
// with "Ports:" sections, plus bare port/state/service triples for simpler
// tool builds.
type NmapAdapter struct {
	cfg ToolConfig
}

func NewNmapAdapter(cfg ToolConfig) *NmapAdapter {
	return &NmapAdapter{cfg: cfg}
}

func (a *NmapAdapter) Kind() findings.ScanKind { return findings.KindPortScan }

func (a *NmapAdapter) BuildInvocation(t target.ValidatedTarget) executor.CommandSpec {
	return a.cfg.buildSpec(t.Host)
}

// Parse tolerates malformed lines and truncated output: records parsed
// before the truncation point are returned, bad records are skipped.
func (a *NmapAdapter) Parse(stdout []byte, exitCode int) ([]findings.Finding, error) {
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
		if strings.HasPrefix(line, "#") {
			recognized++
			continue
		}
		if idx := strings.Index(line, "Ports:"); idx >= 0 {
			recognized++
			out = append(out, parsePortsSection(line[idx+len("Ports:"):])...)
			continue
		}
		if strings.HasPrefix(line, "Host:") {
			recognized++
			continue
		}
		if f, ok := parsePortTriple(line); ok {
			recognized++
			out = append(out, f)
		}
	}

	if total > 0 && recognized == 0 {
		return nil, &scanerr.ParseError{Tool: a.cfg.Name, Reason: "no recognizable port records in output"}
	}
	return out, nil
}

// parsePortsSection handles the comma-separated entries of a greppable
// Ports section: port/state/proto/owner/service/...
func parsePortsSection(section string) []findings.Finding {
	if j := strings.Index(section, "Ignored State:"); j >= 0 {
		section = section[:j]
	}
	var out []findings.Finding
	for _, entry := range strings.Split(section, ",") {
		fields := strings.Split(strings.TrimSpace(entry), "/")
		if len(fields) < 5 {
			continue
		}
		port, err := strconv.Atoi(fields[0])
		if err != nil || port < 1 || port > 65535 {
			continue
		}
		out = append(out, findings.NewPortFinding(port, findings.NormalizePortState(fields[1]), fields[4]))
	}
	return out
}

// parsePortTriple handles one bare "22/open/ssh" record.
func parsePortTriple(line string) (findings.Finding, bool) {
	fields := strings.Split(line, "/")
	if len(fields) != 3 {
		return findings.Finding{}, false
	}
	port, err := strconv.Atoi(fields[0])
	if err != nil || port < 1 || port > 65535 {
		return findings.Finding{}, false
	}
	return findings.NewPortFinding(port, findings.NormalizePortState(fields[1]), fields[2]), true
}
