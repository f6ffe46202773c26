// Package adapters translates between external scanning tools and the
// normalized findings model. One adapter per scan kind knows how to build
// the tool's argument vector and parse its raw output.
package adapters

import (
	"bytes"
	"strings"

	"scanhub/pkg/executor"
	"scanhub/pkg/findings"
	"scanhub/pkg/target"
)

// TargetToken is the placeholder in configured argument templates that is
// replaced with the validated target host.
const TargetToken = "{{target}}"

// Adapter builds a tool invocation for a validated target and parses the
// tool's stdout into normalized findings.
type Adapter interface {
	Kind() findings.ScanKind
	BuildInvocation(t target.ValidatedTarget) executor.CommandSpec
	Parse(stdout []byte, exitCode int) ([]findings.Finding, error)
}

// ToolConfig describes how to invoke one external tool. Loaded from the
// tools YAML definition file.
type ToolConfig struct {
	Name           string   `yaml:"name" mapstructure:"name"`
	Command        string   `yaml:"command" mapstructure:"command"`
	Args           []string `yaml:"args" mapstructure:"args"`
	FatalExitCodes []int    `yaml:"fatal_exit_codes" mapstructure:"fatal_exit_codes"`
}

// buildSpec renders the argument template with the target host injected as
// part of a single argv element, never a shell string.
func (tc ToolConfig) buildSpec(host string) executor.CommandSpec {
	args := make([]string, 0, len(tc.Args))
	for _, a := range tc.Args {
		args = append(args, strings.ReplaceAll(a, TargetToken, host))
	}
	return executor.CommandSpec{Command: tc.Command, Args: args}
}

// fatalExit reports whether the tool failed to run rather than merely
// exiting non-zero by convention: a listed fatal exit code, or a non-zero
// exit with no output at all.
func (tc ToolConfig) fatalExit(exitCode int, stdout []byte) bool {
	if exitCode == 0 {
		return false
	}
	for _, c := range tc.FatalExitCodes {
		if c == exitCode {
			return true
		}
	}
	return len(bytes.TrimSpace(stdout)) == 0
}
