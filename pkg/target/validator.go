// Package target validates and classifies scan targets before they are
// allowed anywhere near a subprocess invocation.
package target

import (
	"fmt"
	"net"
	"strings"

	"scanhub/pkg/scanerr"
)

// Kind classifies a validated target.
type Kind string

const (
	KindHostname Kind = "hostname"
	KindIPv4     Kind = "ipv4"
	KindIPv6     Kind = "ipv6"
)

// ValidatedTarget holds a normalized target host. Invariant: Host never
// contains whitespace or shell metacharacters.
type ValidatedTarget struct {
	Host string
	Kind Kind
}

const maxHostnameLen = 253

// Validate normalizes raw (trim, lowercase) and accepts it only as a
// syntactically valid IPv4, IPv6, or DNS hostname. Pure function.
func Validate(raw string) (ValidatedTarget, error) {
	host := strings.ToLower(strings.TrimSpace(raw))
	if host == "" {
		return ValidatedTarget{}, &scanerr.InvalidTargetError{Raw: raw, Reason: "empty target"}
	}

	for _, r := range host {
		if !allowedRune(r) {
			return ValidatedTarget{}, &scanerr.InvalidTargetError{Raw: raw, Reason: fmt.Sprintf("illegal character %q", r)}
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return ValidatedTarget{Host: host, Kind: KindIPv4}, nil
		}
		return ValidatedTarget{Host: host, Kind: KindIPv6}, nil
	}

	// Colons are only valid in IPv6 literals.
	if strings.Contains(host, ":") {
		return ValidatedTarget{}, &scanerr.InvalidTargetError{Raw: raw, Reason: "not a valid IPv6 address"}
	}

	if err := validateHostname(host); err != "" {
		return ValidatedTarget{}, &scanerr.InvalidTargetError{Raw: raw, Reason: err}
	}
	return ValidatedTarget{Host: host, Kind: KindHostname}, nil
}

func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == ':' || r == '-':
		return true
	}
	return false
}

func validateHostname(host string) string {
	if len(host) > maxHostnameLen {
		return "hostname exceeds 253 characters"
	}
	labels := strings.Split(strings.TrimSuffix(host, "."), ".")
	for _, label := range labels {
		if label == "" {
			return "empty hostname label"
		}
		if len(label) > 63 {
			return "hostname label exceeds 63 characters"
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return "hostname label starts or ends with hyphen"
		}
	}
	return ""
}
