package ble

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCode is returned for mat codes that are not 4-6 alphanumerics.
var ErrInvalidCode = errors.New("code must be 4-6 letters or digits")

// MatchMode selects how a NameFilter compares advertised names.
type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchPrefix
	MatchSuffix
)

func (m MatchMode) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	case MatchSuffix:
		return "suffix"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// ParseMatchMode accepts "exact", "prefix" or "suffix".
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact", "":
		return MatchExact, nil
	case "prefix":
		return MatchPrefix, nil
	case "suffix":
		return MatchSuffix, nil
	}
	return MatchExact, fmt.Errorf("unknown match mode %q", s)
}

// NameFilter matches advertised device names.
type NameFilter struct {
	Pattern string
	Mode    MatchMode
}

// Match reports whether name satisfies the filter.
func (f NameFilter) Match(name string) bool {
	switch f.Mode {
	case MatchPrefix:
		return strings.HasPrefix(name, f.Pattern)
	case MatchSuffix:
		return strings.HasSuffix(name, f.Pattern)
	default:
		return name == f.Pattern
	}
}

func (f NameFilter) String() string {
	return fmt.Sprintf("%s %q", f.Mode, f.Pattern)
}

// ValidateCode checks a user-entered mat code.
func ValidateCode(code string) error {
	if len(code) < 4 || len(code) > 6 {
		return ErrInvalidCode
	}
	for _, r := range code {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return ErrInvalidCode
		}
	}
	return nil
}

// CodeFilter returns the exact-name filter for the mat showing code.
func CodeFilter(code string) NameFilter {
	return NameFilter{Pattern: NamePrefix + code, Mode: MatchExact}
}

// Scanner decides which advertisements are worth connecting to.
type Scanner struct {
	ServiceID string
	Filter    NameFilter
}

// Matches requires a name match and, when the adapter reported any
// advertised services, the target service among them.
func (s Scanner) Matches(p PeerDescriptor) bool {
	if !s.Filter.Match(p.Name) {
		return false
	}
	if len(p.Services) == 0 || s.ServiceID == "" {
		return true
	}
	for _, id := range p.Services {
		if sameUUID(id, s.ServiceID) {
			return true
		}
	}
	return false
}

func sameUUID(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
