package ratelimit

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// [scope:]bucket/reset[unit][+]; a reset without unit is in milliseconds.
var policyRe = regexp.MustCompile(`^(?:(ch|channel|usr|user|g|guild):)?(\d+)/(\d+)(ms|s|m|h|d|w)?(\+)?$`)

// ParsePolicy parses strings such as "user:1/5s", "ch:3/10m+" or "2/1500".
// On error it returns DefaultPolicy together with the error.
func ParsePolicy(s string) (Policy, error) {
	m := policyRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return DefaultPolicy, fmt.Errorf("invalid ratelimit policy %q", s)
	}

	var p Policy
	switch m[1] {
	case "ch", "channel":
		p.Scope = ScopeChannel
	case "g", "guild":
		p.Scope = ScopeGuild
	default:
		p.Scope = ScopeUser
	}

	bucket, err := strconv.Atoi(m[2])
	if err != nil {
		return DefaultPolicy, fmt.Errorf("invalid ratelimit bucket %q: %w", m[2], err)
	}
	n, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return DefaultPolicy, fmt.Errorf("invalid ratelimit reset %q: %w", m[3], err)
	}

	unit := time.Millisecond
	switch m[4] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	}

	if n == 0 {
		return DefaultPolicy, fmt.Errorf("invalid ratelimit policy %q: reset must be positive", s)
	}
	if n > math.MaxInt64/int64(unit) {
		return DefaultPolicy, fmt.Errorf("invalid ratelimit policy %q: reset overflows", s)
	}

	p.Bucket = bucket
	p.Reset = time.Duration(n) * unit
	p.Stack = m[5] == "+"
	return p, nil
}

// MustPolicy is ParsePolicy falling back to DefaultPolicy on malformed input.
func MustPolicy(s string) Policy {
	p, _ := ParsePolicy(s)
	return p
}
