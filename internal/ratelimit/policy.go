// Package ratelimit tracks per-target, per-command attempt buckets.
package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Scope selects what an attempt is counted against.
type Scope int

const (
	ScopeUser Scope = iota
	ScopeChannel
	ScopeGuild
)

func (s Scope) String() string {
	switch s {
	case ScopeChannel:
		return "channel"
	case ScopeGuild:
		return "guild"
	default:
		return "user"
	}
}

// DefaultReset replaces a non-positive reset window.
const DefaultReset = 5 * time.Second

// Policy allows Bucket attempts per Reset window. With Stack set, every
// throttled attempt pushes the window further out.
type Policy struct {
	Scope  Scope
	Bucket int
	Reset  time.Duration
	Stack  bool
}

// DefaultPolicy is used when a policy string cannot be parsed.
var DefaultPolicy = Policy{Scope: ScopeUser, Bucket: 1, Reset: DefaultReset, Stack: true}

func (p Policy) normalized() Policy {
	if p.Reset <= 0 {
		p.Reset = DefaultReset
	}
	return p
}

// String renders p in the format ParsePolicy accepts.
func (p Policy) String() string {
	var b strings.Builder
	b.WriteString(p.Scope.String())
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(p.Bucket))
	b.WriteByte('/')
	b.WriteString(formatReset(p.Reset))
	if p.Stack {
		b.WriteByte('+')
	}
	return b.String()
}

var units = []struct {
	suffix string
	d      time.Duration
}{
	{"w", 7 * 24 * time.Hour},
	{"d", 24 * time.Hour},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
}

func formatReset(d time.Duration) string {
	if d <= 0 {
		return "0"
	}
	for _, u := range units {
		if d%u.d == 0 {
			return fmt.Sprintf("%d%s", d/u.d, u.suffix)
		}
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
