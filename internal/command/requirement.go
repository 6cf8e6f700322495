package command

import (
	"context"
	"fmt"
	"reflect"

	"github.com/keshon/server-herald/internal/platform"
)

// Predicate computes a permission requirement. A non-nil missing value means
// the requirement is not met and is reported as the missing payload.
type Predicate func(ctx context.Context, c *Context) (missing any, err error)

type requirementKind uint8

const (
	requirementNone requirementKind = iota
	requirementStatic
	requirementComputed
)

// Requirement is either a static permission set or a computed predicate.
// The zero value requires nothing.
type Requirement struct {
	kind      requirementKind
	static    platform.Permissions
	predicate Predicate
}

// Static requires every permission in p.
func Static(p platform.Permissions) Requirement {
	if p == 0 {
		return Requirement{}
	}
	return Requirement{kind: requirementStatic, static: p}
}

// Computed requires fn to return a nil missing value.
func Computed(fn Predicate) Requirement {
	if fn == nil {
		return Requirement{}
	}
	return Requirement{kind: requirementComputed, predicate: fn}
}

// IsZero reports whether r requires nothing.
func (r Requirement) IsZero() bool { return r.kind == requirementNone }

// StaticSet returns the static set, if r is static.
func (r Requirement) StaticSet() (platform.Permissions, bool) {
	return r.static, r.kind == requirementStatic
}

// Check evaluates r for userID in the context's channel. Static sets are
// resolved only inside guilds; outside one they are always satisfied.
// The returned missing value is nil when the requirement holds.
func (r Requirement) Check(ctx context.Context, c *Context, userID string) (any, error) {
	switch r.kind {
	case requirementStatic:
		m := c.Message()
		if !m.InGuild() {
			return nil, nil
		}
		have, err := c.Client.MemberPermissions(ctx, m.GuildID, m.ChannelID, userID)
		if err != nil {
			return nil, fmt.Errorf("resolve permissions of %s in %s: %w", userID, m.ChannelID, err)
		}
		if missing := have.Missing(r.static); missing != 0 {
			return missing, nil
		}
		return nil, nil
	case requirementComputed:
		missing, err := r.predicate(ctx, c)
		if err != nil {
			return nil, err
		}
		if isNil(missing) {
			return nil, nil
		}
		return missing, nil
	default:
		return nil, nil
	}
}

// isNil also catches typed nils such as a nil []string returned as any.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
