package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want Policy
	}{
		{"user:1/5s", Policy{ScopeUser, 1, 5 * time.Second, false}},
		{"usr:3/10m+", Policy{ScopeUser, 3, 10 * time.Minute, true}},
		{"ch:2/1h", Policy{ScopeChannel, 2, time.Hour, false}},
		{"channel:2/1d", Policy{ScopeChannel, 2, 24 * time.Hour, false}},
		{"g:5/1w", Policy{ScopeGuild, 5, 7 * 24 * time.Hour, false}},
		{"Guild:5/30S+", Policy{ScopeGuild, 5, 30 * time.Second, true}},
		{"2/1500", Policy{ScopeUser, 2, 1500 * time.Millisecond, false}},
		{"4/250ms+", Policy{ScopeUser, 4, 250 * time.Millisecond, true}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePolicy_Malformed(t *testing.T) {
	for _, in := range []string{"", "user", "user:1", "x:1/5s", "1/5y", "-1/5s", "user:1/5s++",
		"1/0", "user:1/0s+", "1/15251w", "1/99999999999999w", "1/9223372036854775807s", "1/99999999999999999999"} {
		p, err := ParsePolicy(in)
		assert.Error(t, err, in)
		assert.Equal(t, DefaultPolicy, p, in)
		assert.Equal(t, DefaultPolicy, MustPolicy(in), in)
	}
}

func TestParsePolicy_LargestReset(t *testing.T) {
	p, err := ParsePolicy("1/15250w")
	require.NoError(t, err)
	assert.Equal(t, 15250*7*24*time.Hour, p.Reset)
	assert.Equal(t, "user:1/15250w", p.String())
}

func TestPolicy_StringRoundTrip(t *testing.T) {
	for _, in := range []string{"user:1/5s", "channel:3/10m+", "guild:1/2d", "user:2/1500ms", "user:1/1w+"} {
		p, err := ParsePolicy(in)
		require.NoError(t, err)
		assert.Equal(t, in, p.String())
	}
}
