package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/server-herald/internal/ratelimit"
)

func TestFromMap_Defaults(t *testing.T) {
	cfg, err := FromMap(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, []string{"!"}, cfg.Prefixes)
	assert.True(t, cfg.MentionPrefix)
	assert.False(t, cfg.Passive)
	assert.True(t, cfg.IgnoreBots)
	assert.Equal(t, 30*time.Minute, cfg.ContextLifetime)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, "datastore.json", cfg.StoragePath)
	assert.Empty(t, cfg.Owners)
	assert.Error(t, cfg.RequireToken())

	opts := cfg.DispatchOptions()
	assert.Equal(t, ratelimit.Policy{Scope: ratelimit.ScopeUser, Bucket: 1, Reset: 5 * time.Second}, opts.DefaultPolicy)
	assert.True(t, opts.MentionPrefix)
}

func TestFromMap_Overrides(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		"DISCORD_TOKEN":     "secret",
		"COMMAND_PREFIX":    "?, herald ,",
		"MENTION_PREFIX":    "false",
		"PASSIVE":           "true",
		"BOT_OWNERS":        "1, 2",
		"DEFAULT_RATELIMIT": "ch:3/1m+",
		"CONTEXT_LIFETIME":  "0s",
		"LOG_FILE":          "/tmp/herald.log",
		"LOG_MAX_SIZE_MB":   "5",
	})
	require.NoError(t, err)
	require.NoError(t, cfg.RequireToken())

	assert.Equal(t, []string{"?", "herald"}, cfg.Prefixes)
	assert.Equal(t, []string{"1", "2"}, cfg.Owners)
	assert.Equal(t, time.Duration(0), cfg.ContextLifetime)

	opts := cfg.DispatchOptions()
	assert.False(t, opts.MentionPrefix)
	assert.True(t, opts.Passive)
	assert.Equal(t, []string{"1", "2"}, opts.Owners)
	assert.Equal(t, ratelimit.Policy{Scope: ratelimit.ScopeChannel, Bucket: 3, Reset: time.Minute, Stack: true}, opts.DefaultPolicy)

	logOpts := cfg.LogFileOptions()
	assert.Equal(t, "/tmp/herald.log", logOpts.Path)
	assert.Equal(t, 5, logOpts.MaxSizeMB)
	assert.Equal(t, 3, logOpts.MaxBackups)
}

func TestFromMap_MalformedPolicyFallsBack(t *testing.T) {
	cfg, err := FromMap(map[string]string{"DEFAULT_RATELIMIT": "lots"})
	require.NoError(t, err)
	assert.Equal(t, ratelimit.DefaultPolicy, cfg.Policy())
}

func TestFromMap_InvalidValue(t *testing.T) {
	_, err := FromMap(map[string]string{"SWEEP_INTERVAL": "soon"})
	assert.Error(t, err)
}

func TestSortCategories(t *testing.T) {
	names := []string{"Zed", "Settings", "Alpha", "General", "Moderation"}
	SortCategories(names)
	assert.Equal(t, []string{"General", "Moderation", "Settings", "Alpha", "Zed"}, names)
}
