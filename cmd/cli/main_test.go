package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STORAGE_PATH", filepath.Join(dir, "store.json"))
	t.Setenv("LOG_FILE", "")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--env", filepath.Join(dir, "missing.env")}, args...))
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestExec(t *testing.T) {
	out := execute(t, "", "exec", "!ping")
	assert.Contains(t, out, "Pong!")
}

func TestRun(t *testing.T) {
	out := execute(t, "!ping\n!help ping\n", "run")
	assert.Contains(t, out, "Pong!")
	assert.Contains(t, out, "ping")
}

func TestListCommands(t *testing.T) {
	out := execute(t, "", "commands")
	for _, id := range []string{"ping", "help", "prefix", "history"} {
		assert.Contains(t, out, id)
	}
}

func TestExecRequiresMessage(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"exec"})
	assert.Error(t, cmd.Execute())
}
