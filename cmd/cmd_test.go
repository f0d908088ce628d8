package cmd

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)

	require.NoError(t, rootCmd.Execute(), strings.Join(args, " "))

	return buf.String()
}

func TestCommands(t *testing.T) {
	home := t.TempDir()
	t.Setenv("NOTEBOX_BACKUP_DIR", "")
	t.Setenv("NOTEBOX_LOG_FILE", "")
	t.Setenv("NOTEBOX_PASSWORD", "")

	id := strings.TrimSpace(run(t, "--home", home, "new", "--content", "Groceries\nbuy #milk and #eggs"))
	require.NotEmpty(t, id)

	assert.Contains(t, run(t, "--home", home, "list", "--tag", "milk"), id)
	assert.Contains(t, run(t, "--home", home, "show", id), "# Groceries")

	pinned := run(t, "--home", home, "pin", id)
	assert.Contains(t, pinned, "*")

	tags := run(t, "--home", home, "tags")
	assert.Contains(t, tags, "#eggs\t1")
	assert.Contains(t, tags, "#milk\t1")

	assert.Contains(t, run(t, "--home", home, "template", "list"), "Meeting Notes")

	path := strings.TrimSpace(run(t, "--home", home, "backup", "create"))
	_, err := os.Stat(path)
	require.NoError(t, err)

	assert.Contains(t, run(t, "--home", home, "assist", "complete", "Meeting notes"), "agenda")
}
