package tools

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePosixShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestStreamToolDeliversLines(t *testing.T) {
	requirePosixShell(t)

	var lines []string
	result, err := StreamTool(context.Background(), "sh", func(line string) {
		lines = append(lines, line)
	}, "-c", `echo one; echo "  two  "; echo; echo three`)
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two", "three"}, lines, "lines are trimmed, blanks dropped")
	assert.Equal(t, 0, result.ExitCode)
	assert.False(t, result.TimedOut)
}

func TestStreamToolCapturesStderr(t *testing.T) {
	requirePosixShell(t)

	result, err := StreamTool(context.Background(), "sh", nil,
		"-c", `echo "warning: something" >&2`)
	require.NoError(t, err)
	assert.Contains(t, result.Stderr, "warning: something")
}

func TestStreamToolNonZeroExit(t *testing.T) {
	requirePosixShell(t)

	result, err := StreamTool(context.Background(), "sh", nil, "-c", "exit 3")
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.ExitCode)
}

func TestStreamToolTimeoutKeepsStreamedLines(t *testing.T) {
	requirePosixShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var lines []string
	result, err := StreamTool(ctx, "sh", func(line string) {
		lines = append(lines, line)
	}, "-c", `echo before; sleep 30; echo after`)

	require.NoError(t, err, "timeout is an expected outcome, not an error")
	require.NotNil(t, result)
	assert.True(t, result.TimedOut)
	assert.Equal(t, []string{"before"}, lines)
}

func TestMergeResultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	require.NoError(t, os.WriteFile(path, []byte("a.example.com\n\n  b.example.com  \n"), 0644))

	var hosts []string
	require.NoError(t, MergeResultFile(path, func(h string) { hosts = append(hosts, h) }))
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, hosts)
}

func TestMergeResultFileMissingIsNotAnError(t *testing.T) {
	err := MergeResultFile(filepath.Join(t.TempDir(), "absent.txt"), func(string) {
		t.Fatal("callback must not fire for a missing file")
	})
	assert.NoError(t, err)
}
