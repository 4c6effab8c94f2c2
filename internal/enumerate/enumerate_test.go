package enumerate

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tulparsec/tulpar/internal/models"
)

// writeFakeSubfinder writes a shell script standing in for the real binary.
// It echoes hostnames on stdout and honors the -o flag like subfinder does.
func writeFakeSubfinder(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake subfinder script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-subfinder")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

const streamAndFileScript = `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
done
echo "api.example.com"
echo "evil.org"
printf "api.example.com\ncdn.example.com\n" > "$out"
`

func TestRunStreamsAndMergesResultFile(t *testing.T) {
	bin := writeFakeSubfinder(t, streamAndFileScript)

	state := models.NewScanState("example.com", t.TempDir())
	err := Run(context.Background(), state, Config{
		SubfinderPath: bin,
		Timeout:       30 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)

	// api comes from the stream, cdn only from the -o file; the out-of-scope
	// host from the stream is rejected.
	assert.Equal(t, []string{"api.example.com", "cdn.example.com"}, state.Subdomains())
	assert.Empty(t, state.Warnings())
}

const crashScript = `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
done
echo "www.example.com"
printf "www.example.com\n" > "$out"
echo "panic: runtime error: index out of range" >&2
`

func TestRunDetectsKnownCrashAndKeepsResults(t *testing.T) {
	bin := writeFakeSubfinder(t, crashScript)

	state := models.NewScanState("example.com", t.TempDir())
	err := Run(context.Background(), state, Config{
		SubfinderPath: bin,
		Timeout:       30 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{"www.example.com"}, state.Subdomains())

	warnings := state.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, "enumerate", warnings[0].Stage)
	assert.Contains(t, warnings[0].Message, "crashed")
}

const hangScript = `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
done
echo "early.example.com"
printf "early.example.com\nlate.example.com\n" > "$out"
sleep 60
`

func TestRunTimeoutKeepsPartialResults(t *testing.T) {
	bin := writeFakeSubfinder(t, hangScript)

	state := models.NewScanState("example.com", t.TempDir())
	start := time.Now()
	err := Run(context.Background(), state, Config{
		SubfinderPath: bin,
		Timeout:       1 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 30*time.Second, "hang must be cut off by the timeout")

	// Streamed host survives the kill, and the -o file merge recovers the rest.
	assert.Contains(t, state.Subdomains(), "early.example.com")
	assert.Contains(t, state.Subdomains(), "late.example.com")

	var timedOut bool
	for _, w := range state.Warnings() {
		if w.Stage == "enumerate" {
			timedOut = true
		}
	}
	assert.True(t, timedOut, "timeout must be recorded as a warning")
}

func TestRunMissingBinaryIsRecoverable(t *testing.T) {
	state := models.NewScanState("example.com", t.TempDir())
	err := Run(context.Background(), state, Config{
		SubfinderPath: filepath.Join(t.TempDir(), "no-such-binary"),
		Timeout:       5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err, "enumeration failure must not abort the pipeline")

	assert.Empty(t, state.Subdomains())
	assert.NotEmpty(t, state.Warnings())
}
