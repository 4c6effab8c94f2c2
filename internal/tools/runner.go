package tools

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// ToolResult contains the result of a tool execution
type ToolResult struct {
	Stderr   string
	ExitCode int
	TimedOut bool
}

// StreamTool executes a tool binary and delivers its stdout line-by-line to
// onLine as the process runs. It handles concurrent pipe reading to prevent
// buffer deadlocks and enforces context timeout with subprocess cleanup.
//
// When the context deadline fires, the process is killed and StreamTool
// returns a result with TimedOut set and a nil error — lines delivered
// before the kill are not lost, which is the whole point of streaming.
func StreamTool(ctx context.Context, binary string, onLine func(string), args ...string) (*ToolResult, error) {
	cmd := exec.CommandContext(ctx, binary, args...)

	// Grace period for subprocess cleanup after context cancellation
	cmd.WaitDelay = 5 * time.Second

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	// Read stdout and stderr concurrently to prevent deadlocks
	var stderrBuf bytes.Buffer

	stdoutDone := make(chan error, 1)
	stderrDone := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(stdoutPipe)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && onLine != nil {
				onLine(line)
			}
		}
		stdoutDone <- scanner.Err()
	}()

	go func() {
		_, err := io.Copy(&stderrBuf, stderrPipe)
		stderrDone <- err
	}()

	<-stdoutDone
	<-stderrDone

	waitErr := cmd.Wait()

	result := &ToolResult{
		Stderr:   stderrBuf.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	if waitErr != nil {
		// Forced termination on timeout is an expected outcome: the caller
		// keeps whatever was streamed before the kill.
		if ctx.Err() != nil {
			result.TimedOut = true
			return result, nil
		}
		return result, fmt.Errorf("command failed with exit code %d: %w", result.ExitCode, waitErr)
	}

	return result, nil
}
