package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// crashMarker is the stderr substring emitted when subfinder's digitorus
// source panics. A run carrying it is degraded, not failed — results from
// the remaining sources are still usable.
const crashMarker = "panic: runtime error"

// SubfinderOptions configures a single subfinder invocation.
type SubfinderOptions struct {
	// Domain is the root domain passed via -d.
	Domain string
	// OutputFile is the path subfinder writes its full result list to (-o).
	OutputFile string
	// BinaryPath overrides PATH resolution when non-empty.
	BinaryPath string
	// Timeout caps the whole invocation; on expiry the process is killed
	// but already-streamed hosts are retained.
	Timeout time.Duration
}

// SubfinderRun reports how the subprocess ended.
type SubfinderRun struct {
	TimedOut bool
	Crashed  bool // stderr carried the known digitorus panic marker
	Stderr   string
	ExitCode int
}

// StreamSubfinder runs subfinder and streams each discovered hostname to
// onHost as it is printed, without waiting for process exit. Exact argv:
//
//	subfinder -d <domain> -o <path> -t 50 -timeout <seconds> -exclude-sources digitorus
//
// The -o file is the tool's own complete record; callers should merge it
// after the run via MergeResultFile, since stdout may have been cut short
// by the timeout kill.
func StreamSubfinder(ctx context.Context, opts SubfinderOptions, onHost func(string)) (*SubfinderRun, error) {
	binary := "subfinder"
	if opts.BinaryPath != "" {
		binary = opts.BinaryPath
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	args := []string{
		"-d", opts.Domain,
		"-o", opts.OutputFile,
		"-t", "50",
		"-timeout", strconv.Itoa(int(timeout.Seconds())),
		"-exclude-sources", "digitorus",
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := StreamTool(runCtx, binary, onHost, args...)
	if err != nil {
		// A non-zero exit still may have produced the output file; surface
		// the error together with what we know so the caller can reconcile.
		if result == nil {
			return nil, fmt.Errorf("subfinder execution failed: %w", err)
		}
		return &SubfinderRun{
			Stderr:   result.Stderr,
			ExitCode: result.ExitCode,
			Crashed:  strings.Contains(result.Stderr, crashMarker),
		}, err
	}

	return &SubfinderRun{
		TimedOut: result.TimedOut,
		Crashed:  strings.Contains(result.Stderr, crashMarker),
		Stderr:   result.Stderr,
		ExitCode: result.ExitCode,
	}, nil
}

// MergeResultFile re-reads the subfinder -o file and delivers every
// non-empty line to onHost. The tool writes complete results to disk even
// when its stdout stream was interrupted, so this reconciliation step
// recovers hosts the streaming pass missed. A missing file is not an error.
func MergeResultFile(path string, onHost func(string)) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening subfinder output file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			onHost(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading subfinder output file: %w", err)
	}
	return nil
}
