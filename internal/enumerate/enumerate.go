// Package enumerate implements the subdomain discovery stage. It wraps the
// external subfinder tool as a long-running subprocess, accepting in-scope
// hostnames from its stdout stream the moment they appear, and reconciles
// against the tool's on-disk result file after exit.
package enumerate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tulparsec/tulpar/internal/models"
	"github.com/tulparsec/tulpar/internal/pipeline"
	"github.com/tulparsec/tulpar/internal/storage"
	"github.com/tulparsec/tulpar/internal/tools"
)

const stageName = "enumerate"

// Config contains configuration for the enumeration stage.
type Config struct {
	// SubfinderPath overrides PATH resolution when non-empty.
	SubfinderPath string
	// Timeout caps the whole subfinder invocation.
	Timeout time.Duration
}

// Run executes subdomain enumeration into state. It never returns an error:
// enumeration failure must not abort the pipeline, so every failure mode is
// absorbed into the log and the state's warning list, and the stage yields
// whatever partial set was collected.
func Run(ctx context.Context, state *models.ScanState, cfg Config, log zerolog.Logger) error {
	outputFile := storage.SubfinderOutputPath(state.OutputDir, state.Target)

	accept := func(line string) {
		if !pipeline.InScope(line, state.Target) {
			return
		}
		if state.AddSubdomain(line) {
			log.Info().Str("subdomain", line).Msg("subfinder found subdomain")
		}
	}

	run, err := tools.StreamSubfinder(ctx, tools.SubfinderOptions{
		Domain:     state.Target,
		OutputFile: outputFile,
		BinaryPath: cfg.SubfinderPath,
		Timeout:    cfg.Timeout,
	}, accept)

	if err != nil {
		state.Warn(stageName, fmt.Sprintf("subfinder failed, continuing with %d collected: %v",
			len(state.Subdomains()), err))
		log.Warn().Err(err).Msg("subfinder failed")
	}

	if run != nil {
		if run.TimedOut {
			state.Warn(stageName, fmt.Sprintf("subfinder did not finish within %s, force-terminated", cfg.Timeout))
			log.Warn().Dur("timeout", cfg.Timeout).Msg("subfinder timed out")
		}
		if run.Crashed {
			// Known digitorus panic: the remaining sources already delivered.
			state.Warn(stageName, "subfinder crashed (digitorus source), continuing with other sources")
			log.Warn().Str("stderr", run.Stderr).Msg("subfinder crash detected")
		} else if run.Stderr != "" {
			log.Warn().Str("stderr", run.Stderr).Msg("subfinder stderr")
		}
	}

	// The -o file is subfinder's own complete record; merge it regardless of
	// how the process ended, since stdout parsing may have missed lines.
	if err := tools.MergeResultFile(outputFile, accept); err != nil {
		state.Warn(stageName, fmt.Sprintf("could not merge subfinder result file: %v", err))
		log.Warn().Err(err).Str("file", outputFile).Msg("result file merge failed")
	}

	log.Info().Int("subdomains", len(state.Subdomains())).Msg("enumeration complete")
	return nil
}
