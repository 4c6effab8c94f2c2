package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tulparsec/tulpar/internal/models"
)

// StoreInterface is the minimal bbolt contract required by the orchestrator.
// Using an interface keeps the package testable without a real database.
type StoreInterface interface {
	SaveScan(meta *models.ScanMeta) error
	UpdateScanStatus(id string, status models.ScanStatus) error
}

// StageFunc is the signature each pipeline stage must satisfy.
// ctx carries the deadline; state is the shared accumulator owned by the
// orchestrator and passed by reference into every stage.
type StageFunc func(ctx context.Context, state *models.ScanState) error

// Stage pairs a human-readable name with its execution function.
type Stage struct {
	Name string
	Run  StageFunc
}

// RunConfig controls how RunPipeline behaves for a single run.
type RunConfig struct {
	// Target is the domain being scanned. Required.
	Target string

	// Stages is the ordered allow-list of stage names to run.
	// Empty means "run all stages defined in allStages".
	Stages []string

	// Skip is a list of stage names to exclude, applied after Stages filtering.
	Skip []string

	// Timeout caps the total wall-clock time for all stages combined.
	// Zero means no timeout beyond the caller's context.
	Timeout time.Duration

	// OnStageStart is called immediately before each stage executes.
	// index is 0-based; total is the count of stages selected to run.
	OnStageStart func(name string, index, total int)

	// OnStageDone is called immediately after each stage returns (or panics).
	// err is nil on success; elapsed is the wall time for that stage alone.
	OnStageDone func(name string, index, total int, err error, elapsed time.Duration)
}

// Result summarises what happened after RunPipeline returns.
type Result struct {
	// Target is the domain that was scanned.
	Target string

	// ScanID is the bbolt record ID created for this run.
	ScanID string

	// StagesRun contains the names of stages that were attempted (panics included).
	StagesRun []string

	// StageErrors maps stage name to error message for every stage that failed.
	// Stages not present here completed without error.
	StageErrors map[string]string

	// Elapsed is the total wall time from the first stage to the last.
	Elapsed time.Duration

	// Status is "complete" when every selected stage succeeded, "partial" when
	// at least one stage failed but execution continued past it.
	Status string
}

// RunPipeline orchestrates the discovery-and-probing pipeline in order.
//
// Stage selection:
//   - allStages defines the canonical order; only stages present in that slice
//     are eligible to run.
//   - cfg.Stages, when non-empty, further restricts which stages run (order
//     is still governed by allStages, not the caller's list).
//   - cfg.Skip removes specific stages from the resulting set.
//
// Crash isolation:
//
//	Each stage is wrapped in a deferred recover so a panicking stage is
//	recorded as an error and the remaining stages still execute. Stage
//	functions themselves absorb per-item and whole-stage dependency failures
//	into state warnings, so a returned error here means something genuinely
//	unexpected.
//
// The bbolt record is created (StatusRunning) before the first stage and
// updated to StatusComplete or StatusFailed once all stages have been
// attempted.
func RunPipeline(
	ctx context.Context,
	cfg RunConfig,
	allStages []Stage,
	store StoreInterface,
	state *models.ScanState,
) (*Result, error) {

	// ── 1. Validate required inputs ───────────────────────────────────────────
	if cfg.Target == "" {
		return nil, fmt.Errorf("pipeline: Target is required")
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline: store must not be nil")
	}
	if state == nil {
		return nil, fmt.Errorf("pipeline: state must not be nil")
	}

	// ── 2. Apply stage filtering ──────────────────────────────────────────────
	selected := filterStages(allStages, cfg.Stages, cfg.Skip)
	if len(selected) == 0 {
		return nil, fmt.Errorf("pipeline: no stages remain after filtering")
	}

	// ── 3. Apply optional timeout ─────────────────────────────────────────────
	runCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	// ── 4. Create the bbolt scan record ───────────────────────────────────────
	meta := models.NewScanMeta(cfg.Target)
	meta.OutputDir = state.OutputDir
	meta.StartedAt = state.StartedAt
	meta.Status = models.StatusRunning
	if err := store.SaveScan(meta); err != nil {
		return nil, fmt.Errorf("pipeline: saving initial scan record: %w", err)
	}

	// ── 5. Execute stages ─────────────────────────────────────────────────────
	result := &Result{
		Target:      cfg.Target,
		ScanID:      meta.ID,
		StageErrors: make(map[string]string),
	}

	pipelineStart := time.Now()
	total := len(selected)

	for i, stage := range selected {
		if cfg.OnStageStart != nil {
			cfg.OnStageStart(stage.Name, i, total)
		}

		stageStart := time.Now()
		stageErr := runStageIsolated(runCtx, stage, state)
		stageElapsed := time.Since(stageStart)

		result.StagesRun = append(result.StagesRun, stage.Name)

		if stageErr != nil {
			result.StageErrors[stage.Name] = stageErr.Error()
		}

		if cfg.OnStageDone != nil {
			cfg.OnStageDone(stage.Name, i, total, stageErr, stageElapsed)
		}

		// Persist the updated StagesRun list after each successful stage so a
		// crash mid-pipeline leaves an inspectable record in bbolt.
		if stageErr == nil {
			meta.StagesRun = appendUnique(meta.StagesRun, stage.Name)
			if err := store.SaveScan(meta); err != nil {
				// Non-fatal: the stage completed — just warn.
				state.Warn(stage.Name, fmt.Sprintf("could not persist stage record: %v", err))
			}
		}
	}

	result.Elapsed = time.Since(pipelineStart)

	// ── 6. Determine final status and persist ─────────────────────────────────
	finalStatus := models.StatusComplete
	result.Status = "complete"
	if len(result.StageErrors) > 0 {
		finalStatus = models.StatusFailed
		result.Status = "partial"
	}

	if err := store.UpdateScanStatus(meta.ID, finalStatus); err != nil {
		state.Warn("pipeline", fmt.Sprintf("could not update final scan status: %v", err))
	}

	return result, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// filterStages applies the allow-list (allowNames) and deny-list (skipNames)
// to allStages, preserving the order defined in allStages.
func filterStages(allStages []Stage, allowNames, skipNames []string) []Stage {
	allowSet := toSet(allowNames)
	skipSet := toSet(skipNames)

	var out []Stage
	for _, s := range allStages {
		// If an allow-list is provided, only include stages in it.
		if len(allowSet) > 0 && !allowSet[s.Name] {
			continue
		}
		if skipSet[s.Name] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// runStageIsolated runs a single stage inside a deferred recover so that a
// panic in stage code is caught and returned as an error rather than crashing
// the orchestrator process.
func runStageIsolated(ctx context.Context, s Stage, state *models.ScanState) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("stage %q panicked: %v", s.Name, r)
		}
	}()
	return s.Run(ctx, state)
}

// appendUnique appends s to slice only if it is not already present.
func appendUnique(slice []string, s string) []string {
	for _, existing := range slice {
		if existing == s {
			return slice
		}
	}
	return append(slice, s)
}

// toSet converts a string slice into a boolean lookup map.
func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
