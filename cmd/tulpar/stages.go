package main

// stages.go — shared stage-builder for the scan command. Each closure wires
// one pipeline stage to its package, capturing the runtime parameters it
// needs from config and flags.

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tulparsec/tulpar/internal/config"
	"github.com/tulparsec/tulpar/internal/enumerate"
	"github.com/tulparsec/tulpar/internal/jsminer"
	"github.com/tulparsec/tulpar/internal/liveness"
	"github.com/tulparsec/tulpar/internal/models"
	"github.com/tulparsec/tulpar/internal/pacer"
	"github.com/tulparsec/tulpar/internal/pipeline"
	"github.com/tulparsec/tulpar/internal/report"
	"github.com/tulparsec/tulpar/internal/screenshot"
	"github.com/tulparsec/tulpar/internal/storage"
	"github.com/tulparsec/tulpar/internal/vulnprobe"
	"github.com/tulparsec/tulpar/internal/wayback"
)

// scanArtifacts collects file paths produced by the report stage so the scan
// command can persist them after the pipeline returns.
type scanArtifacts struct {
	ReportPath  string
	SummaryPath string
}

// buildScanStages constructs the six canonical pipeline stages as closures.
// The returned slice is in canonical execution order: enumerate, liveness,
// jsendpoints, vulnprobe, wayback, report.
func buildScanStages(
	cfg *config.Config,
	log zerolog.Logger,
	limiter *pacer.Pacer,
	capturer screenshot.Capturer,
	artifacts *scanArtifacts,
) []pipeline.Stage {

	enumerateStage := pipeline.Stage{
		Name: "enumerate",
		Run: func(ctx context.Context, state *models.ScanState) error {
			return enumerate.Run(ctx, state, enumerate.Config{
				SubfinderPath: cfg.Tools.Subfinder.Path,
				Timeout:       cfg.Tools.Subfinder.Timeout(),
			}, log)
		},
	}

	livenessStage := pipeline.Stage{
		Name: "liveness",
		Run: func(ctx context.Context, state *models.ScanState) error {
			prober := liveness.NewProber(liveness.Config{
				UserAgent:      cfg.UserAgent,
				Timeout:        cfg.HTTP.Timeout(),
				MaxConnections: cfg.HTTP.MaxConnections,
				Pacer:          limiter,
				Capturer:       capturer,
			}, log)
			return prober.Run(ctx, state)
		},
	}

	jsStage := pipeline.Stage{
		Name: "jsendpoints",
		Run: func(ctx context.Context, state *models.ScanState) error {
			miner := jsminer.NewMiner(jsminer.Config{
				UserAgent:      cfg.UserAgent,
				Timeout:        cfg.HTTP.Timeout(),
				MaxConnections: cfg.HTTP.MaxConnections,
				Pacer:          limiter,
			}, log)
			return miner.Run(ctx, state)
		},
	}

	vulnStage := pipeline.Stage{
		Name: "vulnprobe",
		Run: func(ctx context.Context, state *models.ScanState) error {
			prober := vulnprobe.NewProber(vulnprobe.Config{
				UserAgent: cfg.UserAgent,
				Timeout:   cfg.HTTP.Timeout(),
				Pacer:     limiter,
				Params:    cfg.Probe.Params,
			}, log)
			return prober.Run(ctx, state)
		},
	}

	waybackStage := pipeline.Stage{
		Name: "wayback",
		Run: func(ctx context.Context, state *models.ScanState) error {
			collector := wayback.NewCollector(wayback.Config{
				UserAgent: cfg.UserAgent,
				Timeout:   cfg.HTTP.Timeout(),
				Pacer:     limiter,
			}, log)
			return collector.Run(ctx, state)
		},
	}

	reportStage := pipeline.Stage{
		Name: "report",
		Run: func(ctx context.Context, state *models.ScanState) error {
			snapshot := state.Snapshot(time.Now())

			reportPath := storage.ReportPath(state.OutputDir, state.Target, state.StartedAt)
			if err := report.WriteJSON(snapshot, reportPath); err != nil {
				return err
			}
			artifacts.ReportPath = reportPath
			fmt.Printf("[+] Report saved: %s\n", reportPath)

			summaryPath := storage.SummaryPath(state.OutputDir, state.Target, state.StartedAt)
			if err := report.WriteMarkdown(snapshot, summaryPath); err != nil {
				state.Warn("report", fmt.Sprintf("could not write markdown summary: %v", err))
			} else {
				artifacts.SummaryPath = summaryPath
				fmt.Printf("[+] Summary saved: %s\n", summaryPath)
			}

			report.PrintConsole(snapshot, state.Warnings())
			return nil
		},
	}

	return []pipeline.Stage{
		enumerateStage,
		livenessStage,
		jsStage,
		vulnStage,
		waybackStage,
		reportStage,
	}
}
