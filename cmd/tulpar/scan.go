package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tulparsec/tulpar/internal/logging"
	"github.com/tulparsec/tulpar/internal/models"
	"github.com/tulparsec/tulpar/internal/pacer"
	"github.com/tulparsec/tulpar/internal/pipeline"
	"github.com/tulparsec/tulpar/internal/screenshot"
	"github.com/tulparsec/tulpar/internal/storage"
	"github.com/tulparsec/tulpar/internal/tools"
)

const banner = `
 _____      _
|_   _|   _| |_ __   __ _ _ __
  | || | | | | '_ \ / _` + "`" + ` | '__|
  | || |_| | | |_) | (_| | |
  |_| \__,_|_| .__/ \__,_|_|
             |_|
`

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the full recon pipeline in a single command",
	Long: `Run the complete reconnaissance pipeline for a target domain.

Executes all six stages in order — enumerate, liveness, jsendpoints, vulnprobe,
wayback, report — accumulating every result into one shared scan state.  Stages
can be filtered, skipped, or selected via a named preset.

Results are saved to:
  {output_dir}/tulpar_output_{domain}_{timestamp}.json   (full JSON report)
  {output_dir}/tulpar_summary_{domain}_{timestamp}.md    (markdown summary)
  {output_dir}/screenshots/                              (per-host screenshots)

Scan metadata is persisted to the configured database so history works
across runs.

Examples:
  tulpar scan -d example.com
  tulpar scan -d example.com --preset surface-map
  tulpar scan -d example.com --stages enumerate,liveness,report
  tulpar scan -d example.com --skip vulnprobe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// ── 1. Read all flags ──────────────────────────────────────────────────
		domain, _ := cmd.Flags().GetString("domain")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		stagesFlag, _ := cmd.Flags().GetString("stages")
		skipFlag, _ := cmd.Flags().GetString("skip")
		presetName, _ := cmd.Flags().GetString("preset")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		webhookURL, _ := cmd.Flags().GetString("notify-webhook")
		skipScreenshots, _ := cmd.Flags().GetBool("skip-screenshots")

		// ── 2. Config check ────────────────────────────────────────────────────
		if cfg == nil {
			return fmt.Errorf("config not loaded. Run 'tulpar init' first to create config")
		}
		if outputDir != "" {
			cfg.OutputDir = outputDir
		}

		fmt.Print(banner)

		// ── 3. Apply preset (flags override preset values) ────────────────────
		var stageList []string
		var skipList []string

		if presetName != "" {
			preset, err := pipeline.GetPreset(presetName)
			if err != nil {
				return err
			}
			fmt.Printf("[*] Using preset: %s — %s\n", preset.Name, preset.Description)
			stageList = preset.Stages
		}

		// Parse --stages and --skip flags, overriding any preset values.
		if stagesFlag != "" {
			stageList = splitCSV(stagesFlag)
		}
		if skipFlag != "" {
			skipList = splitCSV(skipFlag)
		}
		// Config-level stage selection applies when no flag or preset is given.
		if len(stageList) == 0 {
			stageList = cfg.Stages.Enable
		}
		skipList = append(skipList, cfg.Stages.Skip...)

		// ── 4. Pre-flight tool checks ──────────────────────────────────────────
		// Subfinder is required; gowitness decides the screenshot capturer.
		checkResults := tools.CheckTools(tools.DefaultTools())
		gowitnessAvailable := false
		for _, r := range checkResults {
			if r.Tool.Required && !r.Found {
				return fmt.Errorf("required tool %q not found — install with: %s",
					r.Tool.Name, r.Tool.InstallCmd)
			}
			if r.Tool.Name == "gowitness" {
				gowitnessAvailable = r.Found
			}
		}

		// ── 5. Prepare output directory and logger ─────────────────────────────
		if err := storage.EnsureDir(cfg.OutputDir); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		log, logCloser, err := logging.New(logging.Options{
			FilePath: cfg.LogFile,
			Verbose:  verbose,
		})
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		defer logCloser.Close()

		// ── 6. Open bbolt store ────────────────────────────────────────────────
		store, err := storage.NewStore(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()

		// ── 7. Build shared scan state, pacer, and screenshot capturer ────────
		state := models.NewScanState(domain, cfg.OutputDir)
		limiter := pacer.New(cfg.RateLimit.Delay())

		var capturer screenshot.Capturer
		if !skipScreenshots {
			shotDir := filepath.Join(cfg.OutputDir, "screenshots")
			if gowitnessAvailable {
				capturer = &screenshot.Gowitness{Dir: shotDir, BinaryPath: cfg.Tools.Gowitness.Path}
				fmt.Println("[*] Screenshots: gowitness")
			} else {
				capturer = &screenshot.Placeholder{Dir: shotDir}
				fmt.Println("[*] Screenshots: gowitness not found, writing placeholders")
			}
		}

		// ── 8. Build stage closures and pipeline config ────────────────────────
		artifacts := &scanArtifacts{}
		allStages := buildScanStages(cfg, log, limiter, capturer, artifacts)

		runCfg := pipeline.RunConfig{
			Target:  domain,
			Stages:  stageList,
			Skip:    skipList,
			Timeout: timeout,
			OnStageStart: func(name string, index, total int) {
				fmt.Printf("[*] Stage %d/%d: %s...\n", index+1, total, name)
			},
			OnStageDone: func(name string, index, total int, err error, elapsed time.Duration) {
				if err != nil {
					fmt.Printf("[!] Stage %d/%d: %s FAILED (%s)\n",
						index+1, total, name, elapsed.Round(time.Millisecond))
				} else {
					fmt.Printf("[+] Stage %d/%d: %s complete (%s)\n",
						index+1, total, name, elapsed.Round(time.Millisecond))
				}
			},
		}

		// ── 9. Run the pipeline ────────────────────────────────────────────────
		fmt.Printf("[*] Starting full pipeline scan for %s\n", domain)

		// Use a background context — the orchestrator applies its own timeout.
		result, err := pipeline.RunPipeline(context.Background(), runCfg, allStages, store, state)
		if err != nil {
			return fmt.Errorf("pipeline failed: %w", err)
		}

		// ── 10. Persist report path (non-fatal) ────────────────────────────────
		if artifacts.ReportPath != "" {
			if err := store.SetReportPath(result.ScanID, artifacts.ReportPath); err != nil {
				fmt.Printf("[!] Warning: could not record report path: %v\n", err)
			}
		}

		// ── 11. Webhook notification (non-fatal) ───────────────────────────────
		if webhookURL != "" {
			notifyCfg := pipeline.NotifyConfig{WebhookURL: webhookURL}
			if notifyErr := notifyCfg.SendCompletion(result, state); notifyErr != nil {
				fmt.Printf("[!] Warning: webhook notification failed: %v\n", notifyErr)
			} else {
				fmt.Printf("[+] Completion notification sent to %s\n", webhookURL)
			}
		}

		// ── 12. Print final summary ────────────────────────────────────────────
		fmt.Println()
		fmt.Printf("[+] Scan complete!\n")
		fmt.Printf("    Target:    %s\n", result.Target)
		fmt.Printf("    Scan ID:   %s\n", result.ScanID)
		fmt.Printf("    Output:    %s\n", cfg.OutputDir)
		fmt.Printf("    Status:    %s\n", result.Status)
		fmt.Printf("    Elapsed:   %s\n", result.Elapsed.Round(time.Second))
		fmt.Printf("    Stages:    %s\n", strings.Join(result.StagesRun, " -> "))

		if len(result.StageErrors) > 0 {
			fmt.Println()
			fmt.Println("[!] Stage errors:")
			for stage, errMsg := range result.StageErrors {
				fmt.Printf("    %-12s %s\n", stage+":", errMsg)
			}
		}

		return nil
	},
}

func init() {
	scanCmd.Flags().StringP("domain", "d", "", "Target domain to scan (required)")
	scanCmd.Flags().String("output-dir", "", "Override the configured output directory")
	scanCmd.Flags().String("stages", "", "Comma-separated stage names to run (e.g. enumerate,liveness)")
	scanCmd.Flags().String("skip", "", "Comma-separated stage names to skip")
	scanCmd.Flags().String("preset", "", "Named preset: full, surface-map, probe-only")
	scanCmd.Flags().Duration("timeout", 2*time.Hour, "Total pipeline timeout")
	scanCmd.Flags().String("notify-webhook", "", "HTTP webhook URL to POST a completion summary to")
	scanCmd.Flags().Bool("skip-screenshots", false, "Disable screenshot capture entirely")

	scanCmd.MarkFlagRequired("domain")

	rootCmd.AddCommand(scanCmd)
}

// splitCSV splits a comma-separated string into a trimmed, non-empty slice.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
