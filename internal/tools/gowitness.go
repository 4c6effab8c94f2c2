package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RunGowitnessSingle captures a screenshot of one URL with gowitness and
// returns the path of the produced image. gowitness picks its own output
// filename, so the capture runs into a private temp directory and the single
// produced file is moved to destPath.
func RunGowitnessSingle(ctx context.Context, rawURL, destPath, binaryPath string) error {
	binary := "gowitness"
	if binaryPath != "" {
		binary = binaryPath
	}

	tmpDir, err := os.MkdirTemp("", "tulpar-gowitness-*")
	if err != nil {
		return fmt.Errorf("creating capture temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	args := []string{
		"scan", "single",
		"-u", rawURL,
		"-s", tmpDir,
		"-T", "60",
		"--screenshot-format", "png",
	}

	if _, err := StreamTool(ctx, binary, nil, args...); err != nil {
		return fmt.Errorf("gowitness execution failed: %w", err)
	}

	produced, err := firstImageIn(tmpDir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("creating screenshot directory: %w", err)
	}
	if err := os.Rename(produced, destPath); err != nil {
		// Rename fails across filesystems; fall back to copy.
		data, readErr := os.ReadFile(produced)
		if readErr != nil {
			return fmt.Errorf("moving screenshot: %w", err)
		}
		return os.WriteFile(destPath, data, 0644)
	}
	return nil
}

// firstImageIn returns the first png/jpeg file found in dir.
func firstImageIn(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading capture dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, ".png") || strings.HasSuffix(name, ".jpeg") || strings.HasSuffix(name, ".jpg") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("gowitness produced no screenshot file")
}
