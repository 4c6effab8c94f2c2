// Package screenshot is the opaque capture hook fired for every confirmed
// live host. Capture failure is logged by callers and never affects
// liveness results.
//
// Two capturers exist: a gowitness-backed one used when the binary is
// available, and a placeholder that writes a fixed blank image — the
// historical stub behavior, kept as the default so runs without gowitness
// still produce one record per live host.
package screenshot

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tulparsec/tulpar/internal/storage"
	"github.com/tulparsec/tulpar/internal/tools"
)

// Capturer captures a screenshot of a live URL and returns the filename
// (relative to the output directory) it was stored under.
type Capturer interface {
	Capture(ctx context.Context, rawURL string) (string, error)
}

// FileName derives the screenshot filename for a live URL.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url for screenshot name: %w", err)
	}
	return fmt.Sprintf("screenshot_%s.png", storage.SanitizeTarget(u.Host)), nil
}

// Placeholder writes a fixed blank 800x600 PNG per live host. It performs
// no page rendering at all — it exists so the screenshot map stays populated
// when no real capture tool is installed.
type Placeholder struct {
	// Dir is the directory screenshots are written into.
	Dir string
}

// Capture implements Capturer.
func (p *Placeholder) Capture(_ context.Context, rawURL string) (string, error) {
	name, err := FileName(rawURL)
	if err != nil {
		return "", err
	}

	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < 600; y++ {
		for x := 0; x < 800; x++ {
			img.Set(x, y, white)
		}
	}

	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		return "", fmt.Errorf("creating screenshot directory: %w", err)
	}

	f, err := os.Create(filepath.Join(p.Dir, name))
	if err != nil {
		return "", fmt.Errorf("creating screenshot file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encoding screenshot: %w", err)
	}
	return name, nil
}

// Gowitness captures real page screenshots via the gowitness binary.
type Gowitness struct {
	// Dir is the directory screenshots are written into.
	Dir string
	// BinaryPath overrides PATH resolution when non-empty.
	BinaryPath string
}

// Capture implements Capturer.
func (g *Gowitness) Capture(ctx context.Context, rawURL string) (string, error) {
	name, err := FileName(rawURL)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(g.Dir, name)
	if err := tools.RunGowitnessSingle(ctx, rawURL, dest, g.BinaryPath); err != nil {
		return "", err
	}
	return name, nil
}
