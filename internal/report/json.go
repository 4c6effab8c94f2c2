// Package report renders the terminal artifacts of a run: the one-shot JSON
// report file, the console result tables, and a markdown summary.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tulparsec/tulpar/internal/models"
)

// WriteJSON serializes a report snapshot to outputPath in one shot.
// The file is written exactly once per run, after all stages complete.
func WriteJSON(r *models.Report, outputPath string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	return nil
}
