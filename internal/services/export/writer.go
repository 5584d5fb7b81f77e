// -----------------------------------------------------------------------
// Export Writer - merged roster serialization
// -----------------------------------------------------------------------

package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/rosterpull/internal/models"
)

// Writer assembles the merged roster and writes it to a single file,
// overwriting any previous run's output.
type Writer struct {
	path   string
	logger arbor.ILogger
}

// NewWriter creates a writer targeting the given output path.
func NewWriter(path string, logger arbor.ILogger) *Writer {
	return &Writer{
		path:   path,
		logger: logger,
	}
}

// Write serializes all list users followed by the current user as a
// pretty-printed JSON array. The document is marshalled in full and written
// to a temp file that is renamed over the destination, so a failed run never
// leaves a partial or truncated output file behind.
func (w *Writer) Write(users []models.User, current *models.User) error {
	records := make([]models.User, 0, len(users)+1)
	records = append(records, users...)
	if current != nil {
		records = append(records, *current)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize roster: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, ".rosterpull-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp output file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp output file: %w", err)
	}

	if err := os.Rename(tmp.Name(), w.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace output file: %w", err)
	}

	w.logger.Info().
		Str("path", w.path).
		Int("records", len(records)).
		Msg("Roster written")

	return nil
}
