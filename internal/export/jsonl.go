package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONLExporter exports records in JSONL format (one record per line)
type JSONLExporter struct{}

// Export exports records to JSONL format
func (e *JSONLExporter) Export(records []PartRecord, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, rec := range records {
		// Encode to single line
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record for %s: %w", rec.Path, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
