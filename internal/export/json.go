package export

import (
	"encoding/json"
	"io"
)

// JSONExporter exports records as one indented JSON array
type JSONExporter struct{}

// Export exports records to JSON format
func (e *JSONExporter) Export(records []PartRecord, w io.Writer) error {
	if records == nil {
		records = []PartRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
