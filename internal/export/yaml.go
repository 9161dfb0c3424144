package export

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLExporter exports records in YAML format
type YAMLExporter struct{}

// Export exports records to YAML format
func (e *YAMLExporter) Export(records []PartRecord, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(map[string][]PartRecord{"parts": records})
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
