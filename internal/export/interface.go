package export

import (
	"fmt"
	"io"

	"github.com/iksnae/gemini-attach/internal"
)

// PartRecord is one converted attachment: its request part, or why it failed
type PartRecord struct {
	Path  string         `json:"path" yaml:"path"`
	Mime  string         `json:"mime" yaml:"mime"`
	State string         `json:"state" yaml:"state"`
	Part  *internal.Part `json:"part,omitempty" yaml:"part,omitempty"`
	Error string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(records []PartRecord, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// RecordsFromOutcomes converts board outcomes to export records
func RecordsFromOutcomes(outcomes []internal.Outcome) []PartRecord {
	records := make([]PartRecord, 0, len(outcomes))
	for _, o := range outcomes {
		rec := PartRecord{
			Path:  o.Attachment.Path,
			Mime:  o.Attachment.Mime,
			State: o.Attachment.State.Kind.String(),
		}
		if o.Result != nil {
			part := o.Result.Part()
			rec.Part = &part
		}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		} else if o.Attachment.State.Kind == internal.StateFailed {
			rec.Error = o.Attachment.State.Reason
		}
		records = append(records, rec)
	}
	return records
}
