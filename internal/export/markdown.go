package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MarkdownExporter exports a summary table. Inline data is not included,
// only its size.
type MarkdownExporter struct{}

// Export exports records to Markdown format
func (e *MarkdownExporter) Export(records []PartRecord, w io.Writer) error {
	var b strings.Builder
	b.WriteString("# Attachments\n\n")
	b.WriteString("| File | Type | State | Reference |\n")
	b.WriteString("|------|------|-------|-----------|\n")

	for _, rec := range records {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			escapeCell(filepath.Base(rec.Path)), escapeCell(rec.Mime), rec.State, escapeCell(reference(rec)))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}

func reference(rec PartRecord) string {
	switch {
	case rec.Error != "":
		return "error: " + rec.Error
	case rec.Part == nil:
		return ""
	case rec.Part.FileData != nil:
		return rec.Part.FileData.FileURI
	case rec.Part.InlineData != nil:
		return fmt.Sprintf("inline %s, %d base64 chars", rec.Part.InlineData.MimeType, len(rec.Part.InlineData.Data))
	default:
		return ""
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
