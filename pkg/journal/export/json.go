package export

import (
	"encoding/json"
	"io"

	"mercator-hq/wsrelay/pkg/journal"
)

// JSONExporter writes session records as a JSON array.
type JSONExporter struct {
	// Pretty enables indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes records to w. An empty slice is written as [].
func (e *JSONExporter) Export(records []*journal.SessionRecord, w io.Writer) error {
	if records == nil {
		records = []*journal.SessionRecord{}
	}

	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(records); err != nil {
		return journal.NewExportError("json", len(records), err)
	}
	return nil
}
