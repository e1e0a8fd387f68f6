package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"mercator-hq/wsrelay/pkg/journal"
)

// CSVExporter writes session records as CSV.
type CSVExporter struct {
	// IncludeHeader writes a header row first.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Header returns the CSV column names.
func Header() []string {
	return []string{
		"id", "user", "target", "remote_addr", "mode",
		"started_at", "ended_at", "duration_ms",
		"outcome", "error",
		"frames_client_to_target", "frames_target_to_client",
		"bytes_client_to_target", "bytes_target_to_client",
	}
}

// Export writes records to w.
func (e *CSVExporter) Export(records []*journal.SessionRecord, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header()); err != nil {
			return journal.NewExportError("csv", len(records), err)
		}
	}
	for _, record := range records {
		if err := writer.Write(recordToRow(record)); err != nil {
			return journal.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return journal.NewExportError("csv", len(records), err)
	}
	return nil
}

func recordToRow(record *journal.SessionRecord) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339)
	}
	itoa := func(n int64) string { return strconv.FormatInt(n, 10) }

	return []string{
		record.ID,
		record.User,
		record.Target,
		record.RemoteAddr,
		record.Mode,
		formatTime(record.StartedAt),
		formatTime(record.EndedAt),
		itoa(record.Duration().Milliseconds()),
		string(record.Outcome),
		record.Error,
		itoa(record.FramesClientToTarget),
		itoa(record.FramesTargetToClient),
		itoa(record.BytesClientToTarget),
		itoa(record.BytesTargetToClient),
	}
}
