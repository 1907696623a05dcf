package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ExportCSV writes the record collection as CSV with a header row. Columns
// mirror the persisted schema so exports round-trip with external tooling.
func ExportCSV(w io.Writer, list []FileRecord) error {
	writer := csv.NewWriter(w)
	header := []string{"id", "name", "size", "path", "url", "fingerprint", "registered_at"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, record := range list {
		row := []string{
			record.ID,
			record.DisplayName,
			strconv.FormatInt(record.Size, 10),
			record.StoragePath,
			record.SourceLocation,
			record.Fingerprint,
			record.RegisteredAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
