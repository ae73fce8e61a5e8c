// Package ledger appends one summary row per settlement to a shared spreadsheet.
package ledger

import (
	"context"
	"time"

	"github.com/settlement-form/backend/internal/models"
)

// Appender adds a row for a settlement after any existing rows.
// Appends are not deduplicated.
type Appender interface {
	Append(ctx context.Context, rec *models.Settlement) error
}

// Header names the ledger columns in row order.
var Header = []string{
	"Timestamp", "Email", "Name", "Advance Settlement Date", "Area",
	"Program Place", "Project", "Project Code", "Cover Sheet", "Program Date",
	"Program Title", "Summary", "Food", "Travel", "Stationery",
	"Printing", "Accommodation", "Communication", "Resource", "Other",
	"Total", "Total In Words", "Vendor", "Individual", "Total Advance Taken",
	"Receivable",
}

// numericColumns are written as numbers when the value parses as one.
var numericColumns = map[int]bool{
	12: true, 13: true, 14: true, 15: true, 16: true,
	17: true, 18: true, 19: true, 20: true, 24: true, 25: true,
}

// TimestampLayout is the UTC millisecond ISO-8601 form used in the first column.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Row maps a settlement to the fixed ledger column order, stamped with at.
func Row(rec *models.Settlement, at time.Time) []string {
	fields := rec.Form.Fields()
	row := make([]string, 0, len(fields)+1)
	row = append(row, at.UTC().Format(TimestampLayout))
	for _, p := range fields {
		row = append(row, *p)
	}
	return row
}
