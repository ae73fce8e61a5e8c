package ledger

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/settlement-form/backend/internal/models"
)

var _ Appender = (*Sheets)(nil)

// Sheets appends rows to a Google spreadsheet below its header row.
type Sheets struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	rng           string
	now           func() time.Time
}

// NewSheets creates a Sheets appender. credentialsFile may be empty when opts
// already carry authentication.
func NewSheets(ctx context.Context, credentialsFile, spreadsheetID, rng string, opts ...option.ClientOption) (*Sheets, error) {
	base := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		base = append(base, option.WithCredentialsFile(credentialsFile))
	}

	srv, err := sheets.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	if rng == "" {
		rng = "Sheet1!A2"
	}
	return &Sheets{
		values:        srv.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		rng:           rng,
		now:           time.Now,
	}, nil
}

// Append writes one row with USER_ENTERED parsing, so amounts land as numbers.
func (s *Sheets) Append(ctx context.Context, rec *models.Settlement) error {
	row := Row(rec, s.now())
	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}

	_, err := s.values.Append(s.spreadsheetID, s.rng, &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}
	return nil
}
