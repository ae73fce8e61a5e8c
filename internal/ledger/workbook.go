package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/settlement-form/backend/internal/models"
)

var _ Appender = (*Workbook)(nil)

// Workbook appends rows to a local .xlsx file, creating it with a header row
// on first use. Appends within one process are serialized.
type Workbook struct {
	path  string
	sheet string
	now   func() time.Time

	mu sync.Mutex
}

// NewWorkbook returns an appender for the workbook at path.
func NewWorkbook(path, sheet string) *Workbook {
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &Workbook{path: path, sheet: sheet, now: time.Now}
}

// Append writes the settlement row after the last non-empty row.
func (w *Workbook) Append(ctx context.Context, rec *models.Settlement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(w.sheet)
	if err != nil {
		return fmt.Errorf("read ledger rows: %w", err)
	}
	if len(rows) == 0 {
		if err := f.SetSheetRow(w.sheet, "A1", &Header); err != nil {
			return fmt.Errorf("write ledger header: %w", err)
		}
		rows = append(rows, Header)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	values := cells(Row(rec, w.now()))
	if err := f.SetSheetRow(w.sheet, cell, &values); err != nil {
		return fmt.Errorf("write ledger row: %w", err)
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func (w *Workbook) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
		f = excelize.NewFile()
		if w.sheet != "Sheet1" {
			if err := f.SetSheetName("Sheet1", w.sheet); err != nil {
				f.Close()
				return nil, err
			}
		}
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	if idx, _ := f.GetSheetIndex(w.sheet); idx == -1 {
		if _, err := f.NewSheet(w.sheet); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func cells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
		if !numericColumns[i] {
			continue
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			out[i] = n
		}
	}
	return out
}
