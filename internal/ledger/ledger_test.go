package ledger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"

	"github.com/settlement-form/backend/internal/models"
)

var fixedTime = time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)

func sampleRecord() *models.Settlement {
	rec := models.NewSettlement(models.Form{
		Email:        "a@b.com",
		Name:         "A",
		AdvSetlDate:  "2024-03-01",
		Area:         "North",
		PlaceProg:    "Town Hall",
		Project:      "Proj1",
		PrjCode:      "007",
		Coversheet:   "yes",
		DateProg:     "2024-02-28",
		ProgTitle:    "Workshop",
		Summary:      "Two day workshop",
		Food:         "40",
		Travel:       "60",
		Total:        "100",
		InWord:       "One hundred",
		Vendor:       "Acme",
		Individual:   "no",
		TotalAdvTake: "150",
		Receivable:   "50",
	})
	rec.ID = "rec-1"
	rec.Files = []string{"f1", "f2"}
	return rec
}

func TestRow_ColumnOrder(t *testing.T) {
	row := Row(sampleRecord(), fixedTime)

	require.Len(t, row, len(Header))
	assert.Equal(t, "2024-03-05T10:30:00.000Z", row[0])
	assert.Equal(t, "a@b.com", row[1])
	assert.Equal(t, "A", row[2])
	assert.Equal(t, "2024-03-01", row[3])
	assert.Equal(t, "Proj1", row[6])
	assert.Equal(t, "007", row[7])
	assert.Equal(t, "Two day workshop", row[11])
	assert.Equal(t, "40", row[12])
	assert.Equal(t, "100", row[20])
	assert.Equal(t, "One hundred", row[21])
	assert.Equal(t, "150", row[24])
	assert.Equal(t, "50", row[25])
}

func TestWorkbook_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "settlements.xlsx")
	wb := NewWorkbook(path, "Settlements")
	wb.now = func() time.Time { return fixedTime }
	ctx := context.Background()

	require.NoError(t, wb.Append(ctx, sampleRecord()))
	require.NoError(t, wb.Append(ctx, sampleRecord()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Settlements")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per append")

	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "a@b.com", rows[1][1])
	assert.Equal(t, "100", rows[1][20])
	assert.Equal(t, "007", rows[2][7], "non-numeric columns keep their text")

	typ, err := f.GetCellType("Settlements", "U2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "total is stored as a number")
}

func TestWorkbook_AppendToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	ctx := context.Background()

	require.NoError(t, NewWorkbook(path, "").Append(ctx, sampleRecord()))
	require.NoError(t, NewWorkbook(path, "").Append(ctx, sampleRecord()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestWorkbook_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewWorkbook(path, "").Append(ctx, sampleRecord())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSheets_Append(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody struct {
		Values [][]interface{} `json:"values"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	}))
	defer srv.Close()

	s, err := NewSheets(context.Background(), "", "sheet-1", "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedTime }

	require.NoError(t, s.Append(context.Background(), sampleRecord()))

	assert.True(t, strings.HasPrefix(gotPath, "/v4/spreadsheets/sheet-1/values/"), gotPath)
	assert.True(t, strings.HasSuffix(gotPath, ":append"), gotPath)
	assert.Contains(t, gotQuery, "valueInputOption=USER_ENTERED")
	require.Len(t, gotBody.Values, 1)
	assert.Len(t, gotBody.Values[0], len(Header))
	assert.Equal(t, "100", gotBody.Values[0][20])
}

func TestSheets_AppendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	s, err := NewSheets(context.Background(), "", "sheet-1", "Sheet1!A2",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	err = s.Append(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append ledger row")
}
