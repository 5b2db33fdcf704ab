package export

import (
	"bytes"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice"
	"github.com/OsaidB/Invoices-Convertor/pkg/archive"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func record(matched bool, worksite string) *invoice.Invoice {
	date := invoice.LocalTime(time.Date(2024, 2, 1, 14, 30, 15, 0, time.UTC))
	total := decimal.RequireFromString("25.00")
	return &invoice.Invoice{
		Date:         &date,
		WorksiteName: worksite,
		Total:        &total,
		NetTotal:     &total,
		Items: []invoice.LineItem{{
			Description: "حبال قنب",
			Quantity:    decimal.RequireFromString("1"),
			UnitPrice:   total,
			TotalPrice:  total,
		}},
		TotalMatch: matched,
		ParsedAt:   time.Now(),
	}
}

func TestService_ExportXLSX(t *testing.T) {
	ar, err := archive.New(t.TempDir(), testLogger())
	require.NoError(t, err)

	_, err = ar.SaveRecord(record(true, "المخزن"))
	require.NoError(t, err)
	_, err = ar.SaveRecord(record(false, "other"))
	require.NoError(t, err)

	data, err := NewService(ar, testLogger()).ExportXLSX()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Invoices")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per record")

	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "Worksite", rows[0][1])

	worksites := []string{rows[1][1], rows[2][1]}
	assert.Contains(t, worksites, "المخزن")
	assert.Contains(t, worksites, "other")
}

func TestService_ExportXLSX_EmptyArchive(t *testing.T) {
	ar, err := archive.New(t.TempDir(), testLogger())
	require.NoError(t, err)

	data, err := NewService(ar, testLogger()).ExportXLSX()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Invoices")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
