package relay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleInvoice() *invoice.Invoice {
	date := invoice.LocalTime(time.Date(2024, 2, 1, 14, 30, 15, 0, time.UTC))
	total := decimal.RequireFromString("25.00")
	materialID := int64(7)
	return &invoice.Invoice{
		Date:         &date,
		WorksiteName: "other",
		Total:        &total,
		NetTotal:     &total,
		Items: []invoice.LineItem{{
			Description: "حبال قنب",
			Quantity:    decimal.RequireFromString("1"),
			UnitPrice:   decimal.RequireFromString("25.00"),
			TotalPrice:  decimal.RequireFromString("25.00"),
			MaterialID:  &materialID,
		}, {
			Description: "سمنت",
			Quantity:    decimal.RequireFromString("2"),
			UnitPrice:   decimal.RequireFromString("10.00"),
			TotalPrice:  decimal.RequireFromString("20.00"),
		}},
		TotalMatch: true,
		ParsedAt:   time.Date(2024, 2, 1, 15, 0, 0, 0, time.UTC),
	}
}

func TestClient_Send(t *testing.T) {
	var got []map[string]any
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, testLogger())
	err := c.Send(context.Background(), sampleInvoice(), "http://vendor.example/report?id=9")
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	require.Len(t, got, 1, "payload is a single-element array")

	rec := got[0]
	assert.Equal(t, float64(-1), rec["id"])
	assert.Equal(t, float64(-1), rec["worksiteId"])
	assert.Equal(t, "other", rec["worksiteName"])
	assert.Equal(t, "2024-02-01T14:30:15", rec["date"])
	assert.Equal(t, "http://vendor.example/report?id=9", rec["pdfUrl"])
	assert.Equal(t, false, rec["confirmed"])
	assert.Equal(t, "2024-02-01T15:00:00Z", rec["parsedAt"])

	items, ok := rec["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)

	first := items[0].(map[string]any)
	assert.Equal(t, float64(-1), first["id"])
	assert.Equal(t, float64(7), first["materialId"], "known material id survives")
	assert.Equal(t, float64(25), first["unit_price"], "amounts travel as JSON numbers")

	second := items[1].(map[string]any)
	assert.Equal(t, float64(-1), second["materialId"], "unknown material gets placeholder")
}

func TestClient_Send_BackendRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate invoice", http.StatusConflict)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, testLogger())
	err := c.Send(context.Background(), sampleInvoice(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
	assert.Contains(t, err.Error(), "duplicate invoice")
}

func TestClient_Send_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, time.Second, testLogger())
	err := c.Send(context.Background(), sampleInvoice(), "")
	assert.Error(t, err)
}

func TestClient_Send_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL, 5*time.Second, testLogger())
	err := c.Send(ctx, sampleInvoice(), "")
	assert.Error(t, err)
}
