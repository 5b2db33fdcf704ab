// Package relay delivers parsed invoices to the downstream backend API. It is
// a thin JSON client: the backend expects a single-element array of pending
// invoices with placeholder identifiers that it assigns on ingest.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice"
)

// placeholderID marks fields the backend assigns; the relay never invents
// real identifiers.
const placeholderID = int64(-1)

// Client posts pending invoices to the backend upload endpoint.
type Client struct {
	uploadURL string
	http      *http.Client
	logger    *slog.Logger
}

// New builds a relay client. timeout bounds each upload request.
func New(uploadURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		uploadURL: uploadURL,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// pendingItem is the upload wire shape of one line item.
type pendingItem struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	MaterialID  int64           `json:"materialId"`
}

// pendingInvoice is the upload wire shape of one invoice.
type pendingInvoice struct {
	ID           int64              `json:"id"`
	WorksiteID   int64              `json:"worksiteId"`
	Date         *invoice.LocalTime `json:"date"`
	WorksiteName string             `json:"worksiteName"`
	Total        *decimal.Decimal   `json:"total"`
	NetTotal     *decimal.Decimal   `json:"netTotal"`
	Items        []pendingItem      `json:"items"`
	TotalMatch   bool               `json:"totalMatch"`
	PDFURL       string             `json:"pdfUrl"`
	Confirmed    bool               `json:"confirmed"`
	ParsedAt     string             `json:"parsedAt"`
}

// Send uploads one invoice. pdfURL is the original source URL, not a local
// path — the backend links back to the vendor's copy.
func (c *Client) Send(ctx context.Context, inv *invoice.Invoice, pdfURL string) error {
	items := make([]pendingItem, len(inv.Items))
	for i, item := range inv.Items {
		materialID := placeholderID
		if item.MaterialID != nil {
			materialID = *item.MaterialID
		}
		items[i] = pendingItem{
			ID:          placeholderID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
			MaterialID:  materialID,
		}
	}

	payload := []pendingInvoice{{
		ID:           placeholderID,
		WorksiteID:   placeholderID,
		Date:         inv.Date,
		WorksiteName: inv.WorksiteName,
		Total:        inv.Total,
		NetTotal:     inv.NetTotal,
		Items:        items,
		TotalMatch:   inv.TotalMatch,
		PDFURL:       pdfURL,
		Confirmed:    inv.Confirmed,
		ParsedAt:     inv.ParsedAt.UTC().Format(time.RFC3339),
	}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding invoice payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("uploading invoice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend rejected invoice: status %d: %s", resp.StatusCode, snippet)
	}

	c.logger.Info("invoice relayed",
		slog.String("worksite", inv.WorksiteName),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}
