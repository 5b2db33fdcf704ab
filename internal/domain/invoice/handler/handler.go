// Package handler exposes the receipt pipeline over HTTP. Two endpoints
// mirror the two pipeline modes: plain processing and processing with the
// quantity-repair pass.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice"
	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice/service"
	"github.com/OsaidB/Invoices-Convertor/internal/export"
)

// Handler carries the pipeline service into gin routes.
type Handler struct {
	svc    *service.Service
	export *export.Service
	logger *slog.Logger
}

func New(svc *service.Service, exp *export.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, export: exp, logger: logger}
}

// Register mounts the routes.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/process-invoice", h.processInvoice)
	r.POST("/fix-mismatched", h.fixMismatched)
	r.GET("/export.xlsx", h.exportXLSX)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (h *Handler) exportXLSX(c *gin.Context) {
	data, err := h.export.ExportXLSX()
	if err != nil {
		h.logger.Error("export failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// invoiceRequest names the PDF to fetch.
type invoiceRequest struct {
	URL string `json:"url" binding:"required"`
}

// invoiceResponse is the record plus its diagnostics and provenance.
type invoiceResponse struct {
	*invoice.Invoice
	PDFURL     string             `json:"pdfUrl"`
	Repaired   bool               `json:"repaired"`
	Mismatches []invoice.Mismatch `json:"mismatches,omitempty"`
}

func (h *Handler) processInvoice(c *gin.Context) {
	h.handle(c, false)
}

func (h *Handler) fixMismatched(c *gin.Context) {
	h.handle(c, true)
}

func (h *Handler) handle(c *gin.Context, repair bool) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	res, err := h.svc.ProcessURL(c.Request.Context(), req.URL, repair)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDownload):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case res != nil:
			// Parsed and archived, but a later stage (relay) failed: hand
			// back the record with the failure.
			h.logger.Error("post-parse stage failed", slog.String("url", req.URL), slog.Any("error", err))
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   err.Error(),
				"invoice": res.Invoice,
			})
		default:
			h.logger.Error("processing failed", slog.String("url", req.URL), slog.Any("error", err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, invoiceResponse{
		Invoice:    res.Invoice,
		PDFURL:     req.URL,
		Repaired:   res.Repaired,
		Mismatches: res.Mismatches,
	})
}
