package handlers

import (
	"log"
	"net/http"

	"trekdesk/services"

	"github.com/gin-gonic/gin"
)

// Report renders the departure's pricing report as a PDF download.
func (h *Handler) Report(c *gin.Context) {
	ctx := c.Request.Context()
	now := h.Now()

	q, err := h.Pricing.Recommend(ctx, c.Param("id"), now)
	if err != nil {
		respondError(c, err)
		return
	}

	pdfBytes, err := services.GenerateReportPDF(services.ReportData{
		Quote:       *q,
		Forecast:    h.Pricing.Forecast(ctx),
		Note:        h.Advisor.Note(ctx, q),
		GeneratedAt: now.UTC(),
	})
	if err != nil {
		log.Printf("❌ PDF generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=pricing-report-"+q.Departure.ID+".pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func (h *Handler) Health(c *gin.Context) {
	dbStatus := "ok"
	if h.DB == nil {
		dbStatus = "not initialized"
	} else if err := h.DB.Ping(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "trekdesk API",
		"database": dbStatus,
	})
}
