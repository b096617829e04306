package handlers

import (
	"net/http"

	"trekdesk/pricing"

	"github.com/gin-gonic/gin"
)

type QuoteRequest struct {
	BasePrice       float64 `json:"base_price"`
	TotalSeats      int     `json:"total_seats"`
	BookedSeats     int     `json:"booked_seats"`
	DaysUntilTravel int     `json:"days_until_travel"`
}

// Quote prices an ad-hoc scenario, e.g. the homepage price widget.
func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	rec, err := h.Pricing.Quote(pricing.Input(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type ForecastResponse struct {
	Days []pricing.ForecastDay `json:"days"`
}

func (h *Handler) GetForecast(c *gin.Context) {
	c.JSON(http.StatusOK, ForecastResponse{Days: h.Pricing.Forecast(c.Request.Context())})
}

func (h *Handler) PutForecast(c *gin.Context) {
	var req ForecastResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if err := h.Pricing.ReplaceForecast(c.Request.Context(), req.Days); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ForecastResponse{Days: req.Days})
}
