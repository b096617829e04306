package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"trekdesk/database"
	"trekdesk/pricing"
	"trekdesk/services"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Pricing *services.PricingService
	Advisor *services.Advisor
	DB      Pinger
	Now     func() time.Time
}

func NewHandler(svc *services.PricingService, advisor *services.Advisor, db Pinger) *Handler {
	return &Handler{
		Pricing: svc,
		Advisor: advisor,
		DB:      db,
		Now:     time.Now,
	}
}

// Register mounts every route under /api.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		api.POST("/pricing/quote", h.Quote)
		api.GET("/pricing/forecast", h.GetForecast)
		api.PUT("/pricing/forecast", h.PutForecast)

		api.POST("/departures", h.CreateDeparture)
		api.GET("/departures/:id", h.GetDeparture)
		api.POST("/departures/:id/book", h.BookSeats)
		api.GET("/departures/:id/price", h.Price)
		api.GET("/departures/:id/history", h.History)
		api.GET("/departures/:id/report", h.Report)
	}
}

// respondError maps service errors onto status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, pricing.ErrInvalidForecast),
		errors.Is(err, services.ErrInvalidBooking),
		errors.Is(err, services.ErrInvalidDeparture):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Departure not found"})
	case errors.Is(err, services.ErrSoldOut):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
