package handlers

import (
	"net/http"
	"strconv"

	"trekdesk/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateDeparture(c *gin.Context) {
	var req services.NewDeparture
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	d, err := h.Pricing.CreateDeparture(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDeparture(c *gin.Context) {
	d, err := h.Pricing.GetDeparture(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type BookRequest struct {
	Seats int `json:"seats" binding:"required"`
}

func (h *Handler) BookSeats(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	d, err := h.Pricing.BookSeats(c.Request.Context(), c.Param("id"), req.Seats)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type PriceResponse struct {
	*services.Quote
	Note string `json:"note"`
}

// Price returns the current recommendation for a departure with an
// operator note.
func (h *Handler) Price(c *gin.Context) {
	ctx := c.Request.Context()
	q, err := h.Pricing.Recommend(ctx, c.Param("id"), h.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PriceResponse{
		Quote: q,
		Note:  h.Advisor.Note(ctx, q),
	})
}

func (h *Handler) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit (must be 1-100)"})
		return
	}

	snaps, err := h.Pricing.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snaps})
}
