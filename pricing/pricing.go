package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned when a quote is requested for a departure
// that cannot be priced (no capacity, impossible seat count, free trip).
var ErrInvalidInput = errors.New("invalid pricing input")

type Action string

const (
	ActionIncrease Action = "Increase"
	ActionDecrease Action = "Decrease"
	ActionKeep     Action = "Keep"
)

// ─── Rule constants ───────────────────────────────────────────────────────────

const (
	highUtilization       = 0.8
	lowUtilization        = 0.3
	healthyUtilizationMin = 0.4
	healthyUtilizationMax = 0.7
	lastMinuteDays        = 7

	scarcityMultiplier = 1.15
	discountMultiplier = 0.90

	roundingStep = 100.0

	// MaxBasePrice keeps both the base and the scarcity price within a
	// NUMERIC(12,2) column.
	MaxBasePrice = 8_000_000_000.0
)

const (
	ReasonScarcity = "High seat utilization (>80%). Scarcity pricing applied."
	ReasonDiscount = "Low bookings for upcoming trip. Discount to fill seats."
	ReasonHealthy  = "Healthy booking rate. Maintain current pricing."
	ReasonNormal   = "Normal demand patterns."
)

// ─── Types ────────────────────────────────────────────────────────────────────

type Input struct {
	BasePrice       float64 `json:"base_price"`
	TotalSeats      int     `json:"total_seats"`
	BookedSeats     int     `json:"booked_seats"`
	DaysUntilTravel int     `json:"days_until_travel"`
}

type Recommendation struct {
	NewPrice   float64 `json:"new_price"`
	Action     Action  `json:"action"`
	Confidence int     `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Utilization is booked/total. Callers must have validated TotalSeats > 0.
func (in Input) Utilization() float64 {
	return float64(in.BookedSeats) / float64(in.TotalSeats)
}

// Validate reports the first violated precondition, wrapped in ErrInvalidInput.
func (in Input) Validate() error {
	if in.TotalSeats <= 0 {
		return fmt.Errorf("%w: total seats must be positive, got %d", ErrInvalidInput, in.TotalSeats)
	}
	if in.BookedSeats < 0 || in.BookedSeats > in.TotalSeats {
		return fmt.Errorf("%w: booked seats %d outside [0, %d]", ErrInvalidInput, in.BookedSeats, in.TotalSeats)
	}
	if math.IsNaN(in.BasePrice) || math.IsInf(in.BasePrice, 0) || in.BasePrice <= 0 {
		return fmt.Errorf("%w: base price must be positive, got %v", ErrInvalidInput, in.BasePrice)
	}
	if in.BasePrice > MaxBasePrice {
		return fmt.Errorf("%w: base price %v exceeds %.0f", ErrInvalidInput, in.BasePrice, MaxBasePrice)
	}
	return nil
}

// ─── Heuristic ────────────────────────────────────────────────────────────────

// PredictPrice maps a departure's price and seat snapshot to a recommended
// price. Rules are checked top to bottom and the first match wins; the
// result is always rounded to the nearest 100, including the Keep branches.
func PredictPrice(in Input) (Recommendation, error) {
	if err := in.Validate(); err != nil {
		return Recommendation{}, err
	}

	days := in.DaysUntilTravel
	if days < 0 {
		days = 0
	}
	u := in.Utilization()

	rec := Recommendation{
		NewPrice:   in.BasePrice,
		Action:     ActionKeep,
		Confidence: 0,
		Reason:     ReasonNormal,
	}

	switch {
	case u > highUtilization:
		rec.NewPrice = in.BasePrice * scarcityMultiplier
		rec.Action, rec.Confidence, rec.Reason = ActionIncrease, 92, ReasonScarcity
	case u < lowUtilization && days < lastMinuteDays:
		rec.NewPrice = in.BasePrice * discountMultiplier
		rec.Action, rec.Confidence, rec.Reason = ActionDecrease, 85, ReasonDiscount
	case u >= healthyUtilizationMin && u <= healthyUtilizationMax:
		rec.Confidence, rec.Reason = 65, ReasonHealthy
	}

	rec.NewPrice = roundToStep(rec.NewPrice)
	return rec, nil
}

func roundToStep(price float64) float64 {
	return math.Round(price/roundingStep) * roundingStep
}
