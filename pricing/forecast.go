package pricing

import (
	"context"
	"errors"
	"fmt"
	"log"
)

var ErrInvalidForecast = errors.New("invalid demand forecast")

// ForecastDays is the number of entries in a weekly forecast.
const ForecastDays = 7

type ForecastDay struct {
	Label         string `json:"label"`
	DemandPercent int    `json:"demand_percent"`
}

var defaultForecast = [ForecastDays]ForecastDay{
	{"Mon", 45},
	{"Tue", 30},
	{"Wed", 65},
	{"Thu", 50},
	{"Fri", 85},
	{"Sat", 95},
	{"Sun", 80},
}

// GetDemandForecast returns the illustrative Mon–Sun demand sequence.
// Each call gets its own slice.
func GetDemandForecast() []ForecastDay {
	out := make([]ForecastDay, ForecastDays)
	copy(out, defaultForecast[:])
	return out
}

// ForecastProvider supplies the weekly demand forecast shown next to a
// recommendation.
type ForecastProvider interface {
	Forecast(ctx context.Context) ([]ForecastDay, error)
}

// StaticForecast serves a fixed sequence. The zero value serves the
// default forecast.
type StaticForecast struct {
	Days []ForecastDay
}

func (s StaticForecast) Forecast(ctx context.Context) ([]ForecastDay, error) {
	if s.Days == nil {
		return GetDemandForecast(), nil
	}
	if err := ValidateForecast(s.Days); err != nil {
		return nil, err
	}
	out := make([]ForecastDay, len(s.Days))
	copy(out, s.Days)
	return out, nil
}

// ValidateForecast checks for exactly seven labelled days with demand in 0..100.
func ValidateForecast(days []ForecastDay) error {
	if len(days) != ForecastDays {
		return fmt.Errorf("%w: expected %d days, got %d", ErrInvalidForecast, ForecastDays, len(days))
	}
	for i, d := range days {
		if d.Label == "" {
			return fmt.Errorf("%w: day %d has no label", ErrInvalidForecast, i)
		}
		if d.DemandPercent < 0 || d.DemandPercent > 100 {
			return fmt.Errorf("%w: %s demand %d outside 0..100", ErrInvalidForecast, d.Label, d.DemandPercent)
		}
	}
	return nil
}

// ForecastOrDefault asks p for a forecast and falls back to the default
// sequence when p is nil, fails, or returns something malformed.
func ForecastOrDefault(ctx context.Context, p ForecastProvider) []ForecastDay {
	if p == nil {
		return GetDemandForecast()
	}
	days, err := p.Forecast(ctx)
	if err != nil {
		log.Printf("⚠️  Forecast provider failed: %v — using default forecast", err)
		return GetDemandForecast()
	}
	if len(days) == 0 {
		return GetDemandForecast()
	}
	if err := ValidateForecast(days); err != nil {
		log.Printf("⚠️  Forecast provider returned bad data: %v — using default forecast", err)
		return GetDemandForecast()
	}
	return days
}
