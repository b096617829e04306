package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"trekdesk/cache"
	"trekdesk/database"
	"trekdesk/pricing"

	"github.com/google/uuid"
)

var (
	ErrSoldOut          = errors.New("not enough seats left")
	ErrInvalidBooking   = errors.New("seats must be positive")
	ErrInvalidDeparture = errors.New("invalid departure")
)

const dateLayout = "2006-01-02"

// DepartureStore is the persistence the pricing service needs.
type DepartureStore interface {
	SaveDeparture(ctx context.Context, d *database.Departure) error
	GetDeparture(ctx context.Context, id string) (*database.Departure, error)
	AddBookedSeats(ctx context.Context, id string, seats int) (*database.Departure, bool, error)
	SaveSnapshot(ctx context.Context, p *database.PriceSnapshot) error
	ListSnapshots(ctx context.Context, departureID string, limit int) ([]database.PriceSnapshot, error)
}

// ForecastStore is a forecast provider that can also be overwritten.
type ForecastStore interface {
	pricing.ForecastProvider
	ReplaceForecast(ctx context.Context, days []pricing.ForecastDay) error
}

// Quote is a recommendation for a stored departure together with the
// inputs it was computed from.
type Quote struct {
	Departure       database.Departure     `json:"departure"`
	Recommendation  pricing.Recommendation `json:"recommendation"`
	Utilization     float64                `json:"utilization"`
	DaysUntilTravel int                    `json:"days_until_travel"`
	Cached          bool                   `json:"cached"`
}

type PricingService struct {
	store    DepartureStore
	forecast ForecastStore
	cache    cache.Cache
	ttl      time.Duration
}

func NewPricingService(store DepartureStore, forecast ForecastStore, c cache.Cache, ttl time.Duration) *PricingService {
	if c == nil {
		c = cache.NewMemoryCache()
	}
	return &PricingService{store: store, forecast: forecast, cache: c, ttl: ttl}
}

// ─── Ad-hoc quotes ────────────────────────────────────────────────────────────

// Quote prices arbitrary inputs without touching storage.
func (s *PricingService) Quote(in pricing.Input) (pricing.Recommendation, error) {
	return pricing.PredictPrice(in)
}

// ─── Departures ───────────────────────────────────────────────────────────────

type NewDeparture struct {
	PackageName string  `json:"package_name" binding:"required"`
	BasePrice   float64 `json:"base_price" binding:"required"`
	TotalSeats  int     `json:"total_seats" binding:"required"`
	BookedSeats int     `json:"booked_seats"`
	TravelDate  string  `json:"travel_date" binding:"required"`
}

func (s *PricingService) CreateDeparture(ctx context.Context, nd NewDeparture) (*database.Departure, error) {
	name := strings.TrimSpace(nd.PackageName)
	if name == "" {
		return nil, fmt.Errorf("%w: package name is required", ErrInvalidDeparture)
	}
	if _, err := time.Parse(dateLayout, nd.TravelDate); err != nil {
		return nil, fmt.Errorf("%w: travel date must be YYYY-MM-DD", ErrInvalidDeparture)
	}
	in := pricing.Input{BasePrice: nd.BasePrice, TotalSeats: nd.TotalSeats, BookedSeats: nd.BookedSeats}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	d := &database.Departure{
		ID:          uuid.New().String(),
		PackageName: name,
		BasePrice:   nd.BasePrice,
		TotalSeats:  nd.TotalSeats,
		BookedSeats: nd.BookedSeats,
		TravelDate:  nd.TravelDate,
	}
	if err := s.store.SaveDeparture(ctx, d); err != nil {
		return nil, fmt.Errorf("save departure: %w", err)
	}
	log.Printf("✅ Departure %s created (%s on %s)", d.ID, d.PackageName, d.TravelDate)
	return d, nil
}

func (s *PricingService) GetDeparture(ctx context.Context, id string) (*database.Departure, error) {
	return s.store.GetDeparture(ctx, id)
}

// BookSeats reserves seats on a departure. Cached prices for the departure
// are dropped since its utilization changed.
func (s *PricingService) BookSeats(ctx context.Context, id string, seats int) (*database.Departure, error) {
	if seats <= 0 {
		return nil, ErrInvalidBooking
	}
	d, ok, err := s.store.AddBookedSeats(ctx, id, seats)
	if err != nil {
		return nil, err
	}
	if !ok {
		return d, fmt.Errorf("%w: %d of %d booked", ErrSoldOut, d.BookedSeats, d.TotalSeats)
	}

	if err := s.cache.DeletePrefix(ctx, cachePrefix(id)); err != nil {
		log.Printf("⚠️  Failed to invalidate cached prices for %s: %v", id, err)
	}
	return d, nil
}

// ─── Recommendations ─────────────────────────────────────────────────────────

// Recommend prices a stored departure as of now and records a snapshot.
func (s *PricingService) Recommend(ctx context.Context, id string, now time.Time) (*Quote, error) {
	d, err := s.store.GetDeparture(ctx, id)
	if err != nil {
		return nil, err
	}

	days, err := DaysUntil(d.TravelDate, now)
	if err != nil {
		return nil, err
	}

	key := cacheKey(d.ID, d.BookedSeats, days)
	if raw, ok := s.cache.Get(ctx, key); ok {
		var q Quote
		if err := json.Unmarshal([]byte(raw), &q); err == nil {
			q.Cached = true
			return &q, nil
		}
	}

	in := pricing.Input{
		BasePrice:       d.BasePrice,
		TotalSeats:      d.TotalSeats,
		BookedSeats:     d.BookedSeats,
		DaysUntilTravel: days,
	}
	rec, err := pricing.PredictPrice(in)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		Departure:       *d,
		Recommendation:  rec,
		Utilization:     in.Utilization(),
		DaysUntilTravel: days,
	}

	// Not critical if the audit trail fails
	snap := &database.PriceSnapshot{
		ID:              uuid.New().String(),
		DepartureID:     d.ID,
		BasePrice:       d.BasePrice,
		NewPrice:        rec.NewPrice,
		Action:          string(rec.Action),
		Confidence:      rec.Confidence,
		Reason:          rec.Reason,
		Utilization:     q.Utilization,
		DaysUntilTravel: days,
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		log.Printf("⚠️  Failed to save price snapshot for %s: %v", d.ID, err)
	}

	if raw, err := json.Marshal(q); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
			log.Printf("⚠️  Failed to cache price for %s: %v", d.ID, err)
		}
	}
	return q, nil
}

func (s *PricingService) History(ctx context.Context, id string, limit int) ([]database.PriceSnapshot, error) {
	if _, err := s.store.GetDeparture(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListSnapshots(ctx, id, limit)
}

// ─── Forecast ─────────────────────────────────────────────────────────────────

func (s *PricingService) Forecast(ctx context.Context) []pricing.ForecastDay {
	if s.forecast == nil {
		return pricing.GetDemandForecast()
	}
	return pricing.ForecastOrDefault(ctx, s.forecast)
}

func (s *PricingService) ReplaceForecast(ctx context.Context, days []pricing.ForecastDay) error {
	if s.forecast == nil {
		return errors.New("forecast storage not configured")
	}
	return s.forecast.ReplaceForecast(ctx, days)
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// DaysUntil counts whole calendar days (UTC) from now to travelDate.
// Past dates give negative values; the heuristic floors them to zero.
func DaysUntil(travelDate string, now time.Time) (int, error) {
	t, err := time.Parse(dateLayout, travelDate)
	if err != nil {
		return 0, fmt.Errorf("parse travel date %q: %w", travelDate, err)
	}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(today).Hours() / 24), nil
}

func cachePrefix(id string) string {
	return "price:" + id + ":"
}

func cacheKey(id string, booked, days int) string {
	return fmt.Sprintf("%s%d:%d", cachePrefix(id), booked, days)
}
