package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"trekdesk/database"
	"trekdesk/pricing"
	"trekdesk/services"

	"github.com/robfig/cron/v3"
)

// DepartureLister lists departures still ahead of a date.
type DepartureLister interface {
	ListUpcomingDepartures(ctx context.Context, from time.Time) ([]database.Departure, error)
}

// Recommender prices a single stored departure.
type Recommender interface {
	Recommend(ctx context.Context, id string, now time.Time) (*services.Quote, error)
}

// Scheduler reprices upcoming departures on a cron schedule and records a
// price snapshot for each one.
type Scheduler struct {
	Cron        *cron.Cron
	Departures  DepartureLister
	Recommender Recommender
	Ctx         context.Context
	now         func() time.Time
}

func NewScheduler(ctx context.Context, deps DepartureLister, rec Recommender) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Departures:  deps,
		Recommender: rec,
		Ctx:         ctx,
		now:         time.Now,
	}
}

// Register adds the repricing job under spec (six-field, seconds first).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.repriceTask); err != nil {
		return fmt.Errorf("register reprice task: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("✅ Repricing scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("Repricing scheduler stopped")
}

// RunOnce reprices every departure travelling today or later. Failures on
// one departure are logged and do not stop the rest. It returns how many
// departures were priced.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	now := s.now()
	deps, err := s.Departures.ListUpcomingDepartures(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list upcoming departures: %w", err)
	}

	priced := 0
	for _, d := range deps {
		if err := ctx.Err(); err != nil {
			return priced, err
		}
		q, err := s.Recommender.Recommend(ctx, d.ID, now)
		if err != nil {
			log.Printf("❌ Reprice %s (%s) failed: %v", d.ID, d.PackageName, err)
			continue
		}
		priced++
		if q.Recommendation.Action != pricing.ActionKeep {
			log.Printf("💡 %s on %s: %s to %.0f (%d%%)", d.PackageName, d.TravelDate,
				q.Recommendation.Action, q.Recommendation.NewPrice, q.Recommendation.Confidence)
		}
	}
	return priced, nil
}

func (s *Scheduler) repriceTask() {
	log.Println("⏳ Running repricing task")
	n, err := s.RunOnce(s.Ctx)
	if err != nil {
		log.Printf("❌ Repricing task: %v", err)
		return
	}
	log.Printf("✅ Repriced %d departures", n)
}
