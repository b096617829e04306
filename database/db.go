package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"trekdesk/config"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("record not found")

// ─── Models ──────────────────────────────────────────────────────────────────

type Departure struct {
	ID          string    `json:"id"`
	PackageName string    `json:"package_name"`
	BasePrice   float64   `json:"base_price"`
	TotalSeats  int       `json:"total_seats"`
	BookedSeats int       `json:"booked_seats"`
	TravelDate  string    `json:"travel_date"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`
}

type PriceSnapshot struct {
	ID              string    `json:"id"`
	DepartureID     string    `json:"departure_id"`
	BasePrice       float64   `json:"base_price"`
	NewPrice        float64   `json:"new_price"`
	Action          string    `json:"action"`
	Confidence      int       `json:"confidence"`
	Reason          string    `json:"reason"`
	Utilization     float64   `json:"utilization"`
	DaysUntilTravel int       `json:"days_until_travel"`
	CreatedAt       time.Time `json:"created_at"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured driver, waits for it to come up and runs
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	var dsn string
	switch cfg.Database.Driver {
	case "postgres":
		dsn = cfg.PostgresDSN()
	case "sqlite":
		dsn = cfg.Database.SQLitePath
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := sql.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Database.Driver == "postgres" {
		// Pool settings suitable for a small hosted PostgreSQL
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	}

	// Hosted DBs may take a moment to be ready
	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		log.Printf("⏳ Waiting for database... attempt %d/10: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database after retries: %w", err)
	}

	s := &Store{db: db, driver: cfg.Database.Driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("✅ Database (%s) connected and migrated", s.driver)
	return s, nil
}

// OpenSQLite opens an SQLite store at path (":memory:" works) without the
// retry loop. Used for local runs and tests.
func OpenSQLite(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, driver: "sqlite"}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	money, ts := "NUMERIC(12,2)", "TIMESTAMPTZ DEFAULT NOW()"
	if s.driver == "sqlite" {
		money, ts = "REAL", "DATETIME DEFAULT CURRENT_TIMESTAMP"
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS departures (
			id            TEXT PRIMARY KEY,
			package_name  TEXT NOT NULL,
			base_price    ` + money + ` NOT NULL,
			total_seats   INTEGER NOT NULL,
			booked_seats  INTEGER NOT NULL DEFAULT 0,
			travel_date   TEXT NOT NULL,
			created_at    ` + ts + `
		)`,

		`CREATE TABLE IF NOT EXISTS price_snapshots (
			id                TEXT PRIMARY KEY,
			departure_id      TEXT NOT NULL REFERENCES departures(id),
			base_price        ` + money + ` NOT NULL,
			new_price         ` + money + ` NOT NULL,
			action            TEXT NOT NULL,
			confidence        INTEGER NOT NULL,
			reason            TEXT NOT NULL,
			utilization       REAL NOT NULL,
			days_until_travel INTEGER NOT NULL,
			created_at        ` + ts + `
		)`,

		`CREATE TABLE IF NOT EXISTS demand_forecast (
			position       INTEGER PRIMARY KEY,
			label          TEXT NOT NULL,
			demand_percent INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_departures_travel_date
			ON departures(travel_date)`,

		`CREATE INDEX IF NOT EXISTS idx_price_snapshots_departure_id
			ON price_snapshots(departure_id, created_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
