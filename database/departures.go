package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ─── Departures ──────────────────────────────────────────────────────────────

const departureColumns = `id, package_name, base_price, total_seats, booked_seats, travel_date, created_at`

func (s *Store) SaveDeparture(ctx context.Context, d *Departure) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO departures (id, package_name, base_price, total_seats, booked_seats, travel_date)
		VALUES (?, ?, ?, ?, ?, ?)`),
		d.ID, d.PackageName, d.BasePrice, d.TotalSeats, d.BookedSeats, d.TravelDate)
	return err
}

func (s *Store) GetDeparture(ctx context.Context, id string) (*Departure, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+departureColumns+`
		FROM departures WHERE id = ?`), id)
	d, err := scanDeparture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListUpcomingDepartures returns departures travelling on or after the UTC
// date of from, soonest first.
func (s *Store) ListUpcomingDepartures(ctx context.Context, from time.Time) ([]Departure, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+departureColumns+`
		FROM departures WHERE travel_date >= ?
		ORDER BY travel_date, id`), from.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Departure
	for rows.Next() {
		d, err := scanDeparture(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// AddBookedSeats adds seats to a departure's booked count, refusing to go
// past capacity. It returns the updated departure; ok is false when the
// seats did not fit.
func (s *Store) AddBookedSeats(ctx context.Context, id string, seats int) (d *Departure, ok bool, err error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE departures SET booked_seats = booked_seats + ?
		WHERE id = ? AND booked_seats + ? <= total_seats`),
		seats, id, seats)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	d, err = s.GetDeparture(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return d, n == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeparture(r rowScanner) (*Departure, error) {
	d := &Departure{}
	var created dbTime
	if err := r.Scan(&d.ID, &d.PackageName, &d.BasePrice, &d.TotalSeats,
		&d.BookedSeats, &d.TravelDate, &created); err != nil {
		return nil, err
	}
	d.CreatedAt = created.Time
	return d, nil
}

// dbTime scans timestamps from both drivers: pq yields time.Time, SQLite
// may hand back text.
type dbTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
