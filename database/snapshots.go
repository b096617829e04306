package database

import (
	"context"
	"time"
)

// ─── Price snapshots ─────────────────────────────────────────────────────────

func (s *Store) SaveSnapshot(ctx context.Context, p *PriceSnapshot) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO price_snapshots (id, departure_id, base_price, new_price, action,
			confidence, reason, utilization, days_until_travel, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.DepartureID, p.BasePrice, p.NewPrice, p.Action,
		p.Confidence, p.Reason, p.Utilization, p.DaysUntilTravel, p.CreatedAt)
	return err
}

// ListSnapshots returns the most recent snapshots for a departure, newest first.
func (s *Store) ListSnapshots(ctx context.Context, departureID string, limit int) ([]PriceSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, departure_id, base_price, new_price, action, confidence, reason,
			utilization, days_until_travel, created_at
		FROM price_snapshots WHERE departure_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`), departureID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PriceSnapshot
	for rows.Next() {
		var p PriceSnapshot
		var created dbTime
		if err := rows.Scan(&p.ID, &p.DepartureID, &p.BasePrice, &p.NewPrice, &p.Action,
			&p.Confidence, &p.Reason, &p.Utilization, &p.DaysUntilTravel, &created); err != nil {
			return nil, err
		}
		p.CreatedAt = created.Time
		out = append(out, p)
	}
	return out, rows.Err()
}
