package database

import (
	"context"
	"fmt"

	"trekdesk/pricing"
)

// ─── Demand forecast ─────────────────────────────────────────────────────────

// Forecast implements pricing.ForecastProvider. An empty table yields an
// empty slice so callers fall back to the default sequence.
func (s *Store) Forecast(ctx context.Context) ([]pricing.ForecastDay, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, demand_percent FROM demand_forecast ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pricing.ForecastDay
	for rows.Next() {
		var d pricing.ForecastDay
		if err := rows.Scan(&d.Label, &d.DemandPercent); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ReplaceForecast swaps the stored week for days in one transaction.
func (s *Store) ReplaceForecast(ctx context.Context, days []pricing.ForecastDay) error {
	if err := pricing.ValidateForecast(days); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM demand_forecast`); err != nil {
		return fmt.Errorf("clear forecast: %w", err)
	}
	insert := s.rebind(`INSERT INTO demand_forecast (position, label, demand_percent) VALUES (?, ?, ?)`)
	for i, d := range days {
		if _, err := tx.ExecContext(ctx, insert, i, d.Label, d.DemandPercent); err != nil {
			return fmt.Errorf("insert forecast day %s: %w", d.Label, err)
		}
	}
	return tx.Commit()
}
