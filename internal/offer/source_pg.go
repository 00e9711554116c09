package offer

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PGSource reads the offer snapshot straight from the offer-storage
// collaborator's table. Strictly read-only: offer lifecycle stays with the
// collaborator.
type PGSource struct {
	Pool *pgxpool.Pool
}

const snapshotQuery = `
SELECT id::text, scope, COALESCE(target_id::text, ''), kind, value::text, start_date, end_date, active
FROM offers
ORDER BY id`

// Snapshot loads every offer row. Filtering by validity happens in the
// resolver against an injected instant, never in SQL against the database
// clock.
func (s PGSource) Snapshot(ctx context.Context) ([]Offer, error) {
	rows, err := s.Pool.Query(ctx, snapshotQuery)
	if err != nil {
		return nil, fmt.Errorf("query offers: %w", err)
	}
	defer rows.Close()

	var offers []Offer
	for rows.Next() {
		var (
			o     Offer
			value string
			start time.Time
			end   time.Time
		)
		if err := rows.Scan(&o.ID, &o.Scope, &o.TargetID, &o.Kind, &value, &start, &end, &o.Active); err != nil {
			return nil, fmt.Errorf("scan offer row: %w", err)
		}
		o.Value, err = decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("offer %s: parse value %q: %w", o.ID, value, err)
		}
		o.StartDate = start
		o.EndDate = end
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offers: %w", err)
	}
	return offers, nil
}
