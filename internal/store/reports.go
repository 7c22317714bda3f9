package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"butcherdesk/pkg/models"
)

// Report membership columns that UpdateReportMembers may touch. Anything
// else is rejected before reaching SQL.
var reportMemberColumns = map[string]struct{}{
	"products":  {},
	"customers": {},
}

// FetchReportByDate returns the report row for date, or nil when none exists.
func (s *Store) FetchReportByDate(ctx context.Context, date string) (*models.Report, error) {
	const op = "FetchReportByDate"

	row := s.pool.QueryRow(ctx, `
		SELECT id, name, date, COALESCE(products, ''), COALESCE(customers, ''), updated_at
		FROM reports
		WHERE date = $1
		LIMIT 1
	`, date)

	var r models.Report
	if err := row.Scan(&r.ID, &r.Name, &r.Date, &r.Products, &r.Customers, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &r, nil
}

// InsertReport creates a report row and returns its ID.
func (s *Store) InsertReport(ctx context.Context, name, date string) (string, error) {
	const op = "InsertReport"

	id := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reports (id, name, date, updated_at)
		VALUES ($1, $2, $3, $4)
	`, id, name, date, time.Now())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdateReportMembers replaces a report's membership column (products or
// customers) with the JSON encoding of ids.
func (s *Store) UpdateReportMembers(ctx context.Context, id, column string, ids []string) error {
	const op = "UpdateReportMembers"

	if _, ok := reportMemberColumns[column]; !ok {
		return fmt.Errorf("%s: column %q is not a report membership column", op, column)
	}

	encoded, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("%s: encoding ids: %w", op, err)
	}

	query := fmt.Sprintf(`UPDATE reports SET %s = $2, updated_at = $3 WHERE id = $1`, column)
	tag, err := s.pool.Exec(ctx, query, id, string(encoded), time.Now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: report %s not found", op, id)
	}

	s.log.Info().Str("report_id", id).Str("column", column).Int("members", len(ids)).Msg("Report membership updated")
	return nil
}
