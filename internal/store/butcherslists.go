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

// FetchButchersListByDate returns the most recent snapshot for date, or nil
// when the date has never been fetched.
func (s *Store) FetchButchersListByDate(ctx context.Context, date string) (*models.Snapshot, error) {
	const op = "FetchButchersListByDate"

	row := s.pool.QueryRow(ctx, `
		SELECT id, date, data, updated_at
		FROM butchers_lists
		WHERE date = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`, date)

	var snap models.Snapshot
	if err := row.Scan(&snap.ID, &snap.Date, &snap.Data, &snap.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &snap, nil
}

// FetchAllButchersListsByDate returns every snapshot for date in ascending
// UpdatedAt order; index 0 is the day's first fetch.
func (s *Store) FetchAllButchersListsByDate(ctx context.Context, date string) ([]models.Snapshot, error) {
	const op = "FetchAllButchersListsByDate"

	rows, err := s.pool.Query(ctx, `
		SELECT id, date, data, updated_at
		FROM butchers_lists
		WHERE date = $1
		ORDER BY updated_at ASC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var snapshots []models.Snapshot
	for rows.Next() {
		var snap models.Snapshot
		if err := rows.Scan(&snap.ID, &snap.Date, &snap.Data, &snap.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return snapshots, nil
}

// InsertButchersList persists a new snapshot row for date and returns its ID.
// data is any JSON-serializable customer list.
func (s *Store) InsertButchersList(ctx context.Context, date string, data any, updatedAt time.Time) (string, error) {
	const op = "InsertButchersList"

	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%s: encoding data: %w", op, err)
	}

	id := uuid.NewString()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO butchers_lists (id, date, data, updated_at)
		VALUES ($1, $2, $3, $4)
	`, id, date, encoded, updatedAt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("date", date).Str("id", id).Msg("Butchers list snapshot inserted")
	return id, nil
}

// UpdateButchersList overwrites the data of an existing snapshot, keeping its
// place in the day's history by preserving updated_at unless a non-zero
// refreshedAt is given.
func (s *Store) UpdateButchersList(ctx context.Context, id string, data any, refreshedAt time.Time) error {
	const op = "UpdateButchersList"

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%s: encoding data: %w", op, err)
	}

	var tag string
	if refreshedAt.IsZero() {
		_, err = s.pool.Exec(ctx, `UPDATE butchers_lists SET data = $2 WHERE id = $1`, id, encoded)
		tag = "data"
	} else {
		_, err = s.pool.Exec(ctx, `UPDATE butchers_lists SET data = $2, updated_at = $3 WHERE id = $1`, id, encoded, refreshedAt)
		tag = "data+timestamp"
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("id", id).Str("updated", tag).Msg("Butchers list snapshot updated")
	return nil
}
