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

// InsertStockTake records a completed shop-floor count for one stock
// category and returns its ID. counts is the JSON-serializable map of
// counted quantities keyed by product ID.
func (s *Store) InsertStockTake(ctx context.Context, category string, counts any, takenAt time.Time) (string, error) {
	const op = "InsertStockTake"

	encoded, err := json.Marshal(counts)
	if err != nil {
		return "", fmt.Errorf("%s: encoding take: %w", op, err)
	}

	id := uuid.NewString()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO stock_takes (id, date, take, product_category)
		VALUES ($1, $2, $3, $4)
	`, id, takenAt, encoded, category)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("category", category).Str("id", id).Msg("Stock take recorded")
	return id, nil
}

// FetchMostRecentStockTake returns the latest recorded count for category,
// or nil when the category has never been counted.
func (s *Store) FetchMostRecentStockTake(ctx context.Context, category string) (*models.StockTake, error) {
	const op = "FetchMostRecentStockTake"

	row := s.pool.QueryRow(ctx, `
		SELECT id, date, take, product_category
		FROM stock_takes
		WHERE product_category = $1
		ORDER BY date DESC
		LIMIT 1
	`, category)

	var take models.StockTake
	if err := row.Scan(&take.ID, &take.Date, &take.Take, &take.ProductCategory); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &take, nil
}

// FetchStockTakesBetween returns every recorded count in [start, end],
// optionally restricted to one category (empty category means all).
func (s *Store) FetchStockTakesBetween(ctx context.Context, category string, start, end time.Time) ([]models.StockTake, error) {
	const op = "FetchStockTakesBetween"

	var rows pgx.Rows
	var err error
	if category == "" {
		rows, err = s.pool.Query(ctx, `
			SELECT id, date, take, product_category
			FROM stock_takes
			WHERE date BETWEEN $1 AND $2
			ORDER BY date ASC
		`, start, end)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, date, take, product_category
			FROM stock_takes
			WHERE product_category = $1 AND date BETWEEN $2 AND $3
			ORDER BY date ASC
		`, category, start, end)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var takes []models.StockTake
	for rows.Next() {
		var take models.StockTake
		if err := rows.Scan(&take.ID, &take.Date, &take.Take, &take.ProductCategory); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		takes = append(takes, take)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return takes, nil
}
