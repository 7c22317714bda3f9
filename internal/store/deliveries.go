package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"butcherdesk/pkg/models"
)

const deliveryColumns = `id, date, created_at, COALESCE(created_by, ''), COALESCE(product, ''),
	quantity, COALESCE(supplier, ''), COALESCE(notes, ''),
	COALESCE(vehicle_temperature, ''), COALESCE(product_temperature, ''),
	COALESCE(driver_name, ''), COALESCE(license_plate, ''), COALESCE(batch_code, ''),
	COALESCE(origin, ''), COALESCE(kill_date, 'epoch'), COALESCE(use_by, 'epoch'),
	COALESCE(slaughter_number, ''), COALESCE(cut_number, ''),
	COALESCE(red_tractor, FALSE), COALESCE(rspca, FALSE), COALESCE(organic_assured, FALSE)`

// weekDays returns the dates (YYYY-MM-DD) of the Monday-started week
// containing date.
func weekDays(date time.Time) []string {
	offset := (int(date.Weekday()) + 6) % 7 // Monday = 0
	monday := date.AddDate(0, 0, -offset)

	days := make([]string, 7)
	for i := range days {
		days[i] = monday.AddDate(0, 0, i).Format("2006-01-02")
	}
	return days
}

// FetchDeliveriesByWeek returns every goods-in record logged in the
// Monday-started week containing date, ordered by date then creation time.
func (s *Store) FetchDeliveriesByWeek(ctx context.Context, date time.Time) ([]models.Delivery, error) {
	const op = "FetchDeliveriesByWeek"

	rows, err := s.pool.Query(ctx, `
		SELECT `+deliveryColumns+`
		FROM deliveries
		WHERE date = ANY($1)
		ORDER BY date ASC, created_at ASC
	`, weekDays(date))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var deliveries []models.Delivery
	for rows.Next() {
		var d models.Delivery
		if err := rows.Scan(&d.ID, &d.Date, &d.CreatedAt, &d.CreatedBy, &d.ProductID,
			&d.Quantity, &d.Supplier, &d.Notes,
			&d.VehicleTemperature, &d.ProductTemperature,
			&d.DriverName, &d.LicensePlate, &d.BatchCode,
			&d.Origin, &d.KillDate, &d.UseBy,
			&d.SlaughterNumber, &d.CutNumber,
			&d.RedTractor, &d.RSPCA, &d.OrganicAssured); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return deliveries, nil
}

// InsertDelivery logs a goods-in record and returns its ID.
func (s *Store) InsertDelivery(ctx context.Context, d models.Delivery) (string, error) {
	const op = "InsertDelivery"

	id := uuid.NewString()
	var killDate, useBy any
	if !d.KillDate.IsZero() {
		killDate = d.KillDate
	}
	if !d.UseBy.IsZero() {
		useBy = d.UseBy
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO deliveries (id, date, created_at, created_by, product, quantity,
		                        supplier, notes, vehicle_temperature, product_temperature,
		                        driver_name, license_plate, batch_code, origin,
		                        kill_date, use_by, slaughter_number, cut_number,
		                        red_tractor, rspca, organic_assured)
		VALUES ($1, $2, now(), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20)
	`, id, d.Date, d.CreatedBy, d.ProductID, d.Quantity,
		d.Supplier, d.Notes, d.VehicleTemperature, d.ProductTemperature,
		d.DriverName, d.LicensePlate, d.BatchCode, d.Origin,
		killDate, useBy, d.SlaughterNumber, d.CutNumber,
		d.RedTractor, d.RSPCA, d.OrganicAssured)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("date", d.Date).Str("supplier", d.Supplier).Str("id", id).Msg("Delivery recorded")
	return id, nil
}
