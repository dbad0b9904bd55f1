package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gigscout/internal/models"
)

// GetWeatherCell retrieves the cached forecast for one rounded cell and
// date. Coordinates must already be rounded to the cache precision.
func (s *Store) GetWeatherCell(ctx context.Context, lat, lng float64, date time.Time) (*models.WeatherCell, error) {
	query := `
		SELECT rounded_lat, rounded_lng, forecast_date, temp_high, temp_low,
		       feels_like_high, feels_like_low, precip_chance, humidity,
		       uv_index, wind_speed, condition, fetched_at
		FROM weather_cache
		WHERE rounded_lat = $1 AND rounded_lng = $2 AND forecast_date = $3
	`

	var w models.WeatherCell
	err := s.db.QueryRowContext(ctx, query, lat, lng, date).Scan(
		&w.RoundedLat, &w.RoundedLng, &w.ForecastDate, &w.TempHigh, &w.TempLow,
		&w.FeelsLikeHigh, &w.FeelsLikeLow, &w.PrecipChance, &w.Humidity,
		&w.UVIndex, &w.WindSpeed, &w.Condition, &w.FetchedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWeatherCellNotFound
	}
	if err != nil {
		return nil, err
	}

	return &w, nil
}

// UpsertWeatherCell creates or refreshes one cache entry. The composite key
// resolves concurrent writers for the same cell; last write wins, which is
// fine because both fetched the same provider forecast.
func (s *Store) UpsertWeatherCell(ctx context.Context, cell *models.WeatherCell) error {
	query := `
		INSERT INTO weather_cache (rounded_lat, rounded_lng, forecast_date,
		                           temp_high, temp_low, feels_like_high, feels_like_low,
		                           precip_chance, humidity, uv_index, wind_speed, condition)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (rounded_lat, rounded_lng, forecast_date) DO UPDATE SET
			temp_high       = EXCLUDED.temp_high,
			temp_low        = EXCLUDED.temp_low,
			feels_like_high = EXCLUDED.feels_like_high,
			feels_like_low  = EXCLUDED.feels_like_low,
			precip_chance   = EXCLUDED.precip_chance,
			humidity        = EXCLUDED.humidity,
			uv_index        = EXCLUDED.uv_index,
			wind_speed      = EXCLUDED.wind_speed,
			condition       = EXCLUDED.condition,
			fetched_at      = CURRENT_TIMESTAMP
		RETURNING fetched_at
	`

	err := s.db.QueryRowContext(ctx, query,
		cell.RoundedLat, cell.RoundedLng, cell.ForecastDate,
		cell.TempHigh, cell.TempLow, cell.FeelsLikeHigh, cell.FeelsLikeLow,
		cell.PrecipChance, cell.Humidity, cell.UVIndex, cell.WindSpeed, cell.Condition,
	).Scan(&cell.FetchedAt)

	if err != nil {
		return fmt.Errorf("upsert weather cell (%v, %v, %s): %w",
			cell.RoundedLat, cell.RoundedLng, cell.ForecastDate.Format("2006-01-02"), err)
	}

	return nil
}
