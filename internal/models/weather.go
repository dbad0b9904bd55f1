package models

import (
	"math"
	"time"
)

// CoordinatePrecision is the number of decimal places kept when a venue
// coordinate becomes a cache-bucket key. Two decimals is roughly a 1km cell,
// so venues on the same block share one forecast entry.
const CoordinatePrecision = 2

// RoundCoordinate reduces a coordinate to the cache-bucket precision.
func RoundCoordinate(v float64) float64 {
	scale := math.Pow(10, CoordinatePrecision)
	return math.Round(v*scale) / scale
}

// WeatherCell is a day-level forecast cached by rounded location and date.
// The (rounded_lat, rounded_lng, forecast_date) triple is the primary key;
// entries are refreshed in place once stale, never explicitly deleted.
type WeatherCell struct {
	RoundedLat    float64   `json:"rounded_lat"`
	RoundedLng    float64   `json:"rounded_lng"`
	ForecastDate  time.Time `json:"forecast_date"`
	TempHigh      float64   `json:"temp_high"`
	TempLow       float64   `json:"temp_low"`
	FeelsLikeHigh float64   `json:"feels_like_high"`
	FeelsLikeLow  float64   `json:"feels_like_low"`
	PrecipChance  int       `json:"precip_chance"`
	Humidity      int       `json:"humidity"`
	UVIndex       float64   `json:"uv_index"`
	WindSpeed     float64   `json:"wind_speed"`
	Condition     string    `json:"condition"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// Age returns how long ago the entry was fetched.
func (w WeatherCell) Age(now time.Time) time.Duration {
	return now.Sub(w.FetchedAt)
}
