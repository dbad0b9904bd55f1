package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"gigscout/internal/models"
)

const openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoClient implements weather.Provider against the Open-Meteo daily
// forecast API.
type OpenMeteoClient struct {
	httpClient *http.Client
}

// NewOpenMeteoClient creates a forecast client. Open-Meteo needs no API key.
func NewOpenMeteoClient() *OpenMeteoClient {
	return &OpenMeteoClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type meteoResponse struct {
	Daily meteoDaily `json:"daily"`
}

// Open-Meteo returns one parallel array per variable, indexed by date.
type meteoDaily struct {
	Time             []string  `json:"time"`
	TempMax          []float64 `json:"temperature_2m_max"`
	TempMin          []float64 `json:"temperature_2m_min"`
	ApparentMax      []float64 `json:"apparent_temperature_max"`
	ApparentMin      []float64 `json:"apparent_temperature_min"`
	PrecipProbMax    []int     `json:"precipitation_probability_max"`
	HumidityMean     []int     `json:"relative_humidity_2m_mean"`
	UVIndexMax       []float64 `json:"uv_index_max"`
	WindSpeedMax     []float64 `json:"wind_speed_10m_max"`
	WeatherCode      []int     `json:"weather_code"`
}

// Forecast fetches the day-level forecast for one coordinate and date.
// Returning (nil, nil) means the provider has nothing for that date.
func (c *OpenMeteoClient) Forecast(ctx context.Context, lat, lng float64, date time.Time) (*models.WeatherCell, error) {
	day := date.Format("2006-01-02")

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("daily", "temperature_2m_max,temperature_2m_min,apparent_temperature_max,apparent_temperature_min,precipitation_probability_max,relative_humidity_2m_mean,uv_index_max,wind_speed_10m_max,weather_code")
	params.Set("start_date", day)
	params.Set("end_date", day)
	params.Set("timezone", "UTC")

	req, err := http.NewRequestWithContext(ctx, "GET", openMeteoBaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("open-meteo api error: %s - %s", resp.Status, string(body))
	}

	var result meteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	daily := result.Daily
	if len(daily.Time) == 0 || daily.Time[0] != day {
		return nil, nil
	}

	cell := &models.WeatherCell{}
	if len(daily.TempMax) > 0 {
		cell.TempHigh = daily.TempMax[0]
	}
	if len(daily.TempMin) > 0 {
		cell.TempLow = daily.TempMin[0]
	}
	if len(daily.ApparentMax) > 0 {
		cell.FeelsLikeHigh = daily.ApparentMax[0]
	}
	if len(daily.ApparentMin) > 0 {
		cell.FeelsLikeLow = daily.ApparentMin[0]
	}
	if len(daily.PrecipProbMax) > 0 {
		cell.PrecipChance = daily.PrecipProbMax[0]
	}
	if len(daily.HumidityMean) > 0 {
		cell.Humidity = daily.HumidityMean[0]
	}
	if len(daily.UVIndexMax) > 0 {
		cell.UVIndex = daily.UVIndexMax[0]
	}
	if len(daily.WindSpeedMax) > 0 {
		cell.WindSpeed = daily.WindSpeedMax[0]
	}
	if len(daily.WeatherCode) > 0 {
		cell.Condition = strconv.Itoa(daily.WeatherCode[0])
	}

	return cell, nil
}
