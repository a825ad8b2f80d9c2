// Package weather fetches current conditions from the Open-Meteo API (no
// API key required) and composes badge messages from them.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Default Open-Meteo endpoints.
const (
	DefaultWeatherURL   = "https://api.open-meteo.com/v1/forecast"
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
)

// Client talks to the Open-Meteo weather and geocoding APIs.
type Client struct {
	weatherURL   string
	geocodingURL string
	http         *http.Client
}

// NewClient creates a client against the public Open-Meteo endpoints.
func NewClient() *Client {
	return &Client{
		weatherURL:   DefaultWeatherURL,
		geocodingURL: DefaultGeocodingURL,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithURLs creates a client against custom endpoints (used by
// tests).
func NewClientWithURLs(weatherURL, geocodingURL string) *Client {
	c := NewClient()
	c.weatherURL = weatherURL
	c.geocodingURL = geocodingURL
	return c
}

// Location is a geocoded place.
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Observation is the current weather at a location.
type Observation struct {
	TempC       float64
	WeatherCode int
	WindSpeed   float64
	Humidity    int
}

// Geocode resolves a city name to coordinates. Returns an error when the
// geocoding API has no result for the name.
func (c *Client) Geocode(ctx context.Context, city string) (*Location, error) {
	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	var payload struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, c.geocodingURL+"?"+q.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("weather: geocode %q: %w", city, err)
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("weather: no coordinates found for %q", city)
	}

	r := payload.Results[0]
	return &Location{Name: r.Name, Latitude: r.Latitude, Longitude: r.Longitude}, nil
}

// Current fetches the current weather at the given coordinates.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Observation, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("current", "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m")

	var payload struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			Humidity    int     `json:"relative_humidity_2m"`
			WeatherCode int     `json:"weather_code"`
			WindSpeed   float64 `json:"wind_speed_10m"`
		} `json:"current"`
	}
	if err := c.getJSON(ctx, c.weatherURL+"?"+q.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("weather: current conditions: %w", err)
	}

	return &Observation{
		TempC:       payload.Current.Temperature,
		WeatherCode: payload.Current.WeatherCode,
		WindSpeed:   payload.Current.WindSpeed,
		Humidity:    payload.Current.Humidity,
	}, nil
}

// getJSON performs a GET bound to ctx and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
