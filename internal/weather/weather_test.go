package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestComposeMessage(t *testing.T) {
	hasAll := func(string) bool { return true }
	hasNone := func(string) bool { return false }

	tests := []struct {
		name    string
		city    string
		obs     *Observation
		hasIcon func(string) bool
		want    string
	}{
		{
			"clear with icon",
			"Potsdam",
			&Observation{TempC: 15.4, WeatherCode: 0},
			hasAll,
			"Potsdam: 15C :sun: Clear",
		},
		{
			"icon not in registry",
			"Potsdam",
			&Observation{TempC: 15.4, WeatherCode: 0},
			hasNone,
			"Potsdam: 15C Clear",
		},
		{
			"negative temperature rounds",
			"Oslo",
			&Observation{TempC: -3.6, WeatherCode: 73},
			hasAll,
			"Oslo: -4C :snow: Moderate Snow",
		},
		{
			"unknown code has no icon",
			"Lima",
			&Observation{TempC: 20, WeatherCode: 42},
			hasAll,
			"Lima: 20C Unknown",
		},
		{
			"nil observation",
			"Potsdam",
			nil,
			hasAll,
			"Weather unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComposeMessage(tt.city, tt.obs, tt.hasIcon); got != tt.want {
				t.Errorf("ComposeMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConditionTables(t *testing.T) {
	if got := ConditionText(2); got != "Partly Cloudy" {
		t.Errorf("ConditionText(2) = %q", got)
	}
	if got := ConditionText(1234); got != "Unknown" {
		t.Errorf("ConditionText(1234) = %q, want Unknown", got)
	}
	if got := ConditionIcon(95); got != "rain" {
		t.Errorf("ConditionIcon(95) = %q, want rain", got)
	}
	if got := ConditionIcon(1234); got != "" {
		t.Errorf("ConditionIcon(1234) = %q, want empty", got)
	}
}

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "Potsdam" {
			t.Errorf("name query = %q", got)
		}
		w.Write([]byte(`{"results":[{"name":"Potsdam","latitude":52.3988,"longitude":13.0656}]}`))
	}))
	defer srv.Close()

	c := NewClientWithURLs("", srv.URL)
	loc, err := c.Geocode(context.Background(), "Potsdam")
	if err != nil {
		t.Fatalf("Geocode returned error: %v", err)
	}
	if loc.Name != "Potsdam" || loc.Latitude != 52.3988 || loc.Longitude != 13.0656 {
		t.Errorf("location = %+v", loc)
	}
}

func TestGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewClientWithURLs("", srv.URL)
	if _, err := c.Geocode(context.Background(), "Nowhere"); err == nil {
		t.Error("expected error for empty geocoding result")
	}
}

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("latitude") == "" || q.Get("longitude") == "" {
			t.Error("missing coordinates in request")
		}
		w.Write([]byte(`{"current":{"temperature_2m":14.8,"relative_humidity_2m":67,"weather_code":2,"wind_speed_10m":11.5}}`))
	}))
	defer srv.Close()

	c := NewClientWithURLs(srv.URL, "")
	obs, err := c.Current(context.Background(), 52.3988, 13.0656)
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if obs.TempC != 14.8 || obs.WeatherCode != 2 || obs.Humidity != 67 || obs.WindSpeed != 11.5 {
		t.Errorf("observation = %+v", obs)
	}
}

func TestCurrent_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClientWithURLs(srv.URL, "")
	if _, err := c.Current(context.Background(), 0, 0); err == nil {
		t.Error("expected error on upstream 502")
	}
}
