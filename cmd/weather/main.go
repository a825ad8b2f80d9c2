// Command weather is a one-shot job that fetches the current conditions for
// a city and submits a composed message to the display gateway. It is meant
// to run from cron or a systemd timer.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/glowsign/display-app/internal/weather"
)

// fetchIcons asks the gateway which icon tokens the upstream registry
// advertises so the composed message only uses icons that will validate.
func fetchIcons(ctx context.Context, client *http.Client, gatewayURL string) (map[string]bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gatewayURL+"/predefined-icons", nil)
	if err != nil {
		return nil, fmt.Errorf("build icons request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Icons []string `json:"icons"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode icons response: %w", err)
	}

	codes := make(map[string]bool, len(payload.Icons))
	for _, token := range payload.Icons {
		codes[strings.ToLower(strings.Trim(token, ":"))] = true
	}
	return codes, nil
}

// submit posts the message to the gateway. A rejected message comes back as
// an RFC 9457 problem document; its detail is surfaced in the error.
func submit(ctx context.Context, client *http.Client, gatewayURL, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gatewayURL+"/display-text", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build display request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &problem); err == nil && problem.Title != "" {
		return fmt.Errorf("gateway rejected message (%d): %s: %s", resp.StatusCode, problem.Title, problem.Detail)
	}
	return fmt.Errorf("gateway returned status %d", resp.StatusCode)
}

func main() {
	city := os.Getenv("CITY")
	if city == "" {
		city = "Potsdam"
	}

	gatewayURL := os.Getenv("GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = "http://localhost:8080"
	}
	gatewayURL = strings.TrimRight(gatewayURL, "/")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	httpClient := &http.Client{Timeout: 10 * time.Second}
	weatherClient := weather.NewClient()

	loc, err := weatherClient.Geocode(ctx, city)
	if err != nil {
		log.Fatalf("geocode failed: %v", err)
	}
	log.Printf("[weather] %s resolved to %.4f,%.4f", loc.Name, loc.Latitude, loc.Longitude)

	obs, err := weatherClient.Current(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		log.Fatalf("weather fetch failed: %v", err)
	}
	log.Printf("[weather] %s: %.1fC code=%d wind=%.1f humidity=%d%%",
		loc.Name, obs.TempC, obs.WeatherCode, obs.WindSpeed, obs.Humidity)

	// Icon availability is best effort: without it the message is composed
	// as plain text and still validates.
	icons, err := fetchIcons(ctx, httpClient, gatewayURL)
	if err != nil {
		log.Printf("[weather] icon list unavailable, composing without icons: %v", err)
	}
	hasIcon := func(code string) bool { return icons[code] }

	message := weather.ComposeMessage(loc.Name, obs, hasIcon)
	log.Printf("[weather] submitting %q", message)

	if err := submit(ctx, httpClient, gatewayURL, message); err != nil {
		log.Fatalf("submit failed: %v", err)
	}
	log.Printf("[weather] message accepted")
}
