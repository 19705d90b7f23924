// Package maps provides a distance-matrix client used for mileage logging.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"
)

const (
	distanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
	metersPerMile     = 1609.344
)

// Client calls the distance-matrix API with an API key.
type Client struct {
	Key  string
	HTTP *http.Client

	base string
}

// NewClient creates a distance-matrix client.
func NewClient(key string) *Client {
	return &Client{
		Key:  key,
		HTTP: &http.Client{Timeout: 30 * time.Second},
		base: distanceMatrixURL,
	}
}

// Trip is a resolved driving distance between two addresses.
type Trip struct {
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	Miles       float64       `json:"miles"`
	Duration    time.Duration `json:"duration"`
}

type matrixResponse struct {
	Status               string   `json:"status"`
	ErrorMessage         string   `json:"error_message"`
	OriginAddresses      []string `json:"origin_addresses"`
	DestinationAddresses []string `json:"destination_addresses"`
	Rows                 []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Meters int64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Seconds int64 `json:"value"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// Distance resolves the driving distance from origin to destination.
func (c *Client) Distance(ctx context.Context, origin, destination string) (*Trip, error) {
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("origin and destination are both required")
	}

	params := url.Values{}
	params.Set("origins", origin)
	params.Set("destinations", destination)
	params.Set("units", "imperial")
	params.Set("key", c.Key)

	req, err := http.NewRequestWithContext(ctx, "GET", c.base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach distance-matrix API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("distance request failed (%d): %s", resp.StatusCode, string(body))
	}

	var result matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not parse distance response: %w", err)
	}

	if result.Status != "OK" {
		if result.ErrorMessage != "" {
			return nil, fmt.Errorf("distance-matrix API error %s: %s", result.Status, result.ErrorMessage)
		}
		return nil, fmt.Errorf("distance-matrix API error: %s", result.Status)
	}
	if len(result.Rows) == 0 || len(result.Rows[0].Elements) == 0 {
		return nil, fmt.Errorf("distance-matrix API returned no routes")
	}

	elem := result.Rows[0].Elements[0]
	if elem.Status != "OK" {
		return nil, fmt.Errorf("no route found between %q and %q (%s)", origin, destination, elem.Status)
	}

	trip := &Trip{
		Origin:      origin,
		Destination: destination,
		Miles:       RoundMiles(float64(elem.Distance.Meters) / metersPerMile),
		Duration:    time.Duration(elem.Duration.Seconds) * time.Second,
	}
	if len(result.OriginAddresses) > 0 && result.OriginAddresses[0] != "" {
		trip.Origin = result.OriginAddresses[0]
	}
	if len(result.DestinationAddresses) > 0 && result.DestinationAddresses[0] != "" {
		trip.Destination = result.DestinationAddresses[0]
	}
	return trip, nil
}

// RoundMiles rounds a distance to a tenth of a mile.
func RoundMiles(miles float64) float64 {
	return math.Round(miles*10) / 10
}
