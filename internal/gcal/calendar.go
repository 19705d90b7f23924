// Package gcal lists calendar events, used as trip sources for mileage logging.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const calendarBase = "https://www.googleapis.com/calendar/v3"

// Client provides calendar read operations over an authenticated HTTP client.
type Client struct {
	HTTP *http.Client
}

// NewClient creates a calendar client.
func NewClient(httpClient *http.Client) *Client {
	return &Client{HTTP: httpClient}
}

// Event is a calendar event with the fields mileage logging needs.
type Event struct {
	ID       string
	Summary  string
	Location string
	Start    time.Time
	End      time.Time
	AllDay   bool
}

type eventsResponse struct {
	Items []struct {
		ID       string `json:"id"`
		Summary  string `json:"summary"`
		Location string `json:"location"`
		Start    struct {
			DateTime string `json:"dateTime"`
			Date     string `json:"date"`
		} `json:"start"`
		End struct {
			DateTime string `json:"dateTime"`
			Date     string `json:"date"`
		} `json:"end"`
	} `json:"items"`
}

// Events returns the primary calendar's events between from and to, in
// start order, expanded so recurring events appear as single instances.
func (c *Client) Events(ctx context.Context, from, to time.Time) ([]Event, error) {
	params := url.Values{}
	params.Set("timeMin", from.Format(time.RFC3339))
	params.Set("timeMax", to.Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	params.Set("maxResults", "250")

	endpoint := calendarBase + "/calendars/primary/events?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not list calendar events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("calendar request failed (%d): %s", resp.StatusCode, string(body))
	}

	var result eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not parse calendar response: %w", err)
	}

	events := make([]Event, 0, len(result.Items))
	for _, item := range result.Items {
		ev := Event{
			ID:       item.ID,
			Summary:  item.Summary,
			Location: item.Location,
		}
		if item.Start.DateTime != "" {
			ev.Start, _ = time.Parse(time.RFC3339, item.Start.DateTime)
			ev.End, _ = time.Parse(time.RFC3339, item.End.DateTime)
		} else if item.Start.Date != "" {
			ev.AllDay = true
			ev.Start, _ = time.Parse("2006-01-02", item.Start.Date)
			ev.End, _ = time.Parse("2006-01-02", item.End.Date)
		}
		events = append(events, ev)
	}
	return events, nil
}

// WithLocation filters events down to those that name a place to drive to.
func WithLocation(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.Location != "" {
			out = append(out, ev)
		}
	}
	return out
}
