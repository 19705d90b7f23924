package maps

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testMatrixClient(srv *httptest.Server) *Client {
	c := NewClient("test-key")
	c.base = srv.URL
	return c
}

func TestDistance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "test-key" || q.Get("units") != "imperial" {
			t.Errorf("query = %v", q)
		}
		fmt.Fprint(w, `{
			"status": "OK",
			"origin_addresses": ["12 Elm St, Springfield, IL"],
			"destination_addresses": ["90 Oak Ave, Springfield, IL"],
			"rows": [{"elements": [{"status": "OK",
				"distance": {"value": 20117},
				"duration": {"value": 1500}}]}]
		}`)
	}))
	defer srv.Close()

	trip, err := testMatrixClient(srv).Distance(context.Background(), "12 Elm St", "90 Oak Ave")
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if trip.Miles != 12.5 {
		t.Errorf("miles = %v, want 12.5", trip.Miles)
	}
	if trip.Duration.Minutes() != 25 {
		t.Errorf("duration = %v", trip.Duration)
	}
	if trip.Origin != "12 Elm St, Springfield, IL" {
		t.Errorf("origin = %q", trip.Origin)
	}
}

func TestDistanceNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"OK","rows":[{"elements":[{"status":"ZERO_RESULTS"}]}]}`)
	}))
	defer srv.Close()

	_, err := testMatrixClient(srv).Distance(context.Background(), "here", "nowhere")
	if err == nil || !strings.Contains(err.Error(), "no route") {
		t.Fatalf("expected no-route error, got %v", err)
	}
}

func TestDistanceAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`)
	}))
	defer srv.Close()

	_, err := testMatrixClient(srv).Distance(context.Background(), "a", "b")
	if err == nil || !strings.Contains(err.Error(), "REQUEST_DENIED") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestDistanceRequiresBothEnds(t *testing.T) {
	if _, err := NewClient("k").Distance(context.Background(), "", "somewhere"); err == nil {
		t.Fatal("expected error for missing origin")
	}
}

func TestRoundMiles(t *testing.T) {
	if got := RoundMiles(12.4499); got != 12.4 {
		t.Errorf("RoundMiles = %v", got)
	}
	if got := RoundMiles(12.45); got != 12.5 {
		t.Errorf("RoundMiles = %v", got)
	}
}
