package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geo"
)

func TestNormalizeQuery(t *testing.T) {
	cases := map[string]string{
		"  Bozeman,   MT ": "bozeman, mt",
		"59715, USA":       "59715, usa",
		"":                 "",
	}
	for in, want := range cases {
		if got := NormalizeQuery(in); got != want {
			t.Fatalf("query %q: expected %q, got %q", in, want, got)
		}
	}
}

func TestStaticGeocoder(t *testing.T) {
	static := Static{Results: map[string]Result{
		"bozeman, mt": {Point: geo.Point{Lat: 45.68, Lon: -111.04}},
	}}

	result, err := static.Geocode(context.Background(), "  Bozeman,  MT ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || result.Point.Lat != 45.68 {
		t.Fatalf("unexpected result %v", result)
	}

	missing, err := static.Geocode(context.Background(), "nowhere")
	if err != nil || missing != nil {
		t.Fatalf("expected nil result for unknown query, got %v err=%v", missing, err)
	}
}

func TestGoogleClientParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "Bozeman, MT" {
			t.Errorf("unexpected address %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"formatted_address": "Bozeman, MT 59715, USA",
				"geometry": {"location": {"lat": 45.6793, "lng": -111.0373}}
			}]
		}`))
	}))
	defer server.Close()

	client := NewGoogleClient("test-key", 5*time.Second)
	client.baseURL = server.URL

	result, err := client.Geocode(context.Background(), "Bozeman, MT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || result.Point.Lat != 45.6793 || result.Point.Lon != -111.0373 {
		t.Fatalf("unexpected result %v", result)
	}
	if result.FormattedAddress != "Bozeman, MT 59715, USA" {
		t.Fatalf("unexpected formatted address %q", result.FormattedAddress)
	}
}

func TestGoogleClientNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer server.Close()

	client := NewGoogleClient("test-key", 5*time.Second)
	client.baseURL = server.URL

	result, err := client.Geocode(context.Background(), "nowhere at all")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil result, got %v", result)
	}
}
