package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/httpclient"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geo"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/observability/metrics"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleClient talks to the Google Geocoding API.
type GoogleClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGoogleClient(apiKey string, timeout time.Duration) *GoogleClient {
	return &GoogleClient{
		apiKey:  apiKey,
		baseURL: googleGeocodeURL,
		client:  httpclient.New(timeout),
	}
}

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *GoogleClient) Geocode(ctx context.Context, query string) (*Result, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)

	var result *Result
	err := httpclient.Retry(ctx, 3, 200*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		resp, err := g.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("geocode request failed with status %d", resp.StatusCode)
		}

		var body googleResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("decode geocode response: %w", err)
		}
		if body.Status == "OVER_QUERY_LIMIT" {
			return fmt.Errorf("geocode rate limited")
		}
		if len(body.Results) == 0 {
			result = nil
			return nil
		}
		first := body.Results[0]
		result = &Result{
			Point:            geo.Point{Lat: first.Geometry.Location.Lat, Lon: first.Geometry.Location.Lng},
			FormattedAddress: first.FormattedAddress,
		}
		return nil
	})
	if err != nil {
		metrics.IncGeocodeFailures()
		return nil, err
	}
	return result, nil
}
