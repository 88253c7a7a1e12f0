package geocode

import (
	"context"
	"strings"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geo"
)

// Result is one resolved location. FormattedAddress is the provider's
// display form, used for ZIP city/state enrichment.
type Result struct {
	Point            geo.Point `json:"point"`
	FormattedAddress string    `json:"formatted_address"`
}

// Geocoder resolves a free-text address, "city, state" pair, or postal code.
// A nil Result with nil error means the provider had no answer; callers must
// treat both that and an error as "coordinates unavailable", never fatal.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Result, error)
}

// NormalizeQuery canonicalizes a query for cache keying.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Static is a fixed-answer geocoder for tests.
type Static struct {
	Results map[string]Result
}

func (s Static) Geocode(_ context.Context, query string) (*Result, error) {
	if r, ok := s.Results[NormalizeQuery(query)]; ok {
		return &r, nil
	}
	return nil, nil
}
