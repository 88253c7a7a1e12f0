package intake

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geo"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geocode"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/terminology"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	}
}

func testBuilder(results map[string]geocode.Result) *Builder {
	return NewBuilder(geocode.Static{Results: results}, terminology.DefaultCatalog()).WithClock(fixedClock())
}

func TestNormalizeFullProfile(t *testing.T) {
	builder := testBuilder(map[string]geocode.Result{
		"94110, usa": {
			Point:            geo.Point{Lat: 37.7485, Lon: -122.4184},
			FormattedAddress: "San Francisco, CA 94110, USA",
		},
	})

	raw := map[string]interface{}{
		"name":              "Jamie Rivera",
		"email":             " jamie@example.com ",
		"phone":             "(415) 555-0134",
		"dob":               "March 4, 1990",
		"gender":            "F",
		"city":              "San Francisco",
		"state":             "California",
		"zip":               "94110",
		"diagnosis_history": "Depression, PTSD",
	}

	profile := builder.Normalize(context.Background(), raw)

	if profile.Email != "jamie@example.com" {
		t.Fatalf("unexpected email %q", profile.Email)
	}
	if profile.Phone != "+14155550134" {
		t.Fatalf("unexpected phone %q", profile.Phone)
	}
	if profile.Gender != "female" {
		t.Fatalf("unexpected gender %q", profile.Gender)
	}
	if profile.State != "CA" {
		t.Fatalf("unexpected state %q", profile.State)
	}
	if profile.Age == nil || *profile.Age != 35 {
		t.Fatalf("unexpected age %v", profile.Age)
	}
	if profile.Location != "San Francisco, CA" {
		t.Fatalf("unexpected location %q", profile.Location)
	}
	if profile.Coordinates == nil || profile.Coordinates.Lat != 37.7485 {
		t.Fatalf("unexpected coordinates %v", profile.Coordinates)
	}
	if !reflect.DeepEqual(profile.ConditionTags, []string{"depression", "ptsd"}) {
		t.Fatalf("unexpected condition tags %v", profile.ConditionTags)
	}
	if len(MissingRequired(profile)) != 0 {
		t.Fatalf("expected complete profile, missing %v", MissingRequired(profile))
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	builder := testBuilder(nil)
	raw := map[string]interface{}{
		"dob":               "01/02/1980",
		"gender":            "male",
		"city":              "Bozeman",
		"state":             "MT",
		"zip":               "59715",
		"diagnosis_history": "anxiety",
		"phone":             "406-555-0101",
	}

	first := builder.Normalize(context.Background(), raw)
	second := builder.Normalize(context.Background(), raw)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical profiles, got\n%v\n%v", first, second)
	}
}

func TestCalculateAgeBirthdayAdjustment(t *testing.T) {
	builder := testBuilder(nil)

	// Clock is June 15, 2025.
	cases := map[string]int{
		"June 14, 1990": 35,
		"June 15, 1990": 35,
		"June 16, 1990": 34,
	}
	for dob, want := range cases {
		got := builder.calculateAge(dob)
		if got == nil || *got != want {
			t.Fatalf("dob %q: expected %d, got %v", dob, want, got)
		}
	}

	if got := builder.calculateAge("not a date"); got != nil {
		t.Fatalf("expected nil for malformed dob, got %v", got)
	}
	if got := builder.calculateAge(""); got != nil {
		t.Fatalf("expected nil for empty dob, got %v", got)
	}
}

func TestCalculateAgeAcceptsAllLayouts(t *testing.T) {
	builder := testBuilder(nil)
	for _, dob := range []string{
		"January 2, 1970",
		"Jan 2, 1970",
		"01/02/1970",
		"2 January 1970",
		"2 Jan 1970",
		"1970-01-02",
		"02-01-1970",
	} {
		if got := builder.calculateAge(dob); got == nil {
			t.Fatalf("expected %q to parse", dob)
		}
	}
}

func TestNormalizeStateVariants(t *testing.T) {
	cases := map[string]string{
		"California": "CA",
		"ca":         "CA",
		"Montana":    "MT",
		" new york ": "NY",
		"Ontario":    "ONTARIO",
	}
	for in, want := range cases {
		if got := NormalizeState(in); got != want {
			t.Fatalf("state %q: expected %q, got %q", in, want, got)
		}
	}
}

func TestNormalizePhoneVariants(t *testing.T) {
	cases := map[string]string{
		"(415) 555-0134":  "+14155550134",
		"+1 415 555 0134": "+14155550134",
		"4155550134":      "+14155550134",
		"":                "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Fatalf("phone %q: expected %q, got %q", in, want, got)
		}
	}
}

func TestZipEnrichmentFillsCityAndState(t *testing.T) {
	builder := testBuilder(map[string]geocode.Result{
		"59715, usa": {
			Point:            geo.Point{Lat: 45.6793, Lon: -111.0373},
			FormattedAddress: "Bozeman, MT 59715, USA",
		},
	})

	profile := builder.Normalize(context.Background(), map[string]interface{}{
		"dob":               "01/02/1980",
		"gender":            "female",
		"zip":               "59715",
		"diagnosis_history": "depression",
	})

	if profile.City != "Bozeman" {
		t.Fatalf("expected city from ZIP, got %q", profile.City)
	}
	if profile.State != "MT" {
		t.Fatalf("expected state from ZIP, got %q", profile.State)
	}
}

func TestGeocodeFailureLeavesCoordinatesNil(t *testing.T) {
	builder := testBuilder(nil)

	profile := builder.Normalize(context.Background(), map[string]interface{}{
		"dob":               "01/02/1980",
		"gender":            "female",
		"city":              "Bozeman",
		"state":             "MT",
		"zip":               "59715",
		"diagnosis_history": "depression",
	})

	if profile.Coordinates != nil {
		t.Fatalf("expected nil coordinates, got %v", profile.Coordinates)
	}
	if len(MissingRequired(profile)) != 0 {
		t.Fatalf("coordinates are optional, missing %v", MissingRequired(profile))
	}
}

func TestMalePregnancyDefault(t *testing.T) {
	builder := testBuilder(nil)

	profile := builder.Normalize(context.Background(), map[string]interface{}{
		"gender": "Male",
	})
	if profile.Pregnant != "No" {
		t.Fatalf("expected pregnancy default for male profiles, got %q", profile.Pregnant)
	}

	other := builder.Normalize(context.Background(), map[string]interface{}{
		"gender": "female",
	})
	if other.Pregnant != "" {
		t.Fatalf("expected no default for female profiles, got %q", other.Pregnant)
	}
}

func TestFieldAliasResolution(t *testing.T) {
	builder := testBuilder(nil)

	profile := builder.Normalize(context.Background(), map[string]interface{}{
		"Date of Birth":                   "01/02/1980",
		"What is your ZIP code":           "59715",
		"mental health conditions":        "ptsd",
		"Have you tried ketamine therapy": "yes",
		"favorite color":                  "blue",
	})

	if profile.DOB != "01/02/1980" {
		t.Fatalf("expected dob alias to resolve, got %q", profile.DOB)
	}
	if profile.Zip != "59715" {
		t.Fatalf("expected zip alias to resolve, got %q", profile.Zip)
	}
	if profile.DiagnosisHistory != "ptsd" {
		t.Fatalf("expected diagnosis alias to resolve, got %q", profile.DiagnosisHistory)
	}
	if profile.KetamineUse != "yes" {
		t.Fatalf("expected ketamine alias to resolve, got %q", profile.KetamineUse)
	}
	if profile.Extras["favorite color"] != "blue" {
		t.Fatalf("expected unmatched key in extras, got %v", profile.Extras)
	}
}

func TestScreeningAnswersBecomeTags(t *testing.T) {
	builder := testBuilder(nil)

	profile := builder.Normalize(context.Background(), map[string]interface{}{
		"diagnosis_history": "depression",
		"bipolar":           "Yes",
		"veteran":           "yes",
		"pregnant":          "no",
	})

	want := []string{"bipolar", "depression", "veteran"}
	if !reflect.DeepEqual(profile.ConditionTags, want) {
		t.Fatalf("expected %v, got %v", want, profile.ConditionTags)
	}
}
