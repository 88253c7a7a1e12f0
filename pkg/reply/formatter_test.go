package reply

import (
	"strings"
	"testing"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geo"
)

func milesPtr(v float64) *float64 { return &v }

func TestFormatMatchesEmpty(t *testing.T) {
	got := FormatMatches(nil, nil)
	if got != "No suitable matches were found at this time." {
		t.Fatalf("unexpected empty-list reply: %q", got)
	}
}

func TestFormatMatchesBuckets(t *testing.T) {
	matches := []models.MatchResult{
		{
			Study:         models.StudyRecord{Title: "Close Study", Location: "San Francisco, CA"},
			DistanceMiles: milesPtr(12.5),
			Score:         7,
		},
		{
			Study: models.StudyRecord{
				Title: "Telehealth Study",
				Tags:  []models.Tag{{Kind: models.TagInclude, Subject: "telehealth"}},
			},
			Score: 6,
		},
		{
			Study: models.StudyRecord{Title: "Mystery Study"},
			Score: 3,
		},
	}

	got := FormatMatches(matches, nil)

	nearIdx := strings.Index(got, "**Studies Near You:**")
	nationalIdx := strings.Index(got, "**National Studies:**")
	otherIdx := strings.Index(got, "**Other Options:**")
	if nearIdx == -1 || nationalIdx == -1 || otherIdx == -1 {
		t.Fatalf("expected all three sections, got:\n%s", got)
	}
	if !(nearIdx < nationalIdx && nationalIdx < otherIdx) {
		t.Fatalf("expected near/national/other ordering, got:\n%s", got)
	}
	if !strings.Contains(got[nearIdx:nationalIdx], "Close Study") {
		t.Fatalf("expected Close Study under Near You:\n%s", got)
	}
	if !strings.Contains(got[nationalIdx:otherIdx], "Telehealth Study") {
		t.Fatalf("expected Telehealth Study under National:\n%s", got)
	}
	if !strings.Contains(got[otherIdx:], "Mystery Study") {
		t.Fatalf("expected Mystery Study under Other:\n%s", got)
	}
}

func TestFormatMatchesComputesDistanceFromSites(t *testing.T) {
	lat, lon := 34.0522, -118.2437
	matches := []models.MatchResult{{
		Study: models.StudyRecord{
			Title: "LA Study",
			Sites: []models.Site{{Latitude: &lat, Longitude: &lon}},
		},
		Score: 5,
	}}

	near := FormatMatches(matches, &geo.Point{Lat: 34.1, Lon: -118.3})
	if !strings.Contains(near, "**Studies Near You:**") {
		t.Fatalf("expected near bucket from site distance:\n%s", near)
	}

	far := FormatMatches(matches, &geo.Point{Lat: 40.7128, Lon: -74.0060})
	if !strings.Contains(far, "**National Studies:**") {
		t.Fatalf("expected national bucket for distant participant:\n%s", far)
	}
}

func TestFormatSingleMatchFields(t *testing.T) {
	matches := []models.MatchResult{{
		Study: models.StudyRecord{
			Title:           "Ketamine Study",
			Location:        "Bozeman, MT",
			Link:            "https://clinicaltrials.gov/study/NCT000001",
			Summary:         "A study of things.",
			EligibilityText: "Adults 21 to 65 years.",
			ContactEmail:    "coord@example.com",
		},
		DistanceMiles: milesPtr(3.2),
		Score:         8,
		Reasons:       []string{"matches include criterion: veteran (+1)", "priority program (+3)"},
	}}

	got := FormatMatches(matches, nil)

	for _, want := range []string{
		"### Ketamine Study",
		"Location: Bozeman, MT",
		"[View Study](https://clinicaltrials.gov/study/NCT000001)",
		"Summary: A study of things.",
		"Eligibility: Adults 21 to 65 years.",
		"Contact: coord@example.com / N/A",
		"Match Confidence: 8/10",
		"Why this match: matches include criterion: veteran (+1); priority program (+3)",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in:\n%s", want, got)
		}
	}
}

func TestFormatMatchesCapsPerBucket(t *testing.T) {
	var matches []models.MatchResult
	for i := 0; i < 10; i++ {
		matches = append(matches, models.MatchResult{
			Study:         models.StudyRecord{Title: "Study"},
			DistanceMiles: milesPtr(1),
			Score:         5,
		})
	}

	got := FormatMatches(matches, nil)
	if n := strings.Count(got, "### Study"); n != maxPerBucket {
		t.Fatalf("expected %d blocks, got %d", maxPerBucket, n)
	}
}

func TestExcerptTruncates(t *testing.T) {
	long := strings.Repeat("eligibility criteria ", 30)
	got := excerpt(long, 240)
	if len(got) > 245 {
		t.Fatalf("expected truncation near 240 chars, got %d", len(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
}
