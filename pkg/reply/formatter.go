package reply

import (
	"fmt"
	"strings"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geo"
)

const (
	nearYouRadiusMiles = 100
	maxPerBucket       = 7
)

// FormatMatches renders ranked matches grouped into Near You / National /
// Other markdown blocks. Pure rendering; no matching logic.
func FormatMatches(matches []models.MatchResult, participant *geo.Point) string {
	if len(matches) == 0 {
		return "No suitable matches were found at this time."
	}

	var nearYou, national, other []string
	for _, m := range matches {
		block := formatSingleMatch(m)
		switch bucket(m, participant) {
		case "near_you":
			nearYou = append(nearYou, block)
		case "national":
			national = append(national, block)
		default:
			other = append(other, block)
		}
	}

	var sections []string
	if len(nearYou) > 0 {
		sections = append(sections, "**Studies Near You:**\n"+strings.Join(capBlocks(nearYou), "\n\n"))
	}
	if len(national) > 0 {
		sections = append(sections, "**National Studies:**\n"+strings.Join(capBlocks(national), "\n\n"))
	}
	if len(other) > 0 {
		sections = append(sections, "**Other Options:**\n"+strings.Join(capBlocks(other), "\n\n"))
	}
	return strings.Join(sections, "\n\n")
}

// bucket routes a match: within ~100 miles of its resolved location is
// "near_you"; resolvable but farther (or explicitly nationwide via
// telehealth) is "national"; unresolvable is "other".
func bucket(m models.MatchResult, participant *geo.Point) string {
	if m.DistanceMiles != nil && *m.DistanceMiles <= nearYouRadiusMiles {
		return "near_you"
	}
	if m.Study.HasTag(models.TagInclude, "telehealth") {
		return "national"
	}
	if participant == nil {
		return "other"
	}
	if point := studyPoint(m.Study); point != nil {
		if geo.Miles(*participant, *point) <= nearYouRadiusMiles {
			return "near_you"
		}
		return "national"
	}
	return "other"
}

func studyPoint(study models.StudyRecord) *geo.Point {
	for _, site := range study.Sites {
		if p := site.Point(); p != nil {
			return p
		}
	}
	return study.Coordinates
}

func capBlocks(blocks []string) []string {
	if len(blocks) > maxPerBucket {
		return blocks[:maxPerBucket]
	}
	return blocks
}

func formatSingleMatch(m models.MatchResult) string {
	study := m.Study

	title := study.Title
	if title == "" {
		title = "Untitled"
	}
	summary := study.Summary
	if summary == "" {
		summary = "No summary available."
	}
	eligibility := excerpt(study.EligibilityText, 240)
	if eligibility == "" {
		eligibility = "Eligibility not listed."
	}
	location := study.Location
	if location == "" {
		location = "Location not available."
	}
	email := orNA(study.ContactEmail)
	phone := orNA(study.ContactPhone)

	reason := "General match based on your profile."
	if len(m.Reasons) > 0 {
		reason = strings.Join(m.Reasons, "; ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n", title)
	fmt.Fprintf(&b, "Location: %s\n", location)
	if study.Link != "" {
		fmt.Fprintf(&b, "[View Study](%s)\n", study.Link)
	}
	fmt.Fprintf(&b, "Summary: %s\n", summary)
	fmt.Fprintf(&b, "Eligibility: %s\n", eligibility)
	fmt.Fprintf(&b, "Contact: %s / %s\n", email, phone)
	fmt.Fprintf(&b, "Match Confidence: %d/10\n", m.Score)
	fmt.Fprintf(&b, "Why this match: %s", reason)
	return b.String()
}

func excerpt(text string, limit int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if len(collapsed) <= limit {
		return collapsed
	}
	return strings.TrimSpace(collapsed[:limit]) + "…"
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
