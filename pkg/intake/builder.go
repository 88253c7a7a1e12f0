package intake

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/logger"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geo"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geocode"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/terminology"
)

// dobLayouts is tried in order; the first layout that parses wins.
var dobLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
	"01/02/06",
	"2 January 2006",
	"2 Jan 2006",
	"2006-01-02",
	"02-01-2006",
}

// fieldAliases maps each canonical profile field to the recognized input-key
// aliases, resolved exact-first then case-insensitive substring.
var fieldAliases = map[string][]string{
	"name":              {"name", "full name"},
	"email":             {"email"},
	"phone":             {"phone", "phone number"},
	"dob":               {"dob", "date of birth"},
	"gender":            {"gender", "gender identity"},
	"zip":               {"zip", "zip code", "postal code"},
	"city":              {"city"},
	"state":             {"state"},
	"diagnosis_history": {"diagnosis_history", "diagnosed with", "mental health conditions", "conditions"},
	"bipolar":           {"bipolar", "bipolar disorder"},
	"blood_pressure":    {"blood_pressure", "high blood pressure"},
	"ketamine_use":      {"ketamine_use", "ketamine therapy", "ketamine use"},
	"pregnant":          {"pregnant"},
	"veteran":           {"veteran"},
}

// RequiredFields must be present before matching can run; the orchestrator
// re-prompts for whatever is missing.
var RequiredFields = []string{"dob", "city", "state", "zip", "diagnosis_history", "age", "gender"}

// Builder normalizes raw extracted intake fields into a canonical
// ParticipantProfile. It never returns an error: malformed values degrade to
// nil or "Unknown" and a logged warning.
type Builder struct {
	geocoder geocode.Geocoder
	synonyms terminology.Catalog
	now      func() time.Time
}

func NewBuilder(geocoder geocode.Geocoder, synonyms terminology.Catalog) *Builder {
	return &Builder{geocoder: geocoder, synonyms: synonyms, now: time.Now}
}

// WithClock fixes the builder's notion of "today" for age computation.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) Normalize(ctx context.Context, raw map[string]interface{}) models.ParticipantProfile {
	fields, extras := resolveFields(raw)

	profile := models.ParticipantProfile{
		Name:          fields["name"],
		Email:         strings.TrimSpace(fields["email"]),
		Phone:         NormalizePhone(fields["phone"]),
		DOB:           strings.TrimSpace(fields["dob"]),
		Gender:        NormalizeGender(fields["gender"]),
		City:          strings.TrimSpace(fields["city"]),
		State:         NormalizeState(fields["state"]),
		Zip:           strings.TrimSpace(fields["zip"]),
		Bipolar:       strings.TrimSpace(fields["bipolar"]),
		BloodPressure: strings.TrimSpace(fields["blood_pressure"]),
		KetamineUse:   strings.TrimSpace(fields["ketamine_use"]),
		Pregnant:      strings.TrimSpace(fields["pregnant"]),
		Veteran:       strings.TrimSpace(fields["veteran"]),
		Extras:        extras,
	}

	profile.Age = b.calculateAge(profile.DOB)

	if (profile.City == "" || profile.State == "") && profile.Zip != "" {
		b.enrichFromZip(ctx, &profile)
	}
	if profile.City == "" {
		profile.City = "Unknown"
	}
	if profile.State == "" {
		profile.State = "Unknown"
	}
	profile.Location = profile.City + ", " + profile.State

	profile.Coordinates = b.resolveCoordinates(ctx, profile.City, profile.State, profile.Zip)

	if profile.Gender == "male" && profile.Pregnant == "" {
		profile.Pregnant = "No"
	}

	profile.DiagnosisHistory = fields["diagnosis_history"]
	profile.ConditionTags = b.conditionTags(&profile)

	return profile
}

// resolveFields maps raw keys onto canonical fields: exact known key first,
// then case-insensitive substring match against the alias list. Keys that
// match nothing land in the extras bucket.
func resolveFields(raw map[string]interface{}) (map[string]string, map[string]string) {
	fields := make(map[string]string, len(fieldAliases))
	claimed := make(map[string]bool, len(raw))

	for field, aliases := range fieldAliases {
		for _, alias := range aliases {
			if value, ok := raw[alias]; ok && asString(value) != "" {
				fields[field] = asString(value)
				claimed[alias] = true
				break
			}
		}
	}

	rawKeys := make([]string, 0, len(raw))
	for rawKey := range raw {
		rawKeys = append(rawKeys, rawKey)
	}
	sort.Strings(rawKeys)

	for field, aliases := range fieldAliases {
		if fields[field] != "" {
			continue
		}
		for _, rawKey := range rawKeys {
			lowerKey := strings.ToLower(rawKey)
			for _, alias := range aliases {
				if strings.Contains(lowerKey, alias) && asString(raw[rawKey]) != "" {
					fields[field] = asString(raw[rawKey])
					claimed[rawKey] = true
					break
				}
			}
			if fields[field] != "" {
				break
			}
		}
	}

	extras := map[string]string{}
	for rawKey, value := range raw {
		if !claimed[rawKey] {
			if str := asString(value); str != "" {
				extras[strings.ToLower(rawKey)] = str
			}
		}
	}
	if len(extras) == 0 {
		extras = nil
	}
	return fields, extras
}

func (b *Builder) calculateAge(dob string) *int {
	if strings.TrimSpace(dob) == "" {
		return nil
	}
	for _, layout := range dobLayouts {
		parsed, err := time.Parse(layout, strings.TrimSpace(dob))
		if err != nil {
			continue
		}
		today := b.now()
		age := today.Year() - parsed.Year()
		if today.Month() < parsed.Month() ||
			(today.Month() == parsed.Month() && today.Day() < parsed.Day()) {
			age--
		}
		return &age
	}
	logger.Log.WithField("dob", dob).Warn("Unrecognized DOB format")
	return nil
}

// enrichFromZip fills missing city/state from the geocoder's formatted
// address for the ZIP. Failure is non-fatal.
func (b *Builder) enrichFromZip(ctx context.Context, profile *models.ParticipantProfile) {
	result, err := b.geocoder.Geocode(ctx, profile.Zip+", USA")
	if err != nil {
		logger.Log.WithError(err).WithField("zip", profile.Zip).Warn("ZIP enrichment failed")
		return
	}
	if result == nil || result.FormattedAddress == "" {
		logger.Log.WithField("zip", profile.Zip).Warn("No geocoding result for ZIP")
		return
	}

	parts := strings.Split(result.FormattedAddress, ", ")
	if len(parts) < 2 {
		return
	}
	if profile.City == "" {
		profile.City = strings.TrimSpace(parts[0])
	}
	if profile.State == "" {
		// The state component may carry a trailing ZIP ("CA 94110").
		state := strings.TrimSpace(parts[1])
		if idx := strings.IndexFunc(state, unicode.IsDigit); idx > 0 {
			state = strings.TrimSpace(state[:idx])
		}
		profile.State = NormalizeState(state)
	}
}

// resolveCoordinates tries ZIP, then "city, state", then state alone. Any
// geocoder failure leaves coordinates nil. "Unknown" placeholders are
// treated as absent.
func (b *Builder) resolveCoordinates(ctx context.Context, city, state, zip string) *geo.Point {
	if city == "Unknown" {
		city = ""
	}
	if state == "Unknown" {
		state = ""
	}

	var queries []string
	if zip != "" {
		queries = append(queries, zip+", USA")
	}
	if city != "" && state != "" {
		queries = append(queries, city+", "+state)
	}
	if state != "" {
		queries = append(queries, state)
	}

	for _, query := range queries {
		result, err := b.geocoder.Geocode(ctx, query)
		if err != nil {
			logger.Log.WithError(err).WithField("query", query).Warn("Failed to geocode location")
			continue
		}
		if result != nil {
			point := result.Point
			return &point
		}
	}
	return nil
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := asString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(val, ", ")
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", val), ".0")
	case int:
		return fmt.Sprintf("%d", val)
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	default:
		return ""
	}
}

// NormalizePhone strips non-digits, prefixes the US country code when
// absent, and prefixes "+".
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	normalized := digits.String()
	if !strings.HasPrefix(normalized, "1") {
		normalized = "1" + normalized
	}
	return "+" + normalized
}

// NormalizeGender collapses the common forms; anything else passes through
// lowercased.
func NormalizeGender(gender string) string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male", "m":
		return "male"
	case "female", "f":
		return "female"
	default:
		return strings.ToLower(strings.TrimSpace(gender))
	}
}

// MissingRequired lists the required intake fields the profile still lacks.
func MissingRequired(profile models.ParticipantProfile) []string {
	var missing []string
	for _, field := range RequiredFields {
		switch field {
		case "dob":
			if profile.DOB == "" {
				missing = append(missing, field)
			}
		case "city":
			if profile.City == "" || profile.City == "Unknown" {
				missing = append(missing, field)
			}
		case "state":
			if profile.State == "" || profile.State == "Unknown" {
				missing = append(missing, field)
			}
		case "zip":
			if profile.Zip == "" {
				missing = append(missing, field)
			}
		case "diagnosis_history":
			if profile.DiagnosisHistory == "" {
				missing = append(missing, field)
			}
		case "age":
			if profile.Age == nil {
				missing = append(missing, field)
			}
		case "gender":
			if profile.Gender == "" {
				missing = append(missing, field)
			}
		}
	}
	return missing
}

// conditionTags expands the diagnosis history into canonical condition
// tokens and collapses affirmative screening answers into the same tag
// namespace the matcher uses.
func (b *Builder) conditionTags(profile *models.ParticipantProfile) []string {
	tags := map[string]struct{}{}

	for _, token := range strings.Split(profile.DiagnosisHistory, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if canonical, ok := b.synonyms.Canonical(token); ok {
			tags[canonical] = struct{}{}
		} else {
			tags[strings.ToLower(token)] = struct{}{}
		}
	}
	for _, canonical := range b.synonyms.Expand(profile.DiagnosisHistory) {
		tags[canonical] = struct{}{}
	}

	if isYes(profile.Bipolar) {
		tags["bipolar"] = struct{}{}
	}
	if isYes(profile.BloodPressure) {
		tags["blood_pressure"] = struct{}{}
	}
	if isYes(profile.KetamineUse) {
		tags["ketamine_use"] = struct{}{}
	}
	if isYes(profile.Pregnant) {
		tags["pregnant"] = struct{}{}
	}
	if isYes(profile.Veteran) {
		tags["veteran"] = struct{}{}
	}

	if len(tags) == 0 {
		return nil
	}
	sorted := make([]string, 0, len(tags))
	for tag := range tags {
		sorted = append(sorted, tag)
	}
	sort.Strings(sorted)
	return sorted
}

func isYes(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}
