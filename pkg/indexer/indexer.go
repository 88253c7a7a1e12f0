// Package indexer builds the study catalog from ClinicalTrials.gov public
// XML exports. Extraction mirrors the registry schema: one <clinical_study>
// document per file, with contact details scattered across the overall
// official and per-location blocks.
package indexer

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/matching"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/terminology"
)

var usAliases = map[string]bool{
	"united states": true,
	"usa":           true,
	"us":            true,
	"u.s.":          true,
	"u.s.a.":        true,
}

var (
	ageRangeRe   = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:to|-|–|and)\s*(\d{1,2})\s*(?:years|yrs)?`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

type clinicalStudy struct {
	IDInfo struct {
		NCTID string `xml:"nct_id"`
	} `xml:"id_info"`
	BriefTitle    string `xml:"brief_title"`
	OverallStatus string `xml:"overall_status"`
	BriefSummary  struct {
		Textblock string `xml:"textblock"`
	} `xml:"brief_summary"`
	DetailedDescription struct {
		Textblock string `xml:"textblock"`
	} `xml:"detailed_description"`
	Eligibility struct {
		Criteria struct {
			Textblock string `xml:"textblock"`
		} `xml:"criteria"`
	} `xml:"eligibility"`
	OverallOfficial struct {
		LastName string `xml:"last_name"`
		Email    string `xml:"email"`
		Phone    string `xml:"phone"`
	} `xml:"overall_official"`
	Locations []studyLocation `xml:"location"`
	Countries struct {
		Country []string `xml:"country"`
	} `xml:"location_countries"`
}

type studyLocation struct {
	Facility struct {
		Address struct {
			City  string `xml:"city"`
			State string `xml:"state"`
			Zip   string `xml:"zip"`
		} `xml:"address"`
	} `xml:"facility"`
	Contact       studyContact `xml:"contact"`
	ContactBackup studyContact `xml:"contact_backup"`
}

type studyContact struct {
	LastName string `xml:"last_name"`
	Email    string `xml:"email"`
	Phone    string `xml:"phone"`
}

// Indexer turns raw registry XML into catalog records. Condition tags are
// derived from the synonym catalog over the study's full text.
type Indexer struct {
	synonyms Catalog
	keywords []string
	usOnly   bool
}

// Catalog is the synonym surface the indexer needs.
type Catalog interface {
	Expand(text string) []string
}

func New(synonyms terminology.Catalog, keywords []string, usOnly bool) *Indexer {
	return &Indexer{synonyms: synonyms, keywords: keywords, usOnly: usOnly}
}

// Parse decodes one registry XML document. A nil record with a nil error
// means the study was filtered out, not that parsing failed.
func (ix *Indexer) Parse(data []byte) (*models.StudyRecord, error) {
	var doc clinicalStudy
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode study xml: %w", err)
	}
	if doc.IDInfo.NCTID == "" {
		return nil, fmt.Errorf("study has no nct_id")
	}

	summary := collapseWhitespace(doc.BriefSummary.Textblock)
	if summary == "" {
		summary = collapseWhitespace(doc.DetailedDescription.Textblock)
	}
	eligibility := strings.TrimSpace(doc.Eligibility.Criteria.Textblock)
	fullText := strings.Join([]string{doc.BriefTitle, summary, eligibility}, " ")

	if !matchesKeywords(fullText, ix.keywords) {
		return nil, nil
	}
	if ix.usOnly && !isUS(doc.Countries.Country) {
		return nil, nil
	}

	record := &models.StudyRecord{
		NCTID:             doc.IDInfo.NCTID,
		Title:             strings.TrimSpace(doc.BriefTitle),
		RecruitmentStatus: strings.TrimSpace(doc.OverallStatus),
		Summary:           summary,
		EligibilityText:   eligibility,
		Location:          primaryLocation(doc.Locations),
		Link:              "https://clinicaltrials.gov/study/" + doc.IDInfo.NCTID,
		Sites:             extractSites(doc.Locations),
	}
	record.ContactName, record.ContactEmail, record.ContactPhone = extractContact(doc)
	record.MinAge, record.MaxAge = extractAgeRange(eligibility)
	record.Tags = matching.ParseTags(ix.synonyms.Expand(fullText))
	return record, nil
}

// extractContact prefers the overall official and falls back to the first
// location that lists an email or phone.
func extractContact(doc clinicalStudy) (name, email, phone string) {
	name = strings.TrimSpace(doc.OverallOfficial.LastName)
	email = strings.TrimSpace(doc.OverallOfficial.Email)
	phone = strings.TrimSpace(doc.OverallOfficial.Phone)
	if email != "" && phone != "" {
		return name, email, phone
	}
	for _, loc := range doc.Locations {
		if email == "" {
			email = firstNonEmpty(loc.Contact.Email, loc.ContactBackup.Email)
		}
		if phone == "" {
			phone = firstNonEmpty(loc.Contact.Phone, loc.ContactBackup.Phone)
		}
		if name == "" {
			name = firstNonEmpty(loc.Contact.LastName, loc.ContactBackup.LastName)
		}
		if email != "" || phone != "" {
			break
		}
	}
	return name, email, phone
}

func extractSites(locations []studyLocation) []models.Site {
	var sites []models.Site
	for _, loc := range locations {
		site := models.Site{
			City:         strings.TrimSpace(loc.Facility.Address.City),
			State:        strings.TrimSpace(loc.Facility.Address.State),
			Zip:          strings.TrimSpace(loc.Facility.Address.Zip),
			ContactName:  firstNonEmpty(loc.Contact.LastName, loc.ContactBackup.LastName),
			ContactEmail: firstNonEmpty(loc.Contact.Email, loc.ContactBackup.Email),
			ContactPhone: firstNonEmpty(loc.Contact.Phone, loc.ContactBackup.Phone),
		}
		if site.City == "" && site.State == "" {
			continue
		}
		sites = append(sites, site)
	}
	return sites
}

func primaryLocation(locations []studyLocation) string {
	if len(locations) == 0 {
		return ""
	}
	city := strings.TrimSpace(locations[0].Facility.Address.City)
	state := strings.TrimSpace(locations[0].Facility.Address.State)
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	default:
		return ""
	}
}

// extractAgeRange pulls the first "N to M years" style range out of the
// eligibility text. Both bounds come back nil when nothing matches.
func extractAgeRange(text string) (*int, *int) {
	m := ageRangeRe.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	low, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, nil
	}
	high, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, nil
	}
	return &low, &high
}

func matchesKeywords(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lowered := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lowered, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func isUS(countries []string) bool {
	for _, c := range countries {
		if usAliases[strings.ToLower(strings.TrimSpace(c))] {
			return true
		}
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
