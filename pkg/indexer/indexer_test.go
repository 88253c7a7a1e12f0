package indexer

import (
	"testing"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/terminology"
)

const sampleStudyXML = `<clinical_study>
  <id_info><nct_id>NCT01234567</nct_id></id_info>
  <brief_title>Ketamine for Treatment-Resistant Depression</brief_title>
  <overall_status>Recruiting</overall_status>
  <brief_summary>
    <textblock>
      A study of ketamine
      in adults with depression.
    </textblock>
  </brief_summary>
  <eligibility>
    <criteria>
      <textblock>Inclusion: adults 21 to 65 years with major depressive disorder.</textblock>
    </criteria>
  </eligibility>
  <overall_official>
    <last_name>Dr. Smith</last_name>
    <email>smith@example.org</email>
  </overall_official>
  <location>
    <facility>
      <address>
        <city>Bozeman</city>
        <state>Montana</state>
        <zip>59715</zip>
      </address>
    </facility>
    <contact>
      <phone>406-555-0101</phone>
    </contact>
  </location>
  <location_countries>
    <country>United States</country>
  </location_countries>
</clinical_study>`

func newTestIndexer(keywords ...string) *Indexer {
	return New(terminology.DefaultCatalog(), keywords, true)
}

func TestParseExtractsStudyFields(t *testing.T) {
	record, err := newTestIndexer().Parse([]byte(sampleStudyXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected a record")
	}

	if record.NCTID != "NCT01234567" {
		t.Fatalf("unexpected nct id %q", record.NCTID)
	}
	if record.Title != "Ketamine for Treatment-Resistant Depression" {
		t.Fatalf("unexpected title %q", record.Title)
	}
	if record.RecruitmentStatus != "Recruiting" {
		t.Fatalf("unexpected status %q", record.RecruitmentStatus)
	}
	if record.Summary != "A study of ketamine in adults with depression." {
		t.Fatalf("expected collapsed summary, got %q", record.Summary)
	}
	if record.Link != "https://clinicaltrials.gov/study/NCT01234567" {
		t.Fatalf("unexpected link %q", record.Link)
	}
	if record.Location != "Bozeman, Montana" {
		t.Fatalf("unexpected location %q", record.Location)
	}
	if record.MinAge == nil || *record.MinAge != 21 {
		t.Fatalf("unexpected min age %v", record.MinAge)
	}
	if record.MaxAge == nil || *record.MaxAge != 65 {
		t.Fatalf("unexpected max age %v", record.MaxAge)
	}
}

func TestParseContactFallbackChain(t *testing.T) {
	record, err := newTestIndexer().Parse([]byte(sampleStudyXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Email comes from the overall official, phone from the first location.
	if record.ContactName != "Dr. Smith" {
		t.Fatalf("unexpected contact name %q", record.ContactName)
	}
	if record.ContactEmail != "smith@example.org" {
		t.Fatalf("unexpected contact email %q", record.ContactEmail)
	}
	if record.ContactPhone != "406-555-0101" {
		t.Fatalf("unexpected contact phone %q", record.ContactPhone)
	}
}

func TestParseDerivesConditionTags(t *testing.T) {
	record, err := newTestIndexer().Parse([]byte(sampleStudyXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, tag := range record.Tags {
		if tag.Kind == models.TagCondition && tag.Subject == "depression" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected depression tag, got %v", record.Tags)
	}
}

func TestParseFiltersNonUSStudies(t *testing.T) {
	foreign := `<clinical_study>
  <id_info><nct_id>NCT0000001</nct_id></id_info>
  <brief_title>Overseas Study</brief_title>
  <location_countries><country>Canada</country></location_countries>
</clinical_study>`

	record, err := newTestIndexer().Parse([]byte(foreign))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Fatalf("expected non-US study to be filtered, got %+v", record)
	}
}

func TestParseKeywordFilter(t *testing.T) {
	record, err := newTestIndexer("depression").Parse([]byte(sampleStudyXML))
	if err != nil || record == nil {
		t.Fatalf("expected keyword match, got record=%v err=%v", record, err)
	}

	record, err = newTestIndexer("oncology").Parse([]byte(sampleStudyXML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Fatalf("expected keyword miss to filter, got %+v", record)
	}
}

func TestParseRejectsMissingNCTID(t *testing.T) {
	if _, err := newTestIndexer().Parse([]byte(`<clinical_study></clinical_study>`)); err == nil {
		t.Fatal("expected error for missing nct_id")
	}
}

func TestExtractAgeRangeForms(t *testing.T) {
	for _, text := range []string{
		"ages 21 to 65 years",
		"21-65 yrs",
		"between 21 and 65",
	} {
		low, high := extractAgeRange(text)
		if low == nil || high == nil || *low != 21 || *high != 65 {
			t.Fatalf("text %q: expected 21-65, got %v %v", text, low, high)
		}
	}

	if low, high := extractAgeRange("no ages here"); low != nil || high != nil {
		t.Fatalf("expected nil bounds, got %v %v", low, high)
	}
}
