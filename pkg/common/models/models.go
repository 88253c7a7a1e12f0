package models

import (
	"time"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geo"
)

// Chat endpoint
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type ChatReply struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// ParticipantProfile is the canonical participant record built once per
// matching request. Age and Coordinates are a valid value or nil, never a
// sentinel string.
type ParticipantProfile struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	DOB    string `json:"dob,omitempty"`
	Age    *int   `json:"age,omitempty"`
	Gender string `json:"gender,omitempty"`

	City        string     `json:"city,omitempty"`
	State       string     `json:"state,omitempty"`
	Zip         string     `json:"zip,omitempty"`
	Location    string     `json:"location,omitempty"`
	Coordinates *geo.Point `json:"coordinates,omitempty"`

	// DiagnosisHistory is the comma-joined storage form; ConditionTags is the
	// expanded token set used for matching, kept sorted for determinism.
	DiagnosisHistory string   `json:"diagnosis_history,omitempty"`
	ConditionTags    []string `json:"condition_tags,omitempty"`

	// Screening answers carried through to the CRM.
	Bipolar       string `json:"bipolar,omitempty"`
	BloodPressure string `json:"blood_pressure,omitempty"`
	KetamineUse   string `json:"ketamine_use,omitempty"`
	Pregnant      string `json:"pregnant,omitempty"`
	Veteran       string `json:"veteran,omitempty"`

	// Extras holds input fields the builder did not recognize.
	Extras map[string]string `json:"extras,omitempty"`

	// Attached by the ranking engine for downstream CRM reporting.
	MatchedTags        []string `json:"matched_tags,omitempty"`
	MatchedStudyTitles []string `json:"matched_study_titles,omitempty"`
	RiversMatch        bool     `json:"rivers_match,omitempty"`
}

// HasTag reports whether the participant carries the given condition tag.
func (p *ParticipantProfile) HasTag(tag string) bool {
	for _, t := range p.ConditionTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Study catalog
type Site struct {
	City         string   `json:"city,omitempty"`
	State        string   `json:"state,omitempty"`
	Zip          string   `json:"zip,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	ContactName  string   `json:"contact_name,omitempty"`
	ContactEmail string   `json:"contact_email,omitempty"`
	ContactPhone string   `json:"contact_phone,omitempty"`
}

// Point returns the site coordinates, or nil when either half is missing.
func (s Site) Point() *geo.Point {
	if s.Latitude == nil || s.Longitude == nil {
		return nil
	}
	return &geo.Point{Lat: *s.Latitude, Lon: *s.Longitude}
}

// TagKind discriminates the namespaced forms a study tag can take.
type TagKind int

const (
	TagCondition TagKind = iota // bare condition token
	TagInclude
	TagRequire
	TagExclude
)

// Tag is a study eligibility tag, parsed once at catalog-load time.
type Tag struct {
	Kind    TagKind `json:"kind"`
	Subject string  `json:"subject"`
}

func (t Tag) String() string {
	switch t.Kind {
	case TagInclude:
		return "include_" + t.Subject
	case TagRequire:
		return "require_" + t.Subject
	case TagExclude:
		return "exclude_" + t.Subject
	default:
		return t.Subject
	}
}

type StudyRecord struct {
	NCTID             string     `json:"nct_id,omitempty"`
	Title             string     `json:"study_title"`
	RecruitmentStatus string     `json:"recruitment_status,omitempty"`
	Tags              []Tag      `json:"tags,omitempty"`
	MinAge            *int       `json:"min_age,omitempty"`
	MaxAge            *int       `json:"max_age,omitempty"`
	AllowedStates     []string   `json:"allowed_states,omitempty"`
	Sites             []Site     `json:"sites,omitempty"`
	Coordinates       *geo.Point `json:"coordinates,omitempty"`
	Summary           string     `json:"summary,omitempty"`
	EligibilityText   string     `json:"eligibility_text,omitempty"`
	Location          string     `json:"location,omitempty"`
	Link              string     `json:"study_link,omitempty"`
	ContactName       string     `json:"contact_name,omitempty"`
	ContactEmail      string     `json:"contact_email,omitempty"`
	ContactPhone      string     `json:"contact_phone,omitempty"`
}

// HasTag reports whether the study carries the exact tag.
func (s *StudyRecord) HasTag(kind TagKind, subject string) bool {
	for _, t := range s.Tags {
		if t.Kind == kind && t.Subject == subject {
			return true
		}
	}
	return false
}

// MatchResult is one eligible study with its clamped score and the ordered,
// human-readable reasons behind it. Never mutated after construction.
type MatchResult struct {
	Study         StudyRecord `json:"study"`
	MatchingSites []Site      `json:"matching_sites,omitempty"`
	DistanceMiles *float64    `json:"distance_miles,omitempty"`
	Score         int         `json:"score"`
	Reasons       []string    `json:"reasons"`
}

// Event Bus
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // lead, intake, crm
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Lead is the flattened record pushed to the CRM board.
type Lead struct {
	ID        string             `json:"id"`
	Profile   ParticipantProfile `json:"profile"`
	CreatedAt time.Time          `json:"created_at"`
}
