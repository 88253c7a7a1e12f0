package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geo"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/matching"
)

// Source yields the study catalog for one match request. Implementations
// load fresh on every call.
type Source interface {
	ListActive(ctx context.Context) ([]models.StudyRecord, error)
}

// FileSource reads the indexer's JSON snapshot. Older snapshots used
// slightly different key names; the aliases below keep them loadable.
type FileSource struct {
	Path string
}

type fileStudy struct {
	NCTID             string     `json:"nct_id"`
	Title             string     `json:"study_title"`
	RecruitmentStatus string     `json:"recruitment_status"`
	Tags              []string   `json:"tags"`
	MinAge            *int       `json:"min_age"`
	MinAgeYears       *int       `json:"min_age_years"`
	MinAgeNum         *int       `json:"min_age_num"`
	MaxAge            *int       `json:"max_age"`
	MaxAgeYears       *int       `json:"max_age_years"`
	MaxAgeNum         *int       `json:"max_age_num"`
	AllowedStates     []string   `json:"allowed_states"`
	Sites             []fileSite `json:"sites"`
	LegacySites       []fileSite `json:"site_locations_and_contacts"`
	Coordinates       []float64  `json:"coordinates"`
	Summary           string     `json:"summary"`
	BriefSummary      string     `json:"brief_summary"`
	EligibilityText   string     `json:"eligibility_text"`
	Location          string     `json:"location"`
	Link              string     `json:"study_link"`
	URL               string     `json:"url"`
	ContactName       string     `json:"contact_name"`
	ContactEmail      string     `json:"contact_email"`
	ContactPhone      string     `json:"contact_phone"`
}

type fileSite struct {
	City         string   `json:"city"`
	State        string   `json:"state"`
	Zip          string   `json:"zip"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	ContactName  string   `json:"contact_name"`
	ContactEmail string   `json:"contact_email"`
	ContactPhone string   `json:"contact_phone"`
}

func (f FileSource) ListActive(_ context.Context) ([]models.StudyRecord, error) {
	content, err := os.ReadFile(filepath.Clean(f.Path))
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var raw []fileStudy
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	studies := make([]models.StudyRecord, 0, len(raw))
	for i := range raw {
		studies = append(studies, decodeFileStudy(&raw[i]))
	}
	return studies, nil
}

func decodeFileStudy(fs *fileStudy) models.StudyRecord {
	study := models.StudyRecord{
		NCTID:             fs.NCTID,
		Title:             fs.Title,
		RecruitmentStatus: fs.RecruitmentStatus,
		Tags:              matching.ParseTags(fs.Tags),
		MinAge:            firstInt(fs.MinAge, fs.MinAgeYears, fs.MinAgeNum),
		MaxAge:            firstInt(fs.MaxAge, fs.MaxAgeYears, fs.MaxAgeNum),
		AllowedStates:     fs.AllowedStates,
		Summary:           firstString(fs.Summary, fs.BriefSummary),
		EligibilityText:   fs.EligibilityText,
		Location:          fs.Location,
		Link:              firstString(fs.Link, fs.URL),
		ContactName:       fs.ContactName,
		ContactEmail:      fs.ContactEmail,
		ContactPhone:      fs.ContactPhone,
	}

	sites := fs.Sites
	if len(sites) == 0 {
		sites = fs.LegacySites
	}
	for _, s := range sites {
		study.Sites = append(study.Sites, models.Site{
			City:         s.City,
			State:        s.State,
			Zip:          s.Zip,
			Latitude:     firstFloat(s.Latitude, s.Lat),
			Longitude:    firstFloat(s.Longitude, s.Lon),
			ContactName:  s.ContactName,
			ContactEmail: s.ContactEmail,
			ContactPhone: s.ContactPhone,
		})
	}

	if len(fs.Coordinates) == 2 {
		study.Coordinates = &geo.Point{Lat: fs.Coordinates[0], Lon: fs.Coordinates[1]}
	}
	return study
}

func firstInt(candidates ...*int) *int {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func firstFloat(candidates ...*float64) *float64 {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func firstString(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
