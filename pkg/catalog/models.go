package catalog

import (
	"time"

	"gorm.io/datatypes"
)

// StudyRow is the persisted catalog entry written by the indexer. Tags,
// sites, and allowed states live in jsonb columns so the indexer can evolve
// their shape without migrations.
type StudyRow struct {
	ID                string         `gorm:"primaryKey;column:id"`
	NCTID             string         `gorm:"column:nct_id;index"`
	Title             string         `gorm:"column:title"`
	RecruitmentStatus string         `gorm:"column:recruitment_status"`
	Tags              datatypes.JSON `gorm:"column:tags;type:jsonb"`
	MinAge            *int           `gorm:"column:min_age"`
	MaxAge            *int           `gorm:"column:max_age"`
	AllowedStates     datatypes.JSON `gorm:"column:allowed_states;type:jsonb"`
	Sites             datatypes.JSON `gorm:"column:sites;type:jsonb"`
	Latitude          *float64       `gorm:"column:latitude"`
	Longitude         *float64       `gorm:"column:longitude"`
	Summary           string         `gorm:"column:summary"`
	EligibilityText   string         `gorm:"column:eligibility_text"`
	Location          string         `gorm:"column:location"`
	Link              string         `gorm:"column:link"`
	ContactName       string         `gorm:"column:contact_name"`
	ContactEmail      string         `gorm:"column:contact_email"`
	ContactPhone      string         `gorm:"column:contact_phone"`
	Active            bool           `gorm:"column:active;default:true"`
	IndexedAt         time.Time      `gorm:"column:indexed_at"`
}

func (StudyRow) TableName() string {
	return "studies"
}
