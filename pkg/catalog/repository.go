package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/logger"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geo"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/matching"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&StudyRow{})
}

// ListActive loads the active catalog fresh; the matcher contract requires
// per-request loading, no cross-request caching.
func (r *Repository) ListActive(ctx context.Context) ([]models.StudyRecord, error) {
	var rows []StudyRow
	result := r.db.WithContext(ctx).Where("active = ?", true).Order("title ASC").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	studies := make([]models.StudyRecord, 0, len(rows))
	for i := range rows {
		studies = append(studies, decodeRow(&rows[i]))
	}
	return studies, nil
}

// Upsert replaces the row for the study's NCT id, or inserts a new one.
func (r *Repository) Upsert(ctx context.Context, row *StudyRow) error {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	row.IndexedAt = time.Now().UTC()

	var existing StudyRow
	err := r.db.WithContext(ctx).Where("nct_id = ?", row.NCTID).First(&existing).Error
	if err == nil {
		row.ID = existing.ID
		return r.db.WithContext(ctx).Save(row).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// EncodeRow converts an indexed record into its persisted shape.
func EncodeRow(study models.StudyRecord) (*StudyRow, error) {
	tags := make([]string, 0, len(study.Tags))
	for _, t := range study.Tags {
		tags = append(tags, t.String())
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	statesJSON, err := json.Marshal(study.AllowedStates)
	if err != nil {
		return nil, err
	}
	sitesJSON, err := json.Marshal(study.Sites)
	if err != nil {
		return nil, err
	}

	row := &StudyRow{
		NCTID:             study.NCTID,
		Title:             study.Title,
		RecruitmentStatus: study.RecruitmentStatus,
		Tags:              tagsJSON,
		MinAge:            study.MinAge,
		MaxAge:            study.MaxAge,
		AllowedStates:     statesJSON,
		Sites:             sitesJSON,
		Summary:           study.Summary,
		EligibilityText:   study.EligibilityText,
		Location:          study.Location,
		Link:              study.Link,
		ContactName:       study.ContactName,
		ContactEmail:      study.ContactEmail,
		ContactPhone:      study.ContactPhone,
		Active:            true,
	}
	if study.Coordinates != nil {
		lat, lon := study.Coordinates.Lat, study.Coordinates.Lon
		row.Latitude, row.Longitude = &lat, &lon
	}
	return row, nil
}

// decodeRow converts a persisted row to the matching-engine shape, applying
// per-field defaults for malformed data so the record is still evaluated.
func decodeRow(row *StudyRow) models.StudyRecord {
	study := models.StudyRecord{
		NCTID:             row.NCTID,
		Title:             row.Title,
		RecruitmentStatus: row.RecruitmentStatus,
		MinAge:            row.MinAge,
		MaxAge:            row.MaxAge,
		Summary:           row.Summary,
		EligibilityText:   row.EligibilityText,
		Location:          row.Location,
		Link:              row.Link,
		ContactName:       row.ContactName,
		ContactEmail:      row.ContactEmail,
		ContactPhone:      row.ContactPhone,
	}

	if row.Latitude != nil && row.Longitude != nil {
		study.Coordinates = &geo.Point{Lat: *row.Latitude, Lon: *row.Longitude}
	}

	var rawTags []string
	if len(row.Tags) > 0 {
		if err := json.Unmarshal(row.Tags, &rawTags); err != nil {
			logger.Log.WithError(err).WithField("study", row.Title).Warn("Malformed tags column, defaulting to empty")
		}
	}
	study.Tags = matching.ParseTags(rawTags)

	if len(row.AllowedStates) > 0 {
		if err := json.Unmarshal(row.AllowedStates, &study.AllowedStates); err != nil {
			logger.Log.WithError(err).WithField("study", row.Title).Warn("Malformed allowed_states column, defaulting to empty")
			study.AllowedStates = nil
		}
	}

	if len(row.Sites) > 0 {
		if err := json.Unmarshal(row.Sites, &study.Sites); err != nil {
			logger.Log.WithError(err).WithField("study", row.Title).Warn("Malformed sites column, defaulting to empty")
			study.Sites = nil
		}
	}

	return study
}
