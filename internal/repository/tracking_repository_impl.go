package repository

import (
	"context"
	"errors"

	"clinicflow/internal/domain/entity"
	domainRepo "clinicflow/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const trackingPatientFK = "fk_tracking_patient"

type trackingRepository struct{}

func NewTrackingRepository() domainRepo.TrackingRepository {
	return &trackingRepository{}
}

// Upsert writes the live row of a patient with a single INSERT ... ON CONFLICT
// statement, so concurrent check-ins of one patient never create a second row.
func (r *trackingRepository) Upsert(ctx context.Context, db *gorm.DB, patientID uuid.UUID, status entity.TrackingStatus, location string) (*entity.Tracking, error) {
	row := entity.Tracking{
		PatientID: patientID,
		Status:    status,
		Location:  location,
	}

	set := clause.Set{
		{Column: clause.Column{Name: "status"}, Value: status},
		{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("now()")},
	}
	if location == "" {
		row.Location = entity.DefaultCheckInLocation
	} else {
		set = append(set, clause.Assignment{Column: clause.Column{Name: "location"}, Value: location})
	}

	err := db.WithContext(ctx).
		Omit("Patient").
		Clauses(
			clause.OnConflict{Columns: []clause.Column{{Name: "patient_id"}}, DoUpdates: set},
			clause.Returning{},
		).
		Create(&row).Error
	if err != nil {
		if isForeignKeyError(err, trackingPatientFK) {
			return nil, domainRepo.ErrUnknownPatient
		}
		return nil, err
	}
	return &row, nil
}

func (r *trackingRepository) FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) (*entity.Tracking, error) {
	var tracking entity.Tracking
	err := db.WithContext(ctx).Where("patient_id = ?", patientID).First(&tracking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tracking, nil
}

// FindStates returns every enrolled patient with its live tracking row, most
// recently updated first; patients never checked in come last.
func (r *trackingRepository) FindStates(ctx context.Context, db *gorm.DB, filter entity.TrackingFilter) ([]entity.PatientFlowState, error) {
	var states []entity.PatientFlowState
	err := db.WithContext(ctx).
		Scopes(flowStateQuery, trackingFilterScope(filter)).
		Order("tracking.updated_at DESC NULLS LAST, patients.name ASC").
		Scan(&states).Error
	if err != nil {
		return nil, err
	}
	return states, nil
}

func (r *trackingRepository) CountByStatus(ctx context.Context, db *gorm.DB) (map[entity.TrackingStatus]int64, error) {
	var rows []struct {
		Status entity.TrackingStatus
		Total  int64
	}
	err := db.WithContext(ctx).
		Model(&entity.Tracking{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.TrackingStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func flowStateQuery(db *gorm.DB) *gorm.DB {
	return db.Table("patients").
		Select("patients.id AS patient_id, patients.patient_code, patients.name, patients.contact, " +
			"tracking.status, tracking.location, tracking.updated_at").
		Joins("LEFT JOIN tracking ON tracking.patient_id = patients.id")
}

// trackingFilterScope adds one predicate per non-empty filter field
func trackingFilterScope(filter entity.TrackingFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Query != "" {
			pattern := containsPattern(filter.Query)
			db = db.Where("(patients.name ILIKE ? OR patients.patient_code ILIKE ?)", pattern, pattern)
		}
		if filter.Status != nil {
			db = db.Where("tracking.status = ?", *filter.Status)
		}
		if filter.Location != "" {
			db = db.Where("tracking.location = ?", filter.Location)
		}
		return db
	}
}
