package repository

import (
	"context"

	"clinicflow/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrackingRepository interface {
	// Upsert inserts or updates the single live row of a patient in one statement.
	// An empty location keeps the current one (DefaultCheckInLocation on insert).
	Upsert(ctx context.Context, db *gorm.DB, patientID uuid.UUID, status entity.TrackingStatus, location string) (*entity.Tracking, error)
	FindByPatientID(ctx context.Context, db *gorm.DB, patientID uuid.UUID) (*entity.Tracking, error)
	FindStates(ctx context.Context, db *gorm.DB, filter entity.TrackingFilter) ([]entity.PatientFlowState, error)
	CountByStatus(ctx context.Context, db *gorm.DB) (map[entity.TrackingStatus]int64, error)
}
