package repository

import (
	"context"

	"clinicflow/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorRepository interface {
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Doctor, error)
	FindAvailable(ctx context.Context, db *gorm.DB) ([]entity.Doctor, error)
}
