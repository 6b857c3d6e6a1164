package repository

import (
	"context"

	"clinicflow/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	// CreateInFreeSlot checks the slot and inserts the appointment as one
	// atomic unit of work. Returns ErrSlotTaken when the slot is occupied.
	CreateInFreeSlot(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus) (int64, error)
	FindAll(ctx context.Context, db *gorm.DB, filter entity.AppointmentFilter) ([]entity.Appointment, error)
	FindByPatientContact(ctx context.Context, db *gorm.DB, contact string, filter entity.AppointmentFilter) ([]entity.Appointment, error)
}
