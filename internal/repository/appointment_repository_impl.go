package repository

import (
	"context"
	"errors"

	"clinicflow/internal/domain/entity"
	domainRepo "clinicflow/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Names of the constraints created by the schema migrations
const (
	activeSlotIndex       = "uq_appointments_active_slot"
	appointmentPatientFK  = "fk_appointments_patient"
	appointmentDoctorFK   = "fk_appointments_doctor"
	appointmentListSelect = "appointments.*"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

// CreateInFreeSlot runs check-then-insert in one transaction holding a
// transaction-scoped advisory lock on the slot key, so concurrent bookers of
// the same slot are serialized by the database even across processes.
func (r *appointmentRepository) CreateInFreeSlot(ctx context.Context, db *gorm.DB, appointment *entity.Appointment) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertIfSlotFree(tx, appointment)
	})
	return mapAppointmentWriteError(err)
}

// insertIfSlotFree must run inside a transaction; the advisory lock is
// released on commit or rollback.
func insertIfSlotFree(tx *gorm.DB, appointment *entity.Appointment) error {
	slot := appointment.Slot()
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", slot.Key()).Error; err != nil {
		return err
	}

	var active int64
	err := tx.Model(&entity.Appointment{}).
		Scopes(activeInSlot(slot)).
		Count(&active).Error
	if err != nil {
		return err
	}
	if active > 0 {
		return domainRepo.ErrSlotTaken
	}

	return tx.Omit("Patient", "Doctor").Create(appointment).Error
}

func (r *appointmentRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.WithContext(ctx).
		Preload("Patient").Preload("Doctor").
		Where("id = ?", id).
		First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

// UpdateStatus overwrites the status unconditionally. Returns affected rows: 0 = unknown id.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Appointment{}).
		Where("id = ?", id).
		Update("status", status)
	return result.RowsAffected, mapAppointmentWriteError(result.Error)
}

func (r *appointmentRepository) FindAll(ctx context.Context, db *gorm.DB, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	return r.find(db.WithContext(ctx), filter)
}

func (r *appointmentRepository) FindByPatientContact(ctx context.Context, db *gorm.DB, contact string, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	return r.find(db.WithContext(ctx).Where("patients.email = ?", contact), filter)
}

func (r *appointmentRepository) find(query *gorm.DB, filter entity.AppointmentFilter) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := query.
		Model(&entity.Appointment{}).
		Select(appointmentListSelect).
		Scopes(appointmentFilterScope(filter)).
		Preload("Patient").Preload("Doctor").
		Order("appointments.appointment_date DESC, appointments.appointment_time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// appointmentFilterScope joins the patient and doctor directories and adds one
// predicate per non-empty filter field
func appointmentFilterScope(filter entity.AppointmentFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.
			Joins("JOIN patients ON patients.id = appointments.patient_id").
			Joins("JOIN doctors ON doctors.id = appointments.doctor_id")

		if filter.Query != "" {
			pattern := containsPattern(filter.Query)
			db = db.Where("(patients.name ILIKE ? OR patients.patient_code ILIKE ? OR doctors.name ILIKE ?)", pattern, pattern, pattern)
		}
		if filter.Status != nil {
			db = db.Where("appointments.status = ?", *filter.Status)
		}
		if filter.Date != nil {
			db = db.Where("appointments.appointment_date = ?", filter.Date.Format(entity.DateLayout))
		}
		return db
	}
}

func activeInSlot(slot entity.Slot) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("doctor_id = ? AND appointment_date = ? AND appointment_time = ? AND status <> ?",
			slot.DoctorID, slot.Date, slot.Time, entity.AppointmentStatusCancelled)
	}
}

func mapAppointmentWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case isDuplicateKeyError(err, activeSlotIndex):
		return domainRepo.ErrSlotTaken
	case isForeignKeyError(err, appointmentPatientFK):
		return domainRepo.ErrUnknownPatient
	case isForeignKeyError(err, appointmentDoctorFK):
		return domainRepo.ErrUnknownDoctor
	}
	return err
}
