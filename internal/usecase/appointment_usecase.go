package usecase

import (
	"context"
	"errors"
	"time"

	"clinicflow/internal/converter"
	"clinicflow/internal/delivery/dto"
	"clinicflow/internal/domain/entity"
	"clinicflow/internal/domain/repository"
	"clinicflow/internal/service"
	"clinicflow/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AppointmentUsecase interface {
	Book(ctx context.Context, identity entity.Identity, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	UpdateStatus(ctx context.Context, identity entity.Identity, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error)
	List(ctx context.Context, identity entity.Identity, req *dto.AppointmentSearchRequest) (*dto.AppointmentListResponse, error)
	Get(ctx context.Context, identity entity.Identity, id uuid.UUID) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	db              *gorm.DB
	log             *logrus.Logger
	validator       *validator.CustomValidator
	appointmentRepo repository.AppointmentRepository
	patientRepo     repository.PatientRepository
	doctorRepo      repository.DoctorRepository
	locker          service.SlotLocker
	auditService    service.AuditService
	publisher       service.EventPublisher
}

func NewAppointmentUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	validator *validator.CustomValidator,
	appointmentRepo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	doctorRepo repository.DoctorRepository,
	locker service.SlotLocker,
	auditService service.AuditService,
	publisher service.EventPublisher,
) AppointmentUsecase {
	return &appointmentUsecase{
		db:              db,
		log:             log,
		validator:       validator,
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		doctorRepo:      doctorRepo,
		locker:          locker,
		auditService:    auditService,
		publisher:       publisher,
	}
}

// Book reserves a doctor slot for a patient.
//
// Flow:
// 1. Validate request and resolve patient and doctor
// 2. Acquire the slot lock (bounded wait, conflict if it stays held)
// 3. Check-then-insert inside one transaction guarded by an advisory lock
// 4. Audit and publish after commit; failures there are only logged
func (u *appointmentUsecase) Book(ctx context.Context, identity entity.Identity, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	if err := validateRequest(u.validator, req); err != nil {
		return nil, err
	}

	patientID, _ := uuid.Parse(req.PatientID)
	doctorID, _ := uuid.Parse(req.DoctorID)
	date, _ := time.Parse(entity.DateLayout, req.Date)
	slotTime, _ := validator.ParseSlotTime(req.Time)

	patient, err := u.patientRepo.FindByID(ctx, u.db, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return nil, storageError("find patient", err)
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	doctor, err := u.doctorRepo.FindByID(ctx, u.db, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, storageError("find doctor", err)
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}
	if !doctor.Available {
		return nil, ErrDoctorUnavailable
	}

	appointment := &entity.Appointment{
		PatientID:       patientID,
		DoctorID:        doctorID,
		AppointmentDate: date,
		AppointmentTime: slotTime,
		Notes:           req.Notes,
		Status:          entity.AppointmentStatusScheduled,
	}
	slotKey := appointment.Slot().Key()

	err = u.locker.WithSlotLock(ctx, slotKey, func(ctx context.Context) error {
		return u.appointmentRepo.CreateInFreeSlot(ctx, u.db, appointment)
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLockNotAcquired), errors.Is(err, repository.ErrSlotTaken):
			u.log.WithField("slot", slotKey).Info("Booking rejected: slot already booked")
			return nil, ErrSlotAlreadyBooked
		case errors.Is(err, repository.ErrUnknownPatient):
			return nil, ErrPatientNotFound
		case errors.Is(err, repository.ErrUnknownDoctor):
			return nil, ErrDoctorNotFound
		}
		u.log.Warnf("Failed to book slot %s: %+v", slotKey, err)
		return nil, storageError("book appointment", err)
	}

	appointment.Patient = *patient
	appointment.Doctor = *doctor
	resp := converter.AppointmentToResponse(appointment)

	if err := u.auditService.LogCreate(ctx, u.db, actorID(identity), entity.AuditActionAppointmentBook,
		entity.AuditEntityAppointment, appointment.ID.String(), resp); err != nil {
		u.log.Warnf("Failed to audit booking %s: %+v", appointment.ID, err)
	}
	u.publish(ctx, entity.FlowEvent{
		Type:       entity.EventAppointmentBooked,
		EntityID:   appointment.ID.String(),
		OccurredAt: time.Now().UTC(),
		Data: map[string]interface{}{
			"patient_id":       patientID.String(),
			"doctor_id":        doctorID.String(),
			"appointment_date": resp.AppointmentDate,
			"appointment_time": resp.AppointmentTime,
		},
	})

	u.log.Infof("Appointment booked: id=%s, slot=%s", appointment.ID, slotKey)
	return resp, nil
}

// UpdateStatus overwrites the appointment status. Any status may follow any other.
func (u *appointmentUsecase) UpdateStatus(ctx context.Context, identity entity.Identity, id uuid.UUID, req *dto.UpdateAppointmentStatusRequest) (*dto.AppointmentResponse, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	if err := validateRequest(u.validator, req); err != nil {
		return nil, err
	}
	status, _ := entity.ParseAppointmentStatus(req.Status)

	appointment, err := u.appointmentRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, storageError("find appointment", err)
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	oldStatus := appointment.Status

	affected, err := u.appointmentRepo.UpdateStatus(ctx, u.db, id, status)
	if err != nil {
		// Reviving a cancelled appointment whose slot was rebooked
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, ErrSlotAlreadyBooked
		}
		u.log.Warnf("Failed to update appointment %s status: %+v", id, err)
		return nil, storageError("update appointment status", err)
	}
	if affected == 0 {
		return nil, ErrAppointmentNotFound
	}

	appointment.Status = status
	appointment.UpdatedAt = time.Now().UTC()

	if err := u.auditService.LogUpdate(ctx, u.db, actorID(identity), entity.AuditActionAppointmentStatus,
		entity.AuditEntityAppointment, id.String(), string(oldStatus), string(status)); err != nil {
		u.log.Warnf("Failed to audit status change of appointment %s: %+v", id, err)
	}
	u.publish(ctx, entity.FlowEvent{
		Type:       entity.EventAppointmentStatusChanged,
		EntityID:   id.String(),
		OccurredAt: appointment.UpdatedAt,
		Data: map[string]interface{}{
			"old_status": string(oldStatus),
			"new_status": string(status),
		},
	})

	return converter.AppointmentToResponse(appointment), nil
}

// List returns every appointment for admins and only the caller's own
// appointments otherwise, most recent slot first.
func (u *appointmentUsecase) List(ctx context.Context, identity entity.Identity, req *dto.AppointmentSearchRequest) (*dto.AppointmentListResponse, error) {
	if req == nil {
		req = &dto.AppointmentSearchRequest{}
	}
	filter, err := u.appointmentFilter(req)
	if err != nil {
		return nil, err
	}

	var appointments []entity.Appointment
	switch {
	case identity.IsAdmin():
		appointments, err = u.appointmentRepo.FindAll(ctx, u.db, filter)
	case identity.Contact == "":
		// No linked patient record, nothing to show
		appointments = []entity.Appointment{}
	default:
		appointments, err = u.appointmentRepo.FindByPatientContact(ctx, u.db, identity.Contact, filter)
	}
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, storageError("list appointments", err)
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        len(appointments),
	}, nil
}

func (u *appointmentUsecase) Get(ctx context.Context, identity entity.Identity, id uuid.UUID) (*dto.AppointmentResponse, error) {
	appointment, err := u.appointmentRepo.FindByID(ctx, u.db, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %s: %+v", id, err)
		return nil, storageError("find appointment", err)
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}
	if !identity.IsAdmin() && (identity.Contact == "" || appointment.Patient.Email != identity.Contact) {
		return nil, ErrNotAppointmentOwner
	}

	return converter.AppointmentToResponse(appointment), nil
}

func (u *appointmentUsecase) appointmentFilter(req *dto.AppointmentSearchRequest) (entity.AppointmentFilter, error) {
	if err := validateRequest(u.validator, req); err != nil {
		return entity.AppointmentFilter{}, err
	}

	filter := entity.AppointmentFilter{Query: req.Query}
	if req.Status != "" {
		status, _ := entity.ParseAppointmentStatus(req.Status)
		filter.Status = &status
	}
	if req.Date != "" {
		date, _ := time.Parse(entity.DateLayout, req.Date)
		filter.Date = &date
	}
	return filter, nil
}

func (u *appointmentUsecase) publish(ctx context.Context, event entity.FlowEvent) {
	if u.publisher == nil {
		return
	}
	if err := u.publisher.Publish(ctx, event); err != nil {
		u.log.Warnf("Failed to publish %s event for %s: %+v", event.Type, event.EntityID, err)
	}
}
