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

type TrackingUsecase interface {
	CheckIn(ctx context.Context, identity entity.Identity, req *dto.CheckInRequest) (*dto.TrackingResponse, error)
	SetStatus(ctx context.Context, identity entity.Identity, req *dto.UpdateTrackingRequest) (*dto.TrackingResponse, error)
	CurrentStates(ctx context.Context, identity entity.Identity) (*dto.PatientStateListResponse, error)
	Search(ctx context.Context, identity entity.Identity, req *dto.TrackingSearchRequest) (*dto.PatientStateListResponse, error)
	Stats(ctx context.Context, identity entity.Identity) (*dto.TrackingStatsResponse, error)
	History(ctx context.Context, identity entity.Identity, patientID uuid.UUID) (*dto.AuditLogListResponse, error)
	// LiveFilter authorizes a live-feed subscription and parses its filter
	LiveFilter(identity entity.Identity, req *dto.TrackingSearchRequest) (entity.TrackingFilter, error)
}

type trackingUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	validator    *validator.CustomValidator
	trackingRepo repository.TrackingRepository
	patientRepo  repository.PatientRepository
	auditRepo    repository.AuditLogRepository
	auditService service.AuditService
	publisher    service.EventPublisher
}

func NewTrackingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	validator *validator.CustomValidator,
	trackingRepo repository.TrackingRepository,
	patientRepo repository.PatientRepository,
	auditRepo repository.AuditLogRepository,
	auditService service.AuditService,
	publisher service.EventPublisher,
) TrackingUsecase {
	return &trackingUsecase{
		db:           db,
		log:          log,
		validator:    validator,
		trackingRepo: trackingRepo,
		patientRepo:  patientRepo,
		auditRepo:    auditRepo,
		auditService: auditService,
		publisher:    publisher,
	}
}

// CheckIn puts a patient on the board. Checking in twice updates the same row.
func (u *trackingUsecase) CheckIn(ctx context.Context, identity entity.Identity, req *dto.CheckInRequest) (*dto.TrackingResponse, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	if err := validateRequest(u.validator, req); err != nil {
		return nil, err
	}

	status := entity.TrackingStatusCheckedIn
	if req.Status != "" {
		status, _ = entity.ParseTrackingStatus(req.Status)
	}
	location := req.Location
	if location == "" {
		location = entity.DefaultCheckInLocation
	}

	patientID, _ := uuid.Parse(req.PatientID)
	return u.upsert(ctx, identity, patientID, status, location, entity.AuditActionTrackingCheckIn)
}

// SetStatus moves a patient to a new status. An empty location keeps the current one.
func (u *trackingUsecase) SetStatus(ctx context.Context, identity entity.Identity, req *dto.UpdateTrackingRequest) (*dto.TrackingResponse, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	if err := validateRequest(u.validator, req); err != nil {
		return nil, err
	}

	status, _ := entity.ParseTrackingStatus(req.Status)
	patientID, _ := uuid.Parse(req.PatientID)
	return u.upsert(ctx, identity, patientID, status, req.Location, entity.AuditActionTrackingUpdate)
}

func (u *trackingUsecase) upsert(ctx context.Context, identity entity.Identity, patientID uuid.UUID, status entity.TrackingStatus, location, action string) (*dto.TrackingResponse, error) {
	patient, err := u.patientRepo.FindByID(ctx, u.db, patientID)
	if err != nil {
		u.log.Warnf("Failed to find patient %s: %+v", patientID, err)
		return nil, storageError("find patient", err)
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	previous, err := u.trackingRepo.FindByPatientID(ctx, u.db, patientID)
	if err != nil {
		u.log.Warnf("Failed to read tracking of patient %s: %+v", patientID, err)
		return nil, storageError("find tracking", err)
	}

	tracking, err := u.trackingRepo.Upsert(ctx, u.db, patientID, status, location)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownPatient) {
			return nil, ErrPatientNotFound
		}
		u.log.Warnf("Failed to upsert tracking of patient %s: %+v", patientID, err)
		return nil, storageError("upsert tracking", err)
	}

	var oldValue interface{}
	if previous != nil {
		oldValue = trackingSnapshot(previous)
	}
	if err := u.auditService.LogUpdate(ctx, u.db, actorID(identity), action,
		entity.AuditEntityTracking, patientID.String(), oldValue, trackingSnapshot(tracking)); err != nil {
		u.log.Warnf("Failed to audit tracking change of patient %s: %+v", patientID, err)
	}

	state := entity.PatientFlowState{
		PatientID:   patient.ID,
		PatientCode: patient.PatientCode,
		Name:        patient.Name,
		Contact:     patient.Contact,
		Status:      &tracking.Status,
		Location:    &tracking.Location,
		UpdatedAt:   &tracking.UpdatedAt,
	}
	if u.publisher != nil {
		event := entity.FlowEvent{
			Type:       entity.EventTrackingUpdated,
			EntityID:   patientID.String(),
			OccurredAt: time.Now().UTC(),
			Data:       trackingSnapshot(tracking),
			State:      &state,
		}
		if err := u.publisher.Publish(ctx, event); err != nil {
			u.log.Warnf("Failed to publish tracking event for patient %s: %+v", patientID, err)
		}
	}

	u.log.WithFields(logrus.Fields{
		"patient_id": patientID,
		"status":     tracking.Status,
		"location":   tracking.Location,
	}).Info("Patient tracking updated")
	return converter.TrackingToResponse(tracking), nil
}

// CurrentStates lists every enrolled patient, most recently updated first
func (u *trackingUsecase) CurrentStates(ctx context.Context, identity entity.Identity) (*dto.PatientStateListResponse, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	return u.states(ctx, entity.TrackingFilter{})
}

// Search narrows CurrentStates; every given filter must match
func (u *trackingUsecase) Search(ctx context.Context, identity entity.Identity, req *dto.TrackingSearchRequest) (*dto.PatientStateListResponse, error) {
	filter, err := u.LiveFilter(identity, req)
	if err != nil {
		return nil, err
	}
	return u.states(ctx, filter)
}

func (u *trackingUsecase) LiveFilter(identity entity.Identity, req *dto.TrackingSearchRequest) (entity.TrackingFilter, error) {
	if err := requireAdmin(identity); err != nil {
		return entity.TrackingFilter{}, err
	}
	if req == nil {
		return entity.TrackingFilter{}, nil
	}
	if err := validateRequest(u.validator, req); err != nil {
		return entity.TrackingFilter{}, err
	}

	filter := entity.TrackingFilter{Query: req.Query, Location: req.Location}
	if req.Status != "" {
		status, _ := entity.ParseTrackingStatus(req.Status)
		filter.Status = &status
	}
	return filter, nil
}

func (u *trackingUsecase) states(ctx context.Context, filter entity.TrackingFilter) (*dto.PatientStateListResponse, error) {
	states, err := u.trackingRepo.FindStates(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to read patient states: %+v", err)
		return nil, storageError("read patient states", err)
	}

	return &dto.PatientStateListResponse{
		Patients: converter.PatientStatesToResponses(states),
		Total:    len(states),
	}, nil
}

// Stats derives the dashboard counters from the live tracking rows
func (u *trackingUsecase) Stats(ctx context.Context, identity entity.Identity) (*dto.TrackingStatsResponse, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}

	total, err := u.patientRepo.Count(ctx, u.db)
	if err != nil {
		u.log.Warnf("Failed to count patients: %+v", err)
		return nil, storageError("count patients", err)
	}

	counts, err := u.trackingRepo.CountByStatus(ctx, u.db)
	if err != nil {
		u.log.Warnf("Failed to count tracking statuses: %+v", err)
		return nil, storageError("count tracking statuses", err)
	}

	stats := entity.FlowStats{TotalPatients: total}
	for status, n := range counts {
		stats.Add(status, n)
	}
	return converter.FlowStatsToResponse(stats), nil
}

// History returns the tracking changes of one patient, newest first
func (u *trackingUsecase) History(ctx context.Context, identity entity.Identity, patientID uuid.UUID) (*dto.AuditLogListResponse, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}

	logs, err := u.auditRepo.FindByEntity(ctx, u.db, entity.AuditEntityTracking, patientID.String())
	if err != nil {
		u.log.Warnf("Failed to read tracking history of patient %s: %+v", patientID, err)
		return nil, storageError("read tracking history", err)
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}

func trackingSnapshot(t *entity.Tracking) map[string]interface{} {
	return map[string]interface{}{
		"status":   string(t.Status),
		"location": t.Location,
	}
}
