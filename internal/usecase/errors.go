package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"clinicflow/internal/domain/entity"
	"clinicflow/pkg/validator"

	"github.com/google/uuid"
)

// Error kinds. Every error returned by a usecase wraps exactly one of them.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrStorage    = errors.New("storage unavailable")
)

var (
	ErrSlotAlreadyBooked   = fmt.Errorf("%w: slot already booked", ErrConflict)
	ErrAppointmentNotFound = fmt.Errorf("%w: appointment not found", ErrNotFound)
	ErrPatientNotFound     = fmt.Errorf("%w: patient not found", ErrNotFound)
	ErrDoctorNotFound      = fmt.Errorf("%w: doctor not found", ErrNotFound)
	ErrDoctorUnavailable   = fmt.Errorf("%w: doctor is not available for booking", ErrValidation)
	ErrAdminOnly           = fmt.Errorf("%w: admin role required", ErrForbidden)
	ErrNotAppointmentOwner = fmt.Errorf("%w: appointment belongs to another patient", ErrForbidden)
)

// ValidationError carries per-field messages and is classified as ErrValidation
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = e.Fields[k]
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewRequestValidator returns a validator that also knows the status tags
// used by request DTOs.
func NewRequestValidator() *validator.CustomValidator {
	v := validator.NewValidator()

	// Registration only fails on an empty tag
	_ = v.RegisterEnum("appointment_status", "must be one of scheduled, confirmed, completed, cancelled", func(s string) bool {
		_, ok := entity.ParseAppointmentStatus(s)
		return ok
	})
	_ = v.RegisterEnum("tracking_status", "must be one of checked-in, waiting, in-treatment, admitted, discharged", func(s string) bool {
		_, ok := entity.ParseTrackingStatus(s)
		return ok
	})
	return v
}

func validateRequest(v *validator.CustomValidator, req interface{}) error {
	if err := v.Validate(req); err != nil {
		return &ValidationError{Fields: v.FormatValidationErrors(err)}
	}
	return nil
}

func invalidField(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func requireAdmin(identity entity.Identity) error {
	if !identity.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

// actorID returns the identity's user id for audit entries, nil when unknown
func actorID(identity entity.Identity) *uuid.UUID {
	if identity.UserID == uuid.Nil {
		return nil
	}
	id := identity.UserID
	return &id
}
