package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Slot granularity formats
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var appointmentStatuses = map[AppointmentStatus]struct{}{
	AppointmentStatusScheduled: {},
	AppointmentStatusConfirmed: {},
	AppointmentStatusCompleted: {},
	AppointmentStatusCancelled: {},
}

// ParseAppointmentStatus returns the status for s, or false if s is not one of the four defined values
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	status := AppointmentStatus(s)
	_, ok := appointmentStatuses[status]
	return status, ok
}

// Appointment represents a booked doctor slot for a patient.
// At most one non-cancelled appointment may exist per (doctor, date, time).
type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"doctor_id"`
	AppointmentDate time.Time         `gorm:"type:date;not null" json:"appointment_date"`
	AppointmentTime string            `gorm:"type:time;not null" json:"appointment_time"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsActive reports whether the appointment still occupies its slot
func (a *Appointment) IsActive() bool {
	return a.Status != AppointmentStatusCancelled
}

// Slot returns the (doctor, date, time) key the appointment occupies
func (a *Appointment) Slot() Slot {
	return Slot{
		DoctorID: a.DoctorID,
		Date:     a.AppointmentDate.Format(DateLayout),
		Time:     NormalizeSlotTime(a.AppointmentTime),
	}
}

// Slot is a (doctor, date, time) triple that can hold at most one active appointment
type Slot struct {
	DoctorID uuid.UUID
	Date     string // YYYY-MM-DD
	Time     string // HH:MM
}

// Key returns the lock key for the slot
func (s Slot) Key() string {
	return fmt.Sprintf("slot:%s:%s:%s", s.DoctorID.String(), s.Date, s.Time)
}

// NormalizeSlotTime trims a postgres time value ("09:00:00") to slot granularity ("09:00")
func NormalizeSlotTime(t string) string {
	t = strings.TrimSpace(t)
	if len(t) > len(TimeLayout) {
		return t[:len(TimeLayout)]
	}
	return t
}
