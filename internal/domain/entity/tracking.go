package entity

import (
	"time"

	"github.com/google/uuid"
)

// TrackingStatus represents where a patient is in the clinic flow
type TrackingStatus string

const (
	TrackingStatusCheckedIn   TrackingStatus = "checked-in"
	TrackingStatusWaiting     TrackingStatus = "waiting"
	TrackingStatusInTreatment TrackingStatus = "in-treatment"
	TrackingStatusAdmitted    TrackingStatus = "admitted"
	TrackingStatusDischarged  TrackingStatus = "discharged"
)

// DefaultCheckInLocation is used when a check-in does not name a location
const DefaultCheckInLocation = "Reception"

var trackingStatuses = map[TrackingStatus]struct{}{
	TrackingStatusCheckedIn:   {},
	TrackingStatusWaiting:     {},
	TrackingStatusInTreatment: {},
	TrackingStatusAdmitted:    {},
	TrackingStatusDischarged:  {},
}

// ParseTrackingStatus returns the status for s, or false if s is not a defined flow status
func ParseTrackingStatus(s string) (TrackingStatus, bool) {
	status := TrackingStatus(s)
	_, ok := trackingStatuses[status]
	return status, ok
}

// Tracking is the live flow row of a patient. There is exactly one row per
// patient; every check-in or status change updates it in place.
// Timestamps always come from the database clock.
type Tracking struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"patient_id"`
	Status    TrackingStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Location  string         `gorm:"type:varchar(100);not null;index" json:"location"`
	CreatedAt time.Time      `gorm:"autoCreateTime:false;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:false;default:now()" json:"updated_at"`

	// Relationships
	Patient Patient `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
}

func (Tracking) TableName() string {
	return "tracking"
}

// PatientFlowState is the current state of one enrolled patient.
// Status, Location and UpdatedAt are nil for patients that were never checked in.
type PatientFlowState struct {
	PatientID   uuid.UUID
	PatientCode string
	Name        string
	Contact     string
	Status      *TrackingStatus
	Location    *string
	UpdatedAt   *time.Time
}

// FlowStats are the dashboard counters derived from current states
type FlowStats struct {
	TotalPatients int64
	CheckedIn     int64
	Waiting       int64
	InTreatment   int64
	Admitted      int64
	Discharged    int64
}

// Add counts n tracking rows whose current status is s
func (f *FlowStats) Add(s TrackingStatus, n int64) {
	switch s {
	case TrackingStatusCheckedIn:
		f.CheckedIn += n
	case TrackingStatusWaiting:
		f.Waiting += n
	case TrackingStatusInTreatment:
		f.InTreatment += n
	case TrackingStatusAdmitted:
		f.Admitted += n
	case TrackingStatusDischarged:
		f.Discharged += n
	}
}
