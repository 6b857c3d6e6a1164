package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CheckInRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
	Status    string `json:"status" validate:"omitempty,tracking_status"`
	Location  string `json:"location" validate:"max=100"`
}

type UpdateTrackingRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,tracking_status"`
	Location  string `json:"location" validate:"max=100"`
}

// TrackingSearchRequest carries the optional tracking filters from the query string
type TrackingSearchRequest struct {
	Query    string `json:"q" validate:"max=100"`
	Status   string `json:"status" validate:"omitempty,tracking_status"`
	Location string `json:"location" validate:"max=100"`
}

// Response DTOs

type TrackingResponse struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Status    string    `json:"status"`
	Location  string    `json:"location"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PatientStateResponse is one row of the current-state board.
// Status, Location and UpdatedAt are null for patients never checked in.
type PatientStateResponse struct {
	PatientID   uuid.UUID  `json:"patient_id"`
	PatientCode string     `json:"patient_code"`
	Name        string     `json:"name"`
	Contact     string     `json:"contact,omitempty"`
	Status      *string    `json:"status"`
	Location    *string    `json:"location"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type PatientStateListResponse struct {
	Patients []PatientStateResponse `json:"patients"`
	Total    int                    `json:"total"`
}

type TrackingStatsResponse struct {
	TotalPatients int64 `json:"total_patients"`
	CheckedIn     int64 `json:"checked_in"`
	Waiting       int64 `json:"waiting"`
	InTreatment   int64 `json:"in_treatment"`
	Admitted      int64 `json:"admitted"`
	Discharged    int64 `json:"discharged"`
}
