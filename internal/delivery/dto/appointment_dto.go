package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateAppointmentRequest struct {
	PatientID string `json:"patient_id" validate:"required,uuid"`
	DoctorID  string `json:"doctor_id" validate:"required,uuid"`
	Date      string `json:"appointment_date" validate:"required,calendar_date"`
	Time      string `json:"appointment_time" validate:"required,slot_time"`
	Notes     string `json:"notes" validate:"max=1000"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required,appointment_status"`
}

// AppointmentSearchRequest carries the optional list filters from the query string
type AppointmentSearchRequest struct {
	Query  string `json:"q" validate:"max=100"`
	Status string `json:"status" validate:"omitempty,appointment_status"`
	Date   string `json:"date" validate:"omitempty,calendar_date"`
}

// Response DTOs

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	PatientCode     string    `json:"patient_code,omitempty"`
	PatientName     string    `json:"patient_name,omitempty"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name,omitempty"`
	Specialty       string    `json:"specialty,omitempty"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	Notes           string    `json:"notes,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
