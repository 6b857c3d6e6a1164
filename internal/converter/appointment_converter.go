package converter

import (
	"clinicflow/internal/delivery/dto"
	"clinicflow/internal/domain/entity"

	"github.com/google/uuid"
)

// AppointmentToResponse converts an Appointment entity to AppointmentResponse DTO
func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	if appointment == nil {
		return nil
	}

	response := &dto.AppointmentResponse{
		ID:              appointment.ID,
		PatientID:       appointment.PatientID,
		DoctorID:        appointment.DoctorID,
		AppointmentDate: appointment.AppointmentDate.Format(entity.DateLayout),
		AppointmentTime: entity.NormalizeSlotTime(appointment.AppointmentTime),
		Notes:           appointment.Notes,
		Status:          string(appointment.Status),
		CreatedAt:       appointment.CreatedAt,
		UpdatedAt:       appointment.UpdatedAt,
	}

	// Include joined directory fields if loaded
	if appointment.Patient.ID != uuid.Nil {
		response.PatientCode = appointment.Patient.PatientCode
		response.PatientName = appointment.Patient.Name
	}
	if appointment.Doctor.ID != uuid.Nil {
		response.DoctorName = appointment.Doctor.Name
		response.Specialty = appointment.Doctor.Specialty
	}

	return response
}

// AppointmentsToResponses converts a slice of Appointment entities to AppointmentResponse DTOs
func AppointmentsToResponses(appointments []entity.Appointment) []dto.AppointmentResponse {
	responses := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		if resp := AppointmentToResponse(&appointments[i]); resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
