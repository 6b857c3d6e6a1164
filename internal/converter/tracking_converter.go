package converter

import (
	"clinicflow/internal/delivery/dto"
	"clinicflow/internal/domain/entity"
)

// TrackingToResponse converts a Tracking entity to TrackingResponse DTO
func TrackingToResponse(tracking *entity.Tracking) *dto.TrackingResponse {
	if tracking == nil {
		return nil
	}

	return &dto.TrackingResponse{
		ID:        tracking.ID,
		PatientID: tracking.PatientID,
		Status:    string(tracking.Status),
		Location:  tracking.Location,
		UpdatedAt: tracking.UpdatedAt,
	}
}

// PatientStateToResponse converts a PatientFlowState to PatientStateResponse DTO
func PatientStateToResponse(state entity.PatientFlowState) dto.PatientStateResponse {
	response := dto.PatientStateResponse{
		PatientID:   state.PatientID,
		PatientCode: state.PatientCode,
		Name:        state.Name,
		Contact:     state.Contact,
		Location:    state.Location,
		UpdatedAt:   state.UpdatedAt,
	}
	if state.Status != nil {
		status := string(*state.Status)
		response.Status = &status
	}
	return response
}

// PatientStatesToResponses converts flow states to PatientStateResponse DTOs
func PatientStatesToResponses(states []entity.PatientFlowState) []dto.PatientStateResponse {
	responses := make([]dto.PatientStateResponse, len(states))
	for i, state := range states {
		responses[i] = PatientStateToResponse(state)
	}
	return responses
}

// FlowStatsToResponse converts FlowStats to TrackingStatsResponse DTO
func FlowStatsToResponse(stats entity.FlowStats) *dto.TrackingStatsResponse {
	return &dto.TrackingStatsResponse{
		TotalPatients: stats.TotalPatients,
		CheckedIn:     stats.CheckedIn,
		Waiting:       stats.Waiting,
		InTreatment:   stats.InTreatment,
		Admitted:      stats.Admitted,
		Discharged:    stats.Discharged,
	}
}
