package handler

import (
	"net/http"

	"clinicflow/internal/usecase"
	"clinicflow/pkg/response"
)

type DoctorHandler struct {
	doctorUsecase usecase.DoctorUsecase
}

func NewDoctorHandler(doctorUsecase usecase.DoctorUsecase) *DoctorHandler {
	return &DoctorHandler{
		doctorUsecase: doctorUsecase,
	}
}

func (h *DoctorHandler) GetAvailableDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctorUsecase.GetAvailableDoctors(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Doctors retrieved successfully", doctors)
}
