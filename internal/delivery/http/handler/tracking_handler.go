package handler

import (
	"encoding/json"
	"net/http"

	"clinicflow/internal/delivery/dto"
	"clinicflow/internal/delivery/http/middleware"
	"clinicflow/internal/usecase"
	"clinicflow/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type TrackingHandler struct {
	trackingUsecase usecase.TrackingUsecase
}

func NewTrackingHandler(trackingUsecase usecase.TrackingUsecase) *TrackingHandler {
	return &TrackingHandler{
		trackingUsecase: trackingUsecase,
	}
}

func (h *TrackingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	var req dto.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(w)
		return
	}

	tracking, err := h.trackingUsecase.CheckIn(r.Context(), identity, &req)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Patient checked in successfully", tracking)
}

// Update handles PUT /tracking/{patientId}; the path wins over any patient_id in the body
func (h *TrackingHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	patientID, err := uuid.Parse(mux.Vars(r)["patientId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid patient ID", nil)
		return
	}

	var req dto.UpdateTrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(w)
		return
	}
	req.PatientID = patientID.String()

	tracking, err := h.trackingUsecase.SetStatus(r.Context(), identity, &req)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Patient tracking updated successfully", tracking)
}

func (h *TrackingHandler) CurrentStates(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	states, err := h.trackingUsecase.CurrentStates(r.Context(), identity)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Patient states retrieved successfully", states)
}

func (h *TrackingHandler) Search(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	query := r.URL.Query()
	states, err := h.trackingUsecase.Search(r.Context(), identity, &dto.TrackingSearchRequest{
		Query:    query.Get("q"),
		Status:   query.Get("status"),
		Location: query.Get("location"),
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Patient states retrieved successfully", states)
}

func (h *TrackingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	stats, err := h.trackingUsecase.Stats(r.Context(), identity)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Tracking stats retrieved successfully", stats)
}

func (h *TrackingHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	patientID, err := uuid.Parse(mux.Vars(r)["patientId"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid patient ID", nil)
		return
	}

	history, err := h.trackingUsecase.History(r.Context(), identity, patientID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Tracking history retrieved successfully", history)
}
