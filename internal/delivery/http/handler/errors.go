package handler

import (
	"errors"
	"net/http"
	"strings"

	"clinicflow/internal/usecase"
	"clinicflow/pkg/response"
)

// WriteError maps a usecase error onto the response envelope by its kind.
// Storage failures never leak their cause to the client.
func WriteError(w http.ResponseWriter, err error) {
	var verr *usecase.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationError(w, verr.Fields)
	case errors.Is(err, usecase.ErrValidation):
		response.Error(w, http.StatusBadRequest, message(err, usecase.ErrValidation), nil)
	case errors.Is(err, usecase.ErrForbidden):
		response.Forbidden(w, message(err, usecase.ErrForbidden))
	case errors.Is(err, usecase.ErrNotFound):
		response.NotFound(w, message(err, usecase.ErrNotFound))
	case errors.Is(err, usecase.ErrConflict):
		response.Conflict(w, message(err, usecase.ErrConflict))
	case errors.Is(err, usecase.ErrStorage):
		response.ServiceUnavailable(w, "")
	default:
		response.InternalServerError(w, "")
	}
}

// message strips the kind prefix, "conflict: slot already booked" becomes "Slot already booked"
func message(err, kind error) string {
	msg := strings.TrimPrefix(err.Error(), kind.Error()+": ")
	if msg == "" {
		return ""
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func decodeError(w http.ResponseWriter) {
	response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
}
