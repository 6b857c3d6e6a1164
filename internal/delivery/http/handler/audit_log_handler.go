package handler

import (
	"net/http"
	"strconv"

	"clinicflow/internal/delivery/http/middleware"
	"clinicflow/internal/usecase"
	"clinicflow/pkg/response"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
	}
}

// GetAuditLogs handles GET /admin/audit-logs?limit=
func (h *AuditLogHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(w, http.StatusBadRequest, "Invalid limit", nil)
			return
		}
		limit = n
	}

	logs, err := h.auditLogUsecase.GetAuditLogs(r.Context(), identity, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Audit logs retrieved successfully", logs)
}
