package http

import (
	"net/http"

	"clinicflow/internal/delivery/http/handler"
	"clinicflow/internal/delivery/http/middleware"
	"clinicflow/internal/delivery/websocket"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Router struct {
	router             *mux.Router
	log                *logrus.Logger
	appointmentHandler *handler.AppointmentHandler
	trackingHandler    *handler.TrackingHandler
	doctorHandler      *handler.DoctorHandler
	auditLogHandler    *handler.AuditLogHandler
	healthHandler      *handler.HealthHandler
	liveHandler        *websocket.Handler
	authMiddleware     *middleware.AuthMiddleware
	corsMiddleware     *middleware.CORSMiddleware
}

func NewRouter(
	log *logrus.Logger,
	appointmentHandler *handler.AppointmentHandler,
	trackingHandler *handler.TrackingHandler,
	doctorHandler *handler.DoctorHandler,
	auditLogHandler *handler.AuditLogHandler,
	healthHandler *handler.HealthHandler,
	liveHandler *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:             mux.NewRouter(),
		log:                log,
		appointmentHandler: appointmentHandler,
		trackingHandler:    trackingHandler,
		doctorHandler:      doctorHandler,
		auditLogHandler:    auditLogHandler,
		healthHandler:      healthHandler,
		liveHandler:        liveHandler,
		authMiddleware:     authMiddleware,
		corsMiddleware:     corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	r.router.Use(middleware.RequestIDMiddleware)
	r.router.Use(middleware.LoggingMiddleware(r.log))
	r.router.Use(r.corsMiddleware.Handle)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check (public)
	api.HandleFunc("/health", r.healthHandler.Live).Methods(http.MethodGet)
	api.HandleFunc("/health/ready", r.healthHandler.Ready).Methods(http.MethodGet)

	// Any authenticated caller; usecases scope patients to their own records
	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)
	protected.HandleFunc("/appointments", r.appointmentHandler.Book).Methods(http.MethodPost)
	protected.HandleFunc("/appointments", r.appointmentHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/appointments/{id}", r.appointmentHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/doctors", r.doctorHandler.GetAvailableDoctors).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := api.NewRoute().Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/appointments/{id}/status", r.appointmentHandler.UpdateStatus).Methods(http.MethodPut)

	// Patient flow tracking; static paths before {patientId}
	admin.HandleFunc("/tracking", r.trackingHandler.CurrentStates).Methods(http.MethodGet)
	admin.HandleFunc("/tracking/checkin", r.trackingHandler.CheckIn).Methods(http.MethodPost)
	admin.HandleFunc("/tracking/search", r.trackingHandler.Search).Methods(http.MethodGet)
	admin.HandleFunc("/tracking/stats", r.trackingHandler.Stats).Methods(http.MethodGet)
	admin.HandleFunc("/tracking/live", r.liveHandler.Live).Methods(http.MethodGet)
	admin.HandleFunc("/tracking/{patientId}", r.trackingHandler.Update).Methods(http.MethodPut)
	admin.HandleFunc("/tracking/{patientId}/history", r.trackingHandler.History).Methods(http.MethodGet)

	admin.HandleFunc("/admin/audit-logs", r.auditLogHandler.GetAuditLogs).Methods(http.MethodGet)

	return r.router
}
