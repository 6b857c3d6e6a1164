package handler

import (
	"context"
	"net/http"
	"time"

	"clinicflow/pkg/response"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const readinessTimeout = 2 * time.Second

type HealthHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
	log         *logrus.Logger
}

// NewHealthHandler accepts a nil redis client when the slot lock runs in-process
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
		log:         log,
	}
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports 503 until every backing store answers a ping
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.db != nil {
		checks["postgres"] = "ok"
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			h.log.Warnf("Readiness: postgres ping failed: %+v", err)
			checks["postgres"] = "unavailable"
			healthy = false
		}
	}

	if h.redisClient != nil {
		checks["redis"] = "ok"
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			h.log.Warnf("Readiness: redis ping failed: %+v", err)
			checks["redis"] = "unavailable"
			healthy = false
		}
	}

	if !healthy {
		response.Error(w, http.StatusServiceUnavailable, "Service not ready", checks)
		return
	}
	response.Success(w, http.StatusOK, "Service ready", checks)
}
