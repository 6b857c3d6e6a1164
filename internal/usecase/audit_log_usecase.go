package usecase

import (
	"context"

	"clinicflow/internal/converter"
	"clinicflow/internal/delivery/dto"
	"clinicflow/internal/domain/entity"
	"clinicflow/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Upper bound of entries returned by one audit log listing
const MaxAuditLogLimit = 500

type AuditLogUsecase interface {
	GetAuditLogs(ctx context.Context, identity entity.Identity, limit int) (*dto.AuditLogListResponse, error)
}

type auditLogUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		db:           db,
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

// GetAuditLogs returns the newest entries, at most limit (clamped to MaxAuditLogLimit)
func (u *auditLogUsecase) GetAuditLogs(ctx context.Context, identity entity.Identity, limit int) (*dto.AuditLogListResponse, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxAuditLogLimit {
		limit = MaxAuditLogLimit
	}

	logs, err := u.auditLogRepo.FindAll(ctx, u.db, limit)
	if err != nil {
		u.log.Warnf("Failed to find audit logs: %+v", err)
		return nil, storageError("find audit logs", err)
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}
