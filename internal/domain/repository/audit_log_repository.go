package repository

import (
	"context"

	"clinicflow/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(ctx context.Context, db *gorm.DB, log *entity.AuditLog) error
	FindAll(ctx context.Context, db *gorm.DB, limit int) ([]entity.AuditLog, error)
	FindByEntity(ctx context.Context, db *gorm.DB, entityName, entityID string) ([]entity.AuditLog, error)
}
