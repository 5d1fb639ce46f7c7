package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/models"
)

// OperationLogRepository 操作日志仓储
type OperationLogRepository struct {
	db *gorm.DB
}

// NewOperationLogRepository 创建操作日志仓储
func NewOperationLogRepository(db *gorm.DB) *OperationLogRepository {
	return &OperationLogRepository{db: db}
}

// Create 创建操作日志
func (r *OperationLogRepository) Create(ctx context.Context, log *models.OperationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListByTarget 获取对象的操作日志
func (r *OperationLogRepository) ListByTarget(ctx context.Context, targetType string, targetID int64) ([]*models.OperationLog, error) {
	var logs []*models.OperationLog
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("id ASC").
		Find(&logs).Error
	return logs, err
}
