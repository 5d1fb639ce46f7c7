// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/database"
	"github.com/repavi/lodges-backend/internal/models"
)

// PropertyRepository 房源仓储
type PropertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository 创建房源仓储
func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// Create 创建房源
func (r *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Create(property).Error
}

// GetByID 根据 ID 获取房源
func (r *PropertyRepository) GetByID(ctx context.Context, id int64) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetForUpdate 获取房源（加行锁），同一房源的预订变更在此串行化
func (r *PropertyRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*models.Property, error) {
	var property models.Property
	err := tx.WithContext(ctx).Scopes(database.ForUpdate).First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// UpdateFields 更新指定字段
func (r *PropertyRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Updates(fields).Error
}

// SetOccupant 设置当前入住信息
func (r *PropertyRepository) SetOccupant(ctx context.Context, id, tenantID, reservationID int64, until time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"occupancy_status":       models.OccupancyOccupied,
		"current_tenant_id":      tenantID,
		"current_reservation_id": reservationID,
		"occupied_until":         until,
	})
}

// ClearOccupant 清除入住信息，status 为释放后的房态
func (r *PropertyRepository) ClearOccupant(ctx context.Context, id int64, status string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"occupancy_status":       status,
		"current_tenant_id":      nil,
		"current_reservation_id": nil,
		"occupied_until":         nil,
	})
}

// ListIDs 获取全部房源 ID
func (r *PropertyRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

// CountByOccupancy 统计指定房态的房源数量
func (r *PropertyRepository) CountByOccupancy(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("occupancy_status = ?", status).
		Count(&count).Error
	return count, err
}

// ListManagedIDs 获取管理员负责的房源 ID
func (r *PropertyRepository) ListManagedIDs(ctx context.Context, managerID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("manager_id = ?", managerID).
		Pluck("id", &ids).Error
	return ids, err
}

// List 获取房源列表
func (r *PropertyRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Property, int64, error) {
	var properties []*models.Property
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Property{})

	if managerID, ok := filters["manager_id"].(int64); ok && managerID > 0 {
		query = query.Where("manager_id = ?", managerID)
	}
	if status, ok := filters["occupancy_status"].(string); ok && status != "" {
		query = query.Where("occupancy_status = ?", status)
	}
	if listed, ok := filters["listed"].(bool); ok {
		query = query.Where("listed = ?", listed)
	}
	if name, ok := filters["name"].(string); ok && name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if capacity, ok := filters["min_capacity"].(int); ok && capacity > 0 {
		query = query.Where("capacity >= ?", capacity)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&properties).Error; err != nil {
		return nil, 0, err
	}

	return properties, total, nil
}
