package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/repavi/lodges-backend/internal/models"
)

// AvailabilityOverrideRepository 日期覆盖仓储
type AvailabilityOverrideRepository struct {
	db *gorm.DB
}

// NewAvailabilityOverrideRepository 创建日期覆盖仓储
func NewAvailabilityOverrideRepository(db *gorm.DB) *AvailabilityOverrideRepository {
	return &AvailabilityOverrideRepository{db: db}
}

// Upsert 按 (房源, 日期) 写入覆盖设置
func (r *AvailabilityOverrideRepository) Upsert(ctx context.Context, override *models.AvailabilityOverride) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "property_id"}, {Name: "override_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"blocked", "special_price", "reason", "updated_at"}),
	}).Create(override).Error
}

// ListInRange 获取 [start, end) 区间内的覆盖设置
func (r *AvailabilityOverrideRepository) ListInRange(ctx context.Context, propertyID int64, start, end time.Time) ([]*models.AvailabilityOverride, error) {
	var overrides []*models.AvailabilityOverride
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND override_date >= ? AND override_date < ?", propertyID, start, end).
		Order("override_date ASC").
		Find(&overrides).Error
	return overrides, err
}

// BlockedDates 获取 [start, end) 区间内被封锁的日期
func (r *AvailabilityOverrideRepository) BlockedDates(ctx context.Context, propertyID int64, start, end time.Time) ([]time.Time, error) {
	var overrides []*models.AvailabilityOverride
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND blocked = ? AND override_date >= ? AND override_date < ?", propertyID, true, start, end).
		Order("override_date ASC").
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(overrides))
	for _, o := range overrides {
		dates = append(dates, o.Date)
	}
	return dates, nil
}

// Unblock 解除 [start, end) 区间内的封锁，没有特价的覆盖设置直接删除
func (r *AvailabilityOverrideRepository) Unblock(ctx context.Context, propertyID int64, start, end time.Time) (int64, error) {
	scope := r.db.WithContext(ctx).
		Where("property_id = ? AND blocked = ? AND override_date >= ? AND override_date < ?", propertyID, true, start, end)

	deleted := scope.Session(&gorm.Session{}).Where("special_price IS NULL").Delete(&models.AvailabilityOverride{})
	if deleted.Error != nil {
		return 0, deleted.Error
	}
	updated := scope.Session(&gorm.Session{}).Model(&models.AvailabilityOverride{}).Update("blocked", false)
	if updated.Error != nil {
		return deleted.RowsAffected, updated.Error
	}
	return deleted.RowsAffected + updated.RowsAffected, nil
}
