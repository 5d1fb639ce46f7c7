package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/database"
	"github.com/repavi/lodges-backend/internal/models"
)

// ReservationRepository 预订仓储
type ReservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository 创建预订仓储
func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create 创建预订
func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// GetByID 根据 ID 获取预订
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).First(&reservation, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetByIDWithDetails 根据 ID 获取预订（包含房源与客户）
func (r *ReservationRepository) GetByIDWithDetails(ctx context.Context, id int64) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("Client").
		First(&reservation, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetByCode 根据预订编号获取预订
func (r *ReservationRepository) GetByCode(ctx context.Context, code string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Preload("Property").
		Where("code = ?", code).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetForUpdate 获取预订（加锁）
func (r *ReservationRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*models.Reservation, error) {
	var reservation models.Reservation
	err := tx.WithContext(ctx).Scopes(database.ForUpdate).First(&reservation, id).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ExistsByCode 预订编号是否已存在
func (r *ReservationRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Reservation{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// HasOverlap 是否存在与 [start, end) 重叠的有效预订
// 半开区间: start < other.end AND end > other.start
func (r *ReservationRepository) HasOverlap(ctx context.Context, propertyID int64, start, end time.Time, excludeID *int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("property_id = ?", propertyID).
		Where("status IN ?", models.ActiveReservationStatuses).
		Where("start_date < ? AND end_date > ?", end, start)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// ListOverlapping 获取与 [start, end) 重叠的有效预订
func (r *ReservationRepository) ListOverlapping(ctx context.Context, propertyID int64, start, end time.Time) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Where("status IN ?", models.ActiveReservationStatuses).
		Where("start_date < ? AND end_date > ?", end, start).
		Order("start_date ASC").
		Find(&reservations).Error
	return reservations, err
}

// FindOccupant 查找当前占用房源的已确认预订：结束日期不早于今天且入住最早
func (r *ReservationRepository) FindOccupant(ctx context.Context, propertyID int64, today time.Time) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND status = ? AND end_date >= ?", propertyID, models.ReservationStatusConfirmed, today).
		Order("start_date ASC, id ASC").
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ListFinishedStays 获取离店日期已过但仍为已确认的预订
func (r *ReservationRepository) ListFinishedStays(ctx context.Context, today time.Time, limit int) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", models.ReservationStatusConfirmed, today).
		Order("end_date ASC").
		Limit(limit).
		Find(&reservations).Error
	return reservations, err
}

// UpdateFields 更新指定字段
func (r *ReservationRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Reservation{}).Where("id = ?", id).Updates(fields).Error
}

// List 获取预订列表
func (r *ReservationRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Reservation, int64, error) {
	var reservations []*models.Reservation
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Reservation{})

	if clientID, ok := filters["client_id"].(int64); ok && clientID > 0 {
		query = query.Where("client_id = ?", clientID)
	}
	if propertyID, ok := filters["property_id"].(int64); ok && propertyID > 0 {
		query = query.Where("property_id = ?", propertyID)
	}
	if propertyIDs, ok := filters["property_ids"].([]int64); ok {
		query = query.Where("property_id IN ?", propertyIDs)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if code, ok := filters["code"].(string); ok && code != "" {
		query = query.Where("code LIKE ?", "%"+code+"%")
	}
	if startDate, ok := filters["start_date"].(time.Time); ok {
		query = query.Where("start_date >= ?", startDate)
	}
	if endDate, ok := filters["end_date"].(time.Time); ok {
		query = query.Where("start_date <= ?", endDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Property").
		Order("start_date DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&reservations).Error; err != nil {
		return nil, 0, err
	}

	return reservations, total, nil
}

// CountByStatus 按状态统计房源预订数
func (r *ReservationRepository) CountByStatus(ctx context.Context, propertyID int64) (map[string]int64, error) {
	type result struct {
		Status string
		Count  int64
	}
	var results []result
	err := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Select("status, COUNT(*) as count").
		Where("property_id = ?", propertyID).
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(results))
	for _, r := range results {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
