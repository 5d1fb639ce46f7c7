package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/database"
	"github.com/repavi/lodges-backend/internal/models"
)

// EvaluationRepository 评价仓储
type EvaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository 创建评价仓储
func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Create 创建评价
func (r *EvaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

// GetByID 根据 ID 获取评价
func (r *EvaluationRepository) GetByID(ctx context.Context, id int64) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).First(&evaluation, id).Error
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// ExistsByReservation 预订是否已评价
func (r *EvaluationRepository) ExistsByReservation(ctx context.Context, reservationID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Evaluation{}).
		Where("reservation_id = ?", reservationID).
		Count(&count).Error
	return count > 0, err
}

// UpdateFields 更新指定字段
func (r *EvaluationRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Evaluation{}).Where("id = ?", id).Updates(fields).Error
}

// ListByProperty 获取房源评价
func (r *EvaluationRepository) ListByProperty(ctx context.Context, propertyID int64, approvedOnly bool, offset, limit int) ([]*models.Evaluation, int64, error) {
	var evaluations []*models.Evaluation
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Evaluation{}).Where("property_id = ?", propertyID)
	if approvedOnly {
		query = query.Where("approved = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Scopes(database.OrderByCreatedDesc).Offset(offset).Limit(limit).Find(&evaluations).Error; err != nil {
		return nil, 0, err
	}
	return evaluations, total, nil
}

// RatingStats 房源评分统计
type RatingStats struct {
	Count       int64   `json:"count"`
	Overall     float64 `json:"overall"`
	Cleanliness float64 `json:"cleanliness"`
	Equipment   float64 `json:"equipment"`
	Location    float64 `json:"location"`
	Value       float64 `json:"value"`
}

// RatingStatsByProperty 统计房源已审核评价的平均分
func (r *EvaluationRepository) RatingStatsByProperty(ctx context.Context, propertyID int64) (*RatingStats, error) {
	var stats RatingStats
	err := r.db.WithContext(ctx).Model(&models.Evaluation{}).
		Select(`COUNT(*) as count,
			COALESCE(AVG(overall_rating), 0) as overall,
			COALESCE(AVG(cleanliness_rating), 0) as cleanliness,
			COALESCE(AVG(equipment_rating), 0) as equipment,
			COALESCE(AVG(location_rating), 0) as location,
			COALESCE(AVG(value_rating), 0) as value`).
		Where("property_id = ? AND approved = ?", propertyID, true).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
