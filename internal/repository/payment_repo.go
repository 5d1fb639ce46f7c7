package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/database"
	"github.com/repavi/lodges-backend/internal/models"
)

// PaymentRepository 支付仓储
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓储
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateType 创建支付方式
func (r *PaymentRepository) CreateType(ctx context.Context, paymentType *models.PaymentType) error {
	return r.db.WithContext(ctx).Create(paymentType).Error
}

// GetTypeByID 根据 ID 获取支付方式
func (r *PaymentRepository) GetTypeByID(ctx context.Context, id int64) (*models.PaymentType, error) {
	var paymentType models.PaymentType
	err := r.db.WithContext(ctx).First(&paymentType, id).Error
	if err != nil {
		return nil, err
	}
	return &paymentType, nil
}

// ListActiveTypes 获取启用的支付方式
func (r *PaymentRepository) ListActiveTypes(ctx context.Context) ([]*models.PaymentType, error) {
	var types []*models.PaymentType
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&types).Error
	return types, err
}

// Create 创建支付记录
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByID 根据 ID 获取支付记录
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Preload("PaymentType").First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetForUpdate 获取支付记录（加锁）
func (r *PaymentRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := tx.WithContext(ctx).Scopes(database.ForUpdate).First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ExistsByTransactionNo 流水号是否已存在
func (r *PaymentRepository) ExistsByTransactionNo(ctx context.Context, no string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).Where("transaction_no = ?", no).Count(&count).Error
	return count > 0, err
}

// SumValidated 统计预订已确认到账的金额
func (r *PaymentRepository) SumValidated(ctx context.Context, reservationID int64) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("reservation_id = ? AND status = ?", reservationID, models.PaymentStatusValidated).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	return sum, err
}

// UpdateFields 更新指定字段
func (r *PaymentRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", id).Updates(fields).Error
}

// ListByReservation 获取预订的支付记录
func (r *PaymentRepository) ListByReservation(ctx context.Context, reservationID int64) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Preload("PaymentType").
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC, id ASC").
		Find(&payments).Error
	return payments, err
}
