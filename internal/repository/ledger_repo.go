package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/models"
)

// LedgerRepository 财务流水仓储
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建财务流水仓储
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreateOnce 按 (支付, 类型) 去重写入，返回是否新建
func (r *LedgerRepository) CreateOnce(ctx context.Context, entry *models.LedgerEntry) (bool, error) {
	result := r.db.WithContext(ctx).
		Where(models.LedgerEntry{PaymentID: entry.PaymentID, Kind: entry.Kind}).
		FirstOrCreate(entry)
	return result.RowsAffected > 0, result.Error
}

// ListByPayment 获取支付对应的流水
func (r *LedgerRepository) ListByPayment(ctx context.Context, paymentID int64) ([]*models.LedgerEntry, error) {
	var entries []*models.LedgerEntry
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("id ASC").Find(&entries).Error
	return entries, err
}

// SumByProperty 统计房源在 [start, end) 内的收入与支出
func (r *LedgerRepository) SumByProperty(ctx context.Context, propertyID int64, start, end time.Time) (revenue, charge float64, err error) {
	type result struct {
		Kind  string
		Total float64
	}
	var results []result
	err = r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Select("kind, COALESCE(SUM(amount), 0) as total").
		Where("property_id = ? AND entry_date >= ? AND entry_date < ?", propertyID, start, end).
		Group("kind").
		Scan(&results).Error
	if err != nil {
		return 0, 0, err
	}
	for _, r := range results {
		switch r.Kind {
		case models.LedgerKindRevenue:
			revenue = r.Total
		case models.LedgerKindCharge:
			charge = r.Total
		}
	}
	return revenue, charge, nil
}
