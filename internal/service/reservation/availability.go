// Package reservation 提供可订性检查、计价与预订状态流转
package reservation

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/utils"
	"github.com/repavi/lodges-backend/internal/repository"
)

// Checker 可订性检查，无副作用
type Checker struct {
	db *gorm.DB
}

// NewChecker 创建可订性检查器
func NewChecker(db *gorm.DB) *Checker {
	return &Checker{db: db}
}

// withTx 返回绑定到事务的检查器
func (c *Checker) withTx(tx *gorm.DB) *Checker {
	return &Checker{db: tx}
}

// IsAvailable 房源在 [start, end) 内是否没有待确认或已确认的预订
// excludeID 用于排除预订自身
func (c *Checker) IsAvailable(ctx context.Context, propertyID int64, start, end time.Time, excludeID *int64) (bool, error) {
	overlap, err := repository.NewReservationRepository(c.db).
		HasOverlap(ctx, propertyID, utils.DateOf(start), utils.DateOf(end), excludeID)
	if err != nil {
		return false, err
	}
	return !overlap, nil
}

// BlockedDates 返回 [start, end) 内被封锁的日期
func (c *Checker) BlockedDates(ctx context.Context, propertyID int64, start, end time.Time) ([]time.Time, error) {
	return repository.NewAvailabilityOverrideRepository(c.db).
		BlockedDates(ctx, propertyID, utils.DateOf(start), utils.DateOf(end))
}
