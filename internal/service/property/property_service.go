// Package property 提供房源查询、日期覆盖与维护状态管理
package property

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/repavi/lodges-backend/internal/common/logger"
	"github.com/repavi/lodges-backend/internal/common/tracing"
	"github.com/repavi/lodges-backend/internal/common/utils"
	"github.com/repavi/lodges-backend/internal/events"
	"github.com/repavi/lodges-backend/internal/models"
	"github.com/repavi/lodges-backend/internal/repository"
	"github.com/repavi/lodges-backend/internal/service/audit"
)

// maxPeriodDays 单次封锁/解封的最大天数
const maxPeriodDays = 366

// Occupancy 房态重算与日历缓存，由预订服务实现
type Occupancy interface {
	RefreshProperty(ctx context.Context, propertyID int64) (bool, error)
	InvalidateCalendar(ctx context.Context, propertyID int64)
}

// Service 房源服务
type Service struct {
	db        *gorm.DB
	occupancy Occupancy
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

// Option 服务选项
type Option func(*Service)

// WithPublisher 设置事件发布器
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l.Named("property") }
}

// WithClock 设置时钟
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService 创建房源服务
func NewService(db *gorm.DB, occupancy Occupancy, opts ...Option) *Service {
	s := &Service{
		db:        db,
		occupancy: occupancy,
		publisher: events.NopPublisher{},
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get 获取房源详情，未上架的房源仅管理人员可见
func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (*models.Property, error) {
	property, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !property.Listed && !authz.Allowed(actor, authz.CapPropertyManage, authz.Scope{ManagerID: property.ManagerID}) {
		return nil, errors.ErrPropertyNotFound
	}
	return property, nil
}

// ListFilter 房源列表筛选条件
type ListFilter struct {
	Name            string
	OccupancyStatus string
	MinCapacity     int
}

// List 获取房源列表
// 客户仅见已上架房源，管理员仅见其管理的房源
func (s *Service) List(ctx context.Context, actor authz.Actor, filter ListFilter, page utils.Pagination) ([]*models.Property, int64, error) {
	filters := map[string]interface{}{
		"name":             filter.Name,
		"occupancy_status": filter.OccupancyStatus,
		"min_capacity":     filter.MinCapacity,
	}
	switch {
	case actor.IsSuperAdmin():
	case actor.IsManager():
		filters["manager_id"] = actor.UserID
	default:
		filters["listed"] = true
	}

	page.Normalize()
	list, total, err := repository.NewPropertyRepository(s.db).List(ctx, page.GetOffset(), page.GetLimit(), filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// OverrideRequest 单日覆盖设置
type OverrideRequest struct {
	Date         string   `json:"date" binding:"required"`
	Blocked      bool     `json:"blocked"`
	SpecialPrice *float64 `json:"special_price"`
	Reason       string   `json:"reason"`
}

// SetOverride 设置某一天的封锁状态或特价
func (s *Service) SetOverride(ctx context.Context, actor authz.Actor, propertyID int64, req *OverrideRequest) (result *models.AvailabilityOverride, err error) {
	ctx, span := tracing.Start(ctx, "property.SetOverride", tracing.WithPropertyID(propertyID), tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessage("无效的日期格式")
	}
	if req.SpecialPrice != nil && *req.SpecialPrice <= 0 {
		return nil, errors.ErrInvalidParams.WithMessage("特价必须大于0")
	}

	override := &models.AvailabilityOverride{
		PropertyID: propertyID,
		Date:       date,
		Blocked:    req.Blocked,
	}
	if req.SpecialPrice != nil {
		price := utils.RoundMoney(*req.SpecialPrice)
		override.SpecialPrice = &price
	}
	if req.Reason != "" {
		override.Reason = &req.Reason
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockManaged(ctx, tx, actor, propertyID); err != nil {
			return err
		}
		if err := repository.NewAvailabilityOverrideRepository(tx).Upsert(ctx, override); err != nil {
			return err
		}
		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "property",
			Action:     "set_override",
			TargetType: "property",
			TargetID:   propertyID,
			Detail: map[string]interface{}{
				"date":          req.Date,
				"blocked":       req.Blocked,
				"special_price": override.SpecialPrice,
			},
		})
	})
	if err != nil {
		return nil, wrapError(err)
	}

	s.occupancy.InvalidateCalendar(ctx, propertyID)
	return override, nil
}

// PeriodRequest 日期区间 [start_date, end_date)
type PeriodRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason"`
}

func (r *PeriodRequest) parse() (time.Time, time.Time, error) {
	start, err := utils.ParseDate(r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.ErrInvalidDateRange.WithMessage("开始日期格式错误")
	}
	end, err := utils.ParseDate(r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.ErrInvalidDateRange.WithMessage("结束日期格式错误")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.ErrInvalidDateRange.WithMessage("结束日期必须晚于开始日期")
	}
	if utils.Nights(start, end) > maxPeriodDays {
		return time.Time{}, time.Time{}, errors.ErrInvalidDateRange.WithMessage("区间过长")
	}
	return start, end, nil
}

// BlockPeriod 封锁区间内的每一天，已有有效预订的日期不能封锁
func (s *Service) BlockPeriod(ctx context.Context, actor authz.Actor, propertyID int64, req *PeriodRequest) (count int, err error) {
	ctx, span := tracing.Start(ctx, "property.BlockPeriod", tracing.WithPropertyID(propertyID), tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	start, end, err := req.parse()
	if err != nil {
		return 0, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockManaged(ctx, tx, actor, propertyID); err != nil {
			return err
		}
		overlap, err := repository.NewReservationRepository(tx).HasOverlap(ctx, propertyID, start, end, nil)
		if err != nil {
			return err
		}
		if overlap {
			return errors.ErrReservationConflict.WithMessage("区间内已有有效预订，无法封锁")
		}

		overrideRepo := repository.NewAvailabilityOverrideRepository(tx)
		existing, err := overrideRepo.ListInRange(ctx, propertyID, start, end)
		if err != nil {
			return err
		}
		prices := make(map[string]*float64, len(existing))
		for _, o := range existing {
			prices[utils.FormatDate(o.Date)] = o.SpecialPrice
		}

		for _, d := range utils.EachNight(start, end) {
			override := &models.AvailabilityOverride{
				PropertyID:   propertyID,
				Date:         d,
				Blocked:      true,
				SpecialPrice: prices[utils.FormatDate(d)],
			}
			if req.Reason != "" {
				override.Reason = &req.Reason
			}
			if err := overrideRepo.Upsert(ctx, override); err != nil {
				return err
			}
			count++
		}

		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "property",
			Action:     "block_period",
			TargetType: "property",
			TargetID:   propertyID,
			Detail:     map[string]interface{}{"start": req.StartDate, "end": req.EndDate, "reason": req.Reason},
		})
	})
	if err != nil {
		return 0, wrapError(err)
	}

	s.occupancy.InvalidateCalendar(ctx, propertyID)
	return count, nil
}

// FreePeriod 解除区间内的封锁，保留特价设置
func (s *Service) FreePeriod(ctx context.Context, actor authz.Actor, propertyID int64, req *PeriodRequest) (count int64, err error) {
	ctx, span := tracing.Start(ctx, "property.FreePeriod", tracing.WithPropertyID(propertyID), tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	start, end, err := req.parse()
	if err != nil {
		return 0, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockManaged(ctx, tx, actor, propertyID); err != nil {
			return err
		}
		count, err = repository.NewAvailabilityOverrideRepository(tx).Unblock(ctx, propertyID, start, end)
		if err != nil {
			return err
		}
		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "property",
			Action:     "free_period",
			TargetType: "property",
			TargetID:   propertyID,
			Detail:     map[string]interface{}{"start": req.StartDate, "end": req.EndDate, "count": count},
		})
	})
	if err != nil {
		return 0, wrapError(err)
	}

	s.occupancy.InvalidateCalendar(ctx, propertyID)
	return count, nil
}

// ListOverrides 获取区间内的覆盖设置
func (s *Service) ListOverrides(ctx context.Context, propertyID int64, start, end time.Time) ([]*models.AvailabilityOverride, error) {
	if !end.After(start) {
		return nil, errors.ErrInvalidDateRange
	}
	if _, err := s.load(ctx, propertyID); err != nil {
		return nil, err
	}
	overrides, err := repository.NewAvailabilityOverrideRepository(s.db).
		ListInRange(ctx, propertyID, utils.DateOf(start), utils.DateOf(end))
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return overrides, nil
}

// SetMaintenance 开启或结束维护
// 开启时清除入住信息；结束时按已确认预订重算房态
func (s *Service) SetMaintenance(ctx context.Context, actor authz.Actor, propertyID int64, on bool) (result *models.Property, err error) {
	ctx, span := tracing.Start(ctx, "property.SetMaintenance", tracing.WithPropertyID(propertyID), tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	changed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		property, err := s.lockManaged(ctx, tx, actor, propertyID)
		if err != nil {
			return err
		}
		if property.InMaintenance() == on {
			return nil
		}

		status := models.OccupancyFree
		if on {
			status = models.OccupancyMaintenance
		}
		if err := repository.NewPropertyRepository(tx).ClearOccupant(ctx, propertyID, status); err != nil {
			return err
		}
		changed = true

		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "property",
			Action:     "maintenance",
			TargetType: "property",
			TargetID:   propertyID,
			Detail:     map[string]interface{}{"on": on},
		})
	})
	if err != nil {
		return nil, wrapError(err)
	}

	if changed {
		s.log.Info("maintenance changed", logger.PropertyID(propertyID), zap.Bool("on", on))
		if on {
			s.occupancy.InvalidateCalendar(ctx, propertyID)
			_ = s.publisher.PublishOccupancy(ctx, events.OccupancyChanged{
				PropertyID: propertyID,
				Status:     models.OccupancyMaintenance,
				OccurredAt: s.now(),
			})
		} else if _, err := s.occupancy.RefreshProperty(ctx, propertyID); err != nil {
			return nil, err
		}
	}

	return s.load(ctx, propertyID)
}

// SetListed 上架或下架房源
func (s *Service) SetListed(ctx context.Context, actor authz.Actor, propertyID int64, listed bool) (*models.Property, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockManaged(ctx, tx, actor, propertyID); err != nil {
			return err
		}
		if err := repository.NewPropertyRepository(tx).UpdateFields(ctx, propertyID, map[string]interface{}{"listed": listed}); err != nil {
			return err
		}
		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "property",
			Action:     "set_listed",
			TargetType: "property",
			TargetID:   propertyID,
			Detail:     map[string]interface{}{"listed": listed},
		})
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return s.load(ctx, propertyID)
}

// CleaningTasks 某天的清洁任务，管理员仅见其管理的房源
func (s *Service) CleaningTasks(ctx context.Context, actor authz.Actor, date time.Time) ([]*models.CleaningTask, error) {
	var propertyIDs []int64
	switch {
	case actor.IsSuperAdmin():
	case actor.IsManager():
		ids, err := repository.NewPropertyRepository(s.db).ListManagedIDs(ctx, actor.UserID)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		propertyIDs = append([]int64{}, ids...)
	default:
		return nil, errors.ErrPermissionDenied
	}

	tasks, err := repository.NewCleaningTaskRepository(s.db).ListByDate(ctx, utils.DateOf(date), propertyIDs)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return tasks, nil
}

// ReservationStats 房源按状态统计的预订数
func (s *Service) ReservationStats(ctx context.Context, actor authz.Actor, propertyID int64) (map[string]int64, error) {
	property, err := s.load(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, authz.CapPropertyManage, authz.Scope{ManagerID: property.ManagerID}); err != nil {
		return nil, err
	}

	counts, err := repository.NewReservationRepository(s.db).CountByStatus(ctx, propertyID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	for _, status := range []string{
		models.ReservationStatusPending,
		models.ReservationStatusConfirmed,
		models.ReservationStatusCancelled,
		models.ReservationStatusCompleted,
	} {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}
	return counts, nil
}

// lockManaged 锁定房源并校验管理权限
func (s *Service) lockManaged(ctx context.Context, tx *gorm.DB, actor authz.Actor, propertyID int64) (*models.Property, error) {
	property, err := repository.NewPropertyRepository(tx).GetForUpdate(ctx, tx, propertyID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, err
	}
	if err := authz.Authorize(actor, authz.CapPropertyManage, authz.Scope{ManagerID: property.ManagerID}); err != nil {
		return nil, err
	}
	return property, nil
}

func (s *Service) load(ctx context.Context, id int64) (*models.Property, error) {
	property, err := repository.NewPropertyRepository(s.db).GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return property, nil
}

func wrapError(err error) error {
	if errors.IsAppError(err) {
		return errors.GetAppError(err)
	}
	return errors.ErrDatabaseError.WithError(err)
}
