package reservation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/cache"
	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/repavi/lodges-backend/internal/common/logger"
	"github.com/repavi/lodges-backend/internal/common/qrcode"
	"github.com/repavi/lodges-backend/internal/common/utils"
	"github.com/repavi/lodges-backend/internal/models"
	"github.com/repavi/lodges-backend/internal/repository"
)

// Get 获取预订详情
func (s *Service) Get(ctx context.Context, actor authz.Actor, id int64) (*models.Reservation, error) {
	r, err := repository.NewReservationRepository(s.db).GetByIDWithDetails(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrReservationNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := s.authorizeView(actor, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetByCode 按预订编号获取
func (s *Service) GetByCode(ctx context.Context, actor authz.Actor, code string) (*models.Reservation, error) {
	r, err := repository.NewReservationRepository(s.db).GetByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrReservationNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := s.authorizeView(actor, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) authorizeView(actor authz.Actor, r *models.Reservation) error {
	scope := authz.Scope{ClientID: r.ClientID}
	if r.Property != nil {
		scope.ManagerID = r.Property.ManagerID
	}
	return authz.Authorize(actor, authz.CapReservationView, scope)
}

// ListFilter 预订列表筛选条件
type ListFilter struct {
	PropertyID *int64
	Status     string
	Code       string
	StartFrom  *time.Time
	StartTo    *time.Time
}

// List 获取预订列表，按角色限定范围
// 客户仅见本人预订，管理员仅见其管理房源的预订
func (s *Service) List(ctx context.Context, actor authz.Actor, filter ListFilter, page utils.Pagination) ([]*models.Reservation, int64, error) {
	filters := map[string]interface{}{}
	if filter.PropertyID != nil {
		filters["property_id"] = *filter.PropertyID
	}
	if filter.Status != "" {
		filters["status"] = filter.Status
	}
	if filter.Code != "" {
		filters["code"] = filter.Code
	}
	if filter.StartFrom != nil {
		filters["start_date"] = *filter.StartFrom
	}
	if filter.StartTo != nil {
		filters["end_date"] = *filter.StartTo
	}

	switch {
	case actor.IsSuperAdmin():
	case actor.IsManager():
		ids, err := repository.NewPropertyRepository(s.db).ListManagedIDs(ctx, actor.UserID)
		if err != nil {
			return nil, 0, errors.ErrDatabaseError.WithError(err)
		}
		if len(ids) == 0 {
			return []*models.Reservation{}, 0, nil
		}
		filters["property_ids"] = ids
	case actor.IsClient():
		filters["client_id"] = actor.UserID
	default:
		return nil, 0, errors.ErrPermissionDenied
	}

	page.Normalize()
	list, total, err := repository.NewReservationRepository(s.db).List(ctx, page.GetOffset(), page.GetLimit(), filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// Quote 预订前报价，不写入任何数据
func (s *Service) Quote(ctx context.Context, propertyID int64, startDate, endDate string, discount float64, mode string) (*Quote, error) {
	start, end, err := parseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	property, err := repository.NewPropertyRepository(s.db).GetByID(ctx, propertyID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.pricer.Price(ctx, property, start, end, discount, mode)
}

// 日历日状态
const (
	DayAvailable = "available"
	DayPending   = "pending"
	DayBooked    = "booked"
	DayBlocked   = "blocked"
)

// CalendarDay 房源日历中的一天
type CalendarDay struct {
	Date          string  `json:"date"`
	Status        string  `json:"status"`
	Price         float64 `json:"price"`
	ReservationID *int64  `json:"reservation_id,omitempty"`
}

// Calendar 房源月历，按月缓存
func (s *Service) Calendar(ctx context.Context, propertyID int64, year, month int) ([]CalendarDay, error) {
	if month < 1 || month > 12 || year < 1970 {
		return nil, errors.ErrInvalidParams.WithMessage("无效的年月")
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	key := calendarKey(propertyID, first)

	if cache.Enabled() {
		var days []CalendarDay
		if err := cache.Get(ctx, key, &days); err == nil {
			s.metrics.RecordCacheHit("calendar")
			return days, nil
		}
		s.metrics.RecordCacheMiss("calendar")
	}

	property, err := repository.NewPropertyRepository(s.db).GetByID(ctx, propertyID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	next := first.AddDate(0, 1, 0)
	reservations, err := repository.NewReservationRepository(s.db).ListOverlapping(ctx, propertyID, first, next)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	overrides, err := repository.NewAvailabilityOverrideRepository(s.db).ListInRange(ctx, propertyID, first, next)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	byDate := make(map[string]*models.AvailabilityOverride, len(overrides))
	for _, o := range overrides {
		byDate[utils.FormatDate(o.Date)] = o
	}

	nights := utils.EachNight(first, next)
	days := make([]CalendarDay, 0, len(nights))
	for _, d := range nights {
		day := CalendarDay{Date: utils.FormatDate(d), Status: DayAvailable, Price: property.NightlyPrice}
		if o, ok := byDate[day.Date]; ok {
			if o.SpecialPrice != nil {
				day.Price = *o.SpecialPrice
			}
			if o.Blocked {
				day.Status = DayBlocked
			}
		}
		for _, r := range reservations {
			if !d.Before(utils.DateOf(r.StartDate)) && d.Before(utils.DateOf(r.EndDate)) {
				id := r.ID
				day.ReservationID = &id
				day.Status = DayPending
				if r.Status == models.ReservationStatusConfirmed {
					day.Status = DayBooked
				}
				break
			}
		}
		days = append(days, day)
	}

	if cache.Enabled() && s.cacheTTL > 0 {
		if err := cache.Set(ctx, key, days, s.cacheTTL); err != nil {
			s.log.Warn("calendar cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return days, nil
}

func calendarKey(propertyID int64, month time.Time) string {
	return cache.BuildKey(cache.KeyPrefixCalendar, strconv.FormatInt(propertyID, 10), month.Format("2006-01"))
}

// InvalidateCalendar 清除房源日历缓存
func (s *Service) InvalidateCalendar(ctx context.Context, propertyID int64) {
	s.invalidateCalendar(ctx, propertyID)
}

func (s *Service) invalidateCalendar(ctx context.Context, propertyID int64) {
	if !cache.Enabled() {
		return
	}
	pattern := fmt.Sprintf("%s%d:*", cache.KeyPrefixCalendar, propertyID)
	if _, err := cache.DeleteByPattern(ctx, pattern); err != nil {
		s.log.Warn("calendar cache invalidate failed", logger.PropertyID(propertyID), zap.Error(err))
	}
}

// CheckInQRCode 生成已确认预订的入住二维码 PNG
func (s *Service) CheckInQRCode(ctx context.Context, actor authz.Actor, id int64) ([]byte, error) {
	r, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if r.Status != models.ReservationStatusConfirmed {
		return nil, errors.ErrIllegalTransition.WithMessage("仅已确认的预订可生成入住码")
	}
	payload := qrcode.CheckInPayload(r.Code, r.PropertyID, utils.FormatDate(r.StartDate), utils.FormatDate(r.EndDate))
	png, err := s.qr.GeneratePNG(payload)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return png, nil
}

// History 预订的操作记录，按发生顺序
func (s *Service) History(ctx context.Context, actor authz.Actor, id int64) ([]*models.OperationLog, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	logs, err := repository.NewOperationLogRepository(s.db).ListByTarget(ctx, "reservation", id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return logs, nil
}
