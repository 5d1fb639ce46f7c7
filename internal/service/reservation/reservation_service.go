package reservation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/config"
	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/repavi/lodges-backend/internal/common/logger"
	"github.com/repavi/lodges-backend/internal/common/metrics"
	"github.com/repavi/lodges-backend/internal/common/qrcode"
	"github.com/repavi/lodges-backend/internal/common/tracing"
	"github.com/repavi/lodges-backend/internal/common/utils"
	"github.com/repavi/lodges-backend/internal/events"
	"github.com/repavi/lodges-backend/internal/models"
	"github.com/repavi/lodges-backend/internal/repository"
	"github.com/repavi/lodges-backend/internal/service/audit"
)

const codeGenerateAttempts = 5

// Service 预订服务
type Service struct {
	db        *gorm.DB
	checker   *Checker
	pricer    *Pricer
	cacheTTL  time.Duration
	publisher events.Publisher
	metrics   *metrics.Metrics
	qr        *qrcode.Generator
	log       *zap.Logger
	now       func() time.Time
}

// Option 服务选项
type Option func(*Service)

// WithClock 设置时钟
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher 设置事件发布器
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics 设置指标收集器
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l.Named("reservation") }
}

// NewService 创建预订服务
func NewService(db *gorm.DB, cfg config.ReservationConfig, opts ...Option) *Service {
	s := &Service{
		db:      db,
		checker: NewChecker(db),
		pricer: NewPricer(db, PricingConfig{
			ServiceFeeRate: cfg.ServiceFeeRate,
			DepositRate:    cfg.DepositRate,
			MaxNights:      cfg.MaxNights,
		}),
		cacheTTL:  cfg.CalendarCacheDuration(),
		publisher: events.NopPublisher{},
		qr:        qrcode.NewGenerator(qrcode.WithSize(320), qrcode.WithRecoveryLevel(qrcode.High)),
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checker 返回可订性检查器
func (s *Service) Checker() *Checker {
	return s.checker
}

// today 当前日期
func (s *Service) today() time.Time {
	return utils.DateOf(s.now())
}

// CreateRequest 创建预订请求
type CreateRequest struct {
	PropertyID     int64   `json:"property_id" binding:"required"`
	ClientID       int64   `json:"client_id"` // 管理员代客预订时必填
	StartDate      string  `json:"start_date" binding:"required"`
	EndDate        string  `json:"end_date" binding:"required"`
	GuestCount     int     `json:"guest_count"`
	PaymentMode    string  `json:"payment_mode"`
	DiscountAmount float64 `json:"discount_amount"`
	DiscountReason string  `json:"discount_reason"`
	ClientComment  string  `json:"client_comment"`
}

// parseRange 解析并校验日期区间
func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := utils.ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.ErrInvalidDateRange.WithMessage("入住日期格式错误")
	}
	end, err := utils.ParseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.ErrInvalidDateRange.WithMessage("离店日期格式错误")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.ErrInvalidDateRange.WithMessage("离店日期必须晚于入住日期")
	}
	return start, end, nil
}

// Create 创建预订，状态为待确认
func (s *Service) Create(ctx context.Context, actor authz.Actor, req *CreateRequest) (result *models.Reservation, err error) {
	ctx, span := tracing.Start(ctx, "reservation.Create", tracing.WithPropertyID(req.PropertyID), tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if start.Before(s.today()) {
		return nil, errors.ErrInvalidDateRange.WithMessage("入住日期不能早于今天")
	}

	clientID := req.ClientID
	if actor.IsClient() {
		if clientID != 0 && clientID != actor.UserID {
			return nil, errors.ErrPermissionDenied
		}
		if req.DiscountAmount != 0 {
			return nil, errors.ErrPermissionDenied.WithMessage("仅管理员可设置折扣")
		}
		clientID = actor.UserID
	}
	if clientID <= 0 {
		return nil, errors.ErrInvalidParams.WithMessage("请指定预订客户")
	}

	guests := req.GuestCount
	if guests == 0 {
		guests = 1
	}
	if guests < 1 {
		return nil, errors.ErrInvalidParams.WithMessage("入住人数至少为1")
	}

	var reservation *models.Reservation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		property, err := repository.NewPropertyRepository(tx).GetForUpdate(ctx, tx, req.PropertyID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrPropertyNotFound
			}
			return err
		}

		if err := authz.Authorize(actor, authz.CapReservationCreate, authz.Scope{ClientID: clientID, ManagerID: property.ManagerID}); err != nil {
			return err
		}

		if _, err := repository.NewUserRepository(tx).GetActiveClient(ctx, clientID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrUserNotFound
			}
			return err
		}

		if !property.Listed {
			return errors.ErrPropertyUnlisted
		}
		if property.InMaintenance() {
			return errors.ErrPropertyMaintenance
		}
		if guests > property.Capacity {
			return errors.ErrCapacityExceeded
		}

		checker := s.checker.withTx(tx)
		blocked, err := checker.BlockedDates(ctx, property.ID, start, end)
		if err != nil {
			return err
		}
		if len(blocked) > 0 {
			dates := make([]string, 0, len(blocked))
			for _, d := range blocked {
				dates = append(dates, utils.FormatDate(d))
			}
			return errors.ErrDatesBlocked.WithMessage("所选日期不可预订: " + strings.Join(dates, ", "))
		}

		available, err := checker.IsAvailable(ctx, property.ID, start, end, nil)
		if err != nil {
			return err
		}
		if !available {
			s.metrics.RecordConflict()
			return errors.ErrReservationConflict
		}

		quote, err := s.pricer.withTx(tx).Price(ctx, property, start, end, req.DiscountAmount, req.PaymentMode)
		if err != nil {
			return err
		}

		code, err := s.generateCode(ctx, tx)
		if err != nil {
			return err
		}

		reservation = &models.Reservation{
			Code:           code,
			ClientID:       clientID,
			PropertyID:     property.ID,
			StartDate:      start,
			EndDate:        end,
			GuestCount:     guests,
			NightlyPrice:   property.NightlyPrice,
			Nights:         quote.Nights,
			Subtotal:       quote.Subtotal,
			DiscountAmount: quote.Discount,
			ServiceFee:     quote.Fee,
			Total:          quote.Total,
			PaymentMode:    quote.PaymentMode,
			DepositAmount:  quote.Deposit,
			Status:         models.ReservationStatusPending,
		}
		if req.DiscountReason != "" {
			reservation.DiscountReason = &req.DiscountReason
		}
		if req.ClientComment != "" {
			reservation.ClientComment = &req.ClientComment
		}
		if err := repository.NewReservationRepository(tx).Create(ctx, reservation); err != nil {
			return err
		}

		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "reservation",
			Action:     "create",
			TargetType: "reservation",
			TargetID:   reservation.ID,
			Detail: map[string]interface{}{
				"code":  reservation.Code,
				"total": reservation.Total,
				"start": utils.FormatDate(start),
				"end":   utils.FormatDate(end),
			},
		})
	})
	if err != nil {
		return nil, wrapError(err)
	}

	s.afterTransition(ctx, actor, reservation, "", nil)
	return reservation, nil
}

// generateCode 生成唯一预订编号
func (s *Service) generateCode(ctx context.Context, tx *gorm.DB) (string, error) {
	repo := repository.NewReservationRepository(tx)
	for i := 0; i < codeGenerateAttempts; i++ {
		code := utils.GenerateReservationCode(s.now())
		exists, err := repo.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.ErrCodeGenerateFailed
}

// lockReservation 在事务内依次锁定房源与预订
// 同一房源的所有状态变更都在房源行锁上串行化
func lockReservation(ctx context.Context, tx *gorm.DB, id int64) (*models.Reservation, *models.Property, error) {
	reservationRepo := repository.NewReservationRepository(tx)

	current, err := reservationRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, errors.ErrReservationNotFound
		}
		return nil, nil, err
	}

	property, err := repository.NewPropertyRepository(tx).GetForUpdate(ctx, tx, current.PropertyID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, errors.ErrPropertyNotFound
		}
		return nil, nil, err
	}

	// 持锁后重新读取，状态以此为准
	reservation, err := reservationRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	return reservation, property, nil
}

// Confirm 确认预订：仅待确认可确认，持锁复查可订性
func (s *Service) Confirm(ctx context.Context, actor authz.Actor, id int64) (result *models.Reservation, err error) {
	ctx, span := tracing.Start(ctx, "reservation.Confirm", tracing.WithReservationID(id), tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	var reservation *models.Reservation
	var occupancy *events.OccupancyChanged
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, property, err := lockReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, authz.CapReservationConfirm, authz.Scope{ClientID: r.ClientID, ManagerID: property.ManagerID}); err != nil {
			return err
		}
		if r.Status != models.ReservationStatusPending {
			return errors.ErrIllegalTransition.WithMessage("仅待确认的预订可以确认")
		}

		available, err := s.checker.withTx(tx).IsAvailable(ctx, r.PropertyID, r.StartDate, r.EndDate, &r.ID)
		if err != nil {
			return err
		}
		if !available {
			s.metrics.RecordConflict()
			return errors.ErrReservationConflict.WithMessage("该时段已有其他有效预订，无法确认")
		}

		now := s.now()
		if err := repository.NewReservationRepository(tx).UpdateFields(ctx, r.ID, map[string]interface{}{
			"status":       models.ReservationStatusConfirmed,
			"confirmed_at": now,
		}); err != nil {
			return err
		}
		r.Status = models.ReservationStatusConfirmed
		r.ConfirmedAt = &now

		occupancy, err = s.refreshOccupancy(ctx, tx, property, s.today())
		if err != nil {
			return err
		}

		reservation = r
		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "reservation",
			Action:     "confirm",
			TargetType: "reservation",
			TargetID:   r.ID,
			Detail:     map[string]interface{}{"from": models.ReservationStatusPending, "to": models.ReservationStatusConfirmed},
		})
	})
	if err != nil {
		return nil, wrapError(err)
	}

	s.afterTransition(ctx, actor, reservation, "", occupancy)
	return reservation, nil
}

// Cancel 取消预订：非终态且入住日期晚于今天
func (s *Service) Cancel(ctx context.Context, actor authz.Actor, id int64, reason string) (result *models.Reservation, err error) {
	ctx, span := tracing.Start(ctx, "reservation.Cancel", tracing.WithReservationID(id), tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	var reservation *models.Reservation
	var occupancy *events.OccupancyChanged
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, property, err := lockReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, authz.CapReservationCancel, authz.Scope{ClientID: r.ClientID, ManagerID: property.ManagerID}); err != nil {
			return err
		}

		today := s.today()
		if !r.CanCancel(today) {
			if r.IsTerminal() {
				return errors.ErrReservationNotCancellable.WithMessage("预订已结束，无法取消")
			}
			return errors.ErrReservationNotCancellable.WithMessage("入住日期已到，无法取消")
		}

		from := r.Status
		now := s.now()
		fields := map[string]interface{}{
			"status":       models.ReservationStatusCancelled,
			"cancelled_at": now,
			"cancelled_by": actor.UserID,
		}
		if reason != "" {
			fields["cancel_reason"] = reason
			r.CancelReason = &reason
		}
		if err := repository.NewReservationRepository(tx).UpdateFields(ctx, r.ID, fields); err != nil {
			return err
		}
		r.Status = models.ReservationStatusCancelled
		r.CancelledAt = &now
		r.CancelledBy = &actor.UserID

		occupancy, err = s.refreshOccupancy(ctx, tx, property, today)
		if err != nil {
			return err
		}

		reservation = r
		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "reservation",
			Action:     "cancel",
			TargetType: "reservation",
			TargetID:   r.ID,
			Detail:     map[string]interface{}{"from": from, "to": models.ReservationStatusCancelled, "reason": reason},
		})
	})
	if err != nil {
		return nil, wrapError(err)
	}

	s.afterTransition(ctx, actor, reservation, reason, occupancy)
	return reservation, nil
}

// Complete 完成预订：仅已确认可完成，生成退房清洁任务，不改变房态
func (s *Service) Complete(ctx context.Context, actor authz.Actor, id int64) (result *models.Reservation, err error) {
	ctx, span := tracing.Start(ctx, "reservation.Complete", tracing.WithReservationID(id), tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	var reservation *models.Reservation
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, property, err := lockReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, authz.CapReservationComplete, authz.Scope{ClientID: r.ClientID, ManagerID: property.ManagerID}); err != nil {
			return err
		}
		if r.Status != models.ReservationStatusConfirmed {
			return errors.ErrIllegalTransition.WithMessage("仅已确认的预订可以完成")
		}

		now := s.now()
		if err := repository.NewReservationRepository(tx).UpdateFields(ctx, r.ID, map[string]interface{}{
			"status":       models.ReservationStatusCompleted,
			"completed_at": now,
		}); err != nil {
			return err
		}
		r.Status = models.ReservationStatusCompleted
		r.CompletedAt = &now

		if _, err := repository.NewCleaningTaskRepository(tx).GetOrCreate(ctx, &models.CleaningTask{
			PropertyID:    r.PropertyID,
			ReservationID: &r.ID,
			ScheduledDate: r.EndDate,
		}); err != nil {
			return err
		}

		reservation = r
		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "reservation",
			Action:     "complete",
			TargetType: "reservation",
			TargetID:   r.ID,
			Detail:     map[string]interface{}{"from": models.ReservationStatusConfirmed, "to": models.ReservationStatusCompleted},
		})
	})
	if err != nil {
		return nil, wrapError(err)
	}

	s.afterTransition(ctx, actor, reservation, "", nil)
	return reservation, nil
}

// afterTransition 事务提交后：指标、缓存失效与事件投递
func (s *Service) afterTransition(ctx context.Context, actor authz.Actor, r *models.Reservation, reason string, occupancy *events.OccupancyChanged) {
	s.metrics.RecordReservation(r.Status)
	s.invalidateCalendar(ctx, r.PropertyID)

	s.log.Info("reservation transition",
		logger.ReservationID(r.ID),
		logger.ReservationCode(r.Code),
		zap.String("status", r.Status),
		zap.Int64("actor_id", actor.UserID),
	)

	_ = s.publisher.PublishReservation(ctx, events.ReservationChanged{
		ReservationID: r.ID,
		Code:          r.Code,
		PropertyID:    r.PropertyID,
		ClientID:      r.ClientID,
		Status:        r.Status,
		StartDate:     utils.FormatDate(r.StartDate),
		EndDate:       utils.FormatDate(r.EndDate),
		Total:         r.Total,
		ActorID:       actor.UserID,
		Reason:        reason,
		OccurredAt:    s.now(),
	})
	s.metrics.RecordEvent("reservation")
	if occupancy != nil {
		s.publishOccupancy(ctx, occupancy)
	}
}

func (s *Service) publishOccupancy(ctx context.Context, evt *events.OccupancyChanged) {
	tracing.AddEvent(ctx, "occupancy.changed", tracing.WithPropertyID(evt.PropertyID), tracing.WithOccupancy(evt.Status))
	_ = s.publisher.PublishOccupancy(ctx, *evt)
	s.metrics.RecordEvent("occupancy")
}

// wrapError 业务错误原样返回，其他错误视为数据库错误
func wrapError(err error) error {
	if errors.IsAppError(err) {
		return errors.GetAppError(err)
	}
	return errors.ErrDatabaseError.WithError(err)
}
