// Package payment 提供预订收款、到账确认与退款
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/repavi/lodges-backend/internal/common/logger"
	"github.com/repavi/lodges-backend/internal/common/metrics"
	"github.com/repavi/lodges-backend/internal/common/tracing"
	"github.com/repavi/lodges-backend/internal/common/utils"
	"github.com/repavi/lodges-backend/internal/events"
	"github.com/repavi/lodges-backend/internal/models"
	"github.com/repavi/lodges-backend/internal/repository"
	"github.com/repavi/lodges-backend/internal/service/audit"
)

const (
	transactionNoAttempts = 5
	// 金额比较容差，避免浮点误差
	amountEpsilon = 0.005
)

// Service 支付服务
type Service struct {
	db        *gorm.DB
	publisher events.Publisher
	metrics   *metrics.Metrics
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
	return func(s *Service) { s.log = l.Named("payment") }
}

// NewService 创建支付服务
func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		publisher: events.NopPublisher{},
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordRequest 登记支付请求
type RecordRequest struct {
	ReservationID   int64           `json:"reservation_id" binding:"required"`
	PaymentTypeID   int64           `json:"payment_type_id" binding:"required"`
	Amount          float64         `json:"amount" binding:"required"`
	ExternalRef     string          `json:"external_ref"`
	Notes           string          `json:"notes"`
	GatewayResponse json.RawMessage `json:"gateway_response,omitempty"`
}

// RecordPayment 登记一笔待确认的支付
// 金额必须为正且不超过剩余应付，手续费按支付方式计算
func (s *Service) RecordPayment(ctx context.Context, actor authz.Actor, req *RecordRequest) (result *models.Payment, err error) {
	ctx, span := tracing.Start(ctx, "payment.Record", tracing.WithReservationID(req.ReservationID), tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	amount := utils.RoundMoney(req.Amount)
	if amount <= 0 {
		return nil, errors.ErrPaymentAmountInvalid
	}

	var payment *models.Payment
	var paymentType *models.PaymentType
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reservation, scope, err := lockReservation(ctx, tx, req.ReservationID)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, authz.CapPaymentRecord, scope); err != nil {
			return err
		}
		if reservation.Status == models.ReservationStatusCancelled {
			return errors.ErrReservationCancelled
		}

		paymentRepo := repository.NewPaymentRepository(tx)
		paymentType, err = paymentRepo.GetTypeByID(ctx, req.PaymentTypeID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrPaymentTypeNotFound
			}
			return err
		}
		if !paymentType.Active {
			return errors.ErrPaymentTypeInactive
		}

		remaining, err := remainingBalance(ctx, tx, reservation)
		if err != nil {
			return err
		}
		if amount > remaining+amountEpsilon {
			return errors.ErrPaymentAmountExceed.WithMessage(fmt.Sprintf("支付金额超过剩余应付 %s", utils.FormatMoney(remaining)))
		}

		transactionNo, err := s.generateTransactionNo(ctx, paymentRepo)
		if err != nil {
			return err
		}

		fee := utils.RoundMoney(paymentType.Fee(amount))
		payment = &models.Payment{
			ReservationID: reservation.ID,
			PaymentTypeID: paymentType.ID,
			TransactionNo: transactionNo,
			Amount:        amount,
			Fee:           fee,
			NetAmount:     utils.RoundMoney(amount - fee),
			Status:        models.PaymentStatusPending,
			CreatedBy:     actor.UserID,
		}
		if req.ExternalRef != "" {
			payment.ExternalRef = &req.ExternalRef
		}
		if req.Notes != "" {
			payment.Notes = &req.Notes
		}
		if len(req.GatewayResponse) > 0 {
			payment.GatewayResponse = datatypes.JSON(req.GatewayResponse)
		}
		if err := paymentRepo.Create(ctx, payment); err != nil {
			return err
		}

		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "payment",
			Action:     "record",
			TargetType: "payment",
			TargetID:   payment.ID,
			Detail: map[string]interface{}{
				"reservation_id": reservation.ID,
				"amount":         amount,
				"fee":            fee,
			},
		})
	})
	if err != nil {
		return nil, wrapError(err)
	}

	payment.PaymentType = paymentType
	s.afterChange(ctx, payment)
	return payment, nil
}

// generateTransactionNo 生成唯一支付流水号
func (s *Service) generateTransactionNo(ctx context.Context, repo *repository.PaymentRepository) (string, error) {
	for i := 0; i < transactionNoAttempts; i++ {
		no := utils.GenerateTransactionNo(s.now())
		exists, err := repo.ExistsByTransactionNo(ctx, no)
		if err != nil {
			return "", err
		}
		if !exists {
			return no, nil
		}
	}
	return "", errors.ErrInternalError.WithMessage("生成支付流水号失败")
}

// ValidateRequest 确认到账请求
type ValidateRequest struct {
	ExternalRef string `json:"external_ref"`
	Notes       string `json:"notes"`
}

// Validate 确认到账：待确认 -> 已到账，并生成收入流水
// 已到账的支付重复确认不做任何修改
func (s *Service) Validate(ctx context.Context, actor authz.Actor, paymentID int64, req ValidateRequest) (result *models.Payment, err error) {
	ctx, span := tracing.Start(ctx, "payment.Validate", tracing.WithPaymentID(paymentID), tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	var payment *models.Payment
	changed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, reservation, scope, err := lockPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, authz.CapPaymentValidate, scope); err != nil {
			return err
		}
		payment = p

		switch p.Status {
		case models.PaymentStatusValidated:
			return nil
		case models.PaymentStatusPending:
		default:
			return errors.ErrPaymentStatusError.WithMessage("仅待确认的支付可以确认到账")
		}
		if reservation.Status == models.ReservationStatusCancelled {
			return errors.ErrReservationCancelled
		}

		remaining, err := remainingBalance(ctx, tx, reservation)
		if err != nil {
			return err
		}
		if p.Amount > remaining+amountEpsilon {
			return errors.ErrPaymentAmountExceed.WithMessage(fmt.Sprintf("支付金额超过剩余应付 %s", utils.FormatMoney(remaining)))
		}

		now := s.now()
		fields := map[string]interface{}{
			"status":       models.PaymentStatusValidated,
			"validated_at": now,
		}
		if req.ExternalRef != "" {
			fields["external_ref"] = req.ExternalRef
			p.ExternalRef = &req.ExternalRef
		}
		if req.Notes != "" {
			fields["notes"] = req.Notes
			p.Notes = &req.Notes
		}
		if err := repository.NewPaymentRepository(tx).UpdateFields(ctx, p.ID, fields); err != nil {
			return err
		}
		p.Status = models.PaymentStatusValidated
		p.ValidatedAt = &now

		if _, err := repository.NewLedgerRepository(tx).CreateOnce(ctx, &models.LedgerEntry{
			PropertyID:    reservation.PropertyID,
			ReservationID: reservation.ID,
			PaymentID:     p.ID,
			Kind:          models.LedgerKindRevenue,
			Label:         fmt.Sprintf("预订 %s 收款 %s", reservation.Code, p.TransactionNo),
			Amount:        p.Amount,
			EntryDate:     utils.DateOf(now),
		}); err != nil {
			return err
		}

		changed = true
		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "payment",
			Action:     "validate",
			TargetType: "payment",
			TargetID:   p.ID,
			Detail:     map[string]interface{}{"from": models.PaymentStatusPending, "to": models.PaymentStatusValidated},
		})
	})
	if err != nil {
		return nil, wrapError(err)
	}

	if changed {
		s.afterChange(ctx, payment)
	}
	return payment, nil
}

// MarkFailed 标记支付失败：仅待确认可标记
func (s *Service) MarkFailed(ctx context.Context, actor authz.Actor, paymentID int64, notes string) (result *models.Payment, err error) {
	ctx, span := tracing.Start(ctx, "payment.MarkFailed", tracing.WithPaymentID(paymentID), tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	var payment *models.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, _, scope, err := lockPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, authz.CapPaymentValidate, scope); err != nil {
			return err
		}
		if p.Status != models.PaymentStatusPending {
			return errors.ErrPaymentStatusError.WithMessage("仅待确认的支付可以标记失败")
		}

		now := s.now()
		fields := map[string]interface{}{
			"status":    models.PaymentStatusFailed,
			"failed_at": now,
		}
		if notes != "" {
			fields["notes"] = notes
			p.Notes = &notes
		}
		if err := repository.NewPaymentRepository(tx).UpdateFields(ctx, p.ID, fields); err != nil {
			return err
		}
		p.Status = models.PaymentStatusFailed
		p.FailedAt = &now
		payment = p

		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "payment",
			Action:     "fail",
			TargetType: "payment",
			TargetID:   p.ID,
			Detail:     map[string]interface{}{"notes": notes},
		})
	})
	if err != nil {
		return nil, wrapError(err)
	}

	s.afterChange(ctx, payment)
	return payment, nil
}

// Refund 退款：已到账 -> 已退款，并生成冲销流水
func (s *Service) Refund(ctx context.Context, actor authz.Actor, paymentID int64, notes string) (result *models.Payment, err error) {
	ctx, span := tracing.Start(ctx, "payment.Refund", tracing.WithPaymentID(paymentID), tracing.WithUserID(actor.UserID))
	defer func() { tracing.End(span, err) }()

	var payment *models.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, reservation, scope, err := lockPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if err := authz.Authorize(actor, authz.CapPaymentValidate, scope); err != nil {
			return err
		}
		if p.Status != models.PaymentStatusValidated {
			return errors.ErrPaymentStatusError.WithMessage("仅已到账的支付可以退款")
		}

		now := s.now()
		fields := map[string]interface{}{
			"status":      models.PaymentStatusRefunded,
			"refunded_at": now,
		}
		if notes != "" {
			fields["notes"] = notes
			p.Notes = &notes
		}
		if err := repository.NewPaymentRepository(tx).UpdateFields(ctx, p.ID, fields); err != nil {
			return err
		}
		p.Status = models.PaymentStatusRefunded
		p.RefundedAt = &now

		if _, err := repository.NewLedgerRepository(tx).CreateOnce(ctx, &models.LedgerEntry{
			PropertyID:    reservation.PropertyID,
			ReservationID: reservation.ID,
			PaymentID:     p.ID,
			Kind:          models.LedgerKindCharge,
			Label:         fmt.Sprintf("预订 %s 退款 %s", reservation.Code, p.TransactionNo),
			Amount:        p.Amount,
			EntryDate:     utils.DateOf(now),
		}); err != nil {
			return err
		}
		payment = p

		return audit.Record(ctx, tx, actor, audit.Entry{
			Module:     "payment",
			Action:     "refund",
			TargetType: "payment",
			TargetID:   p.ID,
			Detail:     map[string]interface{}{"amount": p.Amount, "notes": notes},
		})
	})
	if err != nil {
		return nil, wrapError(err)
	}

	s.afterChange(ctx, payment)
	return payment, nil
}

// afterChange 事务提交后记录指标并投递事件
func (s *Service) afterChange(ctx context.Context, p *models.Payment) {
	typeName := ""
	if p.PaymentType != nil {
		typeName = p.PaymentType.Name
	}
	s.metrics.RecordPayment(typeName, p.Status)

	s.log.Info("payment changed",
		zap.Int64("payment_id", p.ID),
		logger.TransactionNo(p.TransactionNo),
		zap.String("status", p.Status),
		zap.Float64("amount", p.Amount),
	)

	_ = s.publisher.PublishPayment(ctx, events.PaymentChanged{
		PaymentID:     p.ID,
		TransactionNo: p.TransactionNo,
		ReservationID: p.ReservationID,
		Status:        p.Status,
		Amount:        p.Amount,
		OccurredAt:    s.now(),
	})
	s.metrics.RecordEvent("payment")
}

// lockReservation 锁定预订并返回其授权范围
func lockReservation(ctx context.Context, tx *gorm.DB, reservationID int64) (*models.Reservation, authz.Scope, error) {
	reservation, err := repository.NewReservationRepository(tx).GetForUpdate(ctx, tx, reservationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, authz.Scope{}, errors.ErrReservationNotFound
		}
		return nil, authz.Scope{}, err
	}
	property, err := repository.NewPropertyRepository(tx).GetByID(ctx, reservation.PropertyID)
	if err != nil {
		return nil, authz.Scope{}, err
	}
	return reservation, authz.Scope{ClientID: reservation.ClientID, ManagerID: property.ManagerID}, nil
}

// lockPayment 先锁定所属预订再锁定支付，与登记支付保持一致的加锁顺序
func lockPayment(ctx context.Context, tx *gorm.DB, paymentID int64) (*models.Payment, *models.Reservation, authz.Scope, error) {
	paymentRepo := repository.NewPaymentRepository(tx)
	current, err := paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, authz.Scope{}, errors.ErrPaymentNotFound
		}
		return nil, nil, authz.Scope{}, err
	}

	reservation, scope, err := lockReservation(ctx, tx, current.ReservationID)
	if err != nil {
		return nil, nil, authz.Scope{}, err
	}

	payment, err := paymentRepo.GetForUpdate(ctx, tx, paymentID)
	if err != nil {
		return nil, nil, authz.Scope{}, err
	}
	payment.PaymentType = current.PaymentType
	return payment, reservation, scope, nil
}

// remainingBalance 剩余应付 = 总价 - 已到账金额
func remainingBalance(ctx context.Context, db *gorm.DB, reservation *models.Reservation) (float64, error) {
	paid, err := repository.NewPaymentRepository(db).SumValidated(ctx, reservation.ID)
	if err != nil {
		return 0, err
	}
	return utils.RoundMoney(reservation.Total - paid), nil
}

// wrapError 业务错误原样返回，其他错误视为数据库错误
func wrapError(err error) error {
	if errors.IsAppError(err) {
		return errors.GetAppError(err)
	}
	return errors.ErrDatabaseError.WithError(err)
}
