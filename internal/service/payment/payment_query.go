package payment

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/repavi/lodges-backend/internal/common/utils"
	"github.com/repavi/lodges-backend/internal/models"
	"github.com/repavi/lodges-backend/internal/repository"
)

// Get 获取支付详情
func (s *Service) Get(ctx context.Context, actor authz.Actor, paymentID int64) (*models.Payment, error) {
	payment, err := repository.NewPaymentRepository(s.db).GetByID(ctx, paymentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if _, err := s.viewReservation(ctx, actor, payment.ReservationID); err != nil {
		return nil, err
	}
	return payment, nil
}

// LedgerEntries 支付对应的记账分录
func (s *Service) LedgerEntries(ctx context.Context, actor authz.Actor, paymentID int64) ([]*models.LedgerEntry, error) {
	payment, err := s.Get(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}
	entries, err := repository.NewLedgerRepository(s.db).ListByPayment(ctx, payment.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return entries, nil
}

// RemainingBalance 剩余应付 = 总价 - 已到账金额
func (s *Service) RemainingBalance(ctx context.Context, reservationID int64) (float64, error) {
	reservation, err := repository.NewReservationRepository(s.db).GetByID(ctx, reservationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, errors.ErrReservationNotFound
		}
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	remaining, err := remainingBalance(ctx, s.db, reservation)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	return remaining, nil
}

// Summary 预订收款汇总
type Summary struct {
	ReservationID int64             `json:"reservation_id"`
	PaymentMode   string            `json:"payment_mode"`
	Total         float64           `json:"total"`
	Deposit       float64           `json:"deposit"`
	DepositDue    float64           `json:"deposit_due"`
	Paid          float64           `json:"paid"`
	Pending       float64           `json:"pending"`
	Remaining     float64           `json:"remaining"`
	Payments      []*models.Payment `json:"payments"`
}

// Summary 汇总预订的应付、已付、待确认与剩余金额
func (s *Service) Summary(ctx context.Context, actor authz.Actor, reservationID int64) (*Summary, error) {
	reservation, err := s.viewReservation(ctx, actor, reservationID)
	if err != nil {
		return nil, err
	}
	payments, err := repository.NewPaymentRepository(s.db).ListByReservation(ctx, reservationID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	summary := &Summary{
		ReservationID: reservation.ID,
		PaymentMode:   reservation.PaymentMode,
		Total:         reservation.Total,
		Deposit:       reservation.DepositAmount,
		Payments:      payments,
	}
	for _, p := range payments {
		switch p.Status {
		case models.PaymentStatusValidated:
			summary.Paid += p.Amount
		case models.PaymentStatusPending:
			summary.Pending += p.Amount
		}
	}
	summary.Paid = utils.RoundMoney(summary.Paid)
	summary.Pending = utils.RoundMoney(summary.Pending)
	summary.Remaining = utils.RoundMoney(reservation.Total - summary.Paid)
	if reservation.PaymentMode == models.PaymentModeDeposit && summary.Paid < reservation.DepositAmount {
		summary.DepositDue = utils.RoundMoney(reservation.DepositAmount - summary.Paid)
	}
	return summary, nil
}

// viewReservation 加载预订并校验查看权限
func (s *Service) viewReservation(ctx context.Context, actor authz.Actor, reservationID int64) (*models.Reservation, error) {
	reservation, err := repository.NewReservationRepository(s.db).GetByIDWithDetails(ctx, reservationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrReservationNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	scope := authz.Scope{ClientID: reservation.ClientID}
	if reservation.Property != nil {
		scope.ManagerID = reservation.Property.ManagerID
	}
	if err := authz.Authorize(actor, authz.CapPaymentView, scope); err != nil {
		return nil, err
	}
	return reservation, nil
}

// ListTypes 获取启用的支付方式
func (s *Service) ListTypes(ctx context.Context) ([]*models.PaymentType, error) {
	types, err := repository.NewPaymentRepository(s.db).ListActiveTypes(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return types, nil
}

// CreateTypeRequest 创建支付方式请求
type CreateTypeRequest struct {
	Name       string  `json:"name" binding:"required,max=50"`
	FeePercent float64 `json:"fee_percent" binding:"min=0,max=100"`
	FeeFixed   float64 `json:"fee_fixed" binding:"min=0"`
}

// CreateType 创建支付方式，仅超级管理员
func (s *Service) CreateType(ctx context.Context, actor authz.Actor, req *CreateTypeRequest) (*models.PaymentType, error) {
	if err := authz.Authorize(actor, authz.CapPaymentTypeManage, authz.Scope{}); err != nil {
		return nil, err
	}
	if req.FeePercent < 0 || req.FeePercent > 100 || req.FeeFixed < 0 {
		return nil, errors.ErrInvalidParams.WithMessage("无效的手续费设置")
	}
	paymentType := &models.PaymentType{
		Name:       req.Name,
		FeePercent: req.FeePercent,
		FeeFixed:   req.FeeFixed,
		Active:     true,
	}
	if err := repository.NewPaymentRepository(s.db).CreateType(ctx, paymentType); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return paymentType, nil
}

// LedgerReport 房源财务流水汇总
type LedgerReport struct {
	PropertyID int64   `json:"property_id"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	Revenue    float64 `json:"revenue"`
	Charge     float64 `json:"charge"`
	Net        float64 `json:"net"`
}

// PropertyLedger 统计房源在 [start, end) 内的收入与冲销
func (s *Service) PropertyLedger(ctx context.Context, actor authz.Actor, propertyID int64, start, end time.Time) (*LedgerReport, error) {
	property, err := repository.NewPropertyRepository(s.db).GetByID(ctx, propertyID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := authz.Authorize(actor, authz.CapPropertyManage, authz.Scope{ManagerID: property.ManagerID}); err != nil {
		return nil, err
	}
	start, end = utils.DateOf(start), utils.DateOf(end)
	if !end.After(start) {
		return nil, errors.ErrInvalidDateRange
	}

	revenue, charge, err := repository.NewLedgerRepository(s.db).SumByProperty(ctx, propertyID, start, end)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return &LedgerReport{
		PropertyID: propertyID,
		From:       utils.FormatDate(start),
		To:         utils.FormatDate(end),
		Revenue:    utils.RoundMoney(revenue),
		Charge:     utils.RoundMoney(charge),
		Net:        utils.RoundMoney(revenue - charge),
	}, nil
}
