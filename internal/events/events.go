// Package events 定义预订与房态变更事件，并投递到 MQTT 与 RabbitMQ
package events

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/repavi/lodges-backend/internal/common/logger"
)

// OccupancyChanged 房态变更事件，推送给门锁与看板
type OccupancyChanged struct {
	PropertyID    int64      `json:"property_id"`
	Status        string     `json:"status"`
	TenantID      *int64     `json:"tenant_id,omitempty"`
	ReservationID *int64     `json:"reservation_id,omitempty"`
	OccupiedUntil *time.Time `json:"occupied_until,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// ReservationChanged 预订状态变更事件，供通知与账单服务消费
type ReservationChanged struct {
	ReservationID int64     `json:"reservation_id"`
	Code          string    `json:"code"`
	PropertyID    int64     `json:"property_id"`
	ClientID      int64     `json:"client_id"`
	Status        string    `json:"status"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Total         float64   `json:"total"`
	ActorID       int64     `json:"actor_id"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentChanged 支付状态变更事件
type PaymentChanged struct {
	PaymentID     int64     `json:"payment_id"`
	TransactionNo string    `json:"transaction_no"`
	ReservationID int64     `json:"reservation_id"`
	Status        string    `json:"status"`
	Amount        float64   `json:"amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher 事件发布接口
type Publisher interface {
	PublishOccupancy(ctx context.Context, evt OccupancyChanged) error
	PublishReservation(ctx context.Context, evt ReservationChanged) error
	PublishPayment(ctx context.Context, evt PaymentChanged) error
}

// NopPublisher 不投递任何事件
type NopPublisher struct{}

// PublishOccupancy 实现 Publisher
func (NopPublisher) PublishOccupancy(context.Context, OccupancyChanged) error { return nil }

// PublishReservation 实现 Publisher
func (NopPublisher) PublishReservation(context.Context, ReservationChanged) error { return nil }

// PublishPayment 实现 Publisher
func (NopPublisher) PublishPayment(context.Context, PaymentChanged) error { return nil }

// Recorder 记录事件，用于测试
type Recorder struct {
	Occupancy    []OccupancyChanged
	Reservations []ReservationChanged
	Payments     []PaymentChanged
}

// PublishOccupancy 实现 Publisher
func (r *Recorder) PublishOccupancy(_ context.Context, evt OccupancyChanged) error {
	r.Occupancy = append(r.Occupancy, evt)
	return nil
}

// PublishReservation 实现 Publisher
func (r *Recorder) PublishReservation(_ context.Context, evt ReservationChanged) error {
	r.Reservations = append(r.Reservations, evt)
	return nil
}

// PublishPayment 实现 Publisher
func (r *Recorder) PublishPayment(_ context.Context, evt PaymentChanged) error {
	r.Payments = append(r.Payments, evt)
	return nil
}

// Dispatcher 将事件分发给多个发布器
// 事件在事务提交后投递，失败只记录日志，不影响业务结果
type Dispatcher struct {
	publishers []Publisher
	log        *zap.Logger
}

// NewDispatcher 创建事件分发器
func NewDispatcher(log *zap.Logger, publishers ...Publisher) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{publishers: publishers, log: log.Named("events")}
}

// PublishOccupancy 实现 Publisher
func (d *Dispatcher) PublishOccupancy(ctx context.Context, evt OccupancyChanged) error {
	for _, p := range d.publishers {
		if err := p.PublishOccupancy(ctx, evt); err != nil {
			d.log.Warn("publish occupancy failed", logger.PropertyID(evt.PropertyID), zap.Error(err))
		}
	}
	return nil
}

// PublishReservation 实现 Publisher
func (d *Dispatcher) PublishReservation(ctx context.Context, evt ReservationChanged) error {
	for _, p := range d.publishers {
		if err := p.PublishReservation(ctx, evt); err != nil {
			d.log.Warn("publish reservation failed", logger.ReservationCode(evt.Code), zap.Error(err))
		}
	}
	return nil
}

// PublishPayment 实现 Publisher
func (d *Dispatcher) PublishPayment(ctx context.Context, evt PaymentChanged) error {
	for _, p := range d.publishers {
		if err := p.PublishPayment(ctx, evt); err != nil {
			d.log.Warn("publish payment failed", logger.TransactionNo(evt.TransactionNo), zap.Error(err))
		}
	}
	return nil
}

// OccupancyTopic 房态主题
func OccupancyTopic(prefix string, propertyID int64) string {
	return fmt.Sprintf("%sproperty/%d/occupancy", prefix, propertyID)
}

// ReservationRoutingKey 预订事件路由键
func ReservationRoutingKey(status string) string {
	return "reservation." + status
}

// PaymentRoutingKey 支付事件路由键
func PaymentRoutingKey(status string) string {
	return "payment." + status
}
