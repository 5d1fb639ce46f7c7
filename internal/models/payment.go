package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentType 支付方式
type PaymentType struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	FeePercent float64   `gorm:"type:decimal(5,2);not null;default:0" json:"fee_percent"`
	FeeFixed   float64   `gorm:"type:decimal(12,2);not null;default:0" json:"fee_fixed"`
	Active     bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (PaymentType) TableName() string {
	return "payment_types"
}

// Fee 手续费 = 金额 × 费率% + 固定费用（未取整）
func (t *PaymentType) Fee(amount float64) float64 {
	return amount*t.FeePercent/100 + t.FeeFixed
}

// Payment 支付记录
type Payment struct {
	ID              int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ReservationID   int64          `gorm:"index;not null" json:"reservation_id"`
	PaymentTypeID   int64          `gorm:"index;not null" json:"payment_type_id"`
	TransactionNo   string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"transaction_no"`
	Amount          float64        `gorm:"type:decimal(12,2);not null" json:"amount"`
	Fee             float64        `gorm:"type:decimal(12,2);not null;default:0" json:"fee"`
	NetAmount       float64        `gorm:"type:decimal(12,2);not null" json:"net_amount"`
	Status          string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ExternalRef     *string        `gorm:"type:varchar(100)" json:"external_ref,omitempty"`
	GatewayResponse datatypes.JSON `json:"gateway_response,omitempty"`
	Notes           *string        `gorm:"type:text" json:"notes,omitempty"`
	ValidatedAt     *time.Time     `json:"validated_at,omitempty"`
	FailedAt        *time.Time     `json:"failed_at,omitempty"`
	RefundedAt      *time.Time     `json:"refunded_at,omitempty"`
	CreatedBy       int64          `gorm:"not null" json:"created_by"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Reservation *Reservation `gorm:"foreignKey:ReservationID" json:"reservation,omitempty"`
	PaymentType *PaymentType `gorm:"foreignKey:PaymentTypeID" json:"payment_type,omitempty"`
}

// TableName 表名
func (Payment) TableName() string {
	return "payments"
}

// PaymentStatus 支付状态
const (
	PaymentStatusPending   = "pending"   // 待确认
	PaymentStatusValidated = "validated" // 已确认到账
	PaymentStatusFailed    = "failed"    // 失败
	PaymentStatusRefunded  = "refunded"  // 已退款
)
