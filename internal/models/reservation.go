package models

import (
	"time"
)

// Reservation 预订
type Reservation struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	ClientID       int64      `gorm:"index;not null" json:"client_id"`
	PropertyID     int64      `gorm:"index:idx_reservation_property_dates;not null" json:"property_id"`
	StartDate      time.Time  `gorm:"type:date;index:idx_reservation_property_dates;not null" json:"start_date"`
	EndDate        time.Time  `gorm:"type:date;index:idx_reservation_property_dates;not null" json:"end_date"`
	GuestCount     int        `gorm:"not null;default:1" json:"guest_count"`
	NightlyPrice   float64    `gorm:"type:decimal(12,2);not null" json:"nightly_price"`
	Nights         int        `gorm:"not null" json:"nights"`
	Subtotal       float64    `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DiscountAmount float64    `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	DiscountReason *string    `gorm:"type:varchar(255)" json:"discount_reason,omitempty"`
	ServiceFee     float64    `gorm:"type:decimal(12,2);not null;default:0" json:"service_fee"`
	Total          float64    `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentMode    string     `gorm:"type:varchar(20);not null;default:'full'" json:"payment_mode"`
	DepositAmount  float64    `gorm:"type:decimal(12,2);not null;default:0" json:"deposit_amount"`
	Status         string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ClientComment  *string    `gorm:"type:text" json:"client_comment,omitempty"`
	ManagerNotes   *string    `gorm:"type:text" json:"manager_notes,omitempty"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CancelReason   *string    `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`
	CancelledBy    *int64     `json:"cancelled_by,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Client   *User     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

// TableName 表名
func (Reservation) TableName() string {
	return "reservations"
}

// ReservationStatus 预订状态
const (
	ReservationStatusPending   = "pending"   // 待确认
	ReservationStatusConfirmed = "confirmed" // 已确认
	ReservationStatusCancelled = "cancelled" // 已取消
	ReservationStatusCompleted = "completed" // 已完成
)

// ActiveReservationStatuses 占用日期的预订状态
var ActiveReservationStatuses = []string{
	ReservationStatusPending,
	ReservationStatusConfirmed,
}

// PaymentMode 付款方式
const (
	PaymentModeFull         = "full"         // 全款
	PaymentModeDeposit      = "deposit"      // 定金
	PaymentModeInstallments = "installments" // 分期
)

// ValidPaymentMode 是否为已知付款方式
func ValidPaymentMode(mode string) bool {
	switch mode {
	case PaymentModeFull, PaymentModeDeposit, PaymentModeInstallments:
		return true
	}
	return false
}

// IsActive 是否占用日期
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusPending || r.Status == ReservationStatusConfirmed
}

// IsTerminal 是否终态
func (r *Reservation) IsTerminal() bool {
	return r.Status == ReservationStatusCancelled || r.Status == ReservationStatusCompleted
}

// CanCancel 有效预订且入住日期晚于今天才可取消
func (r *Reservation) CanCancel(today time.Time) bool {
	return r.IsActive() && r.StartDate.After(today)
}
