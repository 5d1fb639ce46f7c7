package models

import (
	"time"
)

// LedgerEntry 财务流水，每笔支付每种类型最多一条（确认到账记收入，退款记支出）
type LedgerEntry struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID    int64     `gorm:"index;not null" json:"property_id"`
	ReservationID int64     `gorm:"index;not null" json:"reservation_id"`
	PaymentID     int64     `gorm:"uniqueIndex:uk_ledger_payment_kind;not null" json:"payment_id"`
	Kind          string    `gorm:"type:varchar(20);uniqueIndex:uk_ledger_payment_kind;not null" json:"kind"`
	Label         string    `gorm:"type:varchar(255);not null" json:"label"`
	Amount        float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	EntryDate     time.Time `gorm:"type:date;not null;index" json:"entry_date"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// LedgerKind 流水类型
const (
	LedgerKindRevenue = "revenue" // 收入
	LedgerKindCharge  = "charge"  // 支出/冲销
)
