package models

import (
	"time"

	"gorm.io/datatypes"
)

// OperationLog 业务操作审计日志
type OperationLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID    int64          `gorm:"index;not null" json:"actor_id"`
	ActorRole  string         `gorm:"type:varchar(20);not null" json:"actor_role"`
	Module     string         `gorm:"type:varchar(50);not null" json:"module"`
	Action     string         `gorm:"type:varchar(50);not null" json:"action"`
	TargetType string         `gorm:"type:varchar(50);not null" json:"target_type"`
	TargetID   int64          `gorm:"index;not null" json:"target_id"`
	Detail     datatypes.JSON `json:"detail,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 表名
func (OperationLog) TableName() string {
	return "operation_logs"
}

// AllModels 需要自动迁移的模型
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Property{},
		&AvailabilityOverride{},
		&Reservation{},
		&PaymentType{},
		&Payment{},
		&LedgerEntry{},
		&CleaningTask{},
		&Evaluation{},
		&OperationLog{},
	}
}
