package models

import (
	"time"
)

// CleaningTask 退房清洁任务
type CleaningTask struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID    int64      `gorm:"uniqueIndex:uk_cleaning_property_date;not null" json:"property_id"`
	ReservationID *int64     `gorm:"index" json:"reservation_id,omitempty"`
	ScheduledDate time.Time  `gorm:"type:date;uniqueIndex:uk_cleaning_property_date;not null" json:"scheduled_date"`
	Status        string     `gorm:"type:varchar(20);not null;default:'todo'" json:"status"`
	Notes         *string    `gorm:"type:text" json:"notes,omitempty"`
	DoneAt        *time.Time `json:"done_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (CleaningTask) TableName() string {
	return "cleaning_tasks"
}

// CleaningStatus 清洁状态
const (
	CleaningStatusTodo       = "todo"        // 待清洁
	CleaningStatusInProgress = "in_progress" // 清洁中
	CleaningStatusDone       = "done"        // 已完成
)
