package models

import (
	"time"
)

// Evaluation 入住评价，与已完成的预订一一对应
type Evaluation struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReservationID     int64      `gorm:"uniqueIndex;not null" json:"reservation_id"`
	PropertyID        int64      `gorm:"index;not null" json:"property_id"`
	ClientID          int64      `gorm:"index;not null" json:"client_id"`
	OverallRating     int        `gorm:"type:smallint;not null" json:"overall_rating"`
	CleanlinessRating int        `gorm:"type:smallint;not null" json:"cleanliness_rating"`
	EquipmentRating   int        `gorm:"type:smallint;not null" json:"equipment_rating"`
	LocationRating    int        `gorm:"type:smallint;not null" json:"location_rating"`
	ValueRating       int        `gorm:"type:smallint;not null" json:"value_rating"`
	Comment           string     `gorm:"type:text;not null" json:"comment"`
	Positives         *string    `gorm:"type:text" json:"positives,omitempty"`
	Improvements      *string    `gorm:"type:text" json:"improvements,omitempty"`
	Recommends        bool       `gorm:"not null;default:true" json:"recommends"`
	WouldReturn       bool       `gorm:"not null;default:true" json:"would_return"`
	Approved          bool       `gorm:"not null;default:true;index" json:"approved"`
	RejectReason      *string    `gorm:"type:varchar(255)" json:"reject_reason,omitempty"`
	ManagerResponse   *string    `gorm:"type:text" json:"manager_response,omitempty"`
	RespondedAt       *time.Time `json:"responded_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Evaluation) TableName() string {
	return "evaluations"
}

// AverageRating 五项评分均值
func (e *Evaluation) AverageRating() float64 {
	sum := e.OverallRating + e.CleanlinessRating + e.EquipmentRating + e.LocationRating + e.ValueRating
	return float64(sum) / 5
}
