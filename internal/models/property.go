package models

import (
	"time"
)

// Property 房源（独栋/公寓）
type Property struct {
	ID                   int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code                 string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	Name                 string     `gorm:"type:varchar(100);not null" json:"name"`
	ManagerID            int64      `gorm:"index;not null" json:"manager_id"`
	Address              *string    `gorm:"type:varchar(255)" json:"address,omitempty"`
	NightlyPrice         float64    `gorm:"type:decimal(12,2);not null" json:"nightly_price"`
	Capacity             int        `gorm:"not null;default:1" json:"capacity"`
	Listed               bool       `gorm:"not null;default:true" json:"listed"`
	OccupancyStatus      string     `gorm:"type:varchar(20);not null;default:'free';index" json:"occupancy_status"`
	CurrentTenantID      *int64     `json:"current_tenant_id,omitempty"`
	CurrentReservationID *int64     `json:"current_reservation_id,omitempty"`
	OccupiedUntil        *time.Time `gorm:"type:date" json:"occupied_until,omitempty"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Manager *User `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
}

// TableName 表名
func (Property) TableName() string {
	return "properties"
}

// OccupancyStatus 房态
const (
	OccupancyFree        = "free"        // 空闲
	OccupancyOccupied    = "occupied"    // 已入住
	OccupancyMaintenance = "maintenance" // 维护中
)

// InMaintenance 是否维护中
func (p *Property) InMaintenance() bool {
	return p.OccupancyStatus == OccupancyMaintenance
}

// AvailabilityOverride 按日期覆盖房源可订状态或价格
type AvailabilityOverride struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID   int64     `gorm:"uniqueIndex:uk_override_property_date;not null" json:"property_id"`
	Date         time.Time `gorm:"column:override_date;type:date;uniqueIndex:uk_override_property_date;not null" json:"date"`
	Blocked      bool      `gorm:"not null;default:false" json:"blocked"`
	SpecialPrice *float64  `gorm:"type:decimal(12,2)" json:"special_price,omitempty"`
	Reason       *string   `gorm:"type:varchar(255)" json:"reason,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (AvailabilityOverride) TableName() string {
	return "availability_overrides"
}
