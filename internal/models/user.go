// Package models 定义数据模型
package models

import (
	"time"
)

// User 用户模型
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Phone     *string   `gorm:"type:varchar(20);uniqueIndex" json:"phone,omitempty"`
	Email     *string   `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	Role      string    `gorm:"type:varchar(20);not null;default:'client';index" json:"role"`
	Status    int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// UserStatus 用户状态
const (
	UserStatusDisabled = 0 // 禁用
	UserStatusActive   = 1 // 正常
)

// UserRole 用户角色
const (
	UserRoleSuperAdmin = "super_admin" // 超级管理员
	UserRoleManager    = "manager"     // 房源管理员
	UserRoleClient     = "client"      // 客户
)
