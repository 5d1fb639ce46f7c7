// Package authz 角色与能力授权
//
// 所有业务权限判断都通过 Authorize 完成，调用方显式传入操作者与资源归属范围。
package authz

import (
	"github.com/repavi/lodges-backend/internal/common/errors"
)

// Role 用户角色
type Role string

// 角色定义
const (
	RoleSuperAdmin Role = "super_admin"
	RoleManager    Role = "manager"
	RoleClient     Role = "client"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleManager, RoleClient:
		return true
	}
	return false
}

// Capability 业务能力
type Capability string

// 能力定义
const (
	CapReservationCreate   Capability = "reservation:create"
	CapReservationView     Capability = "reservation:view"
	CapReservationConfirm  Capability = "reservation:confirm"
	CapReservationCancel   Capability = "reservation:cancel"
	CapReservationComplete Capability = "reservation:complete"
	CapPaymentRecord       Capability = "payment:record"
	CapPaymentView         Capability = "payment:view"
	CapPaymentValidate     Capability = "payment:validate"
	CapPaymentTypeManage   Capability = "payment_type:manage"
	CapPropertyManage      Capability = "property:manage"
	CapEvaluationCreate    Capability = "evaluation:create"
	CapEvaluationModerate  Capability = "evaluation:moderate"
	CapEvaluationRespond   Capability = "evaluation:respond"
)

// Actor 操作者，由认证中间件构造并显式传入各业务操作
type Actor struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

// System 定时任务使用的系统操作者
var System = Actor{UserID: 0, Role: RoleSuperAdmin}

// IsSuperAdmin 是否超级管理员
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// IsManager 是否房源管理员
func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}

// IsClient 是否客户
func (a Actor) IsClient() bool {
	return a.Role == RoleClient
}

// Scope 资源归属范围
type Scope struct {
	ClientID  int64 // 预订所属客户
	ManagerID int64 // 房源管理员
}

// 客户可用能力（仅限本人资源）
var clientCaps = map[Capability]bool{
	CapReservationCreate: true,
	CapReservationView:   true,
	CapReservationCancel: true,
	CapPaymentRecord:     true,
	CapPaymentView:       true,
	CapEvaluationCreate:  true,
}

// 管理员可用能力（仅限其管理的房源）
var managerCaps = map[Capability]bool{
	CapReservationCreate:   true,
	CapReservationView:     true,
	CapReservationConfirm:  true,
	CapReservationCancel:   true,
	CapReservationComplete: true,
	CapPaymentRecord:       true,
	CapPaymentView:         true,
	CapPaymentValidate:     true,
	CapPropertyManage:      true,
	CapEvaluationModerate:  true,
	CapEvaluationRespond:   true,
}

// Allowed 判断操作者在给定范围内是否拥有能力
func Allowed(actor Actor, capability Capability, scope Scope) bool {
	switch actor.Role {
	case RoleSuperAdmin:
		// 评价只能由入住客户本人提交
		return capability != CapEvaluationCreate
	case RoleManager:
		return managerCaps[capability] && scope.ManagerID != 0 && scope.ManagerID == actor.UserID
	case RoleClient:
		return clientCaps[capability] && scope.ClientID != 0 && scope.ClientID == actor.UserID
	default:
		return false
	}
}

// Authorize 授权检查，无权限时返回 ErrPermissionDenied
func Authorize(actor Actor, capability Capability, scope Scope) error {
	if !Allowed(actor, capability, scope) {
		return errors.ErrPermissionDenied
	}
	return nil
}
