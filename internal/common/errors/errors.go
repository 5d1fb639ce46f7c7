// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind 错误类别，决定 HTTP 状态码与调用方处理方式
type Kind int

const (
	KindInternal          Kind = iota // 内部错误
	KindValidation                    // 参数/业务校验失败
	KindNotFound                      // 资源不存在
	KindConflict                      // 日期冲突或被封锁
	KindIllegalTransition             // 非法状态流转
	KindUnauthorized                  // 未认证
	KindForbidden                     // 无权限
	KindRateLimited                   // 限流
)

// String 返回类别名称
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindIllegalTransition:
		return "illegal_transition"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	kind    Kind
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，WithMessage/WithError 派生的错误仍与原错误相等
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Kind 返回错误类别
func (e *AppError) Kind() Kind {
	return e.kind
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		kind:    kindOf(code),
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
		kind:    e.kind,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
		kind:    e.kind,
	}
}

// newKind 创建显式指定类别的错误
func newKind(code int, message string, kind Kind) *AppError {
	return &AppError{Code: code, Message: message, kind: kind}
}

// kindOf 未显式指定类别时按错误码区间推断
func kindOf(code int) Kind {
	switch {
	case code == 1001:
		return KindValidation
	case code == 2004:
		return KindForbidden
	case code >= 2000 && code < 3000:
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown       = New(1000, "未知错误")
	ErrInvalidParams = New(1001, "参数错误")
	ErrDatabaseError = New(1004, "数据库错误")
	ErrInternalError = New(1006, "内部错误")
)

// 认证错误码 (2000-2999)
var (
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrPermissionDenied = New(2004, "权限不足")
)

// 用户错误码 (3000-3999)
var (
	ErrUserNotFound = newKind(3000, "用户不存在", KindNotFound)
)

// 房源错误码 (4000-4999)
var (
	ErrPropertyNotFound    = newKind(4000, "房源不存在", KindNotFound)
	ErrPropertyUnlisted    = newKind(4001, "房源未上架", KindValidation)
	ErrPropertyMaintenance = newKind(4002, "房源维护中", KindValidation)
	ErrCapacityExceeded    = newKind(4003, "入住人数超出房源容量", KindValidation)
)

// 预订错误码 (5000-5999)
var (
	ErrReservationNotFound       = newKind(5000, "预订不存在", KindNotFound)
	ErrInvalidDateRange          = newKind(5001, "无效的入住日期", KindValidation)
	ErrReservationConflict       = newKind(5002, "该时段已被预订", KindConflict)
	ErrDatesBlocked              = newKind(5003, "所选日期不可预订", KindConflict)
	ErrIllegalTransition         = newKind(5004, "预订状态不允许该操作", KindIllegalTransition)
	ErrReservationNotCancellable = newKind(5005, "预订无法取消", KindIllegalTransition)
	ErrInvalidDiscount           = newKind(5006, "无效的折扣金额", KindValidation)
	ErrCodeGenerateFailed        = New(5007, "编号生成失败")
)

// 支付错误码 (6000-6999)
var (
	ErrPaymentNotFound      = newKind(6000, "支付记录不存在", KindNotFound)
	ErrPaymentAmountInvalid = newKind(6001, "支付金额必须大于0", KindValidation)
	ErrPaymentAmountExceed  = newKind(6002, "支付金额超过剩余应付", KindValidation)
	ErrPaymentStatusError   = newKind(6003, "支付状态不允许该操作", KindIllegalTransition)
	ErrPaymentTypeNotFound  = newKind(6004, "支付方式不存在", KindNotFound)
	ErrPaymentTypeInactive  = newKind(6005, "支付方式已停用", KindValidation)
	ErrReservationCancelled = newKind(6006, "预订已取消，无法收款", KindIllegalTransition)
)

// 评价错误码 (7000-7999)
var (
	ErrEvaluationNotFound = newKind(7000, "评价不存在", KindNotFound)
	ErrEvaluationExists   = newKind(7001, "该预订已评价", KindConflict)
	ErrEvaluationNotAllow = newKind(7002, "仅已完成的预订可以评价", KindIllegalTransition)
	ErrInvalidRating      = newKind(7003, "评分必须在1到5之间", KindValidation)
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}

// KindOf 返回任意错误的类别，非应用错误视为内部错误
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.kind
	}
	return KindInternal
}
