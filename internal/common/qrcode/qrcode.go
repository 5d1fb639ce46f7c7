// Package qrcode 提供入住二维码生成功能
package qrcode

import (
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

// RecoveryLevel 纠错级别
type RecoveryLevel int

const (
	// Low 7% 纠错
	Low RecoveryLevel = iota
	// Medium 15% 纠错
	Medium
	// High 25% 纠错
	High
)

// Generator 二维码生成器
type Generator struct {
	size          int           // 二维码尺寸（像素）
	recoveryLevel RecoveryLevel // 纠错级别
}

// Option 生成器选项
type Option func(*Generator)

// WithSize 设置二维码尺寸
func WithSize(size int) Option {
	return func(g *Generator) {
		g.size = size
	}
}

// WithRecoveryLevel 设置纠错级别
func WithRecoveryLevel(level RecoveryLevel) Option {
	return func(g *Generator) {
		g.recoveryLevel = level
	}
}

// NewGenerator 创建二维码生成器
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		size:          256,
		recoveryLevel: Medium,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) level() qrcode.RecoveryLevel {
	switch g.recoveryLevel {
	case Low:
		return qrcode.Low
	case High:
		return qrcode.High
	default:
		return qrcode.Medium
	}
}

// GeneratePNG 生成 PNG 格式二维码
func (g *Generator) GeneratePNG(content string) ([]byte, error) {
	data, err := qrcode.Encode(content, g.level(), g.size)
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}
	return data, nil
}

// CheckInPayload 入住二维码内容，门锁设备扫码后按预订编号与离店日期放行
func CheckInPayload(code string, propertyID int64, startDate, endDate string) string {
	q := url.Values{}
	q.Set("code", code)
	q.Set("property", fmt.Sprintf("%d", propertyID))
	q.Set("from", startDate)
	q.Set("to", endDate)
	return "lodges://checkin?" + q.Encode()
}
