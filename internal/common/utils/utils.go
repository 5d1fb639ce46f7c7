// Package utils 提供通用工具函数
package utils

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// 随机编码字符集
const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomNumber 生成指定长度的随机数字字符串
func GenerateRandomNumber(length int) string {
	var result strings.Builder
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(10))
		result.WriteString(strconv.Itoa(int(n.Int64())))
	}
	return result.String()
}

// GenerateRandomCode 生成大写字母与数字组成的随机码
func GenerateRandomCode(length int) string {
	var result strings.Builder
	for i := 0; i < length; i++ {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		result.WriteByte(codeCharset[n.Int64()])
	}
	return result.String()
}

// GenerateReservationCode 生成预订编号
// 格式: REV-年月-4位随机码
func GenerateReservationCode(now time.Time) string {
	return fmt.Sprintf("REV-%s-%s", now.Format("200601"), GenerateRandomCode(4))
}

// GenerateTransactionNo 生成支付流水号
// 格式: PAY-年月日-6位随机数
func GenerateTransactionNo(now time.Time) string {
	return fmt.Sprintf("PAY-%s-%s", now.Format("20060102"), GenerateRandomNumber(6))
}

// RoundMoney 金额四舍五入到分（半数进位）
func RoundMoney(v float64) float64 {
	return math.Round(v*100+math.Copysign(1e-7, v)) / 100
}

// FormatMoney 格式化金额
func FormatMoney(v float64) string {
	return fmt.Sprintf("%.2f", RoundMoney(v))
}

// DateOf 截取日期部分，统一为 UTC 零点
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 YYYY-MM-DD 日期
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// FormatDate 格式化日期
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Nights 计算两个日期之间的晚数
func Nights(start, end time.Time) int {
	return int(DateOf(end).Sub(DateOf(start)).Hours() / 24)
}

// EachNight 返回 [start, end) 区间内的每一天
func EachNight(start, end time.Time) []time.Time {
	start, end = DateOf(start), DateOf(end)
	var days []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Float64Ptr 返回 float64 指针
func Float64Ptr(f float64) *float64 {
	return &f
}

// SafeString 安全获取字符串指针的值
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Min 返回两个数中的较小值
func Min[T int | int64 | float64](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Pagination 分页参数
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Normalize 规范化分页参数
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// GetOffset 获取偏移量
func (p *Pagination) GetOffset() int {
	return (p.Page - 1) * p.PageSize
}

// GetLimit 获取每页数量
func (p *Pagination) GetLimit() int {
	return p.PageSize
}
