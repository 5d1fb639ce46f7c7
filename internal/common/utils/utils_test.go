// Package utils 工具函数单元测试
package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== 编号生成测试 ====================

func TestGenerateReservationCode(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	code := GenerateReservationCode(now)

	assert.Regexp(t, regexp.MustCompile(`^REV-202603-[A-Z0-9]{4}$`), code)
}

func TestGenerateTransactionNo(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	no := GenerateTransactionNo(now)

	assert.Regexp(t, regexp.MustCompile(`^PAY-20260315-\d{6}$`), no)
}

func TestGenerateRandomCode_Charset(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := GenerateRandomCode(8)
		assert.Len(t, code, 8)
		assert.Regexp(t, `^[A-Z0-9]+$`, code)
	}
}

// ==================== 金额测试 ====================

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.005, 1.01},
		{2.675, 2.68},
		{10.0, 10.0},
		{0.125, 0.13},
		{180.0 * 0.3, 54.0},
		{-1.005, -1.01},
		{0, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, RoundMoney(tt.in), 1e-9, "input %v", tt.in)
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "189.00", FormatMoney(189))
	assert.Equal(t, "56.70", FormatMoney(56.7))
}

// ==================== 日期测试 ====================

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	in := time.Date(2026, 1, 2, 23, 30, 0, 0, loc)

	got := DateOf(in)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestParseAndFormatDate(t *testing.T) {
	d, err := ParseDate(" 2026-01-04 ")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-04", FormatDate(d))

	_, err = ParseDate("04/01/2026")
	assert.Error(t, err)
}

func TestNights(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, Nights(start, start.AddDate(0, 0, 3)))
	assert.Equal(t, 0, Nights(start, start))
	assert.Equal(t, -1, Nights(start, start.AddDate(0, 0, -1)))
	// 跨月
	assert.Equal(t, 31, Nights(start, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestEachNight(t *testing.T) {
	start := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
	days := EachNight(start, start.AddDate(0, 0, 3))

	require.Len(t, days, 3)
	assert.Equal(t, "2026-01-30", FormatDate(days[0]))
	assert.Equal(t, "2026-02-01", FormatDate(days[2]))
	assert.Empty(t, EachNight(start, start))
}

// ==================== 其他工具测试 ====================

func TestPagination(t *testing.T) {
	p := &Pagination{Page: 0, PageSize: 500}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)

	p = &Pagination{Page: 3, PageSize: 20}
	assert.Equal(t, 40, p.GetOffset())
	assert.Equal(t, 20, p.GetLimit())
}

func TestMin(t *testing.T) {
	assert.Equal(t, 2, Min(2, 9))
	assert.Equal(t, 3.5, Min(3.5, 7.0))
}
