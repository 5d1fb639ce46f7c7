// Package database 数据库模块单元测试
package database

import (
	"testing"

	"github.com/repavi/lodges-backend/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testRow struct {
	ID        int64 `gorm:"primaryKey"`
	Name      string
	CreatedAt int64
}

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(&testRow{}))
	for i := 1; i <= 25; i++ {
		require.NoError(t, testDB.Create(&testRow{Name: "row", CreatedAt: int64(i)}).Error)
	}
	return testDB
}

// ==================== getLogLevel 测试 ====================

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, getLogLevel(true))
	assert.Equal(t, logger.Silent, getLogLevel(false))
}

// ==================== dialector 测试 ====================

func TestDialector(t *testing.T) {
	pg := dialector(&config.DatabaseConfig{Driver: "postgres", Host: "localhost", Port: 5432})
	assert.Equal(t, "postgres", pg.Name())

	lite := dialector(&config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"})
	assert.Equal(t, "sqlite", lite.Name())
}

// ==================== 作用域测试 ====================

func TestOrderByCreatedDesc(t *testing.T) {
	testDB := setupTestDB(t)

	var rows []testRow
	require.NoError(t, testDB.Scopes(OrderByCreatedDesc).Limit(3).Find(&rows).Error)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(25), rows[0].CreatedAt)
	assert.Equal(t, int64(23), rows[2].CreatedAt)
}

func TestForUpdate_SQLiteIgnoresLock(t *testing.T) {
	testDB := setupTestDB(t)

	var row testRow
	err := testDB.Scopes(ForUpdate).First(&row, 1).Error
	require.NoError(t, err)
	assert.Equal(t, int64(1), row.ID)
}

func TestClose_WithNilDB(t *testing.T) {
	db = nil
	assert.NoError(t, Close())
}
