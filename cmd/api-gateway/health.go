// Package main 是应用程序入口
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// readyCheckTimeout 单项依赖检查超时
const readyCheckTimeout = 3 * time.Second

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// healthHandler 存活检查
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Unix(),
	})
}

// pingHandler Ping 检查
func pingHandler(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// readyHandler 就绪检查，数据库与 Redis 均可用时返回 200
func readyHandler(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := map[string]string{
			"database": checkDatabase(c.Request.Context(), db),
			"redis":    checkRedis(c.Request.Context(), redisClient),
		}

		status, statusText := http.StatusOK, "ready"
		for _, v := range checks {
			if v != "ok" && v != "disabled" {
				status, statusText = http.StatusServiceUnavailable, "not ready"
				break
			}
		}

		c.JSON(status, HealthResponse{
			Status:    statusText,
			Timestamp: time.Now().Unix(),
			Checks:    checks,
		})
	}
}

func checkDatabase(ctx context.Context, db *gorm.DB) string {
	sqlDB, err := db.DB()
	if err != nil {
		return "error: " + err.Error()
	}
	ctx, cancel := context.WithTimeout(ctx, readyCheckTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func checkRedis(ctx context.Context, client *redis.Client) string {
	if client == nil {
		return "disabled"
	}
	ctx, cancel := context.WithTimeout(ctx, readyCheckTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
