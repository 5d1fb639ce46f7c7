package middleware

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/repavi/lodges-backend/internal/common/logger"
)

// LoggingConfig 日志配置
type LoggingConfig struct {
	Logger         *zap.Logger
	SkipPaths      []string // 跳过日志的路径
	LogRequestBody bool     // 是否记录请求体
	MaxBodySize    int      // 最大记录的 body 大小
}

// DefaultLoggingConfig 默认日志配置
func DefaultLoggingConfig(log *zap.Logger) *LoggingConfig {
	return &LoggingConfig{
		Logger:      log,
		SkipPaths:   []string{"/health", "/ready", "/metrics"},
		MaxBodySize: 1024,
	}
}

// Logging 请求日志中间件
func Logging(config *LoggingConfig) gin.HandlerFunc {
	skipPaths := make(map[string]struct{})
	for _, path := range config.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skipPaths[path]; ok {
			c.Next()
			return
		}

		start := time.Now()

		var requestBody string
		if config.LogRequestBody && c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			if len(bodyBytes) > config.MaxBodySize {
				requestBody = string(bodyBytes[:config.MaxBodySize]) + "...(truncated)"
			} else {
				requestBody = string(bodyBytes)
			}
		}

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			logger.RequestID(GetRequestID(c)),
			logger.Method(c.Request.Method),
			logger.Path(path),
			zap.String("query", c.Request.URL.RawQuery),
			logger.StatusCode(statusCode),
			logger.Latency(time.Since(start)),
			logger.IP(c.ClientIP()),
		}

		if traceID := GetTraceID(c); traceID != "" {
			fields = append(fields, zap.String("trace_id", traceID))
		}
		if actor, ok := GetActor(c); ok {
			fields = append(fields, logger.UserID(actor.UserID), logger.Role(string(actor.Role)))
		}
		if requestBody != "" {
			fields = append(fields, zap.String("request_body", requestBody))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case statusCode >= 500:
			config.Logger.Error("HTTP Request", fields...)
		case statusCode >= 400:
			config.Logger.Warn("HTTP Request", fields...)
		default:
			config.Logger.Info("HTTP Request", fields...)
		}
	}
}
