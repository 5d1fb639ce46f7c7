// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/repavi/lodges-backend/docs"
	"github.com/repavi/lodges-backend/internal/common/config"
	"github.com/repavi/lodges-backend/internal/common/jwt"
	"github.com/repavi/lodges-backend/internal/common/metrics"
	"github.com/repavi/lodges-backend/internal/common/response"
	evaluationHandler "github.com/repavi/lodges-backend/internal/handler/evaluation"
	paymentHandler "github.com/repavi/lodges-backend/internal/handler/payment"
	propertyHandler "github.com/repavi/lodges-backend/internal/handler/property"
	reservationHandler "github.com/repavi/lodges-backend/internal/handler/reservation"
	"github.com/repavi/lodges-backend/internal/middleware"
)

// maxRequestBody 请求体上限
const maxRequestBody = 1 << 20

// setupRouter 设置路由
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
	m *metrics.Metrics,
	svc *services,
) {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:           cfg.JWT.Secret,
		AccessExpireTime: cfg.JWT.AccessTokenDuration(),
		Issuer:           cfg.JWT.Issuer,
	})

	// 初始化处理器
	reservationH := reservationHandler.NewHandler(svc.reservation)
	paymentH := paymentHandler.NewHandler(svc.payment)
	propertyH := propertyHandler.NewHandler(svc.property)
	evaluationH := evaluationHandler.NewHandler(svc.evaluation)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(&middleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
		}))
	}
	r.Use(middleware.Logging(middleware.DefaultLoggingConfig(logger)))
	r.Use(middleware.CORS(&cfg.CORS))
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.RequestSizeLimiter(maxRequestBody))
	if m != nil {
		r.Use(m.Middleware())
		r.GET(cfg.Metrics.Path, m.Handler())
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Timeout(time.Duration(cfg.Server.WriteTimeout) * time.Second))
	if cfg.RateLimit.Enabled && redisClient != nil {
		v1.Use(middleware.IPRateLimit(redisClient, cfg.RateLimit.Limit, time.Duration(cfg.RateLimit.Window)*time.Second))
	}
	{
		// 公开接口（无需认证）
		v1.GET("/properties/:id/calendar", reservationH.Calendar)
		v1.GET("/properties/:id/availability", reservationH.CheckAvailability)
		v1.POST("/properties/:id/quote", reservationH.Quote)
		v1.GET("/properties/:id/evaluations", evaluationH.ListByProperty)
		v1.GET("/properties/:id/rating", evaluationH.PropertyRating)
		v1.GET("/payment-types", paymentH.ListTypes)

		// 需要认证的接口，资源归属由业务层校验
		user := v1.Group("")
		user.Use(middleware.Auth(jwtManager))
		if cfg.RateLimit.Enabled && redisClient != nil {
			user.Use(middleware.UserRateLimit(redisClient, cfg.RateLimit.Limit, time.Duration(cfg.RateLimit.Window)*time.Second))
		}
		{
			// 预订
			user.POST("/reservations", reservationH.Create)
			user.GET("/reservations", reservationH.List)
			user.GET("/reservations/:id", reservationH.Get)
			user.GET("/reservations/:id/history", reservationH.History)
			user.GET("/reservation-codes/:code", reservationH.GetByCode)
			user.POST("/reservations/:id/cancel", reservationH.Cancel)
			user.GET("/reservations/:id/qrcode", reservationH.CheckInQRCode)
			user.GET("/reservations/:id/payments", paymentH.Summary)
			user.POST("/reservations/:id/evaluation", evaluationH.Create)

			// 房源
			user.GET("/properties", propertyH.List)
			user.GET("/properties/:id", propertyH.Get)

			// 支付
			user.POST("/payments", paymentH.RecordPayment)
			user.GET("/payments/:id", paymentH.GetPayment)
		}

		// 管理人员接口
		staff := v1.Group("")
		staff.Use(middleware.Auth(jwtManager), middleware.RequireStaff())
		{
			staff.POST("/reservations/:id/confirm", reservationH.Confirm)
			staff.POST("/reservations/:id/complete", reservationH.Complete)

			staff.GET("/properties/:id/overrides", propertyH.ListOverrides)
			staff.PUT("/properties/:id/overrides", propertyH.SetOverride)
			staff.POST("/properties/:id/block", propertyH.BlockPeriod)
			staff.POST("/properties/:id/free", propertyH.FreePeriod)
			staff.PUT("/properties/:id/maintenance", propertyH.SetMaintenance)
			staff.PUT("/properties/:id/listed", propertyH.SetListed)
			staff.GET("/properties/:id/ledger", paymentH.PropertyLedger)
			staff.GET("/properties/:id/stats", propertyH.ReservationStats)
			staff.GET("/cleaning-tasks", propertyH.CleaningTasks)

			staff.GET("/payments/:id/ledger", paymentH.LedgerEntries)
			staff.POST("/payments/:id/validate", paymentH.Validate)
			staff.POST("/payments/:id/fail", paymentH.MarkFailed)
			staff.POST("/payments/:id/refund", paymentH.Refund)
			staff.POST("/payment-types", paymentH.CreateType)

			staff.POST("/evaluations/:id/moderate", evaluationH.Moderate)
			staff.POST("/evaluations/:id/respond", evaluationH.Respond)
		}
	}

	// 404 处理
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})
}
