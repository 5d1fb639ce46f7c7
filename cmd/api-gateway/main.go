// Package main 是应用程序入口
//
// @title Lodges Reservation API
// @version 1.0
// @description 房源预订、计价、房态与收款接口
// @BasePath /api/v1
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/cache"
	"github.com/repavi/lodges-backend/internal/common/config"
	"github.com/repavi/lodges-backend/internal/common/database"
	"github.com/repavi/lodges-backend/internal/common/logger"
	"github.com/repavi/lodges-backend/internal/common/metrics"
	"github.com/repavi/lodges-backend/internal/common/tracing"
	"github.com/repavi/lodges-backend/internal/events"
	"github.com/repavi/lodges-backend/internal/models"
	"github.com/repavi/lodges-backend/internal/scheduler"
	evaluationService "github.com/repavi/lodges-backend/internal/service/evaluation"
	paymentService "github.com/repavi/lodges-backend/internal/service/payment"
	propertyService "github.com/repavi/lodges-backend/internal/service/property"
	reservationService "github.com/repavi/lodges-backend/internal/service/reservation"
	"github.com/repavi/lodges-backend/pkg/mqtt"
	"github.com/repavi/lodges-backend/pkg/rabbitmq"
)

// services 业务服务集合
type services struct {
	reservation *reservationService.Service
	payment     *paymentService.Service
	property    *propertyService.Service
	evaluation  *evaluationService.Service
}

func main() {
	// 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()

	log.Info("Starting Lodges Backend",
		zap.String("version", "1.0.0"),
		zap.String("env", cfg.Server.Mode),
	)

	// 初始化数据库连接
	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(models.AllModels()...); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// 初始化 Redis 连接
	redisClient, err := cache.Init(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Redis connected successfully")

	// 监控与链路追踪
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.Init(cfg.Metrics.Namespace)
	}
	tracer, err := tracing.Init(&tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Server.Mode,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}

	// 事件发布
	publisher, closeEvents := setupEvents(cfg, log)
	defer closeEvents()

	svc := newServices(db, cfg, log, m, publisher)

	// 定时任务
	var sched *scheduler.Scheduler
	if cfg.Business.Scheduler.Enabled {
		sched = scheduler.NewScheduler(logger.Named("scheduler"))
		scheduler.SetupTasks(sched, scheduler.NewTaskHandler(svc.reservation, log), cfg.Business.Scheduler)
		sched.Start()
	}

	// 设置 Gin 模式
	switch {
	case cfg.IsRelease():
		gin.SetMode(gin.ReleaseMode)
	case cfg.IsDebug():
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.TestMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	// 设置路由
	setupRouter(engine, cfg, log, db, redisClient, m, svc)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := tracer.Shutdown(ctx); err != nil {
		log.Warn("Tracer shutdown failed", zap.Error(err))
	}

	// 关闭数据库连接
	if err := database.Close(); err != nil {
		log.Warn("Database close failed", zap.Error(err))
	}

	log.Info("Server exited")
}

// newServices 组装业务服务
func newServices(db *gorm.DB, cfg *config.Config, log *zap.Logger, m *metrics.Metrics, publisher events.Publisher) *services {
	reservationSvc := reservationService.NewService(db, cfg.Business.Reservation,
		reservationService.WithPublisher(publisher),
		reservationService.WithMetrics(m),
		reservationService.WithLogger(log),
	)
	return &services{
		reservation: reservationSvc,
		payment: paymentService.NewService(db,
			paymentService.WithPublisher(publisher),
			paymentService.WithMetrics(m),
			paymentService.WithLogger(log),
		),
		property: propertyService.NewService(db, reservationSvc,
			propertyService.WithPublisher(publisher),
			propertyService.WithLogger(log),
		),
		evaluation: evaluationService.NewService(db, log),
	}
}

// setupEvents 按配置连接 MQTT 与 RabbitMQ，连接失败时降级为不推送
func setupEvents(cfg *config.Config, log *zap.Logger) (events.Publisher, func()) {
	var publishers []events.Publisher
	var closers []func()

	if cfg.MQTT.Enabled {
		client := mqtt.NewClient(&mqtt.Config{
			Broker:         cfg.MQTT.Broker,
			Port:           cfg.MQTT.Port,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			QoS:            cfg.MQTT.QoS,
			KeepAlive:      cfg.MQTT.KeepAlive,
			AutoReconnect:  cfg.MQTT.AutoReconnect,
			ConnectTimeout: cfg.MQTT.ConnectTimeout,
		}, log)
		if err := client.Connect(); err != nil {
			log.Warn("MQTT unavailable, occupancy push disabled", zap.Error(err))
		} else {
			publishers = append(publishers, events.NewMQTTPublisher(client, cfg.MQTT.TopicPrefix, cfg.MQTT.Retained))
			closers = append(closers, client.Disconnect)
		}
	}

	if cfg.RabbitMQ.Enabled {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Warn("RabbitMQ unavailable, reservation events disabled", zap.Error(err))
		} else {
			publishers = append(publishers, events.NewAMQPPublisher(pub))
			closers = append(closers, pub.Close)
		}
	}

	return events.NewDispatcher(log, publishers...), func() {
		for _, c := range closers {
			c()
		}
	}
}
