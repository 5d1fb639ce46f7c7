package main

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/repavi/lodges-backend/internal/common/config"
	"github.com/repavi/lodges-backend/internal/common/jwt"
	"github.com/repavi/lodges-backend/internal/events"
	"github.com/repavi/lodges-backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	cfg := &config.Config{
		Server: config.ServerConfig{WriteTimeout: 30},
		JWT:    config.JWTConfig{Secret: "router-secret", AccessTokenExpire: 1, Issuer: "lodges"},
		Business: config.BusinessConfig{Reservation: config.ReservationConfig{
			ServiceFeeRate: 0.05,
			DepositRate:    0.30,
			MaxNights:      365,
		}},
	}

	log := zap.NewNop()
	svc := newServices(db, cfg, log, nil, events.NopPublisher{})

	r := gin.New()
	setupRouter(r, cfg, log, db, nil, nil, svc)
	return r, cfg
}

func TestSetupRouter(t *testing.T) {
	r, cfg := newTestRouter(t)

	token, _, err := jwt.NewManager(&jwt.Config{
		Secret:           cfg.JWT.Secret,
		AccessExpireTime: cfg.JWT.AccessTokenDuration(),
		Issuer:           cfg.JWT.Issuer,
	}).GenerateAccessToken(7, models.UserRoleClient)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"健康检查", http.MethodGet, "/health", "", http.StatusOK},
		{"公开接口", http.MethodGet, "/api/v1/payment-types", "", http.StatusOK},
		{"未登录访问预订", http.MethodGet, "/api/v1/reservations", "", http.StatusUnauthorized},
		{"登录后访问预订", http.MethodGet, "/api/v1/reservations", token, http.StatusOK},
		{"客户访问管理接口", http.MethodGet, "/api/v1/cleaning-tasks", token, http.StatusForbidden},
		{"未知路由", http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

// 所有 /api/v1 路由都应出现在 swagger 文档中
func TestSwaggerDocCoversRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	param := regexp.MustCompile(`:([a-z_]+)`)
	for _, route := range r.Routes() {
		if !strings.HasPrefix(route.Path, "/api/v1/") {
			continue
		}
		path := param.ReplaceAllString(strings.TrimPrefix(route.Path, "/api/v1"), "{$1}")
		assert.Contains(t, doc, `"`+path+`"`, "%s %s", route.Method, route.Path)
	}
}
