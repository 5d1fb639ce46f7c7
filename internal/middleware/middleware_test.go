package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/config"
	"github.com/repavi/lodges-backend/internal/common/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWTManager() *jwt.Manager {
	return jwt.NewManager(&jwt.Config{Secret: "test-secret", AccessExpireTime: time.Hour, Issuer: "lodges"})
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	manager := newJWTManager()

	r := gin.New()
	r.GET("/me", Auth(manager), func(c *gin.Context) {
		actor, ok := GetActor(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID, "role": actor.Role, "uid": GetUserID(c)})
	})

	t.Run("缺少令牌", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("无效令牌", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
	})

	t.Run("未知角色", func(t *testing.T) {
		token, _, err := manager.GenerateAccessToken(5, "owner")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		assert.Equal(t, http.StatusForbidden, serve(r, req).Code)
	})

	t.Run("有效令牌写入操作者", func(t *testing.T) {
		token, _, err := manager.GenerateAccessToken(42, string(authz.RoleClient))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		w := serve(r, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":42,"role":"client","uid":42}`, w.Body.String())
	})
}

func TestRequireRoles(t *testing.T) {
	manager := newJWTManager()

	r := gin.New()
	r.POST("/confirm", Auth(manager), RequireStaff(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	clientToken, _, _ := manager.GenerateAccessToken(1, string(authz.RoleClient))
	managerToken, _, _ := manager.GenerateAccessToken(2, string(authz.RoleManager))

	req := httptest.NewRequest(http.MethodPost, "/confirm", nil)
	req.Header.Set("Authorization", "Bearer "+clientToken)
	assert.Equal(t, http.StatusForbidden, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/confirm", nil)
	req.Header.Set("Authorization", "Bearer "+managerToken)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	// 未经过 Auth
	bare := gin.New()
	bare.GET("/x", RequireRoles(authz.RoleSuperAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, serve(bare, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestRequestIDAndRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "req-1")
	assert.Equal(t, "req-1", serve(r, req).Body.String())

	assert.Equal(t, http.StatusInternalServerError, serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil)).Code)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
		c.String(http.StatusGatewayTimeout, c.Request.Context().Err().Error())
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "deadline exceeded")
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logging(DefaultLoggingConfig(zap.New(core))))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "/missing", entry.ContextMap()["path"])
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(&config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}, MaxAge: 600}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	assert.Empty(t, serve(r, req).Header().Get("Access-Control-Allow-Origin"))
}

func TestIPRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	r := gin.New()
	r.Use(IPRateLimit(client, 2, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	mr.FastForward(time.Minute)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}
