package property

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/repavi/lodges-backend/internal/common/config"
	"github.com/repavi/lodges-backend/internal/common/jwt"
	"github.com/repavi/lodges-backend/internal/middleware"
	"github.com/repavi/lodges-backend/internal/models"
	propertyService "github.com/repavi/lodges-backend/internal/service/property"
	reservationService "github.com/repavi/lodges-backend/internal/service/reservation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	router     *gin.Engine
	db         *gorm.DB
	propertyID int64
	hiddenID   int64
	clientID   int64
	tokens     map[string]string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	jwtManager := jwt.NewManager(&jwt.Config{Secret: "test-secret", AccessExpireTime: time.Hour, Issuer: "lodges"})
	env := &testEnv{db: db, tokens: make(map[string]string)}

	ids := make(map[string]int64)
	for _, role := range []string{models.UserRoleManager, models.UserRoleClient, "other_manager"} {
		userRole := role
		if role == "other_manager" {
			userRole = models.UserRoleManager
		}
		user := &models.User{Name: role, Role: userRole, Status: models.UserStatusActive}
		require.NoError(t, db.Create(user).Error)
		token, _, err := jwtManager.GenerateAccessToken(user.ID, userRole)
		require.NoError(t, err)
		env.tokens[role] = token
		ids[role] = user.ID
	}
	env.clientID = ids[models.UserRoleClient]

	listed := &models.Property{Code: "P-001", Name: "Villa Azur", ManagerID: ids[models.UserRoleManager], NightlyPrice: 50000, Capacity: 4, Listed: true, OccupancyStatus: models.OccupancyFree}
	require.NoError(t, db.Create(listed).Error)
	env.propertyID = listed.ID

	hidden := &models.Property{Code: "P-002", Name: "Studio", ManagerID: ids[models.UserRoleManager], NightlyPrice: 20000, Capacity: 2, Listed: true, OccupancyStatus: models.OccupancyFree}
	require.NoError(t, db.Create(hidden).Error)
	require.NoError(t, db.Model(hidden).Update("listed", false).Error)
	env.hiddenID = hidden.ID

	clock := func() time.Time { return time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC) }
	reservationSvc := reservationService.NewService(db, config.ReservationConfig{ServiceFeeRate: 0.05, DepositRate: 0.30, MaxNights: 365},
		reservationService.WithClock(clock))
	h := NewHandler(propertyService.NewService(db, reservationSvc, propertyService.WithClock(clock)))

	r := gin.New()
	v1 := r.Group("/api/v1")
	user := v1.Group("", middleware.Auth(jwtManager))
	user.GET("/properties", h.List)
	user.GET("/properties/:id", h.Get)

	staff := v1.Group("", middleware.Auth(jwtManager), middleware.RequireStaff())
	staff.GET("/properties/:id/overrides", h.ListOverrides)
	staff.PUT("/properties/:id/overrides", h.SetOverride)
	staff.POST("/properties/:id/block", h.BlockPeriod)
	staff.POST("/properties/:id/free", h.FreePeriod)
	staff.PUT("/properties/:id/maintenance", h.SetMaintenance)
	staff.PUT("/properties/:id/listed", h.SetListed)
	staff.GET("/properties/:id/stats", h.ReservationStats)
	staff.GET("/cleaning-tasks", h.CleaningTasks)

	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path, role string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[role])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp apiResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestListAndGet(t *testing.T) {
	env := setupEnv(t)

	var page struct {
		Total int64 `json:"total"`
	}

	w, resp := env.do(t, http.MethodGet, "/api/v1/properties", models.UserRoleClient, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.EqualValues(t, 1, page.Total)

	w, resp = env.do(t, http.MethodGet, "/api/v1/properties", models.UserRoleManager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.EqualValues(t, 2, page.Total)

	w, resp = env.do(t, http.MethodGet, "/api/v1/properties?min_capacity=3", models.UserRoleManager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.EqualValues(t, 1, page.Total)

	w, _ = env.do(t, http.MethodGet, "/api/v1/properties?min_capacity=-1", models.UserRoleManager, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 未上架房源对客户不可见
	w, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/properties/%d", env.hiddenID), models.UserRoleClient, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/properties/%d", env.hiddenID), models.UserRoleManager, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOverridesAndPeriods(t *testing.T) {
	env := setupEnv(t)
	base := fmt.Sprintf("/api/v1/properties/%d", env.propertyID)

	w, _ := env.do(t, http.MethodPut, base+"/overrides", models.UserRoleManager, gin.H{"date": "2024-06-10", "special_price": 65000})
	require.Equal(t, http.StatusOK, w.Code)

	// 其他管理员无权操作
	w, _ = env.do(t, http.MethodPut, base+"/overrides", "other_manager", gin.H{"date": "2024-06-10", "blocked": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodPut, base+"/overrides", models.UserRoleClient, gin.H{"date": "2024-06-10", "blocked": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := env.do(t, http.MethodPost, base+"/block", models.UserRoleManager, gin.H{"start_date": "2024-06-09", "end_date": "2024-06-12", "reason": "works"})
	require.Equal(t, http.StatusOK, w.Code)
	var blocked struct {
		Blocked int `json:"blocked"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &blocked))
	assert.Equal(t, 3, blocked.Blocked)

	w, resp = env.do(t, http.MethodGet, base+"/overrides?start_date=2024-06-01&end_date=2024-07-01", models.UserRoleManager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var overrides []models.AvailabilityOverride
	require.NoError(t, json.Unmarshal(resp.Data, &overrides))
	require.Len(t, overrides, 3)
	for _, o := range overrides {
		assert.True(t, o.Blocked)
	}

	w, resp = env.do(t, http.MethodPost, base+"/free", models.UserRoleManager, gin.H{"start_date": "2024-06-09", "end_date": "2024-06-12"})
	require.Equal(t, http.StatusOK, w.Code)
	var freed struct {
		Freed int64 `json:"freed"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &freed))
	assert.EqualValues(t, 3, freed.Freed)

	// 特价保留
	w, resp = env.do(t, http.MethodGet, base+"/overrides?start_date=2024-06-01&end_date=2024-07-01", models.UserRoleManager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &overrides))
	require.Len(t, overrides, 1)
	require.NotNil(t, overrides[0].SpecialPrice)
	assert.InDelta(t, 65000, *overrides[0].SpecialPrice, 0.001)

	w, _ = env.do(t, http.MethodPost, base+"/block", models.UserRoleManager, gin.H{"start_date": "2024-06-12", "end_date": "2024-06-09"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, base+"/block", models.UserRoleManager, gin.H{"start_date": "2024-06-12"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlockPeriod_RejectsReservedDates(t *testing.T) {
	env := setupEnv(t)
	require.NoError(t, env.db.Create(&models.Reservation{
		Code:        "REV-202406-BBBB",
		ClientID:    env.clientID,
		PropertyID:  env.propertyID,
		StartDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
		Nights:      3,
		Total:       157500,
		PaymentMode: models.PaymentModeFull,
		Status:      models.ReservationStatusConfirmed,
	}).Error)

	w, resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/properties/%d/block", env.propertyID), models.UserRoleManager,
		gin.H{"start_date": "2024-06-03", "end_date": "2024-06-05"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 5002, resp.Code)
}

func TestMaintenanceAndListed(t *testing.T) {
	env := setupEnv(t)
	base := fmt.Sprintf("/api/v1/properties/%d", env.propertyID)

	w, _ := env.do(t, http.MethodPut, base+"/maintenance", models.UserRoleManager, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := env.do(t, http.MethodPut, base+"/maintenance", models.UserRoleManager, gin.H{"on": true})
	require.Equal(t, http.StatusOK, w.Code)
	var p models.Property
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	assert.Equal(t, models.OccupancyMaintenance, p.OccupancyStatus)

	w, resp = env.do(t, http.MethodPut, base+"/maintenance", models.UserRoleManager, gin.H{"on": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	assert.Equal(t, models.OccupancyFree, p.OccupancyStatus)

	w, resp = env.do(t, http.MethodPut, base+"/listed", models.UserRoleManager, gin.H{"on": false})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	assert.False(t, p.Listed)

	w, _ = env.do(t, http.MethodGet, base, models.UserRoleClient, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsAndCleaningTasks(t *testing.T) {
	env := setupEnv(t)

	for i, status := range []string{models.ReservationStatusConfirmed, models.ReservationStatusCancelled, models.ReservationStatusCancelled} {
		start := time.Date(2024, 6, 1+i*5, 0, 0, 0, 0, time.UTC)
		require.NoError(t, env.db.Create(&models.Reservation{
			Code:        fmt.Sprintf("REV-202406-S%03d", i),
			ClientID:    env.clientID,
			PropertyID:  env.propertyID,
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, 2),
			Nights:      2,
			Total:       105000,
			PaymentMode: models.PaymentModeFull,
			Status:      status,
		}).Error)
	}
	require.NoError(t, env.db.Create(&models.CleaningTask{
		PropertyID:    env.propertyID,
		ScheduledDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Status:        models.CleaningStatusTodo,
	}).Error)

	w, resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/properties/%d/stats", env.propertyID), models.UserRoleManager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]int64
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.EqualValues(t, 1, stats[models.ReservationStatusConfirmed])
	assert.EqualValues(t, 2, stats[models.ReservationStatusCancelled])
	assert.EqualValues(t, 0, stats[models.ReservationStatusPending])

	w, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/properties/%d/stats", env.propertyID), "other_manager", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp = env.do(t, http.MethodGet, "/api/v1/cleaning-tasks?date=2024-06-03", models.UserRoleManager, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []models.CleaningTask
	require.NoError(t, json.Unmarshal(resp.Data, &tasks))
	assert.Len(t, tasks, 1)

	// 其他管理员看不到不属于自己的房源
	w, resp = env.do(t, http.MethodGet, "/api/v1/cleaning-tasks?date=2024-06-03", "other_manager", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &tasks))
	assert.Empty(t, tasks)

	w, _ = env.do(t, http.MethodGet, "/api/v1/cleaning-tasks", models.UserRoleManager, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
