package evaluation

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
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/repavi/lodges-backend/internal/common/jwt"
	"github.com/repavi/lodges-backend/internal/middleware"
	"github.com/repavi/lodges-backend/internal/models"
	"github.com/repavi/lodges-backend/internal/repository"
	evaluationService "github.com/repavi/lodges-backend/internal/service/evaluation"
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
	router        *gin.Engine
	propertyID    int64
	reservationID int64
	pendingID     int64
	tokens        map[string]string
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
	env := &testEnv{tokens: make(map[string]string)}

	ids := make(map[string]int64)
	for _, role := range []string{models.UserRoleManager, models.UserRoleClient} {
		user := &models.User{Name: role, Role: role, Status: models.UserStatusActive}
		require.NoError(t, db.Create(user).Error)
		token, _, err := jwtManager.GenerateAccessToken(user.ID, role)
		require.NoError(t, err)
		env.tokens[role] = token
		ids[role] = user.ID
	}

	property := &models.Property{Code: "P-001", Name: "Villa", ManagerID: ids[models.UserRoleManager], NightlyPrice: 50000, Capacity: 4, Listed: true}
	require.NoError(t, db.Create(property).Error)
	env.propertyID = property.ID

	newReservation := func(code, status string, start time.Time) int64 {
		r := &models.Reservation{
			Code:        code,
			ClientID:    ids[models.UserRoleClient],
			PropertyID:  property.ID,
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, 3),
			Nights:      3,
			Total:       157500,
			PaymentMode: models.PaymentModeFull,
			Status:      status,
		}
		require.NoError(t, db.Create(r).Error)
		return r.ID
	}
	env.reservationID = newReservation("REV-202405-DONE", models.ReservationStatusCompleted, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	env.pendingID = newReservation("REV-202406-PEND", models.ReservationStatusPending, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	h := NewHandler(evaluationService.NewService(db, zap.NewNop()))

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/properties/:id/evaluations", h.ListByProperty)
	v1.GET("/properties/:id/rating", h.PropertyRating)

	user := v1.Group("", middleware.Auth(jwtManager))
	user.POST("/reservations/:id/evaluation", h.Create)

	staff := v1.Group("", middleware.Auth(jwtManager), middleware.RequireStaff())
	staff.POST("/evaluations/:id/moderate", h.Moderate)
	staff.POST("/evaluations/:id/respond", h.Respond)

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

func validBody() gin.H {
	return gin.H{
		"overall_rating":     5,
		"cleanliness_rating": 4,
		"equipment_rating":   4,
		"location_rating":    5,
		"value_rating":       3,
		"comment":            "Séjour parfait",
		"recommends":         true,
	}
}

func TestCreateAndModerate(t *testing.T) {
	env := setupEnv(t)

	w, resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%d/evaluation", env.reservationID), models.UserRoleClient, validBody())
	require.Equal(t, http.StatusCreated, w.Code, resp.Message)
	var e models.Evaluation
	require.NoError(t, json.Unmarshal(resp.Data, &e))

	// 每个预订仅可评价一次
	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%d/evaluation", env.reservationID), models.UserRoleClient, validBody())
	assert.Equal(t, http.StatusConflict, w.Code)

	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/properties/%d/rating", env.propertyID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats repository.RatingStats
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.EqualValues(t, 1, stats.Count)
	assert.InDelta(t, 5, stats.Overall, 0.001)

	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/evaluations/%d/moderate", e.ID), models.UserRoleManager, gin.H{"approved": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/evaluations/%d/moderate", e.ID), models.UserRoleManager, gin.H{"approved": false, "reason": "spam"})
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Total int64 `json:"total"`
	}
	w, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/properties/%d/evaluations", env.propertyID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.EqualValues(t, 0, page.Total)

	w, resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/evaluations/%d/respond", e.ID), models.UserRoleManager, gin.H{"response": "Merci"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &e))
	require.NotNil(t, e.ManagerResponse)
	assert.Equal(t, "Merci", *e.ManagerResponse)

	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/evaluations/%d/moderate", e.ID), models.UserRoleClient, gin.H{"approved": true})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreate_Rejected(t *testing.T) {
	env := setupEnv(t)

	w, _ := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%d/evaluation", env.pendingID), models.UserRoleClient, validBody())
	assert.Equal(t, http.StatusConflict, w.Code)

	body := validBody()
	body["overall_rating"] = 6
	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%d/evaluation", env.reservationID), models.UserRoleClient, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%d/evaluation", env.reservationID), models.UserRoleClient, gin.H{"comment": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/reservations/%d/evaluation", env.reservationID), models.UserRoleManager, validBody())
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/properties/999/evaluations", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
