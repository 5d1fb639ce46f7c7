package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/cache"
	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/repavi/lodges-backend/internal/common/utils"
	"github.com/repavi/lodges-backend/internal/models"
)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	manager  authz.Actor
	client   authz.Actor
	property *models.Property
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name, role string) authz.Actor {
	user := &models.User{Name: name, Role: role, Status: models.UserStatusActive}
	require.NoError(t, db.Create(user).Error)
	return authz.Actor{UserID: user.ID, Role: authz.Role(role)}
}

func newFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	f := &fixture{db: db, svc: NewService(db, nil)}
	f.manager = createUser(t, db, "manager", models.UserRoleManager)
	f.client = createUser(t, db, "client", models.UserRoleClient)
	f.property = &models.Property{Code: "P-001", Name: "Villa", ManagerID: f.manager.UserID, NightlyPrice: 50000, Capacity: 4, Listed: true}
	require.NoError(t, db.Create(f.property).Error)
	return f
}

func (f *fixture) reservation(t *testing.T, code, status string) *models.Reservation {
	r := &models.Reservation{
		Code: code, ClientID: f.client.UserID, PropertyID: f.property.ID,
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
		NightlyPrice: 50000, Nights: 3, Subtotal: 150000, ServiceFee: 7500, Total: 157500,
		Status: status,
	}
	require.NoError(t, f.db.Create(r).Error)
	return r
}

func validRequest(overall int) *CreateRequest {
	no := false
	return &CreateRequest{
		OverallRating: overall, CleanlinessRating: 4, EquipmentRating: 4, LocationRating: 5, ValueRating: 3,
		Comment:     "Très bon séjour",
		WouldReturn: &no,
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.reservation(t, "REV-202406-AAAA", models.ReservationStatusCompleted)

	e, err := f.svc.Create(ctx, f.client, r.ID, validRequest(5))
	require.NoError(t, err)
	assert.True(t, e.Approved)
	assert.True(t, e.Recommends)
	assert.False(t, e.WouldReturn)
	assert.Equal(t, f.property.ID, e.PropertyID)

	var stored models.Evaluation
	require.NoError(t, f.db.First(&stored, e.ID).Error)
	assert.False(t, stored.WouldReturn)

	_, err = f.svc.Create(ctx, f.client, r.ID, validRequest(4))
	assert.ErrorIs(t, err, errors.ErrEvaluationExists)
}

func TestCreate_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	confirmed := f.reservation(t, "REV-202406-BBBB", models.ReservationStatusConfirmed)
	completed := f.reservation(t, "REV-202406-CCCC", models.ReservationStatusCompleted)

	_, err := f.svc.Create(ctx, f.client, confirmed.ID, validRequest(5))
	assert.ErrorIs(t, err, errors.ErrEvaluationNotAllow)

	_, err = f.svc.Create(ctx, f.client, completed.ID, validRequest(6))
	assert.ErrorIs(t, err, errors.ErrInvalidRating)

	_, err = f.svc.Create(ctx, f.client, completed.ID, validRequest(0))
	assert.ErrorIs(t, err, errors.ErrInvalidRating)

	_, err = f.svc.Create(ctx, f.manager, completed.ID, validRequest(5))
	assert.ErrorIs(t, err, errors.ErrPermissionDenied)

	_, err = f.svc.Create(ctx, f.client, 999, validRequest(5))
	assert.ErrorIs(t, err, errors.ErrReservationNotFound)
}

func TestModerateAndRespond(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.reservation(t, "REV-202406-AAAA", models.ReservationStatusCompleted)
	e, err := f.svc.Create(ctx, f.client, r.ID, validRequest(2))
	require.NoError(t, err)

	_, err = f.svc.Moderate(ctx, f.manager, e.ID, false, "")
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	_, err = f.svc.Moderate(ctx, f.client, e.ID, false, "spam")
	assert.ErrorIs(t, err, errors.ErrPermissionDenied)

	moderated, err := f.svc.Moderate(ctx, f.manager, e.ID, false, "propos injurieux")
	require.NoError(t, err)
	assert.False(t, moderated.Approved)
	assert.Equal(t, "propos injurieux", utils.SafeString(moderated.RejectReason))

	page := utils.Pagination{Page: 1, PageSize: 10}
	_, total, err := f.svc.ListByProperty(ctx, f.client, f.property.ID, page)
	require.NoError(t, err)
	assert.Zero(t, total)
	_, total, err = f.svc.ListByProperty(ctx, f.manager, f.property.ID, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	responded, err := f.svc.Respond(ctx, f.manager, e.ID, "Merci pour votre retour")
	require.NoError(t, err)
	assert.NotNil(t, responded.RespondedAt)

	_, err = f.svc.Respond(ctx, f.manager, 999, "x")
	assert.ErrorIs(t, err, errors.ErrEvaluationNotFound)
}

func TestPropertyRating_CachedAndInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	f := newFixture(t)
	ctx := context.Background()
	first := f.reservation(t, "REV-202406-AAAA", models.ReservationStatusCompleted)
	second := f.reservation(t, "REV-202406-BBBB", models.ReservationStatusCompleted)

	_, err := f.svc.Create(ctx, f.client, first.ID, validRequest(5))
	require.NoError(t, err)

	stats, err := f.svc.PropertyRating(ctx, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Count)
	assert.Equal(t, 5.0, stats.Overall)
	assert.True(t, mr.Exists(ratingKey(f.property.ID)))

	e, err := f.svc.Create(ctx, f.client, second.ID, validRequest(2))
	require.NoError(t, err)
	assert.False(t, mr.Exists(ratingKey(f.property.ID)))

	stats, err = f.svc.PropertyRating(ctx, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Count)
	assert.Equal(t, 3.5, stats.Overall)

	_, err = f.svc.Moderate(ctx, f.manager, e.ID, false, "hors sujet")
	require.NoError(t, err)
	stats, err = f.svc.PropertyRating(ctx, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Count)
	assert.Equal(t, 5.0, stats.Overall)
}
