package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/config"
	"github.com/repavi/lodges-backend/internal/events"
	"github.com/repavi/lodges-backend/internal/models"
)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	events   *events.Recorder
	now      time.Time
	admin    authz.Actor
	manager  authz.Actor
	client   authz.Actor
	property *models.Property
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
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

func testConfig() config.ReservationConfig {
	return config.ReservationConfig{
		ServiceFeeRate:   0.05,
		DepositRate:      0.30,
		MaxNights:        365,
		CalendarCacheTTL: 300,
	}
}

func createUser(t *testing.T, db *gorm.DB, name, role string) authz.Actor {
	user := &models.User{Name: name, Role: role, Status: models.UserStatusActive}
	require.NoError(t, db.Create(user).Error)
	return authz.Actor{UserID: user.ID, Role: authz.Role(role)}
}

func createProperty(t *testing.T, db *gorm.DB, code string, managerID int64, price float64) *models.Property {
	p := &models.Property{
		Code:            code,
		Name:            "Villa " + code,
		ManagerID:       managerID,
		NightlyPrice:    price,
		Capacity:        4,
		Listed:          true,
		OccupancyStatus: models.OccupancyFree,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// newFixture 今天为 2024-05-20
func newFixture(t *testing.T) *fixture {
	db := setupTestDB(t)
	f := &fixture{
		db:     db,
		events: &events.Recorder{},
		now:    time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC),
	}
	f.admin = createUser(t, db, "admin", models.UserRoleSuperAdmin)
	f.manager = createUser(t, db, "manager", models.UserRoleManager)
	f.client = createUser(t, db, "client", models.UserRoleClient)
	f.property = createProperty(t, db, "P-001", f.manager.UserID, 50000)
	f.svc = NewService(db, testConfig(),
		WithClock(func() time.Time { return f.now }),
		WithPublisher(f.events),
	)
	return f
}

func (f *fixture) create(t *testing.T, start, end string) *models.Reservation {
	r, err := f.svc.Create(context.Background(), f.client, &CreateRequest{
		PropertyID: f.property.ID,
		StartDate:  start,
		EndDate:    end,
		GuestCount: 2,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) createConfirmed(t *testing.T, start, end string) *models.Reservation {
	r := f.create(t, start, end)
	r, err := f.svc.Confirm(context.Background(), f.manager, r.ID)
	require.NoError(t, err)
	return r
}

func (f *fixture) reload(t *testing.T, id int64) *models.Reservation {
	var r models.Reservation
	require.NoError(t, f.db.First(&r, id).Error)
	return &r
}

func (f *fixture) reloadProperty(t *testing.T) *models.Property {
	var p models.Property
	require.NoError(t, f.db.First(&p, f.property.ID).Error)
	return &p
}
