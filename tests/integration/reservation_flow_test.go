//go:build integration

package integration

import (
	"context"
	stdErrors "errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/cache"
	"github.com/repavi/lodges-backend/internal/common/config"
	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/repavi/lodges-backend/internal/models"
	paymentService "github.com/repavi/lodges-backend/internal/service/payment"
	reservationService "github.com/repavi/lodges-backend/internal/service/reservation"
)

var containers *TestContainers

func TestMain(m *testing.M) {
	ctx := context.Background()
	containers = NewTestContainers(ctx)
	if err := containers.StartAll(); err != nil {
		_ = containers.Cleanup()
		panic(err)
	}

	code := m.Run()
	_ = containers.Cleanup()
	os.Exit(code)
}

type fixture struct {
	db       *gorm.DB
	manager  authz.Actor
	client   authz.Actor
	property *models.Property
	svc      *reservationService.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := containers.GetPostgresDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	manager := &models.User{Name: "manager", Role: models.UserRoleManager, Status: models.UserStatusActive}
	require.NoError(t, db.Create(manager).Error)
	client := &models.User{Name: "client", Role: models.UserRoleClient, Status: models.UserStatusActive}
	require.NoError(t, db.Create(client).Error)

	property := &models.Property{
		Code:            "P-" + time.Now().Format("150405.000000"),
		Name:            "Villa",
		ManagerID:       manager.ID,
		NightlyPrice:    50000,
		Capacity:        4,
		Listed:          true,
		OccupancyStatus: models.OccupancyFree,
	}
	require.NoError(t, db.Create(property).Error)

	clock := func() time.Time { return time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC) }
	svc := reservationService.NewService(db, config.ReservationConfig{
		ServiceFeeRate:   0.05,
		DepositRate:      0.30,
		MaxNights:        365,
		CalendarCacheTTL: 300,
	}, reservationService.WithClock(clock))

	return &fixture{
		db:       db,
		manager:  authz.Actor{UserID: manager.ID, Role: authz.RoleManager},
		client:   authz.Actor{UserID: client.ID, Role: authz.RoleClient},
		property: property,
		svc:      svc,
	}
}

// 并发提交相同日期，行锁保证只有一个预订成功
func TestConcurrentCreate_SingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, f.client, &reservationService.CreateRequest{
				PropertyID: f.property.ID,
				StartDate:  "2024-06-01",
				EndDate:    "2024-06-04",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case stdErrors.Is(err, errors.ErrReservationConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)

	var active int64
	require.NoError(t, f.db.Model(&models.Reservation{}).
		Where("property_id = ? AND status IN ?", f.property.ID, []string{models.ReservationStatusPending, models.ReservationStatusConfirmed}).
		Count(&active).Error)
	assert.EqualValues(t, 1, active)
}

func TestReservationPaymentFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	redis, err := containers.GetRedisClient()
	require.NoError(t, err)
	cache.SetClient(redis)
	t.Cleanup(func() { cache.SetClient(nil) })

	r, err := f.svc.Create(ctx, f.client, &reservationService.CreateRequest{
		PropertyID:  f.property.ID,
		StartDate:   "2024-06-10",
		EndDate:     "2024-06-13",
		PaymentMode: models.PaymentModeDeposit,
	})
	require.NoError(t, err)
	assert.InDelta(t, 157500, r.Total, 0.001)
	assert.InDelta(t, 47250, r.DepositAmount, 0.001)

	// 首次查询写入缓存
	days, err := f.svc.Calendar(ctx, f.property.ID, 2024, 6)
	require.NoError(t, err)
	assert.Equal(t, reservationService.DayPending, days[9].Status)

	r, err = f.svc.Confirm(ctx, f.manager, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, r.Status)

	// 状态变更后缓存失效
	days, err = f.svc.Calendar(ctx, f.property.ID, 2024, 6)
	require.NoError(t, err)
	assert.Equal(t, reservationService.DayBooked, days[9].Status)

	transfer := &models.PaymentType{Name: "virement-" + r.Code, Active: true}
	require.NoError(t, f.db.Create(transfer).Error)

	payments := paymentService.NewService(f.db)
	p, err := payments.RecordPayment(ctx, f.client, &paymentService.RecordRequest{
		ReservationID: r.ID,
		PaymentTypeID: transfer.ID,
		Amount:        47250,
	})
	require.NoError(t, err)

	_, err = payments.RecordPayment(ctx, f.client, &paymentService.RecordRequest{
		ReservationID: r.ID,
		PaymentTypeID: transfer.ID,
		Amount:        200000,
	})
	assert.ErrorIs(t, err, errors.ErrPaymentAmountExceed)

	_, err = payments.Validate(ctx, f.manager, p.ID, paymentService.ValidateRequest{ExternalRef: "BANK-42"})
	require.NoError(t, err)

	remaining, err := payments.RemainingBalance(ctx, r.ID)
	require.NoError(t, err)
	assert.InDelta(t, 110250, remaining, 0.001)

	_, err = f.svc.Cancel(ctx, f.client, r.ID, "change of plans")
	require.NoError(t, err)

	available, err := f.svc.Checker().IsAvailable(ctx, f.property.ID,
		time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.True(t, available)
}
