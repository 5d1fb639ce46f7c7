package reservation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/repavi/lodges-backend/internal/models"
	"github.com/repavi/lodges-backend/internal/repository"
)

func TestCompute_ThreeNights(t *testing.T) {
	q, err := Compute([]float64{50000, 50000, 50000}, 0, 0.05, 0.30, "")
	require.NoError(t, err)

	assert.Equal(t, 3, q.Nights)
	assert.Equal(t, 150000.0, q.Subtotal)
	assert.Equal(t, 7500.0, q.Fee)
	assert.Equal(t, 157500.0, q.Total)
	assert.Equal(t, models.PaymentModeFull, q.PaymentMode)
	assert.Zero(t, q.Deposit)
}

func TestCompute_Deposit(t *testing.T) {
	q, err := Compute([]float64{50000, 50000, 50000}, 0, 0.05, 0.30, models.PaymentModeDeposit)
	require.NoError(t, err)
	assert.Equal(t, 157500.0, q.Total)
	assert.Equal(t, 47250.0, q.Deposit)
}

func TestCompute_DiscountClampedToSubtotal(t *testing.T) {
	q, err := Compute([]float64{100, 100}, 500, 0.05, 0.30, "")
	require.NoError(t, err)
	assert.Equal(t, 200.0, q.Discount)
	assert.Equal(t, 10.0, q.Fee)
	assert.Equal(t, 10.0, q.Total)
}

func TestCompute_TotalIdentity(t *testing.T) {
	cases := [][]float64{
		{99.99},
		{120.5, 80.25, 80.25},
		{33.33, 33.33, 33.34, 10},
	}
	for _, nightly := range cases {
		for _, discount := range []float64{0, 5, 1000} {
			q, err := Compute(nightly, discount, 0.05, 0.30, models.PaymentModeDeposit)
			require.NoError(t, err)
			assert.LessOrEqual(t, q.Discount, q.Subtotal)
			assert.InDelta(t, q.Subtotal-q.Discount+q.Fee, q.Total, 0.0001)
			assert.GreaterOrEqual(t, q.Total, 0.0)
		}
	}
}

func TestCompute_Errors(t *testing.T) {
	_, err := Compute(nil, 0, 0.05, 0.30, "")
	assert.ErrorIs(t, err, errors.ErrInvalidDateRange)

	_, err = Compute([]float64{100}, -1, 0.05, 0.30, "")
	assert.ErrorIs(t, err, errors.ErrInvalidDiscount)

	_, err = Compute([]float64{100}, 0, 0.05, 0.30, "bitcoin")
	assert.ErrorIs(t, err, errors.ErrInvalidParams)
}

func TestPricer_SpecialPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	special := 80000.0
	require.NoError(t, repository.NewAvailabilityOverrideRepository(f.db).Upsert(ctx, &models.AvailabilityOverride{
		PropertyID:   f.property.ID,
		Date:         day("2024-06-02"),
		SpecialPrice: &special,
	}))

	q, err := f.svc.pricer.Price(ctx, f.property, day("2024-06-01"), day("2024-06-04"), 0, "")
	require.NoError(t, err)
	assert.Equal(t, []float64{50000, 80000, 50000}, q.NightlyRates)
	assert.Equal(t, 180000.0, q.Subtotal)
	assert.Equal(t, 50000.0, q.NightlyPrice)
}

func TestPricer_InvalidNights(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.pricer.Price(ctx, f.property, day("2024-06-04"), day("2024-06-04"), 0, "")
	assert.ErrorIs(t, err, errors.ErrInvalidDateRange)

	_, err = f.svc.pricer.Price(ctx, f.property, day("2024-06-01"), day("2025-06-05"), 0, "")
	assert.ErrorIs(t, err, errors.ErrInvalidDateRange)
}
