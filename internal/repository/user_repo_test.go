package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/repavi/lodges-backend/internal/models"
)

func TestUserRepository_GetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	email := "awa@example.ci"
	user := &models.User{Name: "Awa", Email: &email, Role: models.UserRoleClient, Status: models.UserStatusActive}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	found, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Awa", found.Name)
	assert.Equal(t, email, *found.Email)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_GetActiveClient(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	client := &models.User{Name: "client", Role: models.UserRoleClient, Status: models.UserStatusActive}
	manager := &models.User{Name: "manager", Role: models.UserRoleManager, Status: models.UserStatusActive}
	disabled := &models.User{Name: "disabled", Role: models.UserRoleClient, Status: models.UserStatusActive}
	for _, u := range []*models.User{client, manager, disabled} {
		require.NoError(t, repo.Create(ctx, u))
	}
	// status 带默认值，禁用需单独更新
	require.NoError(t, db.Model(disabled).Update("status", models.UserStatusDisabled).Error)

	found, err := repo.GetActiveClient(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, client.ID, found.ID)

	_, err = repo.GetActiveClient(ctx, manager.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetActiveClient(ctx, disabled.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
