package authz

import (
	"testing"

	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	client := Actor{UserID: 10, Role: RoleClient}
	otherClient := Actor{UserID: 11, Role: RoleClient}
	manager := Actor{UserID: 20, Role: RoleManager}
	otherManager := Actor{UserID: 21, Role: RoleManager}
	admin := Actor{UserID: 1, Role: RoleSuperAdmin}

	scope := Scope{ClientID: 10, ManagerID: 20}

	tests := []struct {
		name  string
		actor Actor
		cap   Capability
		scope Scope
		want  bool
	}{
		{"client creates own reservation", client, CapReservationCreate, scope, true},
		{"client cancels own reservation", client, CapReservationCancel, scope, true},
		{"client cannot confirm", client, CapReservationConfirm, scope, false},
		{"client cannot validate payment", client, CapPaymentValidate, scope, false},
		{"other client cannot view", otherClient, CapReservationView, scope, false},
		{"client evaluates own stay", client, CapEvaluationCreate, scope, true},
		{"manager confirms managed property", manager, CapReservationConfirm, scope, true},
		{"manager validates payment", manager, CapPaymentValidate, scope, true},
		{"other manager denied", otherManager, CapReservationConfirm, scope, false},
		{"manager cannot evaluate", manager, CapEvaluationCreate, scope, false},
		{"manager without scope denied", manager, CapPropertyManage, Scope{}, false},
		{"super admin confirms anything", admin, CapReservationConfirm, Scope{}, true},
		{"super admin manages property", admin, CapPropertyManage, Scope{}, true},
		{"super admin cannot evaluate", admin, CapEvaluationCreate, scope, false},
		{"super admin manages payment types", admin, CapPaymentTypeManage, Scope{}, true},
		{"manager cannot manage payment types", manager, CapPaymentTypeManage, scope, false},
		{"client cannot manage payment types", client, CapPaymentTypeManage, scope, false},
		{"unknown role denied", Actor{UserID: 10, Role: "guest"}, CapReservationView, scope, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.actor, tt.cap, tt.scope))

			err := Authorize(tt.actor, tt.cap, tt.scope)
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errors.ErrPermissionDenied)
			}
		})
	}
}

func TestRole(t *testing.T) {
	assert.True(t, RoleManager.Valid())
	assert.False(t, Role("owner").Valid())
	assert.True(t, System.IsSuperAdmin())
	assert.True(t, Actor{Role: RoleClient}.IsClient())
	assert.True(t, Actor{Role: RoleManager}.IsManager())
}
