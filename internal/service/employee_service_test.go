package service

import (
	"context"
	"strings"
	"testing"

	"go-bar-manager/internal/model"
	"go-bar-manager/internal/repository"
	"go-bar-manager/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barmanRequest() EmployeeRequest {
	return EmployeeRequest{
		FirstName:   "Awa",
		LastName:    "Diallo",
		Phone:       "0612345678",
		Position:    "barman",
		Permissions: []model.Permission{model.PermCashManagement},
		Salary:      "150000",
	}
}

func TestGenerateTempPassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		pw, err := generateTempPassword()
		require.NoError(t, err)
		assert.Len(t, pw, 8)
		for _, r := range pw {
			assert.True(t, strings.ContainsRune(tempPasswordChars, r), "unexpected %q", r)
		}
		seen[pw] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestEmployees_CreateIssuesLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := env.employees()
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, env.owner, env.fx.Bar.ID, barmanRequest())
	require.NoError(t, err)
	assert.Equal(t, "0612345678@"+testDomain, created.Login)
	assert.Len(t, created.TemporaryPassword, 8)
	assert.Equal(t, model.EmployeeActive, created.Employee.Status)
	assert.True(t, created.Employee.HireDate.Equal(testNow))
	require.NotNil(t, created.Employee.AuthID)

	bar, err := repository.NewBarRepo(env.db).FindByID(ctx, env.fx.Bar.ID)
	require.NoError(t, err)
	assert.Contains(t, bar.Staff, created.Employee.ID.String())

	// The employee can log in with the phone number and gets a staff session
	result, err := env.identity().Authenticate(ctx, "0612345678", created.TemporaryPassword)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, result.Role)
	assert.Equal(t, created.Employee.ID, result.ProfileID)
	require.NotNil(t, result.BarID)
	assert.Equal(t, env.fx.Bar.ID, *result.BarID)
	assert.Equal(t, []string{"cash_management"}, result.Permissions)
	assert.Equal(t, "Awa Diallo", result.Name)
}

func TestEmployees_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.employees()
	ctx := context.Background()

	req := barmanRequest()
	req.Phone = "06123"
	req.Position = "dj"
	req.Permissions = []model.Permission{"fly"}
	_, err := svc.CreateEmployee(ctx, env.owner, env.fx.Bar.ID, req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "phone")
	assert.Contains(t, verr.Fields, "position")

	req = barmanRequest()
	req.Salary = "-5"
	_, err = svc.CreateEmployee(ctx, env.owner, env.fx.Bar.ID, req)
	require.ErrorAs(t, err, &verr)

	_, err = svc.CreateEmployee(ctx, env.owner, env.fx.Bar.ID, barmanRequest())
	require.NoError(t, err)
	_, err = svc.CreateEmployee(ctx, env.owner, env.fx.Bar.ID, barmanRequest())
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestEmployees_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	svc := env.employees()
	ctx := context.Background()

	manager := staffSession(env.fx.Bar.ID, model.AllPermissions...)
	_, err := svc.CreateEmployee(ctx, manager, env.fx.Bar.ID, barmanRequest())
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.ListEmployees(ctx, manager, env.fx.Bar.ID, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.SubscribeEmployees(ctx, manager, env.fx.Bar.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	other := testhelpers.SeedOwnerWithBar(t, env.db, "other.com")
	_, err = svc.CreateEmployee(ctx, ownerSession(other), env.fx.Bar.ID, barmanRequest())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEmployees_UpdateAppliesOnNextValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.employees()
	identity := env.identity()
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, env.owner, env.fx.Bar.ID, barmanRequest())
	require.NoError(t, err)
	login, err := identity.Authenticate(ctx, created.Login, created.TemporaryPassword)
	require.NoError(t, err)

	req := barmanRequest()
	req.Permissions = []model.Permission{model.PermCashManagement, model.PermViewStats}
	req.City = "Douala"
	updated, err := svc.UpdateEmployee(ctx, env.owner, env.fx.Bar.ID, created.Employee.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Douala", updated.City)

	sess, err := identity.ValidateSession(ctx, login.Token)
	require.NoError(t, err)
	assert.True(t, sess.Can(model.PermViewStats))

	req.Status = string(model.EmployeeInactive)
	_, err = svc.UpdateEmployee(ctx, env.owner, env.fx.Bar.ID, created.Employee.ID, req)
	require.NoError(t, err)

	_, err = identity.ValidateSession(ctx, login.Token)
	assert.ErrorIs(t, err, ErrAccountDisabled)
	_, err = identity.Authenticate(ctx, created.Login, created.TemporaryPassword)
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestEmployees_PhoneChangeMovesLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := env.employees()
	identity := env.identity()
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, env.owner, env.fx.Bar.ID, barmanRequest())
	require.NoError(t, err)

	req := barmanRequest()
	req.Phone = "0699887766"
	updated, err := svc.UpdateEmployee(ctx, env.owner, env.fx.Bar.ID, created.Employee.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "0699887766", updated.Phone)

	result, err := identity.Authenticate(ctx, "0699887766", created.TemporaryPassword)
	require.NoError(t, err)
	assert.Equal(t, created.Employee.ID, result.ProfileID)
	_, err = identity.Authenticate(ctx, "0612345678", created.TemporaryPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// The owner's number is taken
	req.Phone = "0600000000"
	_, err = svc.UpdateEmployee(ctx, env.owner, env.fx.Bar.ID, created.Employee.ID, req)
	assert.ErrorIs(t, err, ErrAccountExists)
	stored, err := repository.NewEmployeeRepo(env.db).FindByID(ctx, created.Employee.ID)
	require.NoError(t, err)
	assert.Equal(t, "0699887766", stored.Phone)
}

func TestEmployees_DeleteRemovesLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := env.employees()
	ctx := context.Background()

	created, err := svc.CreateEmployee(ctx, env.owner, env.fx.Bar.ID, barmanRequest())
	require.NoError(t, err)
	require.NoError(t, svc.DeleteEmployee(ctx, env.owner, env.fx.Bar.ID, created.Employee.ID))

	_, err = env.identity().Authenticate(ctx, created.Login, created.TemporaryPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	bar, err := repository.NewBarRepo(env.db).FindByID(ctx, env.fx.Bar.ID)
	require.NoError(t, err)
	assert.NotContains(t, bar.Staff, created.Employee.ID.String())

	err = svc.DeleteEmployee(ctx, env.owner, env.fx.Bar.ID, created.Employee.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmployees_ListSearch(t *testing.T) {
	env := newTestEnv(t)
	svc := env.employees()
	ctx := context.Background()

	_, err := svc.CreateEmployee(ctx, env.owner, env.fx.Bar.ID, barmanRequest())
	require.NoError(t, err)
	waiter := barmanRequest()
	waiter.FirstName, waiter.LastName, waiter.Phone, waiter.Position = "Jean", "Mbarga", "0699999999", "serveur"
	_, err = svc.CreateEmployee(ctx, env.owner, env.fx.Bar.ID, waiter)
	require.NoError(t, err)

	all, err := svc.ListEmployees(ctx, env.owner, env.fx.Bar.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := svc.ListEmployees(ctx, env.owner, env.fx.Bar.ID, "serv")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Jean", found[0].FirstName)
}

func TestEmployees_SubscribeSeesNewStaff(t *testing.T) {
	env := newTestEnv(t)
	svc := env.employees()
	ctx := context.Background()

	sub, err := svc.SubscribeEmployees(ctx, env.owner, env.fx.Bar.ID)
	require.NoError(t, err)
	defer sub.Cancel()

	assert.Empty(t, <-sub.Events())

	_, err = svc.CreateEmployee(ctx, env.owner, env.fx.Bar.ID, barmanRequest())
	require.NoError(t, err)

	next := <-sub.Events()
	require.Len(t, next, 1)
	assert.Equal(t, "Awa", next[0].FirstName)
}
