package service

import (
	"testing"
	"time"

	"go-bar-manager/internal/model"
	"go-bar-manager/internal/realtime"
	"go-bar-manager/internal/repository"
	"go-bar-manager/internal/session"
	"go-bar-manager/internal/testhelpers"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testDomain = "gestionbar.com"

var testNow = time.Date(2024, 3, 1, 20, 30, 0, 0, time.UTC)

type testEnv struct {
	db     *gorm.DB
	fx     *testhelpers.Fixture
	owner  *session.Session
	broker *realtime.Broker
	logger *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	fx := testhelpers.SeedOwnerWithBar(t, db, testDomain)
	return &testEnv{
		db:     db,
		fx:     fx,
		owner:  ownerSession(fx),
		broker: realtime.NewBroker(),
		logger: zap.NewNop(),
	}
}

func ownerSession(fx *testhelpers.Fixture) *session.Session {
	return &session.Session{
		CredentialID: fx.Credential.ID,
		ProfileID:    fx.Owner.ID,
		Role:         model.RoleOwner,
		Name:         fx.Owner.Username,
		Permissions:  model.AllPermissions,
	}
}

func staffSession(barID uuid.UUID, perms ...model.Permission) *session.Session {
	return &session.Session{
		CredentialID: uuid.New(),
		ProfileID:    uuid.New(),
		Role:         model.RoleStaff,
		BarID:        &barID,
		Name:         "Awa Diallo",
		Permissions:  perms,
	}
}

func (e *testEnv) inventory() *inventoryService {
	svc := NewInventoryService(repository.NewStockRepo(e.db), repository.NewMovementRepo(e.db), repository.NewBarRepo(e.db), e.db, e.broker, nil, e.logger).(*inventoryService)
	svc.now = testhelpers.FixedClock(testNow)
	return svc
}

func (e *testEnv) orders() *orderService {
	svc := NewOrderService(
		repository.NewOrderRepo(e.db),
		repository.NewStockRepo(e.db),
		repository.NewMovementRepo(e.db),
		repository.NewEmployeeRepo(e.db),
		repository.NewBarRepo(e.db),
		e.db, e.broker, nil, e.logger,
	).(*orderService)
	svc.now = testhelpers.FixedClock(testNow)
	return svc
}

func (e *testEnv) employees() *employeeService {
	svc := NewEmployeeService(
		repository.NewEmployeeRepo(e.db),
		repository.NewCredentialRepo(e.db),
		repository.NewBarRepo(e.db),
		e.db, e.broker, nil, testDomain, e.logger,
	).(*employeeService)
	svc.now = testhelpers.FixedClock(testNow)
	return svc
}

func (e *testEnv) identity() IdentityService {
	svc := NewIdentityService(
		repository.NewCredentialRepo(e.db),
		repository.NewAccountRepo(e.db),
		repository.NewEmployeeRepo(e.db),
		e.db, testDomain, e.logger,
	).(*identityService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func intPtr(v int) *int { return &v }
