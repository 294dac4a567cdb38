package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go-bar-manager/internal/model"
	"go-bar-manager/internal/realtime"
	"go-bar-manager/internal/repository"
	"go-bar-manager/internal/session"
	"go-bar-manager/internal/ws"
	"go-bar-manager/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EmployeeService interface {
	CreateEmployee(ctx context.Context, actor *session.Session, barID uuid.UUID, req EmployeeRequest) (*EmployeeCreated, error)
	UpdateEmployee(ctx context.Context, actor *session.Session, barID, employeeID uuid.UUID, req EmployeeRequest) (*model.Employee, error)
	DeleteEmployee(ctx context.Context, actor *session.Session, barID, employeeID uuid.UUID) error
	ListEmployees(ctx context.Context, actor *session.Session, barID uuid.UUID, search string) ([]model.Employee, error)
	SubscribeEmployees(ctx context.Context, actor *session.Session, barID uuid.UUID) (*realtime.Subscription[model.Employee], error)
}

// EmployeeRequest is the staff form. Password is only read on creation; when
// empty a temporary one is generated.
type EmployeeRequest struct {
	FirstName    string             `json:"first_name" validate:"required"`
	LastName     string             `json:"last_name" validate:"required"`
	Phone        string             `json:"phone" validate:"required,phone10"`
	Email        string             `json:"email" validate:"omitempty,email"`
	Address      string             `json:"address"`
	City         string             `json:"city"`
	Position     string             `json:"position" validate:"required,oneof=serveur barman cuisinier gerant comptable autre"`
	ContractType string             `json:"contract_type" validate:"omitempty,oneof=CDI CDD interim saisonnier"`
	Permissions  []model.Permission `json:"permissions" validate:"dive,oneof=stock_management cash_management menu_edit view_stats"`
	Status       string             `json:"status" validate:"omitempty,oneof=active inactive on_leave"`
	HireDate     *time.Time         `json:"hire_date"`
	Salary       string             `json:"salary" validate:"omitempty,numeric"`
	Password     string             `json:"password" validate:"omitempty,min=6"`
}

// EmployeeCreated carries the one-time view of the generated login.
type EmployeeCreated struct {
	Employee          *model.Employee `json:"employee"`
	Login             string          `json:"login"`
	TemporaryPassword string          `json:"temporary_password"`
}

type employeeService struct {
	employeeRepo   repository.EmployeeRepository
	credentialRepo repository.CredentialRepository
	barRepo        repository.BarRepository
	db             *gorm.DB
	broker         *realtime.Broker
	wsHub          *ws.Hub
	domain         string
	logger         *zap.Logger
	now            func() time.Time
}

func NewEmployeeService(
	employeeRepo repository.EmployeeRepository,
	credentialRepo repository.CredentialRepository,
	barRepo repository.BarRepository,
	db *gorm.DB,
	broker *realtime.Broker,
	hub *ws.Hub,
	domain string,
	logger *zap.Logger,
) EmployeeService {
	return &employeeService{
		employeeRepo:   employeeRepo,
		credentialRepo: credentialRepo,
		barRepo:        barRepo,
		db:             db,
		broker:         broker,
		wsHub:          hub,
		domain:         domain,
		logger:         logger.Named("employees"),
		now:            time.Now,
	}
}

func (s *employeeService) CreateEmployee(ctx context.Context, actor *session.Session, barID uuid.UUID, req EmployeeRequest) (*EmployeeCreated, error) {
	const action = "create employee"

	// 1. Owner re-check against bar.ownerId
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, true); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}

	// 2. Validate request
	salary, err := s.validate(&req)
	if err != nil {
		return nil, logFailure(s.logger, action, err)
	}

	// 3. Login is the phone number on the application domain
	login := NormalizeIdentifier(req.Phone, s.domain)
	if _, err := s.credentialRepo.FindByEmail(ctx, login); err == nil {
		return nil, logFailure(s.logger, action, ErrAccountExists, zap.String("login", login))
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, logFailure(s.logger, action, storeErr(err))
	}

	password := req.Password
	if password == "" {
		if password, err = generateTempPassword(); err != nil {
			return nil, logFailure(s.logger, action, err)
		}
	}
	credential := &model.Credential{Email: login, IsActive: true}
	if err := credential.SetPassword(password); err != nil {
		return nil, logFailure(s.logger, action, err)
	}

	employee := s.apply(&model.Employee{BarID: barID}, req, salary)
	employee.CreatedBy = actor.ActorID()
	employee.UpdatedBy = actor.ActorID()
	if employee.HireDate.IsZero() {
		employee.HireDate = s.now()
	}

	// 4. Credential, employee and bar.staff commit together
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.credentialRepo.Create(tx, credential); err != nil {
			return err
		}
		employee.AuthID = &credential.ID
		if err := s.employeeRepo.Create(tx, employee); err != nil {
			return err
		}
		return s.barRepo.AddStaff(tx, barID, employee.ID)
	})
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("bar_id", barID.String()))
	}

	s.notify(barID, "employee_created", employee, actor)
	s.logger.Info("employee created", zap.String("bar_id", barID.String()), zap.String("employee_id", employee.ID.String()))
	return &EmployeeCreated{Employee: employee, Login: login, TemporaryPassword: password}, nil
}

func (s *employeeService) UpdateEmployee(ctx context.Context, actor *session.Session, barID, employeeID uuid.UUID, req EmployeeRequest) (*model.Employee, error) {
	const action = "update employee"
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, true); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}

	employee, err := s.find(ctx, barID, employeeID)
	if err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("employee_id", employeeID.String()))
	}

	req.Password = ""
	salary, err := s.validate(&req)
	if err != nil {
		return nil, logFailure(s.logger, action, err)
	}

	// A new phone number moves the login with it
	var login string
	if employee.AuthID != nil && NormalizeIdentifier(req.Phone, s.domain) != NormalizeIdentifier(employee.Phone, s.domain) {
		login = NormalizeIdentifier(req.Phone, s.domain)
		if _, err := s.credentialRepo.FindByEmail(ctx, login); err == nil {
			return nil, logFailure(s.logger, action, ErrAccountExists, zap.String("login", login))
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, logFailure(s.logger, action, storeErr(err))
		}
	}

	s.apply(employee, req, salary)
	employee.UpdatedBy = actor.ActorID()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.employeeRepo.Update(tx, employee); err != nil {
			return err
		}
		if login == "" {
			return nil
		}
		return s.credentialRepo.UpdateEmail(tx, *employee.AuthID, login)
	})
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("employee_id", employeeID.String()))
	}

	s.notify(barID, "employee_updated", employee, actor)
	return employee, nil
}

func (s *employeeService) DeleteEmployee(ctx context.Context, actor *session.Session, barID, employeeID uuid.UUID) error {
	const action = "delete employee"
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, true); err != nil {
		return logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}

	employee, err := s.find(ctx, barID, employeeID)
	if err != nil {
		return logFailure(s.logger, action, err, zap.String("employee_id", employeeID.String()))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.employeeRepo.Delete(tx, employee.ID); err != nil {
			return err
		}
		if err := s.barRepo.RemoveStaff(tx, barID, employee.ID); err != nil {
			return err
		}
		if employee.AuthID != nil {
			return s.credentialRepo.Delete(tx, *employee.AuthID)
		}
		return nil
	})
	if err != nil {
		return logFailure(s.logger, action, storeErr(err), zap.String("employee_id", employeeID.String()))
	}

	s.notify(barID, "employee_deleted", employee, actor)
	return nil
}

func (s *employeeService) ListEmployees(ctx context.Context, actor *session.Session, barID uuid.UUID, search string) ([]model.Employee, error) {
	const action = "list employees"
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, true); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}

	employees, err := s.employeeRepo.FindByBar(ctx, barID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err))
	}

	filtered := make([]model.Employee, 0, len(employees))
	for i := range employees {
		if employees[i].Matches(search) {
			filtered = append(filtered, employees[i])
		}
	}
	return filtered, nil
}

// SubscribeEmployees opens a standing query over the bar's staff. The
// subscription is tracked on the actor's session.
func (s *employeeService) SubscribeEmployees(ctx context.Context, actor *session.Session, barID uuid.UUID) (*realtime.Subscription[model.Employee], error) {
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, true); err != nil {
		return nil, logFailure(s.logger, "subscribe employees", err, zap.String("bar_id", barID.String()))
	}

	sub := realtime.Subscribe(ctx, s.broker, realtime.EmployeesTopic(barID), func(ctx context.Context) ([]model.Employee, error) {
		employees, err := s.employeeRepo.FindByBar(ctx, barID)
		return employees, storeErr(err)
	})
	actor.Track(sub)
	return sub, nil
}

func (s *employeeService) find(ctx context.Context, barID, employeeID uuid.UUID) (*model.Employee, error) {
	employee, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		return nil, storeErr(err)
	}
	if employee.BarID != barID {
		return nil, ErrNotFound
	}
	return employee, nil
}

func (s *employeeService) validate(req *EmployeeRequest) (decimal.Decimal, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Phone = strings.TrimSpace(req.Phone)
	if fields := validator.FieldErrors(req); fields != nil {
		return decimal.Zero, &ValidationError{Fields: fields}
	}
	if req.Salary == "" {
		return decimal.Zero, nil
	}
	salary, err := decimal.NewFromString(req.Salary)
	if err != nil || salary.IsNegative() {
		return decimal.Zero, invalid("salary", "must be a positive number")
	}
	return salary, nil
}

func (s *employeeService) apply(e *model.Employee, req EmployeeRequest, salary decimal.Decimal) *model.Employee {
	e.FirstName = req.FirstName
	e.LastName = req.LastName
	e.Phone = req.Phone
	e.Email = req.Email
	e.Address = req.Address
	e.City = req.City
	e.Position = req.Position
	e.ContractType = req.ContractType
	e.Permissions = req.Permissions
	if e.Permissions == nil {
		e.Permissions = []model.Permission{}
	}
	e.Status = model.EmployeeStatus(req.Status)
	if e.Status == "" {
		e.Status = model.EmployeeActive
	}
	if req.HireDate != nil {
		e.HireDate = *req.HireDate
	}
	e.Salary = salary
	return e
}

func (s *employeeService) notify(barID uuid.UUID, action string, e *model.Employee, actor *session.Session) {
	s.broker.Publish(realtime.EmployeesTopic(barID))
	s.wsHub.Publish(barID, "employee_update", action, map[string]interface{}{
		"employee_id": e.ID,
		"name":        e.FullName(),
		"position":    e.Position,
		"status":      e.Status,
	}, fmt.Sprintf("%s: %s (%s)", actor.Name, e.FullName(), action))
}

const tempPasswordChars = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// generateTempPassword returns 8 characters without look-alike letters.
func generateTempPassword() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(tempPasswordChars)))
	for i := 0; i < 8; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(tempPasswordChars[n.Int64()])
	}
	return b.String(), nil
}
