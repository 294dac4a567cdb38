package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-bar-manager/internal/model"
	"go-bar-manager/internal/repository"
	"go-bar-manager/internal/session"
	"go-bar-manager/pkg/jwt"
	"go-bar-manager/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type IdentityService interface {
	Authenticate(ctx context.Context, identifier, password string) (*LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) (*LoginResult, error)
	Logout(ctx context.Context, sess *session.Session) error
	ChangePassword(ctx context.Context, identifier, oldPassword, newPassword string) error
	ResetPassword(ctx context.Context, identifier, newPassword string) error
	ValidateSession(ctx context.Context, token string) (*session.Session, error)
	Heartbeat(ctx context.Context, sess *session.Session) (time.Time, error)
}

// LoginResult is returned to the client after a successful login.
type LoginResult struct {
	Token       string           `json:"token"`
	Email       string           `json:"email"`
	Role        model.Role       `json:"role"`
	ProfileID   uuid.UUID        `json:"profile_id"`
	BarID       *uuid.UUID       `json:"bar_id,omitempty"`
	Name        string           `json:"name"`
	Permissions []string         `json:"permissions"`
	Session     *session.Session `json:"-"`
}

type RegisterRequest struct {
	Phone    string `json:"phone" validate:"required,phone10"`
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
}

type identityService struct {
	credentialRepo repository.CredentialRepository
	accountRepo    repository.AccountRepository
	employeeRepo   repository.EmployeeRepository
	db             *gorm.DB
	domain         string
	logger         *zap.Logger
	now            func() time.Time
}

func NewIdentityService(
	credentialRepo repository.CredentialRepository,
	accountRepo repository.AccountRepository,
	employeeRepo repository.EmployeeRepository,
	db *gorm.DB,
	domain string,
	logger *zap.Logger,
) IdentityService {
	return &identityService{
		credentialRepo: credentialRepo,
		accountRepo:    accountRepo,
		employeeRepo:   employeeRepo,
		db:             db,
		domain:         domain,
		logger:         logger.Named("identity"),
		now:            time.Now,
	}
}

// NormalizeIdentifier turns a phone number or bare username into the login
// email "<identifier>@<domain>". Anything containing "@" is already an email.
func NormalizeIdentifier(identifier, domain string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return identifier
	}
	return identifier + "@" + domain
}

func (s *identityService) Authenticate(ctx context.Context, identifier, password string) (*LoginResult, error) {
	const action = "login"
	if strings.TrimSpace(identifier) == "" || password == "" {
		fields := map[string]string{}
		if strings.TrimSpace(identifier) == "" {
			fields["identifier"] = "required"
		}
		if password == "" {
			fields["password"] = "required"
		}
		return nil, logFailure(s.logger, action, &ValidationError{Fields: fields})
	}

	email := NormalizeIdentifier(identifier, s.domain)

	// 1. Find credential
	credential, err := s.credentialRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, logFailure(s.logger, action, ErrInvalidCredentials, zap.String("email", email))
		}
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("email", email))
	}

	// 2. Check if credential is active
	if !credential.IsActive {
		return nil, logFailure(s.logger, action, ErrAccountDisabled, zap.String("email", email))
	}

	// 3. Verify password
	if !credential.CheckPassword(password) {
		return nil, logFailure(s.logger, action, ErrInvalidCredentials, zap.String("email", email))
	}

	// 4. Single session: issuing a new token version revokes older tokens
	version := uuid.NewString()
	if err := s.credentialRepo.UpdateTokenVersion(ctx, credential.ID, version); err != nil {
		return nil, logFailure(s.logger, action, storeErr(err))
	}

	// 5. Resolve the profile: owners first, then staff by auth reference
	sess, err := s.resolveProfile(ctx, credential)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrAccountDisabled) {
			s.revoke(ctx, credential.ID)
		}
		return nil, logFailure(s.logger, action, err, zap.String("credential_id", credential.ID.String()))
	}

	token, err := jwt.GenerateToken(jwt.Claims{
		CredentialID: credential.ID,
		ProfileID:    sess.ProfileID,
		Role:         string(sess.Role),
		BarID:        sess.BarID,
		Name:         sess.Name,
		Permissions:  model.PermissionCodes(sess.Permissions),
		TokenVersion: version,
	})
	if err != nil {
		s.revoke(ctx, credential.ID)
		return nil, logFailure(s.logger, action, err)
	}

	if err := s.credentialRepo.TouchLogin(ctx, credential.ID, s.now()); err != nil {
		s.logger.Warn("failed to record login time", zap.Error(err))
	}

	s.logger.Info("login succeeded", zap.String("email", email), zap.String("role", string(sess.Role)))
	return &LoginResult{
		Token:       token,
		Email:       email,
		Role:        sess.Role,
		ProfileID:   sess.ProfileID,
		BarID:       sess.BarID,
		Name:        sess.Name,
		Permissions: model.PermissionCodes(sess.Permissions),
		Session:     sess,
	}, nil
}

// resolveProfile builds the session principal for a verified credential.
func (s *identityService) resolveProfile(ctx context.Context, credential *model.Credential) (*session.Session, error) {
	account, err := s.accountRepo.FindByID(ctx, credential.ID)
	if err == nil {
		return &session.Session{
			CredentialID: credential.ID,
			ProfileID:    account.ID,
			Role:         model.RoleOwner,
			Name:         account.Username,
			Permissions:  model.AllPermissions,
		}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeErr(err)
	}

	employee, err := s.employeeRepo.FindByAuthID(ctx, credential.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, storeErr(err)
	}
	if !employee.IsActive() {
		return nil, ErrAccountDisabled
	}

	barID := employee.BarID
	return &session.Session{
		CredentialID: credential.ID,
		ProfileID:    employee.ID,
		Role:         model.RoleStaff,
		BarID:        &barID,
		Name:         employee.FullName(),
		Permissions:  employee.Permissions,
	}, nil
}

// revoke invalidates every token issued for the credential.
func (s *identityService) revoke(ctx context.Context, credentialID uuid.UUID) {
	if err := s.credentialRepo.UpdateTokenVersion(ctx, credentialID, uuid.NewString()); err != nil {
		s.logger.Error("failed to revoke session", zap.String("credential_id", credentialID.String()), zap.Error(err))
	}
}

func (s *identityService) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	const action = "register"
	req.Phone = strings.TrimSpace(req.Phone)
	req.Username = strings.TrimSpace(req.Username)
	if fields := validator.FieldErrors(&req); fields != nil {
		return nil, logFailure(s.logger, action, &ValidationError{Fields: fields})
	}

	email := NormalizeIdentifier(req.Phone, s.domain)
	if _, err := s.credentialRepo.FindByEmail(ctx, email); err == nil {
		return nil, logFailure(s.logger, action, ErrAccountExists, zap.String("email", email))
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, logFailure(s.logger, action, storeErr(err))
	}

	credential := &model.Credential{Email: email, IsActive: true}
	if err := credential.SetPassword(req.Password); err != nil {
		return nil, logFailure(s.logger, action, err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.credentialRepo.Create(tx, credential); err != nil {
			return err
		}
		account := &model.Account{
			BaseModel: model.BaseModel{ID: credential.ID},
			Phone:     req.Phone,
			Username:  req.Username,
			Role:      model.RoleOwner,
			Bars:      []string{},
		}
		return s.accountRepo.Create(tx, account)
	})
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("email", email))
	}

	s.logger.Info("owner registered", zap.String("email", email))
	return s.Authenticate(ctx, email, req.Password)
}

func (s *identityService) Logout(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	defer sess.Teardown()
	if err := s.credentialRepo.UpdateTokenVersion(ctx, sess.CredentialID, uuid.NewString()); err != nil {
		return logFailure(s.logger, "logout", storeErr(err))
	}
	return nil
}

func (s *identityService) ChangePassword(ctx context.Context, identifier, oldPassword, newPassword string) error {
	const action = "change password"
	email := NormalizeIdentifier(identifier, s.domain)

	// 1. Find credential
	credential, err := s.credentialRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return logFailure(s.logger, action, ErrInvalidCredentials, zap.String("email", email))
		}
		return logFailure(s.logger, action, storeErr(err))
	}

	// 2. Verify old password
	if !credential.CheckPassword(oldPassword) {
		return logFailure(s.logger, action, ErrWrongPassword, zap.String("email", email))
	}

	return s.setPassword(ctx, action, credential, newPassword)
}

// ResetPassword sets a new password without the old one (operator tool).
func (s *identityService) ResetPassword(ctx context.Context, identifier, newPassword string) error {
	const action = "reset password"
	email := NormalizeIdentifier(identifier, s.domain)
	credential, err := s.credentialRepo.FindByEmail(ctx, email)
	if err != nil {
		return logFailure(s.logger, action, storeErr(err), zap.String("email", email))
	}
	return s.setPassword(ctx, action, credential, newPassword)
}

func (s *identityService) setPassword(ctx context.Context, action string, credential *model.Credential, newPassword string) error {
	if len(newPassword) < 6 {
		return logFailure(s.logger, action, invalid("new_password", "must be at least 6"))
	}
	if err := credential.SetPassword(newPassword); err != nil {
		return logFailure(s.logger, action, err)
	}
	if err := s.credentialRepo.UpdatePassword(ctx, credential.ID, credential.Password); err != nil {
		return logFailure(s.logger, action, storeErr(err))
	}

	// Existing sessions end with the old password
	s.revoke(ctx, credential.ID)
	return nil
}

func (s *identityService) ValidateSession(ctx context.Context, token string) (*session.Session, error) {
	// 1. Validate JWT token
	claims, err := jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	// 2. Find credential from token claims
	credential, err := s.credentialRepo.FindByID(ctx, claims.CredentialID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, storeErr(err)
	}

	// 3. Check if credential is still active
	if !credential.IsActive {
		return nil, ErrAccountDisabled
	}

	// 4. Strict single session
	if credential.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionRevoked
	}

	// 5. Re-resolve so permission and status changes apply immediately
	return s.resolveProfile(ctx, credential)
}

// Heartbeat records that the session's client is still online.
func (s *identityService) Heartbeat(ctx context.Context, sess *session.Session) (time.Time, error) {
	if sess == nil {
		return time.Time{}, ErrUnauthorized
	}
	at := s.now()
	if err := s.credentialRepo.TouchSeen(ctx, sess.CredentialID, at); err != nil {
		return time.Time{}, logFailure(s.logger, "heartbeat", storeErr(err))
	}
	return at, nil
}
