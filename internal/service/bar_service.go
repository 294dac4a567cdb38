package service

import (
	"context"

	"go-bar-manager/internal/model"
	"go-bar-manager/internal/repository"
	"go-bar-manager/internal/session"
	"go-bar-manager/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BarService interface {
	CreateBar(ctx context.Context, actor *session.Session, req BarRequest) (*model.Bar, error)
	ListBars(ctx context.Context, actor *session.Session) ([]model.Bar, error)
	GetBar(ctx context.Context, actor *session.Session, barID uuid.UUID) (*model.Bar, error)
	UpdateBar(ctx context.Context, actor *session.Session, barID uuid.UUID, req BarRequest) (*model.Bar, error)
	Authorize(ctx context.Context, actor *session.Session, barID uuid.UUID, ownerOnly bool) (*model.Bar, error)
}

type BarRequest struct {
	Name       string `json:"name" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone" validate:"required,phone10"`
}

type barService struct {
	barRepo     repository.BarRepository
	accountRepo repository.AccountRepository
	db          *gorm.DB
	logger      *zap.Logger
}

func NewBarService(barRepo repository.BarRepository, accountRepo repository.AccountRepository, db *gorm.DB, logger *zap.Logger) BarService {
	return &barService{
		barRepo:     barRepo,
		accountRepo: accountRepo,
		db:          db,
		logger:      logger.Named("bars"),
	}
}

func (s *barService) CreateBar(ctx context.Context, actor *session.Session, req BarRequest) (*model.Bar, error) {
	const action = "create bar"
	if actor == nil || !actor.IsOwner() {
		return nil, logFailure(s.logger, action, ErrUnauthorized)
	}
	if fields := validator.FieldErrors(&req); fields != nil {
		return nil, logFailure(s.logger, action, &ValidationError{Fields: fields})
	}

	bar := &model.Bar{
		OwnerID:    actor.ProfileID,
		Name:       req.Name,
		Address:    req.Address,
		City:       req.City,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
		Staff:      []string{},
		Products:   []string{},
	}
	bar.CreatedBy = actor.ActorID()
	bar.UpdatedBy = actor.ActorID()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.barRepo.Create(tx, bar); err != nil {
			return err
		}
		return s.accountRepo.AddBar(tx, actor.ProfileID, bar.ID)
	})
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("owner_id", actor.ActorID()))
	}

	s.logger.Info("bar created", zap.String("bar_id", bar.ID.String()), zap.String("owner_id", actor.ActorID()))
	return bar, nil
}

func (s *barService) ListBars(ctx context.Context, actor *session.Session) ([]model.Bar, error) {
	const action = "list bars"
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if actor.IsOwner() {
		bars, err := s.barRepo.FindByOwner(ctx, actor.ProfileID)
		if err != nil {
			return nil, logFailure(s.logger, action, storeErr(err))
		}
		return bars, nil
	}
	if actor.BarID == nil {
		return []model.Bar{}, nil
	}
	bars, err := s.barRepo.FindByIDs(ctx, []uuid.UUID{*actor.BarID})
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err))
	}
	return bars, nil
}

func (s *barService) GetBar(ctx context.Context, actor *session.Session, barID uuid.UUID) (*model.Bar, error) {
	return s.Authorize(ctx, actor, barID, false)
}

func (s *barService) UpdateBar(ctx context.Context, actor *session.Session, barID uuid.UUID, req BarRequest) (*model.Bar, error) {
	const action = "update bar"
	bar, err := s.Authorize(ctx, actor, barID, true)
	if err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}
	if fields := validator.FieldErrors(&req); fields != nil {
		return nil, logFailure(s.logger, action, &ValidationError{Fields: fields})
	}

	bar.Name = req.Name
	bar.Address = req.Address
	bar.City = req.City
	bar.PostalCode = req.PostalCode
	bar.Phone = req.Phone
	bar.UpdatedBy = actor.ActorID()
	if err := s.barRepo.UpdateDetails(ctx, bar); err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("bar_id", barID.String()))
	}
	return bar, nil
}

func (s *barService) Authorize(ctx context.Context, actor *session.Session, barID uuid.UUID, ownerOnly bool) (*model.Bar, error) {
	return authorizeBar(ctx, s.barRepo, actor, barID, ownerOnly)
}

// authorizeBar loads the bar and checks the actor may act on it: an owner
// must own it, staff must belong to it and ownerOnly excludes staff.
func authorizeBar(ctx context.Context, bars repository.BarRepository, actor *session.Session, barID uuid.UUID, ownerOnly bool) (*model.Bar, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	bar, err := bars.FindByID(ctx, barID)
	if err != nil {
		return nil, storeErr(err)
	}
	if actor.IsOwner() {
		if !bar.IsOwnedBy(actor.ProfileID) {
			return nil, ErrUnauthorized
		}
		return bar, nil
	}
	if ownerOnly || actor.BarID == nil || *actor.BarID != barID {
		return nil, ErrUnauthorized
	}
	return bar, nil
}

// requirePermission rejects staff without p; owners hold every permission.
func requirePermission(actor *session.Session, p model.Permission) error {
	if actor == nil || !actor.Can(p) {
		return ErrUnauthorized
	}
	return nil
}
