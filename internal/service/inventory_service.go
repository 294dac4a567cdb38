package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
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

type InventoryService interface {
	CreateItem(ctx context.Context, actor *session.Session, barID uuid.UUID, req ItemRequest) (*model.StockItem, error)
	AdjustQuantity(ctx context.Context, actor *session.Session, itemID uuid.UUID, req MovementRequest) (*model.StockItem, error)
	UpdateItem(ctx context.Context, actor *session.Session, itemID uuid.UUID, req ItemRequest) (*model.StockItem, error)
	ListItems(ctx context.Context, actor *session.Session, barID uuid.UUID, filter model.StockFilter) ([]model.StockItem, error)
	GetItem(ctx context.Context, actor *session.Session, itemID uuid.UUID) (*model.StockItem, error)
	ListMovements(ctx context.Context, actor *session.Session, itemID uuid.UUID) ([]model.StockMovement, error)
	DeleteItem(ctx context.Context, actor *session.Session, itemID uuid.UUID) error
	ReceiveStock(ctx context.Context, actor *session.Session, barID uuid.UUID, req ReceiveRequest) (*model.StockItem, error)
	SubscribeStock(ctx context.Context, actor *session.Session, barID uuid.UUID) (*realtime.Subscription[model.StockItem], error)
}

// ItemRequest is the stock form. Quantity sets the initial count on creation;
// on edit a different value is booked as a correction movement.
type ItemRequest struct {
	Name         string          `json:"name" validate:"required"`
	Category     string          `json:"category" validate:"omitempty,oneof=boisson alcool soft snack materiel autre"`
	Quantity     *int            `json:"quantity" validate:"required,gte=0"`
	Unit         string          `json:"unit" validate:"omitempty,oneof=bouteille caisse litre kg piece pack"`
	MinThreshold *int            `json:"min_threshold" validate:"required,gte=0"`
	Supplier     string          `json:"supplier"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
}

// MovementRequest is the entrée/sortie form. Quantity is the raw input; its
// sign is taken from Action.
type MovementRequest struct {
	Action   string `json:"action"`
	Quantity string `json:"quantity"`
	Notes    string `json:"notes"`
}

// ReceiveRequest books a delivery by product name.
type ReceiveRequest struct {
	Name         string          `json:"name" validate:"required"`
	Quantity     int             `json:"quantity" validate:"gt=0"`
	Category     string          `json:"category" validate:"omitempty,oneof=boisson alcool soft snack materiel autre"`
	Unit         string          `json:"unit" validate:"omitempty,oneof=bouteille caisse litre kg piece pack"`
	MinThreshold int             `json:"min_threshold" validate:"gte=0"`
	Supplier     string          `json:"supplier"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	Notes        string          `json:"notes"`
}

const correctionNote = "correction inventaire"

type inventoryService struct {
	stockRepo    repository.StockRepository
	movementRepo repository.MovementRepository
	barRepo      repository.BarRepository
	db           *gorm.DB
	broker       *realtime.Broker
	wsHub        *ws.Hub
	logger       *zap.Logger
	now          func() time.Time

	// item ids with a movement in flight
	inflight sync.Map
}

func NewInventoryService(
	stockRepo repository.StockRepository,
	movementRepo repository.MovementRepository,
	barRepo repository.BarRepository,
	db *gorm.DB,
	broker *realtime.Broker,
	hub *ws.Hub,
	logger *zap.Logger,
) InventoryService {
	return &inventoryService{
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		barRepo:      barRepo,
		db:           db,
		broker:       broker,
		wsHub:        hub,
		logger:       logger.Named("inventory"),
		now:          time.Now,
	}
}

// ParseMovement validates the movement form and returns the signed delta:
// entrée adds |q|, sortie removes |q|. Zero and non-numeric input are rejected.
func ParseMovement(req MovementRequest) (int, error) {
	fields := map[string]string{}

	action := model.MovementAction(strings.TrimSpace(req.Action))
	if action != model.ActionEntry && action != model.ActionExit {
		fields["action"] = "must be one of: entrée sortie"
	}

	q, err := strconv.Atoi(strings.TrimSpace(req.Quantity))
	switch {
	case err != nil:
		fields["quantity"] = "must be a number"
	case q == 0:
		fields["quantity"] = "must not be zero"
	}
	if len(fields) > 0 {
		return 0, &ValidationError{Fields: fields}
	}

	if q < 0 {
		q = -q
	}
	if action == model.ActionExit {
		return -q, nil
	}
	return q, nil
}

func (s *inventoryService) CreateItem(ctx context.Context, actor *session.Session, barID uuid.UUID, req ItemRequest) (*model.StockItem, error) {
	const action = "create stock item"

	// 1. Authorization
	if err := s.authorize(ctx, actor, barID); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}

	// 2. Validation
	if err := validateItem(&req); err != nil {
		return nil, logFailure(s.logger, action, err)
	}
	if _, err := s.stockRepo.FindByBarAndName(ctx, barID, req.Name); err == nil {
		return nil, logFailure(s.logger, action, invalid("name", "already exists"))
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, logFailure(s.logger, action, storeErr(err))
	}

	item := &model.StockItem{
		BarID:           barID,
		Quantity:        *req.Quantity,
		InitialQuantity: *req.Quantity,
	}
	applyItemFields(item, req)
	item.CreatedBy = actor.ActorID()
	item.UpdatedBy = actor.ActorID()
	if item.Quantity > 0 {
		at := s.now()
		item.LastRestockDate = &at
	}

	// 3. Item and bar.products commit together
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.stockRepo.Create(tx, item); err != nil {
			return err
		}
		return s.barRepo.AddProduct(tx, barID, item.ID)
	})
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("bar_id", barID.String()))
	}

	s.notify(item, "product_created", actor, fmt.Sprintf("%s created product '%s'", actor.Name, item.Name))
	return item, nil
}

// AdjustQuantity is the only path that changes quantity after creation. One
// transaction applies the conditional increment and appends exactly one
// movement; the same delta is mirrored into the returned copy.
func (s *inventoryService) AdjustQuantity(ctx context.Context, actor *session.Session, itemID uuid.UUID, req MovementRequest) (*model.StockItem, error) {
	const action = "record stock movement"

	// 1. Validate before touching the store
	delta, err := ParseMovement(req)
	if err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("item_id", itemID.String()))
	}

	// 2. One movement per item in flight
	if _, busy := s.inflight.LoadOrStore(itemID, struct{}{}); busy {
		return nil, logFailure(s.logger, action, ErrBusy, zap.String("item_id", itemID.String()))
	}
	defer s.inflight.Delete(itemID)

	// 3. Load and authorize
	item, err := s.stockRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("item_id", itemID.String()))
	}
	if err := s.authorize(ctx, actor, item.BarID); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("item_id", itemID.String()))
	}

	// 4. Atomic increment + history append
	movement := model.NewMovement(item, delta, actor.ActorID(), actor.Name, strings.TrimSpace(req.Notes), s.now())
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.stockRepo.ApplyMovement(tx, &movement, actor.ActorID())
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			err = ErrInsufficientStock
		}
		return nil, logFailure(s.logger, action, storeErr(err),
			zap.String("item_id", itemID.String()), zap.Int("delta", delta), zap.Int("available", item.Quantity))
	}

	// 5. Mirror into the local copy
	item.ApplyMovement(movement)

	verb := "added"
	if delta < 0 {
		verb = "removed"
	}
	s.notify(item, "movement_recorded", actor,
		fmt.Sprintf("%s %s %d units of '%s' (%s)", actor.Name, verb, abs(delta), item.Name, movement.Action))
	return item, nil
}

// UpdateItem rewrites the descriptive fields. A changed quantity is booked as a
// correction movement so history and quantity stay reconciled.
func (s *inventoryService) UpdateItem(ctx context.Context, actor *session.Session, itemID uuid.UUID, req ItemRequest) (*model.StockItem, error) {
	const action = "update stock item"

	if err := validateItem(&req); err != nil {
		return nil, logFailure(s.logger, action, err)
	}

	current, err := s.stockRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("item_id", itemID.String()))
	}
	if err := s.authorize(ctx, actor, current.BarID); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("item_id", itemID.String()))
	}
	if other, err := s.stockRepo.FindByBarAndName(ctx, current.BarID, req.Name); err == nil && other.ID != itemID {
		return nil, logFailure(s.logger, action, invalid("name", "already exists"), zap.String("item_id", itemID.String()))
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, logFailure(s.logger, action, storeErr(err))
	}

	var updated *model.StockItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.stockRepo.FindForUpdate(tx, itemID)
		if err != nil {
			return err
		}
		applyItemFields(item, req)
		item.UpdatedBy = actor.ActorID()
		if err := s.stockRepo.UpdateDetails(tx, item); err != nil {
			return err
		}

		if delta := *req.Quantity - item.Quantity; delta != 0 {
			movement := model.NewMovement(item, delta, actor.ActorID(), actor.Name, correctionNote, s.now())
			if err := s.stockRepo.ApplyMovement(tx, &movement, actor.ActorID()); err != nil {
				return err
			}
			item.ApplyMovement(movement)
		}
		updated = item
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			err = ErrInsufficientStock
		}
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("item_id", itemID.String()))
	}

	s.notify(updated, "product_updated", actor, fmt.Sprintf("%s updated product '%s'", actor.Name, updated.Name))
	return updated, nil
}

func (s *inventoryService) ListItems(ctx context.Context, actor *session.Session, barID uuid.UUID, filter model.StockFilter) ([]model.StockItem, error) {
	const action = "list stock"
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, false); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}

	items, err := s.stockRepo.FindByBar(ctx, barID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err))
	}

	filtered := make([]model.StockItem, 0, len(items))
	for i := range items {
		if filter.Match(&items[i]) {
			filtered = append(filtered, items[i])
		}
	}
	return filtered, nil
}

func (s *inventoryService) GetItem(ctx context.Context, actor *session.Session, itemID uuid.UUID) (*model.StockItem, error) {
	const action = "get stock item"
	item, err := s.stockRepo.FindWithHistory(ctx, itemID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("item_id", itemID.String()))
	}
	if _, err := authorizeBar(ctx, s.barRepo, actor, item.BarID, false); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("item_id", itemID.String()))
	}
	return item, nil
}

// ListMovements returns the item's movement log, newest first.
func (s *inventoryService) ListMovements(ctx context.Context, actor *session.Session, itemID uuid.UUID) ([]model.StockMovement, error) {
	const action = "list stock movements"
	item, err := s.stockRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("item_id", itemID.String()))
	}
	if _, err := authorizeBar(ctx, s.barRepo, actor, item.BarID, false); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("item_id", itemID.String()))
	}

	movements, err := s.movementRepo.FindByItem(ctx, itemID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("item_id", itemID.String()))
	}
	return movements, nil
}

// DeleteItem hard-deletes the item and its history. Orders that reference it
// keep their line snapshots.
func (s *inventoryService) DeleteItem(ctx context.Context, actor *session.Session, itemID uuid.UUID) error {
	const action = "delete stock item"
	item, err := s.stockRepo.FindByID(ctx, itemID)
	if err != nil {
		return logFailure(s.logger, action, storeErr(err), zap.String("item_id", itemID.String()))
	}
	if err := s.authorize(ctx, actor, item.BarID); err != nil {
		return logFailure(s.logger, action, err, zap.String("item_id", itemID.String()))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.stockRepo.Delete(tx, itemID); err != nil {
			return err
		}
		return s.barRepo.RemoveProduct(tx, item.BarID, itemID)
	})
	if err != nil {
		return logFailure(s.logger, action, storeErr(err), zap.String("item_id", itemID.String()))
	}

	s.notify(item, "product_deleted", actor, fmt.Sprintf("%s deleted product '%s'", actor.Name, item.Name))
	return nil
}

// ReceiveStock books a delivery: a known product name gets an entrée movement,
// an unknown one becomes a new item.
func (s *inventoryService) ReceiveStock(ctx context.Context, actor *session.Session, barID uuid.UUID, req ReceiveRequest) (*model.StockItem, error) {
	const action = "receive stock"
	req.Name = strings.TrimSpace(req.Name)
	if fields := validator.FieldErrors(&req); fields != nil {
		return nil, logFailure(s.logger, action, &ValidationError{Fields: fields})
	}

	existing, err := s.stockRepo.FindByBarAndName(ctx, barID, req.Name)
	switch {
	case err == nil:
		return s.AdjustQuantity(ctx, actor, existing.ID, MovementRequest{
			Action:   string(model.ActionEntry),
			Quantity: strconv.Itoa(req.Quantity),
			Notes:    req.Notes,
		})
	case errors.Is(err, repository.ErrNotFound):
		quantity, threshold := req.Quantity, req.MinThreshold
		return s.CreateItem(ctx, actor, barID, ItemRequest{
			Name:         req.Name,
			Category:     req.Category,
			Quantity:     &quantity,
			Unit:         req.Unit,
			MinThreshold: &threshold,
			Supplier:     req.Supplier,
			CostPrice:    req.CostPrice,
			SellingPrice: req.SellingPrice,
			ExpiryDate:   req.ExpiryDate,
		})
	default:
		return nil, logFailure(s.logger, action, storeErr(err))
	}
}

func (s *inventoryService) SubscribeStock(ctx context.Context, actor *session.Session, barID uuid.UUID) (*realtime.Subscription[model.StockItem], error) {
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, false); err != nil {
		return nil, logFailure(s.logger, "subscribe stock", err, zap.String("bar_id", barID.String()))
	}
	sub := realtime.Subscribe(ctx, s.broker, realtime.StockTopic(barID), func(ctx context.Context) ([]model.StockItem, error) {
		items, err := s.stockRepo.FindByBar(ctx, barID)
		return items, storeErr(err)
	})
	actor.Track(sub)
	return sub, nil
}

// authorize checks bar membership and the stock_management permission.
func (s *inventoryService) authorize(ctx context.Context, actor *session.Session, barID uuid.UUID) error {
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, false); err != nil {
		return err
	}
	return requirePermission(actor, model.PermStockManagement)
}

func (s *inventoryService) notify(item *model.StockItem, action string, actor *session.Session, message string) {
	s.broker.Publish(realtime.StockTopic(item.BarID))
	s.wsHub.Publish(item.BarID, "stock_update", action, map[string]interface{}{
		"product": map[string]interface{}{
			"id":           item.ID,
			"name":         item.Name,
			"quantity":     item.Quantity,
			"low_stock":    item.LowStock(),
			"out_of_stock": item.OutOfStock(),
		},
		"user": map[string]interface{}{
			"id":   actor.ActorID(),
			"name": actor.Name,
		},
	}, message)
}

func validateItem(req *ItemRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	fields := validator.FieldErrors(req)
	if fields == nil {
		fields = map[string]string{}
	}
	if req.CostPrice.IsNegative() {
		fields["cost_price"] = "must be greater than or equal to 0"
	}
	if req.SellingPrice.IsNegative() {
		fields["selling_price"] = "must be greater than or equal to 0"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func applyItemFields(item *model.StockItem, req ItemRequest) {
	item.Name = req.Name
	item.Category = req.Category
	item.Unit = req.Unit
	item.MinThreshold = *req.MinThreshold
	item.Supplier = req.Supplier
	item.CostPrice = req.CostPrice
	item.SellingPrice = req.SellingPrice
	item.ExpiryDate = req.ExpiryDate
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
