package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-bar-manager/internal/cart"
	"go-bar-manager/internal/model"
	"go-bar-manager/internal/realtime"
	"go-bar-manager/internal/repository"
	"go-bar-manager/internal/session"
	"go-bar-manager/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderService interface {
	BuildCart(ctx context.Context, actor *session.Session, barID uuid.UUID) (*cart.Cart, error)
	SubmitOrder(ctx context.Context, actor *session.Session, c *cart.Cart, meta OrderMeta) (*model.Order, error)
	SetOrderStatus(ctx context.Context, actor *session.Session, orderID uuid.UUID, status string) (*model.Order, error)
	ListOrders(ctx context.Context, actor *session.Session, barID uuid.UUID, filter model.OrderFilter) ([]model.Order, error)
	GetOrder(ctx context.Context, actor *session.Session, orderID uuid.UUID) (*model.Order, error)
	Summary(ctx context.Context, actor *session.Session, barID uuid.UUID) (*OrderSummary, error)
	SubscribeOrders(ctx context.Context, actor *session.Session, barID uuid.UUID) (*realtime.Subscription[model.Order], error)
}

// OrderMeta is the order form around the cart. SellerID picks another staff
// member as seller; empty means the actor.
type OrderMeta struct {
	SellerID      string `json:"seller_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	TableNumber   string `json:"table_number"`
	Notes         string `json:"notes"`
}

// OrderSummary backs the order management header.
type OrderSummary struct {
	PendingCount   int             `json:"pending_count"`
	PendingTotal   decimal.Decimal `json:"pending_total"`
	PaidTodayCount int             `json:"paid_today_count"`
	PaidToday      decimal.Decimal `json:"paid_today"`
}

type orderService struct {
	orderRepo    repository.OrderRepository
	stockRepo    repository.StockRepository
	movementRepo repository.MovementRepository
	employeeRepo repository.EmployeeRepository
	barRepo      repository.BarRepository
	db           *gorm.DB
	broker       *realtime.Broker
	wsHub        *ws.Hub
	logger       *zap.Logger
	now          func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	stockRepo repository.StockRepository,
	movementRepo repository.MovementRepository,
	employeeRepo repository.EmployeeRepository,
	barRepo repository.BarRepository,
	db *gorm.DB,
	broker *realtime.Broker,
	hub *ws.Hub,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		employeeRepo: employeeRepo,
		barRepo:      barRepo,
		db:           db,
		broker:       broker,
		wsHub:        hub,
		logger:       logger.Named("orders"),
		now:          time.Now,
	}
}

// BuildCart snapshots the bar's stock into a new cart.
func (s *orderService) BuildCart(ctx context.Context, actor *session.Session, barID uuid.UUID) (*cart.Cart, error) {
	const action = "start order"
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, false); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}
	items, err := s.stockRepo.FindByBar(ctx, barID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err))
	}
	return cart.New(barID, items), nil
}

// SubmitOrder records the order and decrements stock for every line in one
// transaction. Any line short of stock rolls the whole submission back.
func (s *orderService) SubmitOrder(ctx context.Context, actor *session.Session, c *cart.Cart, meta OrderMeta) (*model.Order, error) {
	const action = "submit order"
	if c == nil {
		return nil, logFailure(s.logger, action, invalid("items", "cart is empty"))
	}
	if _, err := authorizeBar(ctx, s.barRepo, actor, c.BarID, false); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", c.BarID.String()))
	}

	lines := c.Lines()
	if len(lines) == 0 {
		return nil, logFailure(s.logger, action, invalid("items", "cart is empty"))
	}

	seller, err := s.seller(ctx, actor, c.BarID, meta.SellerID)
	if err != nil {
		return nil, logFailure(s.logger, action, err)
	}

	now := s.now()
	order := &model.Order{
		ID:        uuid.New(),
		BarID:     c.BarID,
		Items:     lines,
		Seller:    seller,
		Notes:     strings.TrimSpace(meta.Notes),
		Total:     model.OrderTotal(lines),
		Status:    model.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if name := strings.TrimSpace(meta.CustomerName); name != "" {
		order.Customer = &model.Customer{Name: name, Phone: strings.TrimSpace(meta.CustomerPhone)}
	}
	if table := strings.TrimSpace(meta.TableNumber); table != "" {
		order.TableNumber = &table
	}

	note := fmt.Sprintf("vente commande #%s", order.ID.String()[:8])
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(tx, order); err != nil {
			return err
		}
		for _, line := range lines {
			item, err := s.stockRepo.FindForUpdate(tx, line.ItemID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return invalid("items", fmt.Sprintf("'%s' is no longer in stock", line.Name))
				}
				return err
			}
			if item.BarID != order.BarID {
				return ErrUnauthorized
			}

			movement := model.NewMovement(item, -line.Quantity, seller.ID, seller.Name, note, now)
			movement.OrderID = &order.ID
			if err := s.stockRepo.ApplyMovement(tx, &movement, actor.ActorID()); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					return fmt.Errorf("%w: '%s' has %d left, %d ordered", ErrInsufficientStock, item.Name, item.Quantity, line.Quantity)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("bar_id", c.BarID.String()))
	}

	s.broker.Publish(realtime.StockTopic(order.BarID))
	s.notify(order, "order_created", actor,
		fmt.Sprintf("Commande #%s pour %s - Total: %s", order.ID.String()[:8], customerLabel(order), order.Total.StringFixed(2)))
	s.logger.Info("order submitted", zap.String("order_id", order.ID.String()), zap.String("total", order.Total.String()))
	return order, nil
}

// SetOrderStatus moves a pending order to a terminal status. Cancelling does
// not restock.
func (s *orderService) SetOrderStatus(ctx context.Context, actor *session.Session, orderID uuid.UUID, status string) (*model.Order, error) {
	const action = "update order status"
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("order_id", orderID.String()))
	}
	if _, err := authorizeBar(ctx, s.barRepo, actor, order.BarID, false); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("order_id", orderID.String()))
	}
	if err := requirePermission(actor, model.PermCashManagement); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("order_id", orderID.String()))
	}

	to := model.OrderStatus(status)
	if !order.Status.CanTransition(to) {
		return nil, logFailure(s.logger, action, ErrInvalidTransition,
			zap.String("order_id", orderID.String()), zap.String("from", string(order.Status)), zap.String("to", status))
	}

	now := s.now()
	var paidAt *time.Time
	if to.IsPaid() {
		paidAt = &now
	}
	if err := s.orderRepo.UpdateStatus(ctx, orderID, order.Status, to, now, paidAt); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			err = ErrInvalidTransition
		}
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("order_id", orderID.String()))
	}

	order.Status = to
	order.UpdatedAt = now
	order.PaidAt = paidAt
	s.notify(order, "order_status_changed", actor, fmt.Sprintf("Commande #%s: %s", order.ID.String()[:8], to))
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, actor *session.Session, barID uuid.UUID, filter model.OrderFilter) ([]model.Order, error) {
	const action = "list orders"
	switch filter.Status {
	case "", "all", "paid", string(model.OrderPending), string(model.OrderPaidCash), string(model.OrderPaidMobile), string(model.OrderCancelled):
	default:
		return nil, logFailure(s.logger, action, invalid("status", "must be one of: all pending paid cancelled"))
	}
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, false); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}

	orders, err := s.orderRepo.FindByBar(ctx, barID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err))
	}

	filtered := make([]model.Order, 0, len(orders))
	for i := range orders {
		if filter.Match(&orders[i]) {
			filtered = append(filtered, orders[i])
		}
	}
	return filtered, nil
}

func (s *orderService) GetOrder(ctx context.Context, actor *session.Session, orderID uuid.UUID) (*model.Order, error) {
	const action = "get order"
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("order_id", orderID.String()))
	}
	if _, err := authorizeBar(ctx, s.barRepo, actor, order.BarID, false); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("order_id", orderID.String()))
	}

	// stock sorties booked when the order was submitted
	order.Movements, err = s.movementRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err), zap.String("order_id", orderID.String()))
	}
	return order, nil
}

// Summary: pending totals, and paid orders created today.
func (s *orderService) Summary(ctx context.Context, actor *session.Session, barID uuid.UUID) (*OrderSummary, error) {
	const action = "load order summary"
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, false); err != nil {
		return nil, logFailure(s.logger, action, err, zap.String("bar_id", barID.String()))
	}
	orders, err := s.orderRepo.FindByBar(ctx, barID)
	if err != nil {
		return nil, logFailure(s.logger, action, storeErr(err))
	}

	now := s.now()
	y, m, d := now.Date()
	summary := &OrderSummary{PendingTotal: decimal.Zero, PaidToday: decimal.Zero}
	for _, o := range orders {
		switch {
		case o.Status == model.OrderPending:
			summary.PendingCount++
			summary.PendingTotal = summary.PendingTotal.Add(o.Total)
		case o.Status.IsPaid():
			oy, om, od := o.CreatedAt.In(now.Location()).Date()
			if oy == y && om == m && od == d {
				summary.PaidTodayCount++
				summary.PaidToday = summary.PaidToday.Add(o.Total)
			}
		}
	}
	return summary, nil
}

func (s *orderService) SubscribeOrders(ctx context.Context, actor *session.Session, barID uuid.UUID) (*realtime.Subscription[model.Order], error) {
	if _, err := authorizeBar(ctx, s.barRepo, actor, barID, false); err != nil {
		return nil, logFailure(s.logger, "subscribe orders", err, zap.String("bar_id", barID.String()))
	}
	sub := realtime.Subscribe(ctx, s.broker, realtime.OrdersTopic(barID), func(ctx context.Context) ([]model.Order, error) {
		orders, err := s.orderRepo.FindByBar(ctx, barID)
		return orders, storeErr(err)
	})
	actor.Track(sub)
	return sub, nil
}

// seller resolves the order's seller: the actor, or a staff member of the bar.
func (s *orderService) seller(ctx context.Context, actor *session.Session, barID uuid.UUID, sellerID string) (model.Seller, error) {
	if sellerID == "" || sellerID == actor.ActorID() {
		return model.Seller{ID: actor.ActorID(), Name: actor.Name}, nil
	}
	id, err := uuid.Parse(sellerID)
	if err != nil {
		return model.Seller{}, invalid("seller_id", "must be a valid id")
	}
	employee, err := s.employeeRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Seller{}, invalid("seller_id", "unknown employee")
		}
		return model.Seller{}, storeErr(err)
	}
	if employee.BarID != barID {
		return model.Seller{}, invalid("seller_id", "unknown employee")
	}
	return model.Seller{ID: employee.ID.String(), Name: employee.FullName()}, nil
}

func (s *orderService) notify(order *model.Order, action string, actor *session.Session, message string) {
	s.broker.Publish(realtime.OrdersTopic(order.BarID))
	s.wsHub.Publish(order.BarID, "order_update", action, map[string]interface{}{
		"order": map[string]interface{}{
			"id":     order.ID,
			"status": order.Status,
			"total":  order.Total,
			"seller": order.Seller,
		},
		"user": map[string]interface{}{
			"id":   actor.ActorID(),
			"name": actor.Name,
		},
	}, message)
}

func customerLabel(o *model.Order) string {
	if o.Customer != nil && o.Customer.Name != "" {
		return o.Customer.Name
	}
	return "client non enregistré"
}
