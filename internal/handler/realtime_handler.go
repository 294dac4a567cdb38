package handler

import (
	"context"
	"time"

	"go-bar-manager/internal/middleware"
	"go-bar-manager/internal/realtime"
	"go-bar-manager/internal/service"
	"go-bar-manager/internal/session"
	"go-bar-manager/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tokenKey = "ws_token"

// RealtimeHandler serves the activity feed and the snapshot streams.
type RealtimeHandler struct {
	hub       *ws.Hub
	validator middleware.SessionValidator
	bars      service.BarService
	employees service.EmployeeService
	inventory service.InventoryService
	orders    service.OrderService
	recheck   time.Duration
	logger    *zap.Logger
}

func NewRealtimeHandler(
	hub *ws.Hub,
	validator middleware.SessionValidator,
	bars service.BarService,
	employees service.EmployeeService,
	inventory service.InventoryService,
	orders service.OrderService,
	logger *zap.Logger,
) *RealtimeHandler {
	return &RealtimeHandler{
		hub:       hub,
		validator: validator,
		bars:      bars,
		employees: employees,
		inventory: inventory,
		orders:    orders,
		recheck:   30 * time.Second,
		logger:    logger.Named("realtime"),
	}
}

// streamFrame is what a stream client receives: the full current list.
type streamFrame[T any] struct {
	Type string `json:"type"`
	Data []T    `json:"data"`
}

// Upgrade rejects plain HTTP and keeps the token for periodic revalidation.
// It runs after RequireAuth.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}
	token, _ := middleware.TokenFromRequest(c)
	c.Locals(tokenKey, token)
	return c.Next()
}

// Activity registers the connection on the hub for its bar. Staff are bound
// to their own bar; owners pass ?bar_id=.
func (h *RealtimeHandler) Activity(conn *websocket.Conn) {
	sess, _ := conn.Locals(middleware.SessionKey).(*session.Session)
	if sess == nil {
		_ = conn.Close()
		return
	}

	barID, err := h.activityBar(conn, sess)
	if err != nil {
		h.refuse(conn, "activity feed", err)
		return
	}

	client := &ws.Client{Conn: conn, BarID: barID}
	h.hub.Register <- client
	defer func() { h.hub.Unregister <- client }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.watchToken(ctx, conn, sess)

	for {
		// Keep alive loop
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *RealtimeHandler) activityBar(conn *websocket.Conn, sess *session.Session) (uuid.UUID, error) {
	if !sess.IsOwner() {
		if sess.BarID == nil {
			return uuid.Nil, service.ErrUnauthorized
		}
		return *sess.BarID, nil
	}
	barID, err := uuid.Parse(conn.Query("bar_id"))
	if err != nil {
		return uuid.Nil, service.ErrNotFound
	}
	if _, err := h.bars.Authorize(context.Background(), sess, barID, false); err != nil {
		return uuid.Nil, err
	}
	return barID, nil
}

// Employees streams the employee list of a bar, owners only.
func (h *RealtimeHandler) Employees(conn *websocket.Conn) {
	h.serve(conn, "employees", func(ctx context.Context, sess *session.Session, barID uuid.UUID) (func() error, error) {
		sub, err := h.employees.SubscribeEmployees(ctx, sess, barID)
		if err != nil {
			return nil, err
		}
		return func() error { return pump(conn, "employees", sub) }, nil
	})
}

// Stock streams the bar's stock list.
func (h *RealtimeHandler) Stock(conn *websocket.Conn) {
	h.serve(conn, "stock", func(ctx context.Context, sess *session.Session, barID uuid.UUID) (func() error, error) {
		sub, err := h.inventory.SubscribeStock(ctx, sess, barID)
		if err != nil {
			return nil, err
		}
		return func() error { return pump(conn, "stock", sub) }, nil
	})
}

// Orders streams the bar's orders, newest first.
func (h *RealtimeHandler) Orders(conn *websocket.Conn) {
	h.serve(conn, "orders", func(ctx context.Context, sess *session.Session, barID uuid.UUID) (func() error, error) {
		sub, err := h.orders.SubscribeOrders(ctx, sess, barID)
		if err != nil {
			return nil, err
		}
		return func() error { return pump(conn, "orders", sub) }, nil
	})
}

type opener func(ctx context.Context, sess *session.Session, barID uuid.UUID) (func() error, error)

// serve opens the subscription, tracked on the session, and pumps it until
// the client leaves, the token is revoked or a load fails.
func (h *RealtimeHandler) serve(conn *websocket.Conn, resource string, open opener) {
	sess, _ := conn.Locals(middleware.SessionKey).(*session.Session)
	if sess == nil {
		_ = conn.Close()
		return
	}
	barID, err := uuid.Parse(conn.Params("barId"))
	if err != nil {
		h.refuse(conn, resource, service.ErrNotFound)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sess.Teardown()

	run, err := open(ctx, sess, barID)
	if err != nil {
		h.refuse(conn, resource, err)
		return
	}

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				sess.Teardown()
				return
			}
		}
	}()
	go h.watchToken(ctx, conn, sess)

	if err := run(); err != nil {
		h.logger.Warn("stream ended", zap.String("resource", resource), zap.String("bar_id", barID.String()), zap.Error(err))
		_ = conn.WriteJSON(fiber.Map{"type": "error", "error": err.Error()})
	}
	_ = conn.Close()
}

func pump[T any](conn *websocket.Conn, resource string, sub *realtime.Subscription[T]) error {
	for snapshot := range sub.All() {
		if snapshot == nil {
			snapshot = []T{}
		}
		if err := conn.WriteJSON(streamFrame[T]{Type: resource, Data: snapshot}); err != nil {
			return nil
		}
	}
	return sub.Err()
}

// watchToken ends the connection once the token stops validating.
func (h *RealtimeHandler) watchToken(ctx context.Context, conn *websocket.Conn, sess *session.Session) {
	token, _ := conn.Locals(tokenKey).(string)
	ticker := time.NewTicker(h.recheck)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := h.validator.ValidateSession(ctx, token); err != nil {
				if ctx.Err() != nil {
					return
				}
				h.logger.Info("session revoked, closing socket", zap.String("profile_id", sess.ProfileID.String()))
				sess.Teardown()
				_ = conn.Close()
				return
			}
		}
	}
}

func (h *RealtimeHandler) refuse(conn *websocket.Conn, resource string, err error) {
	h.logger.Info("socket refused", zap.String("resource", resource), zap.Error(err))
	_ = conn.WriteJSON(fiber.Map{"type": "error", "error": err.Error()})
	_ = conn.Close()
}
