package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go-bar-manager/internal/model"
	"go-bar-manager/internal/repository"
	"go-bar-manager/internal/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrders_SubmitDecrementsStock(t *testing.T) {
	env := newTestEnv(t)
	svc := env.orders()
	ctx := context.Background()
	beer := testhelpers.SeedItem(t, env.db, env.fx.Bar.ID, "Castel", 10, "1.50")
	skewers := testhelpers.SeedItem(t, env.db, env.fx.Bar.ID, "Brochettes", 6, "4.25")

	c, err := svc.BuildCart(ctx, env.owner, env.fx.Bar.ID)
	require.NoError(t, err)
	require.NoError(t, c.SetLineQuantity(beer.ID, 3))
	require.NoError(t, c.SetLineQuantity(skewers.ID, 2))

	order, err := svc.SubmitOrder(ctx, env.owner, c, OrderMeta{CustomerName: "Moussa", TableNumber: "T4"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.True(t, decimal.RequireFromString("13.00").Equal(order.Total), "total %s", order.Total)
	assert.Equal(t, env.owner.Name, order.Seller.Name)
	require.NotNil(t, order.TableNumber)
	assert.Equal(t, "T4", *order.TableNumber)

	assert.Equal(t, 7, testhelpers.Quantity(t, env.db, beer.ID))
	assert.Equal(t, 4, testhelpers.Quantity(t, env.db, skewers.ID))

	movements, err := repository.NewMovementRepo(env.db).FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, model.ActionExit, m.Action)
		assert.True(t, strings.HasPrefix(m.Notes, "vente commande #"+order.ID.String()[:8]))
	}

	stored, err := svc.GetOrder(ctx, env.owner, order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, "Moussa", stored.Customer.Name)
	require.Len(t, stored.Movements, 2)
	for _, m := range stored.Movements {
		require.NotNil(t, m.OrderID)
		assert.Equal(t, order.ID, *m.OrderID)
	}
}

func TestOrders_SubmitRollsBackOnShortLine(t *testing.T) {
	env := newTestEnv(t)
	svc := env.orders()
	inventory := env.inventory()
	ctx := context.Background()
	beer := testhelpers.SeedItem(t, env.db, env.fx.Bar.ID, "Castel", 10, "1.50")
	whisky := testhelpers.SeedItem(t, env.db, env.fx.Bar.ID, "Whisky", 5, "9.00")

	c, err := svc.BuildCart(ctx, env.owner, env.fx.Bar.ID)
	require.NoError(t, err)
	require.NoError(t, c.SetLineQuantity(beer.ID, 2))
	require.NoError(t, c.SetLineQuantity(whisky.ID, 3))

	// Stock moves between building the cart and submitting it
	_, err = inventory.AdjustQuantity(ctx, env.owner, whisky.ID, MovementRequest{Action: "sortie", Quantity: "4"})
	require.NoError(t, err)

	_, err = svc.SubmitOrder(ctx, env.owner, c, OrderMeta{})
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, 10, testhelpers.Quantity(t, env.db, beer.ID), "earlier lines are rolled back")
	assert.Equal(t, 1, testhelpers.Quantity(t, env.db, whisky.ID))

	orders, err := svc.ListOrders(ctx, env.owner, env.fx.Bar.ID, model.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrders_SubmitEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	svc := env.orders()
	ctx := context.Background()

	c, err := svc.BuildCart(ctx, env.owner, env.fx.Bar.ID)
	require.NoError(t, err)

	_, err = svc.SubmitOrder(ctx, env.owner, c, OrderMeta{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items")
}

func TestOrders_StatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	svc := env.orders()
	ctx := context.Background()
	beer := testhelpers.SeedItem(t, env.db, env.fx.Bar.ID, "Castel", 10, "1.50")

	submit := func() *model.Order {
		c, err := svc.BuildCart(ctx, env.owner, env.fx.Bar.ID)
		require.NoError(t, err)
		require.NoError(t, c.SetLineQuantity(beer.ID, 2))
		order, err := svc.SubmitOrder(ctx, env.owner, c, OrderMeta{})
		require.NoError(t, err)
		return order
	}

	paid := submit()
	updated, err := svc.SetOrderStatus(ctx, env.owner, paid.ID, "paid-mobile")
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaidMobile, updated.Status)
	require.NotNil(t, updated.PaidAt)

	_, err = svc.SetOrderStatus(ctx, env.owner, paid.ID, "cancelled")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	cancelled := submit()
	assert.Equal(t, 6, testhelpers.Quantity(t, env.db, beer.ID))
	_, err = svc.SetOrderStatus(ctx, env.owner, cancelled.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, 6, testhelpers.Quantity(t, env.db, beer.ID), "cancelling does not restock")

	pending := submit()
	_, err = svc.SetOrderStatus(ctx, env.owner, pending.ID, "pending")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.SetOrderStatus(ctx, env.owner, pending.ID, "refunded")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrders_StatusNeedsCashPermission(t *testing.T) {
	env := newTestEnv(t)
	svc := env.orders()
	ctx := context.Background()
	beer := testhelpers.SeedItem(t, env.db, env.fx.Bar.ID, "Castel", 10, "1.50")

	waiter := staffSession(env.fx.Bar.ID)
	c, err := svc.BuildCart(ctx, waiter, env.fx.Bar.ID)
	require.NoError(t, err)
	require.NoError(t, c.AddLine(beer.ID))
	order, err := svc.SubmitOrder(ctx, waiter, c, OrderMeta{})
	require.NoError(t, err)
	assert.Equal(t, "Awa Diallo", order.Seller.Name)

	_, err = svc.SetOrderStatus(ctx, waiter, order.ID, "paid-cash")
	assert.ErrorIs(t, err, ErrUnauthorized)

	cashier := staffSession(env.fx.Bar.ID, model.PermCashManagement)
	_, err = svc.SetOrderStatus(ctx, cashier, order.ID, "paid-cash")
	assert.NoError(t, err)
}

func TestOrders_ListAndSummary(t *testing.T) {
	env := newTestEnv(t)
	svc := env.orders()
	ctx := context.Background()
	beer := testhelpers.SeedItem(t, env.db, env.fx.Bar.ID, "Castel", 50, "2.00")

	submit := func(qty int, customer string) *model.Order {
		c, err := svc.BuildCart(ctx, env.owner, env.fx.Bar.ID)
		require.NoError(t, err)
		require.NoError(t, c.SetLineQuantity(beer.ID, qty))
		order, err := svc.SubmitOrder(ctx, env.owner, c, OrderMeta{CustomerName: customer})
		require.NoError(t, err)
		return order
	}

	first := submit(1, "Moussa")
	submit(2, "Fatou")
	third := submit(5, "Moussa")
	_, err := svc.SetOrderStatus(ctx, env.owner, first.ID, "paid-cash")
	require.NoError(t, err)
	_, err = svc.SetOrderStatus(ctx, env.owner, third.ID, "cancelled")
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, env.owner, env.fx.Bar.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PendingCount)
	assert.True(t, decimal.NewFromInt(4).Equal(summary.PendingTotal))
	assert.Equal(t, 1, summary.PaidTodayCount)
	assert.True(t, decimal.NewFromInt(2).Equal(summary.PaidToday))

	// Tomorrow, today's paid orders drop out
	svc.now = testhelpers.FixedClock(testNow.Add(24 * time.Hour))
	summary, err = svc.Summary(ctx, env.owner, env.fx.Bar.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.PaidTodayCount)

	moussa, err := svc.ListOrders(ctx, env.owner, env.fx.Bar.ID, model.OrderFilter{Search: "mous"})
	require.NoError(t, err)
	assert.Len(t, moussa, 2)

	paid, err := svc.ListOrders(ctx, env.owner, env.fx.Bar.ID, model.OrderFilter{Status: "paid"})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, first.ID, paid[0].ID)

	_, err = svc.ListOrders(ctx, env.owner, env.fx.Bar.ID, model.OrderFilter{Status: "refunded"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestOrders_OtherBarIsUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	svc := env.orders()
	other := testhelpers.SeedOwnerWithBar(t, env.db, "other.com")

	_, err := svc.BuildCart(context.Background(), env.owner, other.Bar.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Summary(context.Background(), staffSession(env.fx.Bar.ID), other.Bar.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
