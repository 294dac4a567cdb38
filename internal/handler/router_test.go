package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-bar-manager/internal/cart"
	"go-bar-manager/internal/realtime"
	"go-bar-manager/internal/repository"
	"go-bar-manager/internal/service"
	"go-bar-manager/internal/testhelpers"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDomain = "gestionbar.com"

type apiEnv struct {
	app *fiber.App
	fx  *testhelpers.Fixture
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	fx := testhelpers.SeedOwnerWithBar(t, db, testDomain)
	logger := zap.NewNop()
	broker := realtime.NewBroker()

	credentials := repository.NewCredentialRepo(db)
	accounts := repository.NewAccountRepo(db)
	bars := repository.NewBarRepo(db)
	employees := repository.NewEmployeeRepo(db)
	stock := repository.NewStockRepo(db)
	orders := repository.NewOrderRepo(db)
	movements := repository.NewMovementRepo(db)

	identity := service.NewIdentityService(credentials, accounts, employees, db, testDomain, logger)
	orderService := service.NewOrderService(orders, stock, movements, employees, bars, db, broker, nil, logger)

	app := fiber.New()
	SetupRoutes(app, Handlers{
		Auth:      NewAuthHandler(identity),
		Bar:       NewBarHandler(service.NewBarService(bars, accounts, db, logger)),
		Employee:  NewEmployeeHandler(service.NewEmployeeService(employees, credentials, bars, db, broker, nil, testDomain, logger)),
		Inventory: NewInventoryHandler(service.NewInventoryService(stock, movements, bars, db, broker, nil, logger)),
		Cart:      NewCartHandler(orderService, cart.NewStore(time.Hour)),
		Order:     NewOrderHandler(orderService),
		Stats:     NewStatsHandler(service.NewStatsService(repository.NewStatsRepo(db), bars, nil, time.Minute, logger)),
		Dashboard: NewDashboardHandler(service.NewDashboardService(movements, bars, logger)),
	}, identity)

	return &apiEnv{app: app, fx: fx}
}

// call sends a JSON request and decodes the JSON response into out when set.
func (e *apiEnv) call(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *apiEnv) login(t *testing.T) string {
	t.Helper()
	var result service.LoginResult
	status := e.call(t, http.MethodPost, "/api/v1/auth/login", "",
		LoginRequest{Identifier: "0600000000", Password: "secret123"}, &result)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, result.Token)
	return result.Token
}

func TestAuthRoutes(t *testing.T) {
	env := newAPIEnv(t)

	var failure map[string]any
	status := env.call(t, http.MethodPost, "/api/v1/auth/login", "",
		LoginRequest{Identifier: "0600000000", Password: "mauvais"}, &failure)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", failure["code"])
	assert.Equal(t, "login", failure["action"])

	token := env.login(t)

	var validation map[string]any
	status = env.call(t, http.MethodPost, "/api/v1/auth/validate-token", token, nil, &validation)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, validation["valid"])
	assert.Equal(t, "owner", validation["role"])

	status = env.call(t, http.MethodPost, "/api/v1/auth/logout", token, nil, nil)
	assert.Equal(t, http.StatusOK, status)

	var revoked map[string]any
	status = env.call(t, http.MethodGet, "/api/v1/bars", token, nil, &revoked)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHENTICATED", revoked["code"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newAPIEnv(t)

	var body map[string]any
	status := env.call(t, http.MethodGet, "/api/v1/bars", "", nil, &body)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Missing authorization token", body["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bars", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStockAndCartFlow(t *testing.T) {
	env := newAPIEnv(t)
	token := env.login(t)
	barPath := "/api/v1/bars/" + env.fx.Bar.ID.String()

	var created struct {
		Data struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
		} `json:"data"`
	}
	status := env.call(t, http.MethodPost, barPath+"/stock", token, map[string]any{
		"name": "Bière", "category": "alcool", "quantity": 10, "unit": "bouteille",
		"min_threshold": 2, "selling_price": "1.50", "cost_price": "0.80",
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, created.Data.ID)

	var moved struct {
		Data struct {
			Quantity int `json:"quantity"`
		} `json:"data"`
	}
	status = env.call(t, http.MethodPost, "/api/v1/stock/"+created.Data.ID+"/movements", token,
		service.MovementRequest{Action: "entrée", Quantity: "5"}, &moved)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 15, moved.Data.Quantity)

	var rejected map[string]any
	status = env.call(t, http.MethodPost, "/api/v1/stock/"+created.Data.ID+"/movements", token,
		service.MovementRequest{Action: "sortie", Quantity: "99"}, &rejected)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", rejected["code"])

	status = env.call(t, http.MethodPost, "/api/v1/cart/submit", token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status = env.call(t, http.MethodPost, barPath+"/cart", token, nil, nil)
	require.Equal(t, http.StatusCreated, status)

	var view struct {
		Total string `json:"total"`
	}
	status = env.call(t, http.MethodPost, "/api/v1/cart/lines", token,
		map[string]any{"item_id": created.Data.ID, "quantity": 4}, &view)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "6", view.Total)

	var submitted struct {
		Data struct {
			Status string `json:"status"`
			Total  string `json:"total"`
		} `json:"data"`
	}
	status = env.call(t, http.MethodPost, "/api/v1/cart/submit", token, nil, &submitted)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "pending", submitted.Data.Status)
	assert.Equal(t, "6", submitted.Data.Total)

	var item struct {
		Quantity int `json:"quantity"`
	}
	status = env.call(t, http.MethodGet, "/api/v1/stock/"+created.Data.ID, token, nil, &item)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 11, item.Quantity)

	status = env.call(t, http.MethodGet, "/api/v1/cart", token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status = env.call(t, http.MethodPost, "/api/v1/cart/submit", token, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status = env.call(t, http.MethodGet, "/api/v1/stock/"+created.Data.ID, token, nil, &item)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 11, item.Quantity)
}

func TestCartAddOverStockLeavesCartEmpty(t *testing.T) {
	env := newAPIEnv(t)
	token := env.login(t)
	barPath := "/api/v1/bars/" + env.fx.Bar.ID.String()

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	status := env.call(t, http.MethodPost, barPath+"/stock", token, map[string]any{
		"name": "Coca", "category": "soft", "quantity": 5, "unit": "bouteille",
		"min_threshold": 1, "selling_price": "2.00",
	}, &created)
	require.Equal(t, http.StatusCreated, status)

	status = env.call(t, http.MethodPost, barPath+"/cart", token, nil, nil)
	require.Equal(t, http.StatusCreated, status)

	var rejected map[string]any
	status = env.call(t, http.MethodPost, "/api/v1/cart/lines", token,
		map[string]any{"item_id": created.Data.ID, "quantity": 10}, &rejected)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", rejected["code"])

	var view struct {
		Lines []json.RawMessage `json:"lines"`
		Items []struct {
			ID    string `json:"id"`
			Stock int    `json:"stock"`
		} `json:"items"`
	}
	status = env.call(t, http.MethodGet, "/api/v1/cart", token, nil, &view)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, view.Lines)
	require.Len(t, view.Items, 1)
	assert.Equal(t, created.Data.ID, view.Items[0].ID)
	assert.Equal(t, 5, view.Items[0].Stock)

	status = env.call(t, http.MethodPost, "/api/v1/cart/submit", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status = env.call(t, http.MethodGet, "/api/v1/cart", token, nil, nil)
	assert.Equal(t, http.StatusOK, status, "a failed submit keeps the cart")
}
