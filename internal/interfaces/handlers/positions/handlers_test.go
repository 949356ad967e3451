package positions

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"coinvest-backend/internal/application/catalog"
	"coinvest-backend/internal/application/investment"
	"coinvest-backend/internal/application/ledger"
	"coinvest-backend/internal/application/referral"
	settlesvc "coinvest-backend/internal/application/settlement"
	walletsvc "coinvest-backend/internal/application/wallet"
	"coinvest-backend/internal/domain"
	"coinvest-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	svc   *settlesvc.Service
	user  *domain.User
	asset *domain.Asset
}

func setupApp(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Asset{}, &domain.Position{},
		&domain.LedgerEntry{}, &domain.Setting{},
	))

	u := &domain.User{
		Email:        "bob@test.io",
		PasswordHash: "x",
		Fullname:     "Bob Example",
		ReferralCode: uuid.New().String()[:8],
	}
	require.NoError(t, db.Create(u).Error)

	cat := &catalog.Service{DB: db}
	asset, err := cat.CreateAsset(context.Background(), catalog.CreateAssetInput{
		Name:     "Bitcoin Starter",
		Symbol:   "BTC",
		Category: domain.CategoryCrypto,
		Price:    200,
		Plans:    []domain.Plan{{Days: 30, Rate: 10}},
	})
	require.NoError(t, err)

	svc := &settlesvc.Service{
		DB:          db,
		Wallet:      &walletsvc.Service{DB: db},
		Ledger:      &ledger.Service{DB: db},
		Investments: &investment.Service{DB: db},
		Referrals:   &referral.Resolver{DB: db, DefaultPercent: 15},
		Catalog:     cat,
	}
	h := &Handlers{Service: svc}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			c.Locals("user", map[string]interface{}{"user_id": id, "role": domain.RoleUser})
		}
		return c.Next()
	})
	app.Post("/positions/buy", middleware.RequireAuth(), h.Buy)
	app.Post("/positions/redeem", middleware.RequireAuth(), h.Redeem)
	app.Get("/positions", middleware.RequireAuth(), h.List)
	return &testEnv{app: app, svc: svc, user: u, asset: asset}
}

func doJSON(t *testing.T, app *fiber.App, method, path, userID string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	var parsed map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp, parsed
}

func (e *testEnv) deposit(t *testing.T, amount float64) {
	t.Helper()
	_, err := e.svc.Deposit(context.Background(), e.user.UserID, amount)
	require.NoError(t, err)
}

func TestBuy(t *testing.T) {
	e := setupApp(t)
	e.deposit(t, 500)

	resp, body := doJSON(t, e.app, "POST", "/positions/buy", e.user.UserID.String(), fiber.Map{
		"asset_id":   e.asset.AssetID.String(),
		"plan_index": 0,
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, 200.0, data["principal"])
	assert.Equal(t, domain.PositionActive, data["status"])
}

func TestBuy_Unauthorized(t *testing.T) {
	e := setupApp(t)

	resp, _ := doJSON(t, e.app, "POST", "/positions/buy", "", fiber.Map{
		"asset_id": e.asset.AssetID.String(),
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestBuy_BadAssetID(t *testing.T) {
	e := setupApp(t)
	e.deposit(t, 500)

	resp, _ := doJSON(t, e.app, "POST", "/positions/buy", e.user.UserID.String(), fiber.Map{
		"asset_id": "not-a-uuid",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestBuy_InsufficientFunds(t *testing.T) {
	e := setupApp(t)
	e.deposit(t, 50)

	resp, body := doJSON(t, e.app, "POST", "/positions/buy", e.user.UserID.String(), fiber.Map{
		"asset_id":   e.asset.AssetID.String(),
		"plan_index": 0,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, domain.ErrInsufficientFunds.Error(), errObj["message"])
}

func TestRedeem(t *testing.T) {
	e := setupApp(t)
	e.deposit(t, 500)

	_, body := doJSON(t, e.app, "POST", "/positions/buy", e.user.UserID.String(), fiber.Map{
		"asset_id":   e.asset.AssetID.String(),
		"plan_index": 0,
	})
	positionID := body["data"].(map[string]interface{})["position_id"].(string)

	resp, body := doJSON(t, e.app, "POST", "/positions/redeem", e.user.UserID.String(), fiber.Map{
		"position_id": positionID,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, 500.0, data["balance"])

	// Replaying the redeem conflicts.
	resp, _ = doJSON(t, e.app, "POST", "/positions/redeem", e.user.UserID.String(), fiber.Map{
		"position_id": positionID,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestRedeem_UnknownPosition(t *testing.T) {
	e := setupApp(t)

	resp, _ := doJSON(t, e.app, "POST", "/positions/redeem", e.user.UserID.String(), fiber.Map{
		"position_id": uuid.New().String(),
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestList(t *testing.T) {
	e := setupApp(t)
	e.deposit(t, 500)

	_, _ = doJSON(t, e.app, "POST", "/positions/buy", e.user.UserID.String(), fiber.Map{
		"asset_id":   e.asset.AssetID.String(),
		"plan_index": 0,
	})

	resp, body := doJSON(t, e.app, "GET", "/positions", e.user.UserID.String(), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	views := body["data"].([]interface{})
	require.Len(t, views, 1)
	v := views[0].(map[string]interface{})
	assert.Equal(t, 0.0, v["elapsed_days"])
	assert.Equal(t, 30.0, v["days_remaining"])
	assert.Equal(t, 600.0, v["projected_profit"])
}
