package wallet

import (
	"bytes"
	"encoding/json"
	"fmt"
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

func setupApp(t *testing.T) (*fiber.App, *gorm.DB, *domain.User) {
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
		Email:        "alice@test.io",
		PasswordHash: "x",
		Fullname:     "Alice Example",
		ReferralCode: uuid.New().String()[:8],
	}
	require.NoError(t, db.Create(u).Error)

	svc := &settlesvc.Service{
		DB:          db,
		Wallet:      &walletsvc.Service{DB: db},
		Ledger:      &ledger.Service{DB: db},
		Investments: &investment.Service{DB: db},
		Referrals:   &referral.Resolver{DB: db, DefaultPercent: 15},
		Catalog:     &catalog.Service{DB: db},
	}
	h := &Handlers{Service: svc}

	app := fiber.New()
	// Stand-in for the session middleware: a header names the session user.
	app.Use(func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			c.Locals("user", map[string]interface{}{"user_id": id, "role": domain.RoleUser})
		}
		return c.Next()
	})
	app.Post("/wallet/deposit", middleware.RequireAuth(), h.Deposit)
	app.Post("/wallet/withdraw", middleware.RequireAuth(), h.Withdraw)
	app.Get("/wallet/ledger", middleware.RequireAuth(), h.Ledger)
	return app, db, u
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

func TestDeposit(t *testing.T) {
	app, _, u := setupApp(t)

	resp, body := doJSON(t, app, "POST", "/wallet/deposit", u.UserID.String(), fiber.Map{"amount": 1000})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, 1000.0, data["balance"])
}

func TestDeposit_Unauthorized(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, body := doJSON(t, app, "POST", "/wallet/deposit", "", fiber.Map{"amount": 100})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestDeposit_InvalidAmount(t *testing.T) {
	app, _, u := setupApp(t)

	resp, _ := doJSON(t, app, "POST", "/wallet/deposit", u.UserID.String(), fiber.Map{"amount": -5})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	app, _, u := setupApp(t)

	resp, body := doJSON(t, app, "POST", "/wallet/withdraw", u.UserID.String(), fiber.Map{"amount": 100})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, domain.ErrInsufficientFunds.Error(), errObj["message"])
}

func TestLedger(t *testing.T) {
	app, _, u := setupApp(t)

	_, _ = doJSON(t, app, "POST", "/wallet/deposit", u.UserID.String(), fiber.Map{"amount": 500})
	_, _ = doJSON(t, app, "POST", "/wallet/withdraw", u.UserID.String(), fiber.Map{"amount": 100})

	resp, body := doJSON(t, app, "GET", "/wallet/ledger", u.UserID.String(), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"].([]interface{}), 2)

	path := fmt.Sprintf("/wallet/ledger?kind=%s", domain.KindWithdrawal)
	resp, body = doJSON(t, app, "GET", path, u.UserID.String(), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	entries := body["data"].([]interface{})
	require.Len(t, entries, 1)
	meta := body["metadata"].(map[string]interface{})
	assert.Equal(t, 1.0, meta["count"])
}
