package auth

import (
	"context"

	usersvc "coinvest-backend/internal/application/user"
	"coinvest-backend/internal/middleware"
	"coinvest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Handlers exposes register/login/me/logout.
type Handlers struct {
	Service *usersvc.Service
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account; an optional referral code binds the referrer
// permanently.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var in usersvc.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Service.Register(c.Context(), in)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	return response.SuccessCreated(c, "Account created", fiber.Map{
		"user_id":       u.UserID,
		"email":         u.Email,
		"fullname":      u.Fullname,
		"referral_code": u.ReferralCode,
	}, nil)
}

// Login verifies credentials and starts a session.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var in loginRequest
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Service.Authenticate(c.Context(), in.Email, in.Password)
	if err != nil {
		return response.Error(c, "Invalid email or password", fiber.StatusUnauthorized, nil)
	}

	sid := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   u.UserID.String(),
		Fullname: u.Fullname,
		Email:    u.Email,
		Role:     u.Role,
	})
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = sid
	c.Cookie(&cookie)

	return response.Success(c, "Logged in", fiber.Map{
		"user_id":  u.UserID,
		"fullname": u.Fullname,
		"email":    u.Email,
		"role":     u.Role,
	}, nil)
}

// Me returns the profile of the logged-in user, balance and aggregate
// counters included.
func (h *Handlers) Me(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	u, err := h.Service.Get(c.Context(), userID)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Profile", u, nil)
}

// Logout destroys the session.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if sid := middleware.GetSessionID(c); sid != "" && h.Rdb != nil {
		h.Rdb.Del(context.Background(), middleware.SessionRedisPrefix+sid)
	}
	middleware.DestroySession(c)
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)
	return response.Success(c, "Logged out", nil, nil)
}
