package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // errors.Is for sentinel classification
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/anyhire/anyhire-server/internal/config"
	"github.com/anyhire/anyhire-server/internal/middleware"
	"github.com/anyhire/anyhire-server/internal/model"
	"github.com/anyhire/anyhire-server/internal/repository"
	"github.com/anyhire/anyhire-server/internal/utils"
)

// RefreshCookie is the cookie carrying the refresh token. It is scoped
// to the refresh endpoint's lifecycle, not sent per business request.
const RefreshCookie = "refreshToken"

// invalidCredentials is the single client-facing message for any login
// failure; it never discloses which check failed.
const invalidCredentials = "invalid email or password"

// UserStore is the user persistence surface the auth endpoints need.
type UserStore interface {
	Create(ctx context.Context, email, password, name, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Delete(ctx context.Context, id uint64) error
}

// RefreshStore holds the single live refresh token per user.
type RefreshStore interface {
	Store(ctx context.Context, userID uint64, token string) error
	Fetch(ctx context.Context, userID uint64) (string, error)
	Remove(ctx context.Context, userID uint64) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens RefreshStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t RefreshStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"` // CUSTOMER | JOB_SEEKER
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	ImagePath string `json:"imagePath,omitempty"`
}
type authResp struct {
	User        userPart `json:"user"`
	AccessToken string   `json:"accessToken"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, ImagePath: u.ImagePath}
}

// ----- cookies -----

func (h *AuthHandler) setCookie(c echo.Context, name, value string, maxAge int) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.Cfg.SecureCookies(),
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) setAuthCookies(c echo.Context, access utils.AccessToken, refresh utils.RefreshToken) {
	h.setCookie(c, middleware.AccessCookie, access.Token, h.Cfg.AccessTTLMin*60)
	h.setCookie(c, RefreshCookie, refresh.Token, h.Cfg.RefreshTTLDays*24*3600)
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	h.setCookie(c, middleware.AccessCookie, "", -1)
	h.setCookie(c, RefreshCookie, "", -1)
}

// issueSession mints both tokens and stores the refresh token, replacing
// any previous one for the user. At most one refresh token is live per
// user; an older session's token is silently superseded.
func (h *AuthHandler) issueSession(ctx context.Context, c echo.Context, userID uint64) (utils.AccessToken, error) {
	access, err := utils.NewAccessToken(h.Cfg.AccessSecret, userID, h.Cfg.AccessTTLMin)
	if err != nil {
		return utils.AccessToken{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshSecret, userID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return utils.AccessToken{}, err
	}
	if err := h.Tokens.Store(ctx, userID, refresh.Token); err != nil {
		return utils.AccessToken{}, err
	}
	h.setAuthCookies(c, access, refresh)
	return access, nil
}

// Register: create user and open a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password/name required"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != model.RoleJobSeeker {
		// ADMIN is never self-assignable.
		role = model.RoleCustomer
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, req.Name, role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	access, err := h.issueSession(ctx, c, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session setup failed"})
	}
	return c.JSON(http.StatusCreated, authResp{
		User:        userPart{ID: uid, Email: req.Email, Name: req.Name, Role: role},
		AccessToken: access.Token,
	})
}

// Login: verify credentials and open a fresh session. Any mismatch gets
// the same generic 400; a session-store failure is a 500, never a
// silent logout.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": invalidCredentials})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": invalidCredentials})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": invalidCredentials})
	}

	access, err := h.issueSession(ctx, c, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session setup failed"})
	}
	return c.JSON(http.StatusOK, authResp{User: toUserPart(u), AccessToken: access.Token})
}

// Logout: delete the stored refresh token when the cookie is present and
// verifiable, then clear both cookies. A missing or invalid cookie is
// not an error; clearing proceeds regardless, so logout is idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if cookie, err := c.Cookie(RefreshCookie); err == nil && cookie.Value != "" {
		if userID, err := utils.VerifyToken(h.Cfg.RefreshSecret, cookie.Value); err == nil {
			if err := h.Tokens.Remove(ctx, userID); err != nil {
				c.Logger().Warnf("logout: refresh token removal failed: %v", err)
			}
		}
	}
	h.clearAuthCookies(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// RefreshToken: exchange a valid refresh-token cookie for a new access
// token. The refresh token is NOT rotated on this path and is not
// single-use; it only stops working when superseded by a new login,
// removed by logout, or expired. The presented token must match the
// stored value byte for byte, otherwise a superseded session could keep
// refreshing forever.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	cookie, err := c.Cookie(RefreshCookie)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing refresh token"})
	}
	userID, err := utils.VerifyToken(h.Cfg.RefreshSecret, cookie.Value)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stored, err := h.Tokens.Fetch(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		// Session state unknown, not absent.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session store unavailable"})
	}
	if stored != cookie.Value {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	if _, err := h.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.AccessSecret, userID, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	h.setCookie(c, middleware.AccessCookie, access.Token, h.Cfg.AccessTTLMin*60)
	return c.JSON(http.StatusOK, echo.Map{"accessToken": access.Token})
}

// Profile returns the authenticated user (protected).
func (h *AuthHandler) Profile(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// DeleteAccount hard-deletes the authenticated user's account and
// revokes its refresh token (protected). Outstanding access tokens die
// at the user lookup in the session middleware.
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if err := h.Tokens.Remove(ctx, u.ID); err != nil {
		c.Logger().Warnf("delete account: refresh token removal failed: %v", err)
	}
	h.clearAuthCookies(c)
	return c.NoContent(http.StatusNoContent)
}

// ListUsers returns all users (admin only).
func (h *AuthHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}
