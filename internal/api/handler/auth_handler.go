package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/neurodex/neurodex/internal/api/metrics"
	"github.com/neurodex/neurodex/internal/api/middleware"
	"github.com/neurodex/neurodex/internal/core/domain"
	"github.com/neurodex/neurodex/internal/core/ports"
)

const refreshTokenCookie = "refresh_token"

// AuthHandler handles session lifecycle: login, logout and token refresh.
// Tokens travel as HttpOnly cookies so the browser client never touches them.
type AuthHandler struct {
	authService ports.AuthService
	accessTTL   time.Duration
	refreshTTL  time.Duration
	secure      bool
}

func NewAuthHandler(authService ports.AuthService, accessTTL, refreshTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{authService: authService, accessTTL: accessTTL, refreshTTL: refreshTTL, secure: secure}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User *domain.User `json:"user"`
}

// Login authenticates a user and sets the token cookies.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	pair, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	h.setCookie(c, middleware.AccessTokenCookie, pair.AccessToken, h.accessTTL)
	h.setCookie(c, refreshTokenCookie, pair.RefreshToken, h.refreshTTL)

	return c.JSON(http.StatusOK, loginResponse{User: user})
}

// Logout clears the token cookies.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/auth/logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.setCookie(c, middleware.AccessTokenCookie, "", -time.Hour)
	h.setCookie(c, refreshTokenCookie, "", -time.Hour)
	return c.JSON(http.StatusOK, map[string]string{"status": "logged out"})
}

// Refresh exchanges the refresh cookie for a fresh access token cookie.
//
// @Summary      Refresh access token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/refresh-token [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	accessToken, err := h.authService.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	h.setCookie(c, middleware.AccessTokenCookie, accessToken, h.accessTTL)
	return c.JSON(http.StatusOK, map[string]string{"status": "refreshed"})
}

func (h *AuthHandler) setCookie(c echo.Context, name, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
