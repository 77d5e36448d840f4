package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neurodex/neurodex/internal/api/metrics"
	"github.com/neurodex/neurodex/internal/core/domain"
	"github.com/neurodex/neurodex/internal/core/ports"
)

// UserHandler handles account registration and lifecycle.
type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

// Register creates a new account and sends the confirmation email.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  userResponse
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/users [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.ConfirmationEmailsTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.ConfirmationEmailsTotal.WithLabelValues("sent").Inc()

	return c.JSON(http.StatusCreated, userResponse{User: user})
}

// Current returns the authenticated user.
//
// @Summary      Get the current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/users/current [get]
func (h *UserHandler) Current(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: user})
}

// Confirm consumes a one-time email confirmation token.
//
// @Summary      Confirm an email address
// @Tags         users
// @Produce      json
// @Param        confirmationID  path      string  true  "One-time confirmation token"
// @Success      200             {object}  map[string]string
// @Failure      404             {object}  map[string]string
// @Router       /api/users/confirm/{confirmationID} [post]
func (h *UserHandler) Confirm(c echo.Context) error {
	if err := h.authService.ConfirmEmail(c.Request().Context(), c.Param("confirmationID")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "confirmed"})
}

// Delete removes the authenticated user's account and all owned models.
//
// @Summary      Delete the current account
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /api/users [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.authService.DeleteAccount(c.Request().Context(), userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
