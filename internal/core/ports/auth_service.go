package ports

import (
	"context"

	"github.com/neurodex/neurodex/internal/core/domain"
)

// RegisterInput carries the data needed to create an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// TokenPair is the access/refresh token pair issued on login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService implements registration, login and account lifecycle.
type AuthService interface {
	// Register creates a new account and sends the confirmation mail. No
	// user row is written when the mail is rejected permanently.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error)
	// Refresh exchanges a valid refresh token for a fresh access token.
	Refresh(ctx context.Context, refreshToken string) (string, error)
	// ConfirmEmail consumes a one-time confirmation token.
	ConfirmEmail(ctx context.Context, confirmationID string) error
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
	// DeleteAccount removes the user and all owned models.
	DeleteAccount(ctx context.Context, userID string) error
}
