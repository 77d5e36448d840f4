package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/neurodex/neurodex/internal/core/domain"
	"github.com/neurodex/neurodex/internal/core/ports"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	minPasswordLength = 8
)

// AuthService implements registration, login and account lifecycle. Tokens
// are HS256 JWTs; the transport layer decides how they travel (cookies here).
type AuthService struct {
	users      ports.UserRepository
	email      ports.EmailSender
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewAuthService(users ports.UserRepository, email ports.EmailSender, jwtSecret string, accessTTL, refreshTTL time.Duration, logger zerolog.Logger) *AuthService {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		email:      email,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a new account. The confirmation mail is sent before the
// user row is written: a permanently rejected address aborts the whole
// registration and leaves no partial row behind.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	if input.Name == "" || input.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrValidation)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	confirmationID := uuid.NewString()
	if err := s.email.SendConfirmation(ctx, confirmationID, email, input.Name); err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("confirmation mail failed, registration aborted")
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []string{domain.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, user, confirmationID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.TokenPair, *domain.User, error) {
	if email == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	access, err := s.generateToken(user, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := s.generateToken(user, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, nil, err
	}

	return &ports.TokenPair{AccessToken: access, RefreshToken: refresh}, user, nil
}

// Refresh exchanges a valid refresh token for a fresh access token. The user
// is re-read so revoked accounts stop refreshing immediately.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(refreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", domain.ErrInvalidCredentials
	}
	if typ, _ := claims["type"].(string); typ != tokenTypeRefresh {
		return "", domain.ErrInvalidCredentials
	}

	sub, _ := claims["sub"].(string)
	user, err := s.users.FindByID(ctx, sub)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	return s.generateToken(user, tokenTypeAccess, s.accessTTL)
}

func (s *AuthService) ConfirmEmail(ctx context.Context, confirmationID string) error {
	if confirmationID == "" {
		return fmt.Errorf("%w: confirmation id is required", domain.ErrValidation)
	}
	if err := s.users.Confirm(ctx, confirmationID); err != nil {
		return err
	}
	s.logger.Info().Str("confirmation_id", confirmationID).Msg("email confirmed")
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Msg("account deleted")
	return nil
}

func (s *AuthService) generateToken(user *domain.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"roles": user.Roles,
		"type":  tokenType,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
