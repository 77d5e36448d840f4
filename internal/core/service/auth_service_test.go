package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/neurodex/neurodex/internal/core/domain"
	"github.com/neurodex/neurodex/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub user repository and email sender
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID            map[string]*domain.User
	byConfirmation  map[string]string // confirmationID -> userID
	createCallCount int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byID:           make(map[string]*domain.User),
		byConfirmation: make(map[string]string),
	}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User, confirmationID string) (*domain.User, error) {
	r.createCallCount++
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	clone := *user
	r.byID[user.ID] = &clone
	r.byConfirmation[confirmationID] = user.ID
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) Confirm(_ context.Context, confirmationID string) error {
	userID, ok := r.byConfirmation[confirmationID]
	if !ok {
		return fmt.Errorf("%w: confirmation %q", domain.ErrNotFound, confirmationID)
	}
	delete(r.byConfirmation, confirmationID)
	r.byID[userID].Confirmed = true
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: user %q", domain.ErrNotFound, id)
	}
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.byID)), nil
}

type stubEmailSender struct {
	err       error // returned by SendConfirmation when set
	sent      int
	lastEmail string
	lastID    string
}

func (s *stubEmailSender) SendConfirmation(_ context.Context, confirmationID, email, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.sent++
	s.lastEmail = email
	s.lastID = confirmationID
	return nil
}

func newAuthService(repo *stubUserRepo, sender *stubEmailSender) *AuthService {
	return NewAuthService(repo, sender, "test-secret", time.Hour, 24*time.Hour, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRegister_Success(t *testing.T) {
	repo := newStubUserRepo()
	sender := &stubEmailSender{}
	svc := newAuthService(repo, sender)

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:     "Ada",
		Email:    "Ada@Example.COM",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("email not normalised: %q", user.Email)
	}
	if user.Confirmed {
		t.Fatalf("new user must start unconfirmed")
	}
	if len(user.Roles) != 1 || user.Roles[0] != domain.RoleUser {
		t.Fatalf("unexpected roles: %v", user.Roles)
	}
	if sender.sent != 1 || sender.lastEmail != "ada@example.com" {
		t.Fatalf("confirmation mail not sent")
	}
}

// A rejected confirmation mail aborts registration entirely: no user row may
// exist afterwards.
func TestRegister_EmailFailureLeavesNoUser(t *testing.T) {
	repo := newStubUserRepo()
	sender := &stubEmailSender{err: fmt.Errorf("%w: address rejected", domain.ErrValidation)}
	svc := newAuthService(repo, sender)

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "correct horse",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if repo.createCallCount != 0 {
		t.Fatalf("user row was written despite mail failure")
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	svc := newAuthService(newStubUserRepo(), &stubEmailSender{})
	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "short",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(repo, &stubEmailSender{})
	ctx := context.Background()

	input := ports.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, input); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLoginAndRefresh(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(repo, &stubEmailSender{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, ports.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	pair, user, err := svc.Login(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("missing tokens")
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("unexpected user: %v", user)
	}

	access, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access == "" {
		t.Fatalf("empty refreshed access token")
	}

	// An access token is not usable as a refresh token.
	if _, err := svc.Refresh(ctx, pair.AccessToken); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for access token, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(repo, &stubEmailSender{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, ports.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := svc.Login(ctx, "ada@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

// The confirmation token is one-time: a second use reports not found.
func TestConfirmEmail_OneTimeToken(t *testing.T) {
	repo := newStubUserRepo()
	sender := &stubEmailSender{}
	svc := newAuthService(repo, sender)
	ctx := context.Background()

	user, err := svc.Register(ctx, ports.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ConfirmEmail(ctx, sender.lastID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	confirmed, _ := repo.FindByID(ctx, user.ID)
	if !confirmed.Confirmed {
		t.Fatalf("user not marked confirmed")
	}

	if err := svc.ConfirmEmail(ctx, sender.lastID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on reuse, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthService(repo, &stubEmailSender{})
	ctx := context.Background()

	user, err := svc.Register(ctx, ports.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.DeleteAccount(ctx, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.CurrentUser(ctx, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
