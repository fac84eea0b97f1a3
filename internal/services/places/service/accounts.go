package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/places/internal/platform/logging"
	"github.com/louisbranch/places/internal/platform/requestctx"
	"github.com/louisbranch/places/internal/services/places/storage"
	"github.com/louisbranch/places/internal/services/places/user"
)

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(identity requestctx.Identity) (string, error)
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	UserID string
	Email  string
	Token  string
}

// AccountService signs users up, logs them in and lists them.
type AccountService struct {
	users    storage.UserStore
	tokens   TokenIssuer
	settings settings
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewAccountService builds an account service.
func NewAccountService(users storage.UserStore, tokens TokenIssuer, opts ...Option) (*AccountService, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	s := applyOptions(opts)
	return &AccountService{
		users:    users,
		tokens:   tokens,
		settings: s,
		logger:   logging.OrDiscard(s.logger),
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// Signup creates a user and issues a token for it.
func (s *AccountService) Signup(ctx context.Context, input user.CreateUserInput) (result AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.Signup")
	defer func() { endSpan(span, err) }()

	normalized, err := user.NormalizeCreateUserInput(input)
	if err != nil {
		return AuthResult{}, err
	}

	_, err = s.users.GetUserByEmail(ctx, normalized.Email)
	switch {
	case err == nil:
		return AuthResult{}, ErrUserExists
	case !errors.Is(err, storage.ErrNotFound):
		return AuthResult{}, persistenceError("Signing up failed, please try again later.", err)
	}

	created, err := user.CreateUser(normalized, s.settings.clock, s.settings.idGenerator, s.settings.hasher)
	if err != nil {
		return AuthResult{}, persistenceError("Could not create user, please try again.", err)
	}
	span.SetAttributes(attribute.String("user.id", created.ID))

	if err := s.users.PutUser(ctx, created); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return AuthResult{}, ErrUserExists
		}
		return AuthResult{}, persistenceError("Signing up failed, please try again later.", err)
	}

	return s.issue(created)
}

// Login checks credentials and issues a token.
func (s *AccountService) Login(ctx context.Context, email, password string) (result AuthResult, err error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.Login")
	defer func() { endSpan(span, err) }()

	email = user.NormalizeEmail(email)
	if email == "" {
		return AuthResult{}, ErrInvalidCredentials
	}
	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, persistenceError("Logging in failed, please try again later.", err)
	}
	if !user.CheckPassword(existing.PasswordHash, password) {
		return AuthResult{}, ErrInvalidCredentials
	}
	span.SetAttributes(attribute.String("user.id", existing.ID))
	return s.issue(existing)
}

// ListUsers returns every user.
func (s *AccountService) ListUsers(ctx context.Context) ([]user.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, persistenceError("Fetching users failed, please try again later.", err)
	}
	return users, nil
}

func (s *AccountService) issue(u user.User) (AuthResult, error) {
	token, err := s.tokens.Issue(requestctx.Identity{UserID: u.ID, Email: u.Email})
	if err != nil {
		s.logger.Error("issue token", "user_id", u.ID, "error", err)
		return AuthResult{}, persistenceError("Could not issue a token, please try again later.", err)
	}
	return AuthResult{UserID: u.ID, Email: u.Email, Token: token}, nil
}
