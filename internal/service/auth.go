package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/listenupapp/catalog-server/internal/auth"
	"github.com/listenupapp/catalog-server/internal/domain"
	domainerrors "github.com/listenupapp/catalog-server/internal/errors"
	"github.com/listenupapp/catalog-server/internal/events"
	"github.com/listenupapp/catalog-server/internal/id"
	"github.com/listenupapp/catalog-server/internal/store"
	"github.com/listenupapp/catalog-server/internal/validation"
)

const bearerPrefix = "bearer "

// AuthService handles accounts, login and resolving the caller from a bearer token.
type AuthService struct {
	repo            store.Repository
	tokenService    *auth.TokenService
	hasher          auth.PasswordHasher
	validator       *validation.Validator
	events          events.Publisher
	defaultPassword string
	logger          *slog.Logger
}

// NewAuthService creates a new authentication service. defaultPassword is the
// credential given to accounts created without one.
func NewAuthService(
	repo store.Repository,
	tokenService *auth.TokenService,
	hasher auth.PasswordHasher,
	validator *validation.Validator,
	publisher events.Publisher,
	defaultPassword string,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		repo:            repo,
		tokenService:    tokenService,
		hasher:          hasher,
		validator:       validator,
		events:          publisher,
		defaultPassword: defaultPassword,
		logger:          logger,
	}
}

// CreateUserInput contains the createUser arguments.
type CreateUserInput struct {
	Username      string  `arg:"username" validate:"required,max=64"`
	FavoriteGenre string  `arg:"favoriteGenre" validate:"required,max=64"`
	Password      *string `arg:"password" validate:"omitnil,min=1,max=1024"`
}

func (in CreateUserInput) args() map[string]any {
	return map[string]any{"username": in.Username, "favoriteGenre": in.FavoriteGenre}
}

// CreateUser stores a new account. A duplicate username is InvalidInput
// carrying the submitted arguments.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if err := s.validator.Validate(in, in.args()); err != nil {
		return nil, err
	}

	password := s.defaultPassword
	if in.Password != nil {
		password = *in.Password
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, internal(err, "hash password")
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, internal(err, "generate user ID")
	}

	user := &domain.User{
		Record:        domain.Record{ID: userID},
		Username:      in.Username,
		FavoriteGenre: in.FavoriteGenre,
		PasswordHash:  hash,
	}
	user.InitTimestamps()

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.InvalidInput("username already taken", in.args()).WithCause(err)
		}
		return nil, rejected(err, "create user", in.args())
	}

	s.logger.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username))
	s.events.Publish(events.NewUserCreatedEvent(events.UserCreatedData{
		UserID:   user.ID,
		Username: user.Username,
	}))

	return user, nil
}

// Login verifies the credentials and issues an access token. Unknown users and
// wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", wrongCredentials()
	}
	if err != nil {
		return "", internalf(err, "look up user %q", username)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.logger.InfoContext(ctx, "login failed", slog.String("username", username))
		return "", wrongCredentials()
	}

	token, err := s.tokenService.Issue(user.Identity())
	if err != nil {
		return "", internal(err, "issue token")
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return token, nil
}

func wrongCredentials() error {
	return domainerrors.InvalidInput("wrong credentials", nil)
}

// ResolveCurrentUser maps a raw Authorization header to the calling user.
// It never fails: a missing or malformed header, a token that does not verify,
// a deleted user and a repository failure all yield nil (anonymous).
func (s *AuthService) ResolveCurrentUser(ctx context.Context, header string) *domain.User {
	token, ok := bearerToken(header)
	if !ok {
		return nil
	}

	identity, err := s.tokenService.Verify(token)
	if err != nil {
		s.logger.WarnContext(ctx, "rejected bearer token", slog.String("error", err.Error()))
		return nil
	}

	user, err := s.repo.GetUser(ctx, identity.ID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.DebugContext(ctx, "token references unknown user", slog.String("user_id", identity.ID))
		return nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load current user",
			slog.String("user_id", identity.ID),
			slog.String("error", err.Error()))
		return nil
	}

	return user
}

// CurrentUser returns the user attached to ctx, or nil.
func (s *AuthService) CurrentUser(ctx context.Context) *domain.User {
	return auth.UserFromContext(ctx)
}

// IssueToken mints a token for a stored user without a password check.
// Used by catalogctl.
func (s *AuthService) IssueToken(ctx context.Context, username string) (string, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", domainerrors.NotFoundf("user %q not found", username)
	}
	if err != nil {
		return "", internalf(err, "look up user %q", username)
	}

	token, err := s.tokenService.Issue(user.Identity())
	if err != nil {
		return "", internal(err, "issue token")
	}
	return token, nil
}

// bearerToken extracts the token from "Bearer <token>"; the scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}
