package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/catalog-server/internal/auth"
	"github.com/listenupapp/catalog-server/internal/domain"
	domainerrors "github.com/listenupapp/catalog-server/internal/errors"
	"github.com/listenupapp/catalog-server/internal/events"
)

func TestCreateUser(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	sub, err := env.broker.Subscribe(ctx)
	require.NoError(t, err)

	user, err := env.auth.CreateUser(ctx, CreateUserInput{Username: "alice", FavoriteGenre: "drama"})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "drama", user.FavoriteGenre)
	assert.NotContains(t, user.PasswordHash, "qwer")

	stored, err := env.repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	assert.Equal(t, "drama", stored.FavoriteGenre)

	event := waitForEvent(t, sub, events.TypeUserCreated)
	assert.Equal(t, user.ID, event.Data.(events.UserCreatedData).UserID)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	_, err := env.auth.CreateUser(ctx, CreateUserInput{Username: "alice", FavoriteGenre: "drama"})
	require.NoError(t, err)

	_, err = env.auth.CreateUser(ctx, CreateUserInput{Username: "alice", FavoriteGenre: "crime"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidInput))

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, map[string]any{"username": "alice", "favoriteGenre": "crime"}, domainErr.Details)
}

func TestCreateUser_Validation(t *testing.T) {
	env := setupTest(t)

	tests := []struct {
		name  string
		input CreateUserInput
		field string
	}{
		{"empty username", CreateUserInput{FavoriteGenre: "drama"}, "username"},
		{"empty genre", CreateUserInput{Username: "bob"}, "favoriteGenre"},
		{"empty explicit password", CreateUserInput{Username: "bob", FavoriteGenre: "drama", Password: strPtr("")}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.CreateUser(context.Background(), tt.input)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, domainerrors.CodeInvalidInput, domainErr.Code)
			assert.Equal(t, tt.input.args(), domainErr.Details)
			assert.Contains(t, domainErr.Reasons, tt.field)
		})
	}
}

func TestLogin(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	alice, err := env.auth.CreateUser(ctx, CreateUserInput{Username: "alice", FavoriteGenre: "drama"})
	require.NoError(t, err)

	t.Run("default password", func(t *testing.T) {
		token, err := env.auth.Login(ctx, "alice", "qwer")
		require.NoError(t, err)

		identity, err := env.tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, domain.Identity{ID: alice.ID, Username: "alice"}, identity)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "alice", "wrong")
		require.Error(t, err)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidInput))
		assert.Equal(t, "wrong credentials", err.Error())
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "ghost", "qwer")
		require.Error(t, err)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidInput))
		assert.Equal(t, "wrong credentials", err.Error())
	})
}

func TestLogin_ChosenPassword(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	_, err := env.auth.CreateUser(ctx, CreateUserInput{Username: "carol", FavoriteGenre: "poetry", Password: strPtr("s3cret")})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, "carol", "s3cret")
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, "carol", "qwer")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidInput))
}

func TestResolveCurrentUser(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	alice, err := env.auth.CreateUser(ctx, CreateUserInput{Username: "alice", FavoriteGenre: "drama"})
	require.NoError(t, err)
	token, err := env.auth.Login(ctx, "alice", "qwer")
	require.NoError(t, err)

	ghostToken, err := env.tokens.Issue(domain.Identity{ID: "usr-deleted", Username: "ghost"})
	require.NoError(t, err)

	foreign, err := auth.NewTokenService(make([]byte, 32), 0)
	require.NoError(t, err)
	foreignToken, err := foreign.Issue(alice.Identity())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"no header", "", false},
		{"bearer", "Bearer " + token, true},
		{"lowercase scheme", "bearer " + token, true},
		{"uppercase scheme", "BEARER " + token, true},
		{"basic scheme", "Basic " + token, false},
		{"scheme only", "Bearer ", false},
		{"no space", "Bearer" + token, false},
		{"garbage token", "Bearer not-a-token", false},
		{"other key", "Bearer " + foreignToken, false},
		{"unknown user", "Bearer " + ghostToken, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := env.auth.ResolveCurrentUser(ctx, tt.header)
			if !tt.want {
				assert.Nil(t, user)
				return
			}
			require.NotNil(t, user)
			assert.Equal(t, alice.ID, user.ID)
		})
	}

	assert.Contains(t, env.logs.String(), "rejected bearer token")
}

func TestResolveCurrentUser_RepositoryFailureIsAnonymous(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	_, err := env.auth.CreateUser(ctx, CreateUserInput{Username: "alice", FavoriteGenre: "drama"})
	require.NoError(t, err)
	token, err := env.auth.IssueToken(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, env.repo.Close())

	assert.Nil(t, env.auth.ResolveCurrentUser(ctx, "Bearer "+token))
	assert.Contains(t, env.logs.String(), "failed to load current user")
}

func TestCurrentUser(t *testing.T) {
	env := setupTest(t)

	assert.Nil(t, env.auth.CurrentUser(context.Background()))

	ctx := env.signIn(t, "dave")
	require.NotNil(t, env.auth.CurrentUser(ctx))
	assert.Equal(t, "dave", env.auth.CurrentUser(ctx).Username)
}

func TestIssueToken_UnknownUser(t *testing.T) {
	env := setupTest(t)

	_, err := env.auth.IssueToken(context.Background(), "nobody")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}
