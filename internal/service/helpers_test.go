package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/catalog-server/internal/auth"
	"github.com/listenupapp/catalog-server/internal/domain"
	"github.com/listenupapp/catalog-server/internal/events"
	"github.com/listenupapp/catalog-server/internal/store/sqlite"
	"github.com/listenupapp/catalog-server/internal/validation"
)

type testEnv struct {
	repo    *sqlite.Store
	tokens  *auth.TokenService
	broker  *events.Broker
	auth    *AuthService
	catalog *CatalogService
	logs    *bytes.Buffer
}

// setupTest wires both services against a throwaway sqlite database.
func setupTest(t *testing.T) *testEnv {
	t.Helper()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"), quiet)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	tokens, err := auth.NewTokenService(bytes.Repeat([]byte{7}, 32), 0)
	require.NoError(t, err)

	broker := events.NewBroker(quiet)
	t.Cleanup(func() { _ = broker.Shutdown(context.Background()) })

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	v := validation.New()
	hasher := auth.PasswordHasher{Memory: 64, Iterations: 1, Parallelism: 1}

	catalog := NewCatalogService(repo, v, broker, logger)
	t.Cleanup(catalog.Wait)

	return &testEnv{
		repo:    repo,
		tokens:  tokens,
		broker:  broker,
		auth:    NewAuthService(repo, tokens, hasher, v, broker, "qwer", logger),
		catalog: catalog,
		logs:    logs,
	}
}

// signIn creates a user and returns a context authenticated as them.
func (e *testEnv) signIn(t *testing.T, username string) context.Context {
	t.Helper()
	user, err := e.auth.CreateUser(context.Background(), CreateUserInput{Username: username, FavoriteGenre: "refactoring"})
	require.NoError(t, err)
	return auth.WithUser(context.Background(), user)
}

func (e *testEnv) addBook(t *testing.T, ctx context.Context, title, author string, published int, genres ...string) *domain.Book {
	t.Helper()
	book, err := e.catalog.AddBook(ctx, AddBookInput{
		Title:     title,
		Author:    author,
		Published: &published,
		Genres:    genres,
	})
	require.NoError(t, err)
	return book
}

func waitForEvent(t *testing.T, ch <-chan events.Event, want events.Type) events.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event := <-ch:
			if event.Type == want {
				return event
			}
		case <-timeout:
			t.Fatalf("no %s event", want)
			return events.Event{}
		}
	}
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }
