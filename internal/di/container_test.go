package di

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/catalog-server/internal/config"
	"github.com/listenupapp/catalog-server/internal/di/providers"
	"github.com/listenupapp/catalog-server/internal/logger"
	"github.com/listenupapp/catalog-server/internal/service"
)

func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App:     config.AppConfig{Environment: "development"},
		Logger:  config.LoggerConfig{Level: "error"},
		Data:    config.DataConfig{BasePath: t.TempDir()},
		Store:   config.StoreConfig{Driver: config.DriverSQLite},
		Auth:    config.AuthConfig{DefaultPassword: "qwer"},
		GraphQL: config.GraphQLConfig{MaxDepth: 20},
	}
}

func TestNewOfflineContainer_WiresCatalog(t *testing.T) {
	cfg := offlineConfig(t)
	log := logger.New(logger.Config{Level: slog.LevelError, Writer: io.Discard})

	injector := NewOfflineContainer(cfg, log)
	t.Cleanup(func() { _ = injector.Shutdown() })

	authService, err := do.Invoke[*service.AuthService](injector)
	require.NoError(t, err)

	catalog, err := do.Invoke[*providers.CatalogServiceHandle](injector)
	require.NoError(t, err)

	schema, err := do.Invoke[*graphql.Schema](injector)
	require.NoError(t, err)
	require.NotNil(t, schema)

	ctx := context.Background()
	_, err = authService.CreateUser(ctx, service.CreateUserInput{Username: "mluukkai", FavoriteGenre: "refactoring"})
	require.NoError(t, err)

	token, err := authService.IssueToken(ctx, "mluukkai")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	count, err := catalog.BookCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewOfflineContainer_GeneratesAuthKeyOnce(t *testing.T) {
	cfg := offlineConfig(t)
	log := logger.New(logger.Config{Level: slog.LevelError, Writer: io.Discard})

	first := NewOfflineContainer(cfg, log)
	key1 := do.MustInvoke[providers.AuthKey](first)
	_ = first.Shutdown()

	second := NewOfflineContainer(cfg, log)
	key2 := do.MustInvoke[providers.AuthKey](second)
	_ = second.Shutdown()

	assert.Len(t, key1, 32)
	assert.Equal(t, key1, key2)
}
