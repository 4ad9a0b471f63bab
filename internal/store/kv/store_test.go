package kv

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/catalog-server/internal/domain"
	"github.com/listenupapp/catalog-server/internal/store"
	"github.com/listenupapp/catalog-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := Open(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository { return newTestStore(t) })
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open("", slog.New(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, err)

	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}

func TestGenreIndex_ValuesWithSeparators(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author, _, err := s.GetOrCreateAuthor(ctx, storetest.NewAuthor("Anon"))
	require.NoError(t, err)
	require.NoError(t, s.CreateBook(ctx, storetest.NewBook("One", 2001, author, "a")))
	require.NoError(t, s.CreateBook(ctx, storetest.NewBook("Two", 2002, author, "a:b")))

	books, err := s.ListBooks(ctx, domain.BookFilter{Genre: "a"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "One", books[0].Title)
}

func TestEntity_UpdateMovesUniqueIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author, _, err := s.GetOrCreateAuthor(ctx, storetest.NewAuthor("Old Name"))
	require.NoError(t, err)

	author.Name = "New Name"
	require.NoError(t, s.UpdateAuthor(ctx, author))

	_, err = s.GetAuthorByName(ctx, "Old Name")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetAuthorByName(ctx, "New Name")
	require.NoError(t, err)
	assert.Equal(t, author.ID, got.ID)

	other, _, err := s.GetOrCreateAuthor(ctx, storetest.NewAuthor("Taken"))
	require.NoError(t, err)
	other.Name = "New Name"
	assert.ErrorIs(t, s.UpdateAuthor(ctx, other), store.ErrAlreadyExists)
}
