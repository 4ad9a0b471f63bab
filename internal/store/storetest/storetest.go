// Package storetest is a behaviour suite every store.Repository implementation must pass.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/catalog-server/internal/domain"
	"github.com/listenupapp/catalog-server/internal/id"
	"github.com/listenupapp/catalog-server/internal/store"
)

// Opener returns an empty repository. Cleanup is registered on t by the opener.
type Opener func(t *testing.T) store.Repository

// Run executes the conformance suite against repositories produced by open.
func Run(t *testing.T, open Opener) {
	t.Run("Users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("DuplicateUsername", func(t *testing.T) { testDuplicateUsername(t, open(t)) })
	t.Run("GetOrCreateAuthor", func(t *testing.T) { testGetOrCreateAuthor(t, open(t)) })
	t.Run("ConcurrentGetOrCreateAuthor", func(t *testing.T) { testConcurrentGetOrCreateAuthor(t, open(t)) })
	t.Run("UpdateAuthor", func(t *testing.T) { testUpdateAuthor(t, open(t)) })
	t.Run("IncrementAuthorBookCount", func(t *testing.T) { testIncrementAuthorBookCount(t, open(t)) })
	t.Run("ListAuthors", func(t *testing.T) { testListAuthors(t, open(t)) })
	t.Run("Books", func(t *testing.T) { testBooks(t, open(t)) })
	t.Run("BookFilters", func(t *testing.T) { testBookFilters(t, open(t)) })
	t.Run("BookWithUnknownAuthor", func(t *testing.T) { testBookWithUnknownAuthor(t, open(t)) })
}

// NewUser builds an unsaved user with a fresh ID.
func NewUser(username, favoriteGenre string) *domain.User {
	u := &domain.User{
		Record:        domain.Record{ID: id.MustGenerate(id.PrefixUser)},
		Username:      username,
		FavoriteGenre: favoriteGenre,
		PasswordHash:  "$argon2id$v=19$m=64,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
	}
	u.InitTimestamps()
	return u
}

// NewAuthor builds an unsaved author with a fresh ID.
func NewAuthor(name string) *domain.Author {
	a := &domain.Author{
		Record: domain.Record{ID: id.MustGenerate(id.PrefixAuthor)},
		Name:   name,
	}
	a.InitTimestamps()
	return a
}

// NewBook builds an unsaved book by author with a fresh ID.
func NewBook(title string, published int, author *domain.Author, genres ...string) *domain.Book {
	b := &domain.Book{
		Record:    domain.Record{ID: id.MustGenerate(id.PrefixBook)},
		Title:     title,
		Published: published,
		AuthorID:  author.ID,
		Genres:    genres,
	}
	b.InitTimestamps()
	return b
}

func mustAuthor(t *testing.T, repo store.Repository, name string) *domain.Author {
	t.Helper()
	author, _, err := repo.GetOrCreateAuthor(context.Background(), NewAuthor(name))
	require.NoError(t, err)
	return author
}

func titles(books []*domain.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func testUsers(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	user := NewUser("alice", "sci-fi")
	require.NoError(t, repo.CreateUser(ctx, user))

	got, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "sci-fi", got.FavoriteGenre)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)

	byName, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = repo.GetUser(ctx, "usr-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.GetUserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, repo.CreateUser(ctx, NewUser("bob", "drama")))
	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func testDuplicateUsername(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	require.NoError(t, repo.CreateUser(ctx, NewUser("alice", "sci-fi")))

	err := repo.CreateUser(ctx, NewUser("alice", "drama"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func testGetOrCreateAuthor(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	first, created, err := repo.GetOrCreateAuthor(ctx, NewAuthor("Frank Herbert"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 0, first.BookCount)
	assert.Nil(t, first.Born)

	second, created, err := repo.GetOrCreateAuthor(ctx, NewAuthor("Frank Herbert"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	count, err := repo.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	byName, err := repo.GetAuthorByName(ctx, "Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, first.ID, byName.ID)

	_, err = repo.GetAuthorByName(ctx, "Nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = repo.GetAuthor(ctx, "aut-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testConcurrentGetOrCreateAuthor(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	const workers = 16

	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			author, _, err := repo.GetOrCreateAuthor(ctx, NewAuthor("Octavia Butler"))
			errs[i] = err
			if author != nil {
				ids[i] = author.ID
			}
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	count, err := repo.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testUpdateAuthor(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	author := mustAuthor(t, repo, "Ursula K. Le Guin")
	author.SetBorn(1929)
	require.NoError(t, repo.UpdateAuthor(ctx, author))

	got, err := repo.GetAuthor(ctx, author.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Born)
	assert.Equal(t, 1929, *got.Born)

	missing := NewAuthor("Ghost Writer")
	assert.ErrorIs(t, repo.UpdateAuthor(ctx, missing), store.ErrNotFound)
}

func testIncrementAuthorBookCount(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	author := mustAuthor(t, repo, "Isaac Asimov")

	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.IncrementAuthorBookCount(ctx, author.ID, 1)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.GetAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, got.BookCount)

	assert.ErrorIs(t, repo.IncrementAuthorBookCount(ctx, "aut-missing", 1), store.ErrNotFound)
}

func testListAuthors(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	authors, err := repo.ListAuthors(ctx)
	require.NoError(t, err)
	assert.Empty(t, authors)

	for _, name := range []string{"Zadie Smith", "Anne Rice", "Margaret Atwood"} {
		mustAuthor(t, repo, name)
	}

	authors, err = repo.ListAuthors(ctx)
	require.NoError(t, err)
	require.Len(t, authors, 3)
	assert.Equal(t, "Anne Rice", authors[0].Name)
	assert.Equal(t, "Margaret Atwood", authors[1].Name)
	assert.Equal(t, "Zadie Smith", authors[2].Name)
}

func testBooks(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	author := mustAuthor(t, repo, "Frank Herbert")

	dune := NewBook("Dune", 1965, author, "sci-fi", "classic")
	require.NoError(t, repo.CreateBook(ctx, dune))
	untagged := NewBook("Whipping Star", 1970, author)
	require.NoError(t, repo.CreateBook(ctx, untagged))

	count, err := repo.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	books, err := repo.ListBooks(ctx, domain.BookFilter{})
	require.NoError(t, err)
	require.Len(t, books, 2)

	byTitle := map[string]*domain.Book{}
	for _, b := range books {
		byTitle[b.Title] = b
	}

	got := byTitle["Dune"]
	require.NotNil(t, got)
	assert.Equal(t, dune.ID, got.ID)
	assert.Equal(t, 1965, got.Published)
	assert.Equal(t, []string{"sci-fi", "classic"}, got.Genres)
	require.NotNil(t, got.Author)
	assert.Equal(t, "Frank Herbert", got.Author.Name)
	assert.Equal(t, author.ID, got.Author.ID)

	require.NotNil(t, byTitle["Whipping Star"])
	assert.Empty(t, byTitle["Whipping Star"].Genres)
}

func testBookFilters(t *testing.T, repo store.Repository) {
	ctx := context.Background()
	herbert := mustAuthor(t, repo, "Frank Herbert")
	morrison := mustAuthor(t, repo, "Toni Morrison")

	require.NoError(t, repo.CreateBook(ctx, NewBook("Dune", 1965, herbert, "sci-fi", "drama")))
	require.NoError(t, repo.CreateBook(ctx, NewBook("Beloved", 1987, morrison, "drama")))
	require.NoError(t, repo.CreateBook(ctx, NewBook("Children of Dune", 1976, herbert, "sci-fi")))

	drama, err := repo.ListBooks(ctx, domain.BookFilter{Genre: "drama"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Dune", "Beloved"}, titles(drama))

	byHerbert, err := repo.ListBooks(ctx, domain.BookFilter{Author: "Frank Herbert"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Dune", "Children of Dune"}, titles(byHerbert))
	for _, b := range byHerbert {
		require.NotNil(t, b.Author)
		assert.Equal(t, "Frank Herbert", b.Author.Name)
	}

	both, err := repo.ListBooks(ctx, domain.BookFilter{Author: "Frank Herbert", Genre: "drama"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, titles(both))

	none, err := repo.ListBooks(ctx, domain.BookFilter{Genre: "poetry"})
	require.NoError(t, err)
	assert.Empty(t, none)

	unknownAuthor, err := repo.ListBooks(ctx, domain.BookFilter{Author: "Nobody"})
	require.NoError(t, err)
	assert.Empty(t, unknownAuthor)
}

func testBookWithUnknownAuthor(t *testing.T, repo store.Repository) {
	ctx := context.Background()

	orphan := NewBook("Orphan", 2000, NewAuthor("Never Saved"))
	err := repo.CreateBook(ctx, orphan)
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	count, err := repo.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
