package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/catalog-server/internal/auth"
	"github.com/listenupapp/catalog-server/internal/events"
	"github.com/listenupapp/catalog-server/internal/service"
	"github.com/listenupapp/catalog-server/internal/store/sqlite"
	"github.com/listenupapp/catalog-server/internal/validation"
)

type testServer struct {
	schema  *graphql.Schema
	auth    *service.AuthService
	catalog *service.CatalogService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	tokens, err := auth.NewTokenService(bytes.Repeat([]byte{1}, 32), 0)
	require.NoError(t, err)

	broker := events.NewBroker(logger)
	t.Cleanup(func() { _ = broker.Shutdown(context.Background()) })

	v := validation.New()
	hasher := auth.PasswordHasher{Memory: 64, Iterations: 1, Parallelism: 1}
	authService := service.NewAuthService(repo, tokens, hasher, v, broker, "qwer", logger)
	catalog := service.NewCatalogService(repo, v, broker, logger)
	t.Cleanup(catalog.Wait)

	schema, err := NewSchema(NewResolver(authService, catalog, logger), Options{MaxDepth: 10})
	require.NoError(t, err)

	return &testServer{schema: schema, auth: authService, catalog: catalog}
}

type gqlResult struct {
	Data   map[string]any
	Errors []gqlResultError
}

type gqlResultError struct {
	Message    string
	Extensions map[string]any
}

// exec runs query as the holder of token ("" for anonymous).
func (s *testServer) exec(t *testing.T, token, query string, vars map[string]any) gqlResult {
	t.Helper()

	ctx := context.Background()
	if token != "" {
		ctx = auth.WithUser(ctx, s.auth.ResolveCurrentUser(ctx, "Bearer "+token))
	}

	resp := s.schema.Exec(ctx, query, "", jsonVariables(t, vars))

	var result gqlResult
	if len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, &result.Data))
	}
	for _, e := range resp.Errors {
		result.Errors = append(result.Errors, gqlResultError{Message: e.Message, Extensions: e.Extensions})
	}
	return result
}

// jsonVariables reshapes vars the way the HTTP handler sees them: decoded from
// JSON, so slices are []any and numbers are float64.
func jsonVariables(t *testing.T, vars map[string]any) map[string]any {
	t.Helper()
	if vars == nil {
		return nil
	}

	raw, err := json.Marshal(vars)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

// login creates a user with the default password and returns a token for it.
func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()

	res := s.exec(t, "", `mutation($u: String!) { createUser(username: $u, favoriteGenre: "refactoring") { id } }`,
		map[string]any{"u": username})
	require.Empty(t, res.Errors)

	res = s.exec(t, "", `mutation($u: String!) { login(username: $u, password: "qwer") { value } }`,
		map[string]any{"u": username})
	require.Empty(t, res.Errors)
	return res.Data["login"].(map[string]any)["value"].(string)
}

const addBookMutation = `mutation($title: String!, $author: String, $published: Int, $genres: [String!]) {
  addBook(title: $title, author: $author, published: $published, genres: $genres) {
    id title published genres
    author { id name born bookCount }
  }
}`

func (s *testServer) addBook(t *testing.T, token, title, author string, published int, genres ...string) map[string]any {
	t.Helper()
	res := s.exec(t, token, addBookMutation, map[string]any{
		"title": title, "author": author, "published": published, "genres": genres,
	})
	require.Empty(t, res.Errors)
	return res.Data["addBook"].(map[string]any)
}

func TestCreateUserLoginMe(t *testing.T) {
	s := newTestServer(t)

	res := s.exec(t, "", `mutation { createUser(username: "alice", favoriteGenre: "drama") { id username favoriteGenre } }`, nil)
	require.Empty(t, res.Errors)
	created := res.Data["createUser"].(map[string]any)
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "alice", created["username"])
	assert.Equal(t, "drama", created["favoriteGenre"])

	res = s.exec(t, "", `mutation { login(username: "alice", password: "qwer") { value } }`, nil)
	require.Empty(t, res.Errors)
	token := res.Data["login"].(map[string]any)["value"].(string)

	res = s.exec(t, token, `{ me { id username favoriteGenre } }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, created, res.Data["me"])

	res = s.exec(t, "", `{ me { username } }`, nil)
	require.Empty(t, res.Errors)
	assert.Nil(t, res.Data["me"])
}

func TestCreateUser_DuplicateCarriesInvalidArgs(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "alice")

	res := s.exec(t, "", `mutation { createUser(username: "alice", favoriteGenre: "crime") { id } }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Nil(t, res.Data["createUser"])
	assert.Equal(t, "username already taken", res.Errors[0].Message)
	assert.Equal(t, "BAD_USER_INPUT", res.Errors[0].Extensions["code"])
	assert.Equal(t, map[string]any{"username": "alice", "favoriteGenre": "crime"}, res.Errors[0].Extensions["invalidArgs"])
}

func TestLogin_WrongCredentials(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "alice")

	for _, tc := range []struct{ user, password string }{{"alice", "wrong"}, {"ghost", "qwer"}} {
		res := s.exec(t, "", `mutation($u: String!, $p: String!) { login(username: $u, password: $p) { value } }`,
			map[string]any{"u": tc.user, "p": tc.password})
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "wrong credentials", res.Errors[0].Message)
		assert.Equal(t, "BAD_USER_INPUT", res.Errors[0].Extensions["code"])
		assert.Nil(t, res.Data["login"])
	}
}

func TestMutations_RequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	tests := map[string]string{
		"addBook":    `mutation { addBook(title: "Dune", author: "Frank Herbert", published: 1965) { id } }`,
		"editAuthor": `mutation { editAuthor(name: "Frank Herbert", setBornTo: 1920) { name } }`,
	}

	for field, query := range tests {
		t.Run(field, func(t *testing.T) {
			res := s.exec(t, "", query, nil)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, "UNAUTHENTICATED", res.Errors[0].Extensions["code"])
			assert.Nil(t, res.Data[field])
		})
	}

	res := s.exec(t, "", `{ bookCount authorCount }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, float64(0), res.Data["bookCount"])
	assert.Equal(t, float64(0), res.Data["authorCount"])
}

func TestInvalidTokenIsAnonymous(t *testing.T) {
	s := newTestServer(t)

	res := s.exec(t, "not-a-token", `{ me { username } }`, nil)
	require.Empty(t, res.Errors)
	assert.Nil(t, res.Data["me"])
}

func TestAddBook(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice")

	book := s.addBook(t, token, "Refactoring", "Martin Fowler", 1999, "refactoring")
	assert.NotEmpty(t, book["id"])
	assert.Equal(t, "Refactoring", book["title"])
	assert.Equal(t, float64(1999), book["published"])
	assert.Equal(t, []any{"refactoring"}, book["genres"])

	author := book["author"].(map[string]any)
	assert.Equal(t, "Martin Fowler", author["name"])
	assert.Nil(t, author["born"])
	assert.Equal(t, float64(0), author["bookCount"])

	s.addBook(t, token, "Patterns of Enterprise Application Architecture", "Martin Fowler", 2002)
	s.catalog.Wait()

	res := s.exec(t, "", `{ allAuthors { name bookCount } authorCount bookCount }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, []any{map[string]any{"name": "Martin Fowler", "bookCount": float64(2)}}, res.Data["allAuthors"])
	assert.Equal(t, float64(1), res.Data["authorCount"])
	assert.Equal(t, float64(2), res.Data["bookCount"])
}

func TestAddBook_GenreListVariable(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice")

	res := s.exec(t, token, addBookMutation, map[string]any{
		"title": "Crime and punishment", "author": "Fyodor Dostoevsky", "published": 1866,
		"genres": []string{"classic", "crime"},
	})
	require.Empty(t, res.Errors)
	assert.Equal(t, []any{"classic", "crime"}, res.Data["addBook"].(map[string]any)["genres"])
}

func TestAddBook_MissingRequiredArguments(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice")

	res := s.exec(t, token, `mutation { addBook(title: "Orphan") { id } }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "BAD_USER_INPUT", res.Errors[0].Extensions["code"])

	invalid, ok := res.Errors[0].Extensions["invalidArgs"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Orphan", invalid["title"])
	assert.NotContains(t, invalid, "published")

	reasons, ok := res.Errors[0].Extensions["reasons"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "is required", reasons["author"])
	assert.Equal(t, "is required", reasons["published"])
}

func TestEditAuthor(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice")
	s.addBook(t, token, "Clean Code", "Robert Martin", 2008)
	s.catalog.Wait()

	res := s.exec(t, token, `mutation { editAuthor(name: "Robert Martin", setBornTo: 1952) { name born bookCount } }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]any{"name": "Robert Martin", "born": float64(1952), "bookCount": float64(1)}, res.Data["editAuthor"])

	res = s.exec(t, token, `mutation { editAuthor(name: "Nobody", setBornTo: 1952) { name } }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "NOT_FOUND", res.Errors[0].Extensions["code"])
	assert.Nil(t, res.Data["editAuthor"])
}

func TestAllBooksAndGenres(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice")

	s.addBook(t, token, "Clean Code", "Robert Martin", 2008, "refactoring")
	s.addBook(t, token, "Agile software development", "Robert Martin", 2002, "agile", "patterns", "design")
	s.addBook(t, token, "Refactoring", "Martin Fowler", 1999, "refactoring")
	s.addBook(t, token, "Crime and punishment", "Fyodor Dostoevsky", 1866, "classic", "crime")

	titles := func(res gqlResult) []string {
		require.Empty(t, res.Errors)
		var out []string
		for _, b := range res.Data["allBooks"].([]any) {
			out = append(out, b.(map[string]any)["title"].(string))
		}
		return out
	}

	assert.Len(t, titles(s.exec(t, "", `{ allBooks { title author { name } } }`, nil)), 4)
	assert.Len(t, titles(s.exec(t, "", `{ allBooks(genre: "") { title } }`, nil)), 4)
	assert.Equal(t, []string{"Clean Code", "Refactoring"},
		titles(s.exec(t, "", `{ allBooks(genre: "refactoring") { title } }`, nil)))
	assert.Equal(t, []string{"Clean Code"},
		titles(s.exec(t, "", `{ allBooks(author: "Robert Martin", genre: "refactoring") { title } }`, nil)))
	assert.Empty(t, titles(s.exec(t, "", `{ allBooks(genre: "horror") { title } }`, nil)))

	res := s.exec(t, "", `{ allGenres }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, []any{"agile", "classic", "crime", "design", "patterns", "refactoring"}, res.Data["allGenres"])
}

func TestSchemaHidesPasswordHash(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice")

	res := s.exec(t, token, `{ me { username passwordHash } }`, nil)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0].Message, "passwordHash")
}

func TestMaxDepth(t *testing.T) {
	s := newTestServer(t)

	res := s.exec(t, "", `{ __schema { types { fields { type { ofType { ofType { ofType { ofType { ofType { ofType { name } } } } } } } } } } }`, nil)
	require.NotEmpty(t, res.Errors)
}

func TestPresent_HidesInternalErrors(t *testing.T) {
	r := &Resolver{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	err := r.present(context.Background(), io.ErrUnexpectedEOF)
	assert.Equal(t, "internal server error", err.Error())

	ext := err.(interface{ Extensions() map[string]interface{} }).Extensions()
	assert.Equal(t, "INTERNAL_SERVER_ERROR", ext["code"])
}
