// Package store defines the persistence boundary for the catalog.
//
// Repository is implemented by the sqlite, kv (badger) and mongo packages.
// All implementations share the same error contract (ErrNotFound,
// ErrAlreadyExists, ErrInvalidInput) and pass the storetest conformance suite.
package store

import (
	"context"

	"github.com/listenupapp/catalog-server/internal/domain"
)

// Repository is the CRUD and query capability the services depend on.
type Repository interface {
	// Lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Users
	// CreateUser returns ErrAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// Authors
	GetAuthor(ctx context.Context, id string) (*domain.Author, error)
	GetAuthorByName(ctx context.Context, name string) (*domain.Author, error)
	// GetOrCreateAuthor atomically returns the author named candidate.Name,
	// inserting candidate when none exists. created reports which happened.
	// Concurrent callers with the same name observe a single author.
	GetOrCreateAuthor(ctx context.Context, candidate *domain.Author) (author *domain.Author, created bool, err error)
	UpdateAuthor(ctx context.Context, author *domain.Author) error
	// IncrementAuthorBookCount atomically adds delta to the author's book count.
	IncrementAuthorBookCount(ctx context.Context, id string, delta int) error
	ListAuthors(ctx context.Context) ([]*domain.Author, error)
	CountAuthors(ctx context.Context) (int, error)

	// Books
	// CreateBook returns ErrInvalidInput when the referenced author does not exist.
	CreateBook(ctx context.Context, book *domain.Book) error
	// ListBooks returns the books matching filter with Author populated.
	ListBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.Book, error)
	CountBooks(ctx context.Context) (int, error)
}
