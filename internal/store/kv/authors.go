package kv

import (
	"context"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/catalog-server/internal/domain"
	"github.com/listenupapp/catalog-server/internal/store"
)

// GetAuthor returns the author with the given ID.
func (s *Store) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	var author *domain.Author
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		author, err = s.authors.get(txn, id)
		return err
	})
	return author, err
}

// GetAuthorByName returns the author with the given name.
func (s *Store) GetAuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	var author *domain.Author
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		author, err = s.authors.getByUnique(txn, "name", name)
		return err
	})
	return author, err
}

// GetOrCreateAuthor looks up and inserts in one transaction. The name index key is
// read inside the transaction, so a concurrent insert of the same name makes this
// commit conflict and the retry observes the winner.
func (s *Store) GetOrCreateAuthor(ctx context.Context, candidate *domain.Author) (*domain.Author, bool, error) {
	var (
		author  *domain.Author
		created bool
	)
	err := s.update(ctx, func(txn *badger.Txn) error {
		existing, err := s.authors.getByUnique(txn, "name", candidate.Name)
		if err == nil {
			author, created = existing, false
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		fresh := *candidate
		fresh.BookCount = 0
		if err := s.authors.create(txn, fresh.ID, &fresh); err != nil {
			return err
		}
		author, created = &fresh, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return author, created, nil
}

// UpdateAuthor persists the author's name and birth year.
// The stored book count is kept so a stale copy cannot roll it back.
func (s *Store) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		current, err := s.authors.get(txn, author.ID)
		if err != nil {
			return err
		}
		next := *author
		next.BookCount = current.BookCount
		next.CreatedAt = current.CreatedAt
		return s.authors.update(txn, author.ID, &next)
	})
}

// IncrementAuthorBookCount adds delta to the author's book count.
func (s *Store) IncrementAuthorBookCount(ctx context.Context, id string, delta int) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		author, err := s.authors.get(txn, id)
		if err != nil {
			return err
		}
		author.BookCount += delta
		author.Touch()
		return s.authors.update(txn, id, author)
	})
}

// ListAuthors returns all authors ordered by name.
func (s *Store) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	var authors []*domain.Author
	err := s.view(ctx, func(txn *badger.Txn) error {
		return s.authors.list(txn, func(a *domain.Author) error {
			authors = append(authors, a)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(authors, func(i, j int) bool { return authors[i].Name < authors[j].Name })
	return authors, nil
}

// CountAuthors returns the number of authors.
func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	var n int
	err := s.view(ctx, func(txn *badger.Txn) error {
		n = s.authors.count(txn)
		return nil
	})
	return n, err
}
