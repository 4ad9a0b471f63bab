package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/catalog-server/internal/domain"
	"github.com/listenupapp/catalog-server/internal/store"
)

// CreateBook inserts a book after checking its author exists in the same transaction.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if _, err := s.authors.get(txn, book.AuthorID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return store.ErrInvalidInput.WithMessage(fmt.Sprintf("author %s does not exist", book.AuthorID))
			}
			return err
		}

		stored := *book
		stored.Author = nil
		return s.books.create(txn, stored.ID, &stored)
	})
}

// ListBooks returns books matching filter ordered by creation time, with Author populated.
// A genre filter is answered from the genre index; the author filter is applied after populating.
func (s *Store) ListBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.Book, error) {
	var books []*domain.Book

	err := s.view(ctx, func(txn *badger.Txn) error {
		var candidates []*domain.Book
		if filter.Genre != "" {
			ids, err := s.books.idsByIndex(txn, "genre", filter.Genre)
			if err != nil {
				return err
			}
			for _, id := range ids {
				b, err := s.books.get(txn, id)
				if err != nil {
					return fmt.Errorf("book %s from genre index: %w", id, err)
				}
				candidates = append(candidates, b)
			}
		} else {
			if err := s.books.list(txn, func(b *domain.Book) error {
				candidates = append(candidates, b)
				return nil
			}); err != nil {
				return err
			}
		}

		authors := map[string]*domain.Author{}
		for _, b := range candidates {
			author, ok := authors[b.AuthorID]
			if !ok {
				var err error
				author, err = s.authors.get(txn, b.AuthorID)
				if err != nil {
					return fmt.Errorf("populate author %s: %w", b.AuthorID, err)
				}
				authors[b.AuthorID] = author
			}
			b.Author = author
			if filter.Matches(b) {
				books = append(books, b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(books, func(i, j int) bool {
		if books[i].CreatedAt.Equal(books[j].CreatedAt) {
			return books[i].ID < books[j].ID
		}
		return books[i].CreatedAt.Before(books[j].CreatedAt)
	})
	return books, nil
}

// CountBooks returns the number of books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var n int
	err := s.view(ctx, func(txn *badger.Txn) error {
		n = s.books.count(txn)
		return nil
	})
	return n, err
}
