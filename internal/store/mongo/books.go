package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/listenupapp/catalog-server/internal/domain"
	"github.com/listenupapp/catalog-server/internal/store"
)

// CreateBook inserts a book. Authors are never deleted, so checking the
// reference before the insert is enough to keep it from dangling.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	n, err := s.authors.CountDocuments(ctx, bson.M{"_id": book.AuthorID}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("check author %s: %w", book.AuthorID, err)
	}
	if n == 0 {
		return store.ErrInvalidInput.WithCause(fmt.Errorf("%w: %s", errAuthorMissing, book.AuthorID))
	}

	if _, err := s.books.InsertOne(ctx, newBookDocument(book)); err != nil {
		return fmt.Errorf("create book %q: %w", book.Title, translateError(err))
	}
	return nil
}

// ListBooks returns matching books in creation order and populates their authors
// with one $in query.
func (s *Store) ListBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.Book, error) {
	query := bson.M{}
	if filter.Genre != "" {
		query["genres"] = filter.Genre
	}
	if filter.Author != "" {
		author, err := s.GetAuthorByName(ctx, filter.Author)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		query["author"] = author.ID
	}

	cur, err := s.books.Find(ctx, query, options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	}))
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}

	var docs []bookDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	seen := map[string]bool{}
	var authorIDs []string
	for _, d := range docs {
		if !seen[d.AuthorID] {
			seen[d.AuthorID] = true
			authorIDs = append(authorIDs, d.AuthorID)
		}
	}

	authors, err := s.findAuthors(ctx, bson.M{"_id": bson.M{"$in": authorIDs}})
	if err != nil {
		return nil, fmt.Errorf("populate authors: %w", err)
	}
	byID := make(map[string]*domain.Author, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}

	books := make([]*domain.Book, 0, len(docs))
	for _, d := range docs {
		b := d.toDomain()
		b.Author = byID[d.AuthorID]
		if b.Author == nil {
			return nil, fmt.Errorf("book %s references missing author %s", b.ID, d.AuthorID)
		}
		books = append(books, b)
	}
	return books, nil
}

// CountBooks returns the number of books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	n, err := s.books.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return int(n), nil
}
