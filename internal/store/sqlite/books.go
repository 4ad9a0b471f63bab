package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/listenupapp/catalog-server/internal/domain"
)

// bookSelect joins each book to its author and folds its genres into a JSON array
// in stored order, so a listing is a single query.
const bookSelect = `
	SELECT b.id, b.created_at, b.updated_at, b.title, b.published, b.author_id,
		(SELECT json_group_array(genre) FROM (
			SELECT genre FROM book_genres WHERE book_id = b.id ORDER BY position
		)),
		a.id, a.created_at, a.updated_at, a.name, a.born, a.book_count
	FROM books b
	JOIN authors a ON a.id = b.author_id`

func scanBook(scanner rowScanner) (*domain.Book, error) {
	var (
		b          domain.Book
		a          domain.Author
		createdAt  string
		updatedAt  string
		genresJSON string
		aCreatedAt string
		aUpdatedAt string
		born       sql.NullInt64
	)

	err := scanner.Scan(
		&b.ID, &createdAt, &updatedAt, &b.Title, &b.Published, &b.AuthorID,
		&genresJSON,
		&a.ID, &aCreatedAt, &aUpdatedAt, &a.Name, &born, &a.BookCount,
	)
	if err != nil {
		return nil, err
	}

	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(aCreatedAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(aUpdatedAt); err != nil {
		return nil, err
	}
	a.Born = intPtr(born)

	b.Genres = []string{}
	if err := json.Unmarshal([]byte(genresJSON), &b.Genres); err != nil {
		return nil, fmt.Errorf("decode genres: %w", err)
	}
	b.Author = &a
	return &b, nil
}

// CreateBook inserts a book and its genres in one transaction.
// Returns store.ErrInvalidInput when the author does not exist.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (id, created_at, updated_at, title, published, author_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		book.Title,
		book.Published,
		book.AuthorID,
	)
	if err != nil {
		return fmt.Errorf("insert book %q: %w", book.Title, translateError(err))
	}

	for pos, genre := range book.Genres {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO book_genres (book_id, position, genre) VALUES (?, ?, ?)`,
			book.ID, pos, genre); err != nil {
			return fmt.Errorf("insert genre %q: %w", genre, translateError(err))
		}
	}

	return tx.Commit()
}

// ListBooks returns books matching filter in insertion order with Author populated.
func (s *Store) ListBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.Book, error) {
	query := bookSelect + `
	WHERE (?1 = '' OR a.name = ?1)
	  AND (?2 = '' OR EXISTS (SELECT 1 FROM book_genres g WHERE g.book_id = b.id AND g.genre = ?2))
	ORDER BY b.rowid`

	rows, err := s.db.QueryContext(ctx, query, filter.Author, filter.Genre)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// CountBooks returns the number of books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return count, nil
}
