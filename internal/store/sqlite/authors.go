package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/listenupapp/catalog-server/internal/domain"
	"github.com/listenupapp/catalog-server/internal/store"
)

// authorColumns must match the scan order in scanAuthor.
const authorColumns = `id, created_at, updated_at, name, born, book_count`

func scanAuthor(scanner rowScanner) (*domain.Author, error) {
	var (
		a         domain.Author
		createdAt string
		updatedAt string
		born      sql.NullInt64
	)

	if err := scanner.Scan(&a.ID, &createdAt, &updatedAt, &a.Name, &born, &a.BookCount); err != nil {
		return nil, err
	}

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	a.Born = intPtr(born)
	return &a, nil
}

// GetAuthor returns the author with the given ID.
func (s *Store) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	a, err := scanAuthor(s.db.QueryRowContext(ctx, `SELECT `+authorColumns+` FROM authors WHERE id = ?`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return a, nil
}

// GetAuthorByName returns the author with the given name.
func (s *Store) GetAuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	a, err := scanAuthor(s.db.QueryRowContext(ctx, `SELECT `+authorColumns+` FROM authors WHERE name = ?`, name))
	if err != nil {
		return nil, translateError(err)
	}
	return a, nil
}

// GetOrCreateAuthor inserts candidate unless an author with the same name exists.
// The UNIQUE constraint on name makes the insert a no-op for the losers of a race,
// so every caller reads back the same row.
func (s *Store) GetOrCreateAuthor(ctx context.Context, candidate *domain.Author) (*domain.Author, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO authors (`+authorColumns+`) VALUES (?, ?, ?, ?, ?, 0)
		ON CONFLICT(name) DO NOTHING`,
		candidate.ID,
		formatTime(candidate.CreatedAt),
		formatTime(candidate.UpdatedAt),
		candidate.Name,
		nullInt(candidate.Born),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert author %q: %w", candidate.Name, translateError(err))
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	author, err := s.GetAuthorByName(ctx, candidate.Name)
	if err != nil {
		return nil, false, fmt.Errorf("read author %q: %w", candidate.Name, err)
	}

	if inserted == 1 {
		s.logger.Debug("Author created", "author_id", author.ID, "name", author.Name)
	}
	return author, inserted == 1, nil
}

// UpdateAuthor persists the author's name and birth year.
// The book count is owned by IncrementAuthorBookCount and is not written here.
func (s *Store) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	res, err := s.db.ExecContext(ctx, `UPDATE authors SET updated_at = ?, name = ?, born = ? WHERE id = ?`,
		formatTime(author.UpdatedAt),
		author.Name,
		nullInt(author.Born),
		author.ID,
	)
	if err != nil {
		return fmt.Errorf("update author %s: %w", author.ID, translateError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncrementAuthorBookCount adds delta to the author's book count in a single statement.
func (s *Store) IncrementAuthorBookCount(ctx context.Context, id string, delta int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE authors SET book_count = book_count + ?, updated_at = ? WHERE id = ?`,
		delta, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("increment book count %s: %w", id, translateError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListAuthors returns all authors ordered by name.
func (s *Store) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+authorColumns+` FROM authors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var authors []*domain.Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// CountAuthors returns the number of authors.
func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count authors: %w", err)
	}
	return count, nil
}
