// Package kv implements store.Repository on an embedded Badger key-value database.
package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/catalog-server/internal/domain"
	"github.com/listenupapp/catalog-server/internal/store"
)

const maxConflictRetries = 64

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	users   *Entity[domain.User]
	authors *Entity[domain.Author]
	books   *Entity[domain.Book]
}

var _ store.Repository = (*Store)(nil)

// Open opens (or creates) a Badger database at path. An empty path opens an in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
		users: NewEntity[domain.User]("user:").
			WithUniqueIndex("username", func(u *domain.User) []string { return []string{u.Username} }),
		authors: NewEntity[domain.Author]("author:").
			WithUniqueIndex("name", func(a *domain.Author) []string { return []string{a.Name} }),
		books: NewEntity[domain.Book]("book:").
			WithIndex("author", func(b *domain.Book) []string { return []string{b.AuthorID} }).
			WithIndex("genre", func(b *domain.Book) []string { return b.Genres }),
	}

	logger.Info("Badger database opened", "path", path, "in_memory", path == "")
	return s, nil
}

// Ping reports whether the database is open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	s.logger.Info("Closing badger database")
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying when Badger reports a
// conflict with a concurrently committed transaction.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if attempt >= maxConflictRetries {
			return fmt.Errorf("transaction conflict after %d attempts: %w", attempt+1, err)
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Microsecond)
	}
}

func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}
