package kv

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/catalog-server/internal/domain"
)

// CreateUser inserts a user. Returns store.ErrAlreadyExists on a duplicate username.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return s.users.create(txn, user.ID, user)
	})
}

// GetUser returns the user with the given ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		user, err = s.users.get(txn, id)
		return err
	})
	return user, err
}

// GetUserByUsername returns the user with the given username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user *domain.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		user, err = s.users.getByUnique(txn, "username", username)
		return err
	})
	return user, err
}

// ListUsers returns all users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	err := s.view(ctx, func(txn *badger.Txn) error {
		return s.users.list(txn, func(u *domain.User) error {
			users = append(users, u)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}
