package graph

import (
	"context"

	"github.com/listenupapp/catalog-server/internal/domain"
)

// AllGenres resolves Query.allGenres.
func (r *Resolver) AllGenres(ctx context.Context) ([]string, error) {
	genres, err := r.catalog.AllGenres(ctx)
	if err != nil {
		return nil, r.present(ctx, err)
	}
	return genres, nil
}

// Me resolves Query.me: the caller, or null when anonymous.
func (r *Resolver) Me(ctx context.Context) *UserResolver {
	user := r.auth.CurrentUser(ctx)
	if user == nil {
		return nil
	}
	return &UserResolver{user: user}
}

// AllAuthors resolves Query.allAuthors.
func (r *Resolver) AllAuthors(ctx context.Context) ([]*AuthorResolver, error) {
	authors, err := r.catalog.AllAuthors(ctx)
	if err != nil {
		return nil, r.present(ctx, err)
	}

	out := make([]*AuthorResolver, 0, len(authors))
	for _, a := range authors {
		out = append(out, &AuthorResolver{author: a})
	}
	return out, nil
}

type allBooksArgs struct {
	Author *string
	Genre  *string
}

// AllBooks resolves Query.allBooks.
func (r *Resolver) AllBooks(ctx context.Context, args allBooksArgs) ([]*BookResolver, error) {
	books, err := r.catalog.AllBooks(ctx, domain.BookFilter{
		Author: deref(args.Author),
		Genre:  deref(args.Genre),
	})
	if err != nil {
		return nil, r.present(ctx, err)
	}

	out := make([]*BookResolver, 0, len(books))
	for _, b := range books {
		out = append(out, &BookResolver{book: b})
	}
	return out, nil
}

// AuthorCount resolves Query.authorCount.
func (r *Resolver) AuthorCount(ctx context.Context) (int32, error) {
	n, err := r.catalog.AuthorCount(ctx)
	if err != nil {
		return 0, r.present(ctx, err)
	}
	return int32(n), nil //nolint:gosec // catalog sizes stay far below 2^31
}

// BookCount resolves Query.bookCount.
func (r *Resolver) BookCount(ctx context.Context) (int32, error) {
	n, err := r.catalog.BookCount(ctx)
	if err != nil {
		return 0, r.present(ctx, err)
	}
	return int32(n), nil //nolint:gosec // catalog sizes stay far below 2^31
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
