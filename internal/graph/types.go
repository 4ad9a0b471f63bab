package graph

import (
	graphql "github.com/graph-gophers/graphql-go"

	"github.com/listenupapp/catalog-server/internal/domain"
)

// AuthorResolver resolves the Author type.
type AuthorResolver struct {
	author *domain.Author
}

func (r *AuthorResolver) Name() string { return r.author.Name }

func (r *AuthorResolver) ID() *graphql.ID {
	id := graphql.ID(r.author.ID)
	return &id
}

func (r *AuthorResolver) Born() *int32 {
	if r.author.Born == nil {
		return nil
	}
	born := int32(*r.author.Born) //nolint:gosec // years fit in int32
	return &born
}

func (r *AuthorResolver) BookCount() *int32 {
	n := int32(r.author.BookCount) //nolint:gosec // counts fit in int32
	return &n
}

// BookResolver resolves the Book type.
type BookResolver struct {
	book *domain.Book
}

func (r *BookResolver) Title() string { return r.book.Title }

func (r *BookResolver) Published() int32 {
	return int32(r.book.Published) //nolint:gosec // years fit in int32
}

func (r *BookResolver) Author() *AuthorResolver {
	return &AuthorResolver{author: r.book.Author}
}

func (r *BookResolver) Genres() *[]string {
	genres := r.book.Genres
	if genres == nil {
		genres = []string{}
	}
	return &genres
}

func (r *BookResolver) ID() graphql.ID { return graphql.ID(r.book.ID) }

// UserResolver resolves the User type. The password hash has no field.
type UserResolver struct {
	user *domain.User
}

func (r *UserResolver) Username() string { return r.user.Username }

func (r *UserResolver) FavoriteGenre() string { return r.user.FavoriteGenre }

func (r *UserResolver) ID() graphql.ID { return graphql.ID(r.user.ID) }

// TokenResolver resolves the Token type.
type TokenResolver struct {
	value string
}

func (r *TokenResolver) Value() string { return r.value }
