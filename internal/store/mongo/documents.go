package mongo

import (
	"time"

	"github.com/listenupapp/catalog-server/internal/domain"
)

type userDocument struct {
	ID            string    `bson:"_id"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
	Username      string    `bson:"username"`
	FavoriteGenre string    `bson:"favoriteGenre"`
	PasswordHash  string    `bson:"passwordHash"`
}

func newUserDocument(u *domain.User) userDocument {
	return userDocument{
		ID:            u.ID,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		Username:      u.Username,
		FavoriteGenre: u.FavoriteGenre,
		PasswordHash:  u.PasswordHash,
	}
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		Record:        domain.Record{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		Username:      d.Username,
		FavoriteGenre: d.FavoriteGenre,
		PasswordHash:  d.PasswordHash,
	}
}

type authorDocument struct {
	ID        string    `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	Name      string    `bson:"name"`
	Born      *int      `bson:"born,omitempty"`
	BookCount int       `bson:"bookCount"`
}

func (d authorDocument) toDomain() *domain.Author {
	return &domain.Author{
		Record:    domain.Record{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		Name:      d.Name,
		Born:      d.Born,
		BookCount: d.BookCount,
	}
}

type bookDocument struct {
	ID        string    `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	Title     string    `bson:"title"`
	Published int       `bson:"published"`
	AuthorID  string    `bson:"author"`
	Genres    []string  `bson:"genres"`
}

func newBookDocument(b *domain.Book) bookDocument {
	genres := b.Genres
	if genres == nil {
		genres = []string{}
	}
	return bookDocument{
		ID:        b.ID,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		Title:     b.Title,
		Published: b.Published,
		AuthorID:  b.AuthorID,
		Genres:    genres,
	}
}

func (d bookDocument) toDomain() *domain.Book {
	return &domain.Book{
		Record:    domain.Record{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		Title:     d.Title,
		Published: d.Published,
		AuthorID:  d.AuthorID,
		Genres:    d.Genres,
	}
}
