package domain

import "slices"

// Book is a catalog entry. It references exactly one Author by ID;
// Author is populated on read and is not persisted with the book.
type Book struct {
	Record
	Title     string   `json:"title"`
	Published int      `json:"published"`
	AuthorID  string   `json:"author_id"`
	Author    *Author  `json:"-"`
	Genres    []string `json:"genres"`
}

// HasGenre reports whether the book is tagged with genre.
func (b *Book) HasGenre(genre string) bool {
	return slices.Contains(b.Genres, genre)
}

// BookFilter narrows a book listing. Empty fields do not filter.
type BookFilter struct {
	Author string // exact author name
	Genre  string
}

// Matches reports whether book satisfies the filter.
// The author name is compared against the populated Author, so callers must populate first.
func (f BookFilter) Matches(book *Book) bool {
	if f.Genre != "" && !book.HasGenre(f.Genre) {
		return false
	}
	if f.Author != "" && (book.Author == nil || book.Author.Name != f.Author) {
		return false
	}
	return true
}
