package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/listenupapp/catalog-server/internal/domain"
	domainerrors "github.com/listenupapp/catalog-server/internal/errors"
	"github.com/listenupapp/catalog-server/internal/events"
	"github.com/listenupapp/catalog-server/internal/id"
	"github.com/listenupapp/catalog-server/internal/store"
	"github.com/listenupapp/catalog-server/internal/validation"
)

const defaultCounterTimeout = 10 * time.Second

// CatalogService implements the book and author operations.
type CatalogService struct {
	repo      store.Repository
	validator *validation.Validator
	events    events.Publisher
	logger    *slog.Logger

	// Background bookCount updates, waited on by Wait and Shutdown.
	pending        sync.WaitGroup
	counterTimeout time.Duration
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	repo store.Repository,
	validator *validation.Validator,
	publisher events.Publisher,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		repo:           repo,
		validator:      validator,
		events:         publisher,
		logger:         logger,
		counterTimeout: defaultCounterTimeout,
	}
}

// EditAuthorInput contains the editAuthor arguments.
type EditAuthorInput struct {
	Name      string `arg:"name" validate:"required"`
	SetBornTo int    `arg:"setBornTo"`
}

func (in EditAuthorInput) args() map[string]any {
	return map[string]any{"name": in.Name, "setBornTo": in.SetBornTo}
}

// EditAuthor sets an existing author's birth year.
func (s *CatalogService) EditAuthor(ctx context.Context, in EditAuthorInput) (*domain.Author, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in, in.args()); err != nil {
		return nil, err
	}

	author, err := s.repo.GetAuthorByName(ctx, in.Name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("author %q not found", in.Name)
	}
	if err != nil {
		return nil, internalf(err, "look up author %q", in.Name)
	}

	author.SetBorn(in.SetBornTo)
	if err := s.repo.UpdateAuthor(ctx, author); err != nil {
		return nil, rejected(err, "update author", in.args())
	}

	s.events.Publish(events.NewAuthorUpdatedEvent(events.AuthorData{
		AuthorID: author.ID,
		Name:     author.Name,
		Born:     author.Born,
	}))

	return author, nil
}

// AddBookInput contains the addBook arguments. Author and Published are
// nullable in the schema but required here.
type AddBookInput struct {
	Title     string   `arg:"title" validate:"required,max=512"`
	Author    string   `arg:"author" validate:"required,max=256"`
	Published *int     `arg:"published" validate:"required"`
	Genres    []string `arg:"genres" validate:"dive,required,max=128"`
}

func (in AddBookInput) args() map[string]any {
	args := map[string]any{
		"title":  in.Title,
		"author": in.Author,
		"genres": in.Genres,
	}
	if in.Published != nil {
		args["published"] = *in.Published
	}
	return args
}

// AddBook stores a book, creating its author on first mention. The author's
// bookCount is incremented in the background; the returned book carries the
// author as it was before that increment.
func (s *CatalogService) AddBook(ctx context.Context, in AddBookInput) (*domain.Book, error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in, in.args()); err != nil {
		return nil, err
	}

	author, err := s.findOrCreateAuthor(ctx, in.Author)
	if err != nil {
		return nil, rejected(err, "save author", in.args())
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, internal(err, "generate book ID")
	}

	genres := in.Genres
	if genres == nil {
		genres = []string{}
	}

	book := &domain.Book{
		Record:    domain.Record{ID: bookID},
		Title:     in.Title,
		Published: *in.Published,
		AuthorID:  author.ID,
		Author:    author,
		Genres:    genres,
	}
	book.InitTimestamps()

	// A freshly created author stays even if the book is rejected.
	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, rejected(err, "save book", in.args())
	}

	s.logger.InfoContext(ctx, "book added",
		slog.String("book_id", book.ID),
		slog.String("title", book.Title),
		slog.String("author_id", author.ID))

	s.incrementBookCount(ctx, author.ID)
	s.events.Publish(events.NewBookAddedEvent(events.BookAddedData{
		BookID:   book.ID,
		Title:    book.Title,
		AuthorID: author.ID,
		Author:   author.Name,
		Genres:   book.Genres,
	}))

	return book, nil
}

func (s *CatalogService) findOrCreateAuthor(ctx context.Context, name string) (*domain.Author, error) {
	authorID, err := id.Generate(id.PrefixAuthor)
	if err != nil {
		return nil, err
	}

	candidate := &domain.Author{Record: domain.Record{ID: authorID}, Name: name}
	candidate.InitTimestamps()

	author, created, err := s.repo.GetOrCreateAuthor(ctx, candidate)
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.InfoContext(ctx, "author created",
			slog.String("author_id", author.ID),
			slog.String("name", author.Name))
		s.events.Publish(events.NewAuthorCreatedEvent(events.AuthorData{
			AuthorID: author.ID,
			Name:     author.Name,
		}))
	}
	return author, nil
}

// incrementBookCount bumps the author's bookCount without holding up the
// request. Failures are logged and never reach the caller.
func (s *CatalogService) incrementBookCount(ctx context.Context, authorID string) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.counterTimeout)
		defer cancel()

		if err := s.repo.IncrementAuthorBookCount(ctx, authorID, 1); err != nil {
			s.logger.ErrorContext(ctx, "failed to update author book count",
				slog.String("author_id", authorID),
				slog.String("error", err.Error()))
		}
	}()
}

// Wait blocks until every background bookCount update has finished.
func (s *CatalogService) Wait() {
	s.pending.Wait()
}

// Shutdown waits for background work, giving up when ctx is done.
func (s *CatalogService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("catalog shutdown timed out with book count updates pending")
		return ctx.Err()
	}
}

// AllGenres returns every distinct genre, ordered by the root Unicode collation.
func (s *CatalogService) AllGenres(ctx context.Context) ([]string, error) {
	books, err := s.repo.ListBooks(ctx, domain.BookFilter{})
	if err != nil {
		return nil, internal(err, "list books")
	}

	seen := make(map[string]struct{})
	genres := []string{}
	for _, b := range books {
		for _, g := range b.Genres {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			genres = append(genres, g)
		}
	}

	// Collators are not safe for concurrent use.
	collate.New(language.Und).SortStrings(genres)
	return genres, nil
}

// AllAuthors returns every author ordered by name.
func (s *CatalogService) AllAuthors(ctx context.Context) ([]*domain.Author, error) {
	authors, err := s.repo.ListAuthors(ctx)
	if err != nil {
		return nil, internal(err, "list authors")
	}
	if authors == nil {
		authors = []*domain.Author{}
	}
	return authors, nil
}

// AllBooks returns the books matching filter, authors populated.
func (s *CatalogService) AllBooks(ctx context.Context, filter domain.BookFilter) ([]*domain.Book, error) {
	books, err := s.repo.ListBooks(ctx, filter)
	if err != nil {
		return nil, internal(err, "list books")
	}
	if books == nil {
		books = []*domain.Book{}
	}
	return books, nil
}

// AuthorCount returns the number of stored authors.
func (s *CatalogService) AuthorCount(ctx context.Context) (int, error) {
	n, err := s.repo.CountAuthors(ctx)
	if err != nil {
		return 0, internal(err, "count authors")
	}
	return n, nil
}

// BookCount returns the number of stored books.
func (s *CatalogService) BookCount(ctx context.Context) (int, error) {
	n, err := s.repo.CountBooks(ctx)
	if err != nil {
		return 0, internal(err, "count books")
	}
	return n, nil
}
