package graph

import (
	"context"

	"github.com/listenupapp/catalog-server/internal/service"
)

type createUserArgs struct {
	Username      string
	FavoriteGenre string
	Password      *string
}

// CreateUser resolves Mutation.createUser.
func (r *Resolver) CreateUser(ctx context.Context, args createUserArgs) (*UserResolver, error) {
	user, err := r.auth.CreateUser(ctx, service.CreateUserInput{
		Username:      args.Username,
		FavoriteGenre: args.FavoriteGenre,
		Password:      args.Password,
	})
	if err != nil {
		return nil, r.present(ctx, err)
	}
	return &UserResolver{user: user}, nil
}

type loginArgs struct {
	Username string
	Password string
}

// Login resolves Mutation.login.
func (r *Resolver) Login(ctx context.Context, args loginArgs) (*TokenResolver, error) {
	token, err := r.auth.Login(ctx, args.Username, args.Password)
	if err != nil {
		return nil, r.present(ctx, err)
	}
	return &TokenResolver{value: token}, nil
}

type editAuthorArgs struct {
	Name      string
	SetBornTo int32
}

// EditAuthor resolves Mutation.editAuthor.
func (r *Resolver) EditAuthor(ctx context.Context, args editAuthorArgs) (*AuthorResolver, error) {
	author, err := r.catalog.EditAuthor(ctx, service.EditAuthorInput{
		Name:      args.Name,
		SetBornTo: int(args.SetBornTo),
	})
	if err != nil {
		return nil, r.present(ctx, err)
	}
	return &AuthorResolver{author: author}, nil
}

type addBookArgs struct {
	Title     string
	Author    *string
	Published *int32
	Genres    *[]string
}

// AddBook resolves Mutation.addBook.
func (r *Resolver) AddBook(ctx context.Context, args addBookArgs) (*BookResolver, error) {
	in := service.AddBookInput{
		Title:  args.Title,
		Author: deref(args.Author),
	}
	if args.Published != nil {
		published := int(*args.Published)
		in.Published = &published
	}
	if args.Genres != nil {
		in.Genres = *args.Genres
	}

	book, err := r.catalog.AddBook(ctx, in)
	if err != nil {
		return nil, r.present(ctx, err)
	}
	return &BookResolver{book: book}, nil
}
