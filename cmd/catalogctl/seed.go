package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/catalog-server/internal/auth"
	"github.com/listenupapp/catalog-server/internal/di/providers"
	domainerrors "github.com/listenupapp/catalog-server/internal/errors"
	"github.com/listenupapp/catalog-server/internal/service"
)

var seedUsername string

type seedBook struct {
	title     string
	author    string
	published int
	genres    []string
}

var seedBooks = []seedBook{
	{"Clean Code", "Robert Martin", 2008, []string{"refactoring"}},
	{"Agile software development", "Robert Martin", 2002, []string{"agile", "patterns", "design"}},
	{"Refactoring, edition 2", "Martin Fowler", 2018, []string{"refactoring"}},
	{"Refactoring to patterns", "Joshua Kerievsky", 2008, []string{"refactoring", "patterns"}},
	{"Practical Object-Oriented Design, An Agile Primer Using Ruby", "Sandi Metz", 2012, []string{"refactoring", "design"}},
	{"Crime and punishment", "Fyodor Dostoevsky", 1866, []string{"classic", "crime"}},
	{"Demons", "Fyodor Dostoevsky", 1872, []string{"classic", "revolution"}},
}

var seedBirthYears = map[string]int{
	"Robert Martin":     1952,
	"Martin Fowler":     1963,
	"Fyodor Dostoevsky": 1821,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a sample library",
	Long: `Create a user and a small sample library of authors and books.

Running seed twice adds the books again; authors and the user are reused.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		authService := do.MustInvoke[*service.AuthService](injector)
		catalog := do.MustInvoke[*providers.CatalogServiceHandle](injector)

		books, err := seed(cmd.Context(), authService, catalog.CatalogService, seedUsername)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d books as %s (password: default credential)\n", books, seedUsername)
		return nil
	},
}

// seed creates username if needed and adds the sample books on its behalf.
func seed(ctx context.Context, authService *service.AuthService, catalog *service.CatalogService, username string) (int, error) {
	_, err := authService.CreateUser(ctx, service.CreateUserInput{Username: username, FavoriteGenre: "refactoring"})
	if err != nil && !domainerrors.Is(err, domainerrors.ErrInvalidInput) {
		return 0, fmt.Errorf("create user: %w", err)
	}

	// A taken username is also BAD_USER_INPUT; look the user up either way.
	token, err := authService.IssueToken(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("user %s: %w", username, err)
	}
	user := authService.ResolveCurrentUser(ctx, "Bearer "+token)
	if user == nil {
		return 0, errors.New("could not resolve seed user")
	}
	ctx = auth.WithUser(ctx, user)

	for _, b := range seedBooks {
		published := b.published
		if _, err := catalog.AddBook(ctx, service.AddBookInput{
			Title:     b.title,
			Author:    b.author,
			Published: &published,
			Genres:    b.genres,
		}); err != nil {
			return 0, fmt.Errorf("add %q: %w", b.title, err)
		}
	}

	for name, born := range seedBirthYears {
		if _, err := catalog.EditAuthor(ctx, service.EditAuthorInput{Name: name, SetBornTo: born}); err != nil {
			return 0, fmt.Errorf("edit author %q: %w", name, err)
		}
	}

	catalog.Wait()
	return len(seedBooks), nil
}

func init() {
	seedCmd.Flags().StringVar(&seedUsername, "user", "mluukkai", "Username that owns the seeded additions")
	rootCmd.AddCommand(seedCmd)
}
