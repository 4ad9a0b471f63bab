package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/catalog-server/internal/di/providers"
	"github.com/listenupapp/catalog-server/internal/domain"
	"github.com/listenupapp/catalog-server/internal/service"
)

var (
	inspectGenre  string
	inspectAuthor string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show counts, authors and books",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := do.MustInvoke[*providers.CatalogServiceHandle](injector)
		return inspect(cmd.Context(), cmd.OutOrStdout(), catalog.CatalogService, domain.BookFilter{
			Author: inspectAuthor,
			Genre:  inspectGenre,
		})
	},
}

func inspect(ctx context.Context, out io.Writer, catalog *service.CatalogService, filter domain.BookFilter) error {
	authorCount, err := catalog.AuthorCount(ctx)
	if err != nil {
		return err
	}
	bookCount, err := catalog.BookCount(ctx)
	if err != nil {
		return err
	}
	genres, err := catalog.AllGenres(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Authors: %d\nBooks:   %d\nGenres:  %s\n\n", authorCount, bookCount, strings.Join(genres, ", "))

	authors, err := catalog.AllAuthors(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AUTHOR\tBORN\tBOOKS")
	for _, a := range authors {
		born := "-"
		if a.Born != nil {
			born = fmt.Sprint(*a.Born)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", a.Name, born, a.BookCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	books, err := catalog.AllBooks(ctx, filter)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tAUTHOR\tPUBLISHED\tGENRES")
	for _, b := range books {
		author := ""
		if b.Author != nil {
			author = b.Author.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", b.Title, author, b.Published, strings.Join(b.Genres, ", "))
	}
	return tw.Flush()
}

func init() {
	inspectCmd.Flags().StringVar(&inspectGenre, "genre", "", "Only list books with this genre")
	inspectCmd.Flags().StringVar(&inspectAuthor, "author", "", "Only list books by this author")
	rootCmd.AddCommand(inspectCmd)
}
