package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/listenupapp/catalog-server/internal/graph"
)

var schemaRaw bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the GraphQL schema",
	Long: `Print the GraphQL schema served at /graphql.

By default the SDL is parsed and reformatted; --raw prints the embedded file
exactly as served by GET /graphql/schema.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if schemaRaw {
			fmt.Fprint(cmd.OutOrStdout(), graph.SDL)
			return nil
		}

		out, err := formatSchema()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

// formatSchema parses the embedded SDL and prints it back in canonical form.
func formatSchema() (string, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: graph.SDL})
	if err != nil {
		return "", fmt.Errorf("parse schema: %w", err)
	}

	var buf bytes.Buffer
	f := formatter.NewFormatter(&buf, formatter.WithIndent("  "))
	f.FormatSchema(schema)

	return buf.String(), nil
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaRaw, "raw", false, "Print the embedded SDL without reformatting")
	rootCmd.AddCommand(schemaCmd)
}
