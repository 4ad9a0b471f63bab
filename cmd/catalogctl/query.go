package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/graph-gophers/graphql-go"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/listenupapp/catalog-server/internal/auth"
	"github.com/listenupapp/catalog-server/internal/service"
)

var (
	queryJSON      bool
	queryVariables string
	queryOperation string
	queryAs        string
)

var queryCmd = &cobra.Command{
	Use:     "query <document>",
	Aliases: []string{"graphql"},
	Short:   "Execute a GraphQL query or mutation against the store",
	Long: `Execute a GraphQL document with the same resolvers the server uses.

Mutations need a caller; pass --as <username> to run as a stored user.

Examples:
  catalogctl query '{ allAuthors { name bookCount } }'
  catalogctl query -v '{"genre": "refactoring"}' 'query($genre: String) { allBooks(genre: $genre) { title } }'
  catalogctl query --as mluukkai 'mutation { editAuthor(name: "Sandi Metz", setBornTo: 1953) { born } }'
  echo '{ bookCount }' | catalogctl query`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var document string
		if len(args) == 1 {
			document = args[0]
		} else {
			stdinDocument, err := readFromStdin(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if stdinDocument == "" {
				return fmt.Errorf("no query provided (pass as argument or pipe to stdin)")
			}
			document = stdinDocument
		}

		var variables map[string]any
		if queryVariables != "" {
			if err := json.Unmarshal([]byte(queryVariables), &variables); err != nil {
				return fmt.Errorf("invalid variables JSON: %w", err)
			}
		}

		ctx := cmd.Context()
		if queryAs != "" {
			authService := do.MustInvoke[*service.AuthService](injector)
			token, err := authService.IssueToken(ctx, queryAs)
			if err != nil {
				return err
			}
			ctx = auth.WithUser(ctx, authService.ResolveCurrentUser(ctx, "Bearer "+token))
		}

		schema := do.MustInvoke[*graphql.Schema](injector)
		result, err := executeQuery(ctx, schema, document, variables, queryOperation)
		if err != nil {
			return err
		}

		if queryJSON {
			fmt.Fprintln(cmd.OutOrStdout(), string(result))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), string(pretty.Color(pretty.Pretty(result), nil)))
		}
		return nil
	},
}

// readFromStdin returns the piped document, or "" when stdin is a terminal.
func readFromStdin(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return "", fmt.Errorf("checking stdin: %w", err)
		}
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			return "", nil
		}
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// executeQuery runs document and returns the data portion of the response.
// GraphQL errors are folded into a single Go error.
func executeQuery(ctx context.Context, schema *graphql.Schema, document string, variables map[string]any, operation string) ([]byte, error) {
	resp := schema.Exec(ctx, document, operation, variables)
	if len(resp.Errors) == 0 {
		return resp.Data, nil
	}

	if len(resp.Errors) == 1 {
		return nil, fmt.Errorf("graphql: %s", resp.Errors[0].Message)
	}
	msgs := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		msgs = append(msgs, e.Message)
	}
	return nil, fmt.Errorf("graphql errors:\n  %s", strings.Join(msgs, "\n  "))
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output raw JSON (no formatting)")
	queryCmd.Flags().StringVarP(&queryVariables, "variables", "v", "", "Variables as a JSON object")
	queryCmd.Flags().StringVarP(&queryOperation, "operation", "o", "", "Operation name (for multi-operation documents)")
	queryCmd.Flags().StringVar(&queryAs, "as", "", "Run as this stored user")
	rootCmd.AddCommand(queryCmd)
}
