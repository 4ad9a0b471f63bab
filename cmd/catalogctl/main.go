// Package main provides catalogctl, an operator CLI that works directly on the
// catalog store: seeding sample data, inspecting contents, printing the schema,
// minting tokens and running GraphQL documents without the HTTP server.
//
// Usage:
//
//	catalogctl --data-path ~/catalog seed
//	catalogctl --data-path ~/catalog token mluukkai
//	catalogctl query '{ allAuthors { name bookCount } }'
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
