// postsd serves the posts API and manages its storage schema.
//
//	@title						Posts API
//	@version					1.0
//	@description				Owned-post lifecycle: drafts, publishing and the public listing.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "postsd",
		Short:         "Posts service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `postsd runs the posts HTTP API.

Configuration is read from the environment (see internal/pkg/config).
STORE_DRIVER selects mongo, postgres or sqlite3.`,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
