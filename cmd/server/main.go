// Command server runs the community spots API.
//
//	server serve     # migrate the schema and start the HTTP server
//	server migrate   # create missing tables and indexes, then exit
//	server token     # mint an AUTHORITY bearer token for the verify routes
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Community spots API",
	Long: `REST backend for parks, spots, volunteer actions and points.

Configuration is read from the environment; a .env file in the working
directory is loaded first when present.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		_ = godotenv.Load() // optional .env
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
