package main

// @title           Sercha Concierge API
// @version         1.0
// @description     Knowledge-grounded conversational assistant for a single business. Answers come from a curated knowledge base first and a language model second.

// @contact.name   Sercha OSS
// @contact.url    https://github.com/custodia-labs/sercha-concierge/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "sercha-concierge",
		Short:         "Knowledge-grounded concierge for a single business",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", os.Getenv("CONCIERGE_CONFIG"), "Path to a YAML config file")

	rootCmd.AddCommand(
		serveCmd(),
		askCmd(),
		reindexCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
