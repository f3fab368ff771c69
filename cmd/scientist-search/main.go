// Package main is the entry point for the scientist-search CLI, which runs one
// search against PubMed and prints the paginated result as JSON.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the scientist-search CLI.
var rootCmd = &cobra.Command{
	Use:   "scientist-search",
	Short: "Find scientists publishing on a topic through PubMed",
	Long: `scientist-search queries PubMed for articles matching keywords and author
affiliations, then lists the distinct authors of those articles.

Settings are read the same way as the service: config.yaml in the working
directory, ./config or /etc/scientist-search-service, overridden by SCISEARCH_*
environment variables. The NCBI API key is read from SCISEARCH_PUBMED_API_KEY.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
