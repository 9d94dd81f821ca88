package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "novelsearch",
	Short: "novelsearch - faceted web-novel search API over OpenSearch",
	Long: `novelsearch serves a faceted full-text search API for web-novel documents
indexed in Amazon OpenSearch. It validates and normalizes incoming search
requests, builds the engine query (free-text match, facet filters, date
range, pagination, tag/genre aggregations) and projects engine results into
a stable public response schema.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(searchCmd)
}
