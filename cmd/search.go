package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appconfig "github.com/ca-srg/novelsearch/internal/config"
	"github.com/ca-srg/novelsearch/internal/opensearch"
	"github.com/ca-srg/novelsearch/internal/search"
)

var (
	searchText    string
	searchTags    []string
	searchGenres  []string
	searchFrom    string
	searchTo      string
	searchOffset  int
	searchLimit   int
	searchOrder   string
	searchTimeout int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a one-shot faceted search against the novel index",
	Long: `Run a one-shot faceted search against the novel index and print the
response as JSON.

Examples:
  # Free-text search
  novelsearch search -q "異世界"

  # Filter by genre with a date window
  novelsearch search -q "dragon" --genre fantasy --from 2024-01-01 --to 2024-06-30

  # Second page, relevance order
  novelsearch search -q "魔法" --offset 10 --limit 10 --order score
`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "Free-text query matched against novel descriptions")
	searchCmd.Flags().StringSliceVar(&searchTags, "tag", nil, "Filter by tag (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchGenres, "genre", nil, "Filter by genre (repeatable)")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "Start of updated_time window (yyyy-MM-dd, default: 30 days ago)")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "End of updated_time window (yyyy-MM-dd, default: today)")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "Result window offset")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Result window size (1-1000)")
	searchCmd.Flags().StringVar(&searchOrder, "order", "latest", "Result order: latest|score")
	searchCmd.Flags().IntVar(&searchTimeout, "timeout", 30, "Request timeout in seconds")
}

func runSearch(cmd *cobra.Command, args []string) error {
	// .env is optional, ignore load errors
	_ = godotenv.Load()

	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(searchTimeout)*time.Second)
	defer cancel()

	osConfig, err := opensearch.NewConfigFromTypes(cfg)
	if err != nil {
		return fmt.Errorf("failed to create OpenSearch config: %w", err)
	}
	if err := osConfig.Validate(); err != nil {
		return fmt.Errorf("OpenSearch config validation failed: %w", err)
	}

	osClient, err := opensearch.NewClient(osConfig)
	if err != nil {
		return fmt.Errorf("failed to create OpenSearch client: %w", err)
	}

	body, err := buildRequestBody()
	if err != nil {
		return err
	}

	service := search.NewService(osClient, cfg.NovelIndex)
	resp, err := service.Search(ctx, body)
	if err != nil {
		return err
	}

	output, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	fmt.Println(string(output))

	return nil
}

// buildRequestBody assembles the same JSON body the HTTP API accepts, so CLI
// input flows through the same normalization path.
func buildRequestBody() ([]byte, error) {
	request := map[string]interface{}{
		"search_text": searchText,
		"offset":      searchOffset,
		"limit":       searchLimit,
		"order":       searchOrder,
	}

	filters := map[string]interface{}{}
	if len(searchTags) > 0 {
		filters["tag"] = searchTags
	}
	if len(searchGenres) > 0 {
		filters["genre"] = searchGenres
	}
	if len(filters) > 0 {
		request["filters"] = filters
	}

	date := map[string]string{}
	if searchFrom != "" {
		date["from"] = searchFrom
	}
	if searchTo != "" {
		date["to"] = searchTo
	}
	if len(date) > 0 {
		request["date"] = date
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}
	return body, nil
}
