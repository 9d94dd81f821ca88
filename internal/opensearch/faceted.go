package opensearch

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/ca-srg/novelsearch/internal/types"
)

// FacetedSearchHit is a single matched document.
type FacetedSearchHit struct {
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
	Index  string          `json:"_index"`
}

// FacetedSearchResult is the engine response consumed by the projection layer.
// Aggregations is kept raw; the caller knows which facets it requested.
type FacetedSearchResult struct {
	Total        int                `json:"total"`
	Relation     string             `json:"relation"`
	Hits         []FacetedSearchHit `json:"hits"`
	Aggregations json.RawMessage    `json:"aggregations,omitempty"`
	Took         int                `json:"took"`
}

// FacetedSearch executes a single search request against the given index.
// The body is the full engine query including aggregations, post_filter and
// pagination. There is no retry here: the caller owns retry policy.
func (c *Client) FacetedSearch(ctx context.Context, indexName string, body map[string]interface{}) (*FacetedSearchResult, error) {
	if err := c.WaitForRateLimit(ctx); err != nil {
		return nil, ClassifyConnectionError(err)
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, NewSearchError(types.ErrorTypeValidation, "failed to marshal search body: "+err.Error())
	}

	req := &opensearchapi.SearchReq{
		Indices: []string{indexName},
		Body:    strings.NewReader(string(bodyJSON)),
	}

	startTime := time.Now()
	searchResp, err := c.client.Search(ctx, req)
	if err != nil {
		return nil, ClassifyConnectionError(err)
	}

	if searchResp == nil {
		return nil, NewSearchError(types.ErrorTypeResponse, "received nil response from OpenSearch")
	}

	result := &FacetedSearchResult{
		Total:        searchResp.Hits.Total.Value,
		Relation:     searchResp.Hits.Total.Relation,
		Aggregations: searchResp.Aggregations,
		Took:         searchResp.Took,
	}

	result.Hits = make([]FacetedSearchHit, len(searchResp.Hits.Hits))
	for i, hit := range searchResp.Hits.Hits {
		result.Hits[i] = FacetedSearchHit{
			Index:  hit.Index,
			ID:     hit.ID,
			Score:  float64(hit.Score),
			Source: hit.Source,
		}
	}

	log.Printf("Faceted search completed in %v, found %d results",
		time.Since(startTime), result.Total)

	return result, nil
}
