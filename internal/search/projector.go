package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ca-srg/novelsearch/internal/opensearch"
)

// Novel is the public projection of an indexed document.
type Novel struct {
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	URL         string     `json:"url"`
	SiteName    string     `json:"site_name"`
	Genre       string     `json:"genre"`
	UpdatedTime string     `json:"updated_time"`
	Tags        []TagEntry `json:"tag"`
}

// TagEntry wraps a tag term in a record so the schema can grow per-tag
// metadata without a breaking change.
type TagEntry struct {
	Name string `json:"name"`
}

// TermCount is one facet bucket.
type TermCount struct {
	Term  string
	Count int
}

// FacetCounts marshals as a JSON object of term -> count, preserving the
// engine's bucket order. A plain Go map would re-sort keys on marshal.
type FacetCounts []TermCount

func (f FacetCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tc := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tc.Term)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(tc.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SearchResponse is the public response shape. Count is the number of novels
// on this page; Total is the engine-reported match count across all pages.
type SearchResponse struct {
	Count  int                    `json:"count"`
	Total  int                    `json:"total"`
	Novels []Novel                `json:"novels"`
	Facets map[string]FacetCounts `json:"facets"`
}

// ProjectResponse maps a raw engine result into the public response shape.
// A single document missing a required field aborts the whole projection with
// an InvalidDocumentError; a poisoned document must not partially succeed.
func ProjectResponse(result *opensearch.FacetedSearchResult) (*SearchResponse, error) {
	novels := make([]Novel, 0, len(result.Hits))
	for _, hit := range result.Hits {
		novel, err := projectNovel(hit)
		if err != nil {
			return nil, err
		}
		novels = append(novels, novel)
	}

	facets, err := extractFacets(result.Aggregations)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		Count:  len(novels),
		Total:  result.Total,
		Novels: novels,
		Facets: facets,
	}, nil
}

func projectNovel(hit opensearch.FacetedSearchHit) (Novel, error) {
	var source map[string]interface{}
	if err := json.Unmarshal(hit.Source, &source); err != nil {
		return Novel{}, &InvalidDocumentError{DocID: hit.ID, Field: "_source"}
	}

	novel := Novel{}
	var err error

	if novel.Title, err = requireString(source, hit.ID, "title"); err != nil {
		return Novel{}, err
	}
	if novel.Author, err = requireString(source, hit.ID, "author"); err != nil {
		return Novel{}, err
	}
	if novel.URL, err = requireString(source, hit.ID, "url"); err != nil {
		return Novel{}, err
	}
	if novel.SiteName, err = requireString(source, hit.ID, "site_name"); err != nil {
		return Novel{}, err
	}
	if novel.Genre, err = requireString(source, hit.ID, "genre"); err != nil {
		return Novel{}, err
	}

	millis, err := requireEpochMillis(source, hit.ID, "updated_time")
	if err != nil {
		return Novel{}, err
	}
	novel.UpdatedTime = time.UnixMilli(millis).In(jst).Format(time.RFC3339)

	tags, err := requireStringList(source, hit.ID, "tag")
	if err != nil {
		return Novel{}, err
	}
	novel.Tags = make([]TagEntry, 0, len(tags))
	for _, tag := range tags {
		novel.Tags = append(novel.Tags, TagEntry{Name: tag})
	}

	return novel, nil
}

func requireString(source map[string]interface{}, docID, field string) (string, error) {
	value, ok := source[field]
	if !ok || value == nil {
		return "", &InvalidDocumentError{DocID: docID, Field: field}
	}
	s, ok := value.(string)
	if !ok {
		return "", &InvalidDocumentError{DocID: docID, Field: field}
	}
	return s, nil
}

func requireEpochMillis(source map[string]interface{}, docID, field string) (int64, error) {
	value, ok := source[field]
	if !ok || value == nil {
		return 0, &InvalidDocumentError{DocID: docID, Field: field}
	}
	f, ok := value.(float64)
	if !ok {
		return 0, &InvalidDocumentError{DocID: docID, Field: field}
	}
	return int64(f), nil
}

func requireStringList(source map[string]interface{}, docID, field string) ([]string, error) {
	value, ok := source[field]
	if !ok || value == nil {
		return nil, &InvalidDocumentError{DocID: docID, Field: field}
	}
	list, ok := value.([]interface{})
	if !ok {
		return nil, &InvalidDocumentError{DocID: docID, Field: field}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, &InvalidDocumentError{DocID: docID, Field: field}
		}
		out = append(out, s)
	}
	return out, nil
}

// extractFacets flattens the bucketed aggregation result into term -> count
// per facet, keeping the engine's bucket order.
func extractFacets(raw json.RawMessage) (map[string]FacetCounts, error) {
	facets := make(map[string]FacetCounts, len(facetFields))
	for _, facet := range facetFields {
		facets[facet] = FacetCounts{}
	}

	if len(raw) == 0 {
		return facets, nil
	}

	var aggs map[string]json.RawMessage
	if err := json.Unmarshal(raw, &aggs); err != nil {
		return nil, fmt.Errorf("failed to decode aggregations: %w", err)
	}

	for _, facet := range facetFields {
		outer, ok := aggs["_filter_"+facet]
		if !ok {
			continue
		}

		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(outer, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to decode %s aggregation: %w", facet, err)
		}

		inner, ok := wrapper[facet]
		if !ok {
			continue
		}

		var terms struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int    `json:"doc_count"`
			} `json:"buckets"`
		}
		if err := json.Unmarshal(inner, &terms); err != nil {
			return nil, fmt.Errorf("failed to decode %s buckets: %w", facet, err)
		}

		counts := make(FacetCounts, 0, len(terms.Buckets))
		for _, bucket := range terms.Buckets {
			counts = append(counts, TermCount{Term: bucket.Key, Count: bucket.DocCount})
		}
		facets[facet] = counts
	}

	return facets, nil
}
