package search

import (
	"testing"
	"time"
)

func testRequest(t *testing.T, body string) *SearchRequest {
	t.Helper()
	req, err := NormalizeRequest([]byte(body), time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	return req
}

func TestBuildQueryMatchesDescriptionOnly(t *testing.T) {
	body := BuildQuery(testRequest(t, `{"search_text":"dragon"}`))

	boolQuery := mustBool(t, body)
	must, ok := boolQuery["must"].([]map[string]interface{})
	if !ok || len(must) != 1 {
		t.Fatalf("expected exactly one must clause")
	}

	match, ok := must[0]["match"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected match clause, got %v", must[0])
	}

	field, ok := match["description"].(map[string]interface{})
	if !ok {
		t.Fatalf("match must target description only, got %v", match)
	}

	if q, _ := field["query"].(string); q != "dragon" {
		t.Fatalf("expected query text dragon, got %v", field["query"])
	}
}

func TestBuildQueryEmptyTextMatchesAll(t *testing.T) {
	body := BuildQuery(testRequest(t, `{}`))

	boolQuery := mustBool(t, body)
	must := boolQuery["must"].([]map[string]interface{})
	if _, ok := must[0]["match_all"]; !ok {
		t.Fatalf("empty search_text should produce match_all, got %v", must[0])
	}
}

func TestBuildQueryDateRangeClause(t *testing.T) {
	body := BuildQuery(testRequest(t, `{"date":{"from":"2024-01-01","to":"2024-02-01"}}`))

	boolQuery := mustBool(t, body)
	filters, ok := boolQuery["filter"].([]map[string]interface{})
	if !ok || len(filters) != 1 {
		t.Fatalf("expected one filter clause")
	}

	rangeClause, ok := filters[0]["range"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected range clause")
	}

	updated, ok := rangeClause["updated_time"].(map[string]interface{})
	if !ok {
		t.Fatalf("range must target updated_time")
	}

	if updated["gte"] != "2024-01-01 00:00:00" || updated["lte"] != "2024-02-01 00:00:00" {
		t.Fatalf("unexpected range bounds: %v", updated)
	}
	if updated["time_zone"] != "+09:00" {
		t.Fatalf("range must carry the JST offset, got %v", updated["time_zone"])
	}
	if updated["format"] != "yyyy-MM-dd HH:mm:ss" {
		t.Fatalf("unexpected range format: %v", updated["format"])
	}
}

func TestBuildQuerySortLatest(t *testing.T) {
	body := BuildQuery(testRequest(t, `{"order":"latest"}`))

	sortClauses, ok := body["sort"].([]map[string]interface{})
	if !ok || len(sortClauses) != 2 {
		t.Fatalf("expected updated_time + _score sort, got %v", body["sort"])
	}

	if _, ok := sortClauses[0]["updated_time"]; !ok {
		t.Fatalf("primary sort must be updated_time")
	}
	if _, ok := sortClauses[1]["_score"]; !ok {
		t.Fatalf("tie-break sort must be _score")
	}
}

func TestBuildQuerySortScoreOmitsClause(t *testing.T) {
	body := BuildQuery(testRequest(t, `{"order":"score"}`))

	if _, ok := body["sort"]; ok {
		t.Fatalf("order=score must rely on engine default relevance ordering")
	}
}

func TestBuildQueryPaginationWindow(t *testing.T) {
	body := BuildQuery(testRequest(t, `{"offset":40,"limit":20}`))

	if body["from"] != 40 {
		t.Fatalf("expected from=40, got %v", body["from"])
	}
	if body["size"] != 20 {
		t.Fatalf("expected size=20, got %v", body["size"])
	}
}

func TestBuildQueryFacetFiltersGoToPostFilter(t *testing.T) {
	body := BuildQuery(testRequest(t, `{"filters":{"genre":"fantasy"}}`))

	postFilter, ok := body["post_filter"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected post_filter for facet filters")
	}

	clauses := postFilter["bool"].(map[string]interface{})["filter"].([]map[string]interface{})
	if len(clauses) != 1 {
		t.Fatalf("expected one post_filter clause")
	}

	term, ok := clauses[0]["term"].(map[string]interface{})
	if !ok {
		t.Fatalf("scalar filter must become a term clause")
	}
	if term["genre.keyword"] != "fantasy" {
		t.Fatalf("term filter must target the keyword sub-field, got %v", term)
	}

	// the main query must not carry the facet filter
	boolQuery := mustBool(t, body)
	filters := boolQuery["filter"].([]map[string]interface{})
	for _, clause := range filters {
		if _, ok := clause["term"]; ok {
			t.Fatalf("facet filter leaked into the main query")
		}
	}
}

func TestBuildQueryMultiValueFilterUsesTerms(t *testing.T) {
	body := BuildQuery(testRequest(t, `{"filters":{"tag":["isekai","magic"]}}`))

	clauses := body["post_filter"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]map[string]interface{})
	terms, ok := clauses[0]["terms"].(map[string]interface{})
	if !ok {
		t.Fatalf("multi-value filter must become a terms clause")
	}

	values, ok := terms["tag.keyword"].([]string)
	if !ok || len(values) != 2 {
		t.Fatalf("unexpected terms values: %v", terms)
	}
}

func TestBuildQuerySiblingExclusionAggs(t *testing.T) {
	body := BuildQuery(testRequest(t, `{"filters":{"genre":"fantasy"}}`))

	aggs, ok := body["aggs"].(map[string]interface{})
	if !ok {
		t.Fatalf("aggs section missing")
	}

	// the tag facet is narrowed by the genre filter
	tagAgg := aggs["_filter_tag"].(map[string]interface{})
	tagFilter := tagAgg["filter"].(map[string]interface{})
	if _, ok := tagFilter["bool"]; !ok {
		t.Fatalf("tag agg must be filtered by the genre selection, got %v", tagFilter)
	}

	// the genre facet ignores its own filter
	genreAgg := aggs["_filter_genre"].(map[string]interface{})
	genreFilter := genreAgg["filter"].(map[string]interface{})
	if _, ok := genreFilter["match_all"]; !ok {
		t.Fatalf("genre agg must not apply its own filter, got %v", genreFilter)
	}

	genreTerms := genreAgg["aggs"].(map[string]interface{})["genre"].(map[string]interface{})["terms"].(map[string]interface{})
	if genreTerms["field"] != "genre.keyword" {
		t.Fatalf("genre terms agg must target the keyword sub-field")
	}
	if genreTerms["size"] != facetTermsSize {
		t.Fatalf("expected top %d terms, got %v", facetTermsSize, genreTerms["size"])
	}
}

func TestBuildQueryHighlight(t *testing.T) {
	body := BuildQuery(testRequest(t, `{"search_text":"dragon"}`))

	highlight, ok := body["highlight"].(map[string]interface{})
	if !ok {
		t.Fatalf("highlight section missing")
	}
	fields := highlight["fields"].(map[string]interface{})
	description, ok := fields["description"].(map[string]interface{})
	if !ok {
		t.Fatalf("highlight must target description")
	}
	if description["fragment_size"] != highlightFragmentSize {
		t.Fatalf("unexpected fragment size: %v", description["fragment_size"])
	}
}

func mustBool(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	query, ok := body["query"].(map[string]interface{})
	if !ok {
		t.Fatalf("query section missing")
	}
	boolQuery, ok := query["bool"].(map[string]interface{})
	if !ok {
		t.Fatalf("bool query missing")
	}
	return boolQuery
}
