package search

// Query construction mirrors a faceted search: the free-text clause and date
// range form the main query, facet filters are applied as a post_filter so
// that aggregations can realize sibling-exclusion counts, and each facet's
// aggregation is wrapped in a filter of every OTHER facet's active filter.

const (
	searchField           = "description"
	keywordSuffix         = ".keyword"
	facetTermsSize        = 10
	highlightFragmentSize = 300
)

// BuildQuery translates a normalized request into the engine query body.
// It is a pure function: no I/O, no engine handle.
func BuildQuery(req *SearchRequest) map[string]interface{} {
	body := map[string]interface{}{
		"from":  req.Offset,
		"size":  req.Limit,
		"query": buildMainQuery(req),
		"aggs":  buildFacetAggs(req),
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				searchField: map[string]interface{}{
					"fragment_size": highlightFragmentSize,
				},
			},
		},
	}

	if postFilter := buildFilterClauses(req.Filters, ""); postFilter != nil {
		body["post_filter"] = postFilter
	}

	if req.Order == OrderLatest {
		body["sort"] = []map[string]interface{}{
			{"updated_time": map[string]string{"order": "desc"}},
			{"_score": map[string]string{"order": "desc"}},
		}
	}

	return body
}

// buildMainQuery combines the free-text match with the date range filter.
// Facet filters are deliberately NOT part of the main query; they live in the
// post_filter so facet counts stay unaffected by their own filter.
func buildMainQuery(req *SearchRequest) map[string]interface{} {
	var textClause map[string]interface{}
	if req.SearchText == "" {
		textClause = map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	} else {
		textClause = map[string]interface{}{
			"match": map[string]interface{}{
				searchField: map[string]interface{}{
					"query": req.SearchText,
				},
			},
		}
	}

	return map[string]interface{}{
		"bool": map[string]interface{}{
			"must":   []map[string]interface{}{textClause},
			"filter": []map[string]interface{}{buildDateRangeClause(req.Date)},
		},
	}
}

// buildDateRangeClause builds the inclusive [from, to] window on updated_time.
// The engine compares against stored timestamps in the JST offset, so the
// clause carries the offset explicitly.
func buildDateRangeClause(r DateRange) map[string]interface{} {
	return map[string]interface{}{
		"range": map[string]interface{}{
			"updated_time": map[string]interface{}{
				"gte":       r.From.In(jst).Format(engineTimeFormat),
				"lte":       r.To.In(jst).Format(engineTimeFormat),
				"format":    engineTimeMask,
				"time_zone": engineTimeZone,
			},
		},
	}
}

// buildFilterClauses combines the active facet filters into a bool filter,
// skipping the excluded facet. Returns nil when no clause applies.
func buildFilterClauses(filters map[string][]string, exclude string) map[string]interface{} {
	clauses := make([]map[string]interface{}, 0, len(filters))

	for _, facet := range facetFields {
		if facet == exclude {
			continue
		}
		values, ok := filters[facet]
		if !ok || len(values) == 0 {
			continue
		}

		field := facet + keywordSuffix
		if len(values) == 1 {
			clauses = append(clauses, map[string]interface{}{
				"term": map[string]interface{}{field: values[0]},
			})
		} else {
			clauses = append(clauses, map[string]interface{}{
				"terms": map[string]interface{}{field: values},
			})
		}
	}

	if len(clauses) == 0 {
		return nil
	}

	return map[string]interface{}{
		"bool": map[string]interface{}{
			"filter": clauses,
		},
	}
}

// buildFacetAggs requests term counts for every facet. Each aggregation is
// filtered by the other facets' active filters but never by its own, so
// selecting a term on facet A narrows the counts shown for facet B while A's
// own displayed counts ignore A's filter.
func buildFacetAggs(req *SearchRequest) map[string]interface{} {
	aggs := make(map[string]interface{}, len(facetFields))

	for _, facet := range facetFields {
		var filterClause map[string]interface{}
		if filterClause = buildFilterClauses(req.Filters, facet); filterClause == nil {
			filterClause = map[string]interface{}{
				"match_all": map[string]interface{}{},
			}
		}

		aggs["_filter_"+facet] = map[string]interface{}{
			"filter": filterClause,
			"aggs": map[string]interface{}{
				facet: map[string]interface{}{
					"terms": map[string]interface{}{
						"field": facet + keywordSuffix,
						"size":  facetTermsSize,
					},
				},
			},
		}
	}

	return aggs
}
