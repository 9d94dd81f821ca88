package search

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNormalize(t *testing.T, body string) *SearchRequest {
	t.Helper()
	req, err := NormalizeRequest([]byte(body), time.Now())
	require.NoError(t, err)
	return req
}

func TestNormalizeRequestDefaults(t *testing.T) {
	req := mustNormalize(t, `{}`)

	assert.Equal(t, "", req.SearchText, "missing search_text becomes empty string")
	assert.Equal(t, 0, req.Offset)
	assert.Equal(t, 10, req.Limit)
	assert.Equal(t, OrderLatest, req.Order)
	assert.Empty(t, req.Filters)
}

func TestNormalizeRequestEmptyBody(t *testing.T) {
	req, err := NormalizeRequest(nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "", req.SearchText)
}

func TestNormalizeRequestIgnoresUnknownKeys(t *testing.T) {
	req := mustNormalize(t, `{"search_text":"dragon","future_field":true,"debug":{"x":1}}`)
	assert.Equal(t, "dragon", req.SearchText)
}

func TestNormalizeRequestSearchTextTooLong(t *testing.T) {
	body := `{"search_text":"` + strings.Repeat("a", 201) + `"}`

	_, err := NormalizeRequest([]byte(body), time.Now())
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "search_text", validationErr.Field)
}

func TestNormalizeRequestSearchTextAtLimit(t *testing.T) {
	body := `{"search_text":"` + strings.Repeat("a", 200) + `"}`
	req := mustNormalize(t, body)
	assert.Len(t, req.SearchText, 200)
}

func TestNormalizeRequestLimitBounds(t *testing.T) {
	for _, tc := range []struct {
		body  string
		valid bool
	}{
		{`{"limit":0}`, false},
		{`{"limit":-1}`, false},
		{`{"limit":1001}`, false},
		{`{"limit":1}`, true},
		{`{"limit":1000}`, true},
	} {
		_, err := NormalizeRequest([]byte(tc.body), time.Now())
		if tc.valid {
			assert.NoError(t, err, "body %s", tc.body)
		} else {
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr, "body %s", tc.body)
			assert.Equal(t, "limit", validationErr.Field)
		}
	}
}

func TestNormalizeRequestNegativeOffset(t *testing.T) {
	_, err := NormalizeRequest([]byte(`{"offset":-1}`), time.Now())

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "offset", validationErr.Field)
}

func TestNormalizeRequestOrderEnum(t *testing.T) {
	req := mustNormalize(t, `{"order":"score"}`)
	assert.Equal(t, OrderScore, req.Order)

	_, err := NormalizeRequest([]byte(`{"order":"newest"}`), time.Now())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "order", validationErr.Field)
}

func TestNormalizeRequestFiltersScalarOrList(t *testing.T) {
	req := mustNormalize(t, `{"filters":{"tag":"isekai","genre":["fantasy","sf"]}}`)

	assert.Equal(t, []string{"isekai"}, req.Filters["tag"])
	assert.Equal(t, []string{"fantasy", "sf"}, req.Filters["genre"])
}

func TestNormalizeRequestFiltersEmptyListDropped(t *testing.T) {
	req := mustNormalize(t, `{"filters":{"tag":[]}}`)
	_, ok := req.Filters["tag"]
	assert.False(t, ok, "empty filter list should be dropped")
}

func TestNormalizeRequestFiltersUnknownFacet(t *testing.T) {
	_, err := NormalizeRequest([]byte(`{"filters":{"author":"someone"}}`), time.Now())

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "filters.author", validationErr.Field)
}

func TestNormalizeRequestFiltersBadValueType(t *testing.T) {
	_, err := NormalizeRequest([]byte(`{"filters":{"tag":42}}`), time.Now())

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "filters.tag", validationErr.Field)
}

func TestNormalizeRequestInvalidJSON(t *testing.T) {
	_, err := NormalizeRequest([]byte(`{"search_text":`), time.Now())

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "body", validationErr.Field)
}

func TestNormalizeRequestDatePropagation(t *testing.T) {
	req := mustNormalize(t, `{"date":{"from":"2024-01-01","to":"2024-03-01"}}`)

	assert.Equal(t, "2024-01-01 00:00:00", req.Date.From.Format(engineTimeFormat))
	assert.Equal(t, "2024-03-01 00:00:00", req.Date.To.Format(engineTimeFormat))

	_, err := NormalizeRequest([]byte(`{"date":{"from":"2024-03-01","to":"2024-01-01"}}`), time.Now())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}
