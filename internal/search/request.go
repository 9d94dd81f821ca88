package search

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Order controls result ordering.
const (
	OrderLatest = "latest"
	OrderScore  = "score"
)

const defaultLimit = 10

// facetFields lists the facets the index exposes. Requests may only filter on
// these, and every response carries term counts for exactly these.
var facetFields = []string{"tag", "genre"}

// SearchRequest is a fully-populated, validated request. Nothing downstream
// re-validates its fields. Constraints are checked after defaulting, so an
// absent limit becomes 10 while an explicit 0 fails.
type SearchRequest struct {
	SearchText string              `json:"search_text" validate:"max=200"`
	Filters    map[string][]string `json:"filters"`
	Date       DateRange           `json:"date"`
	Offset     int                 `json:"offset" validate:"min=0"`
	Limit      int                 `json:"limit" validate:"min=1,max=1000"`
	Order      string              `json:"order" validate:"oneof=latest score"`
}

// rawSearchRequest mirrors the wire shape. Pointers distinguish absent fields
// from zero values; unknown top-level keys are ignored by the decoder.
type rawSearchRequest struct {
	SearchText *string                    `json:"search_text"`
	Filters    map[string]json.RawMessage `json:"filters"`
	Date       *rawDateRange              `json:"date"`
	Offset     *int                       `json:"offset"`
	Limit      *int                       `json:"limit"`
	Order      *string                    `json:"order"`
}

type rawDateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// prefer json tag names in diagnostics
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "-" || tag == "" {
			return fld.Name
		}
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		return tag
	})

	return v
}

// NormalizeRequest validates a raw JSON request body and fills defaults,
// producing the SearchRequest handed to the query builder. This is the single
// point where malformed client input is rejected.
func NormalizeRequest(body []byte, now time.Time) (*SearchRequest, error) {
	if len(body) == 0 {
		body = []byte("{}")
	}

	var raw rawSearchRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ValidationError{Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	req := &SearchRequest{
		SearchText: "",
		Offset:     0,
		Limit:      defaultLimit,
		Order:      OrderLatest,
	}

	if raw.SearchText != nil {
		req.SearchText = *raw.SearchText
	}
	if raw.Offset != nil {
		req.Offset = *raw.Offset
	}
	if raw.Limit != nil {
		req.Limit = *raw.Limit
	}
	if raw.Order != nil {
		req.Order = *raw.Order
	}

	if err := validate.Struct(req); err != nil {
		return nil, translateValidatorError(err)
	}

	filters, err := normalizeFilters(raw.Filters)
	if err != nil {
		return nil, err
	}
	req.Filters = filters

	var from, to string
	if raw.Date != nil {
		from, to = raw.Date.From, raw.Date.To
	}
	req.Date, err = ResolveDateRange(from, to, now)
	if err != nil {
		return nil, err
	}

	return req, nil
}

// normalizeFilters accepts either a scalar string or a list of strings per
// facet, normalizing both to a list. Keys outside facetFields are rejected.
func normalizeFilters(raw map[string]json.RawMessage) (map[string][]string, error) {
	filters := make(map[string][]string, len(raw))

	for key, value := range raw {
		if !isFacetField(key) {
			return nil, &ValidationError{
				Field:  "filters." + key,
				Reason: fmt.Sprintf("unknown facet, must be one of: %s", strings.Join(facetFields, ", ")),
			}
		}

		var scalar string
		if err := json.Unmarshal(value, &scalar); err == nil {
			filters[key] = []string{scalar}
			continue
		}

		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			if len(list) > 0 {
				filters[key] = list
			}
			continue
		}

		return nil, &ValidationError{
			Field:  "filters." + key,
			Reason: "must be a string or a list of strings",
		}
	}

	return filters, nil
}

func isFacetField(name string) bool {
	for _, f := range facetFields {
		if f == name {
			return true
		}
	}
	return false
}

func translateValidatorError(err error) error {
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrors) == 0 {
		return &ValidationError{Field: "body", Reason: err.Error()}
	}

	fe := fieldErrors[0]
	reason := ""
	switch fe.Tag() {
	case "max":
		reason = fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		reason = fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		reason = fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		reason = fmt.Sprintf("failed constraint %q", fe.Tag())
	}

	return &ValidationError{Field: fe.Field(), Reason: reason}
}
