package search

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ca-srg/novelsearch/internal/opensearch"
	"github.com/ca-srg/novelsearch/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var searchTracer = otel.Tracer("novelsearch/search")

// Engine is the search backend contract. opensearch.Client satisfies it; tests
// substitute a fixture.
type Engine interface {
	FacetedSearch(ctx context.Context, indexName string, body map[string]interface{}) (*opensearch.FacetedSearchResult, error)
}

// Service orchestrates one search invocation: normalize the raw request,
// build the engine query, execute it, and project the result. Each invocation
// is independent; the Service itself holds only read-only state and is safe
// for concurrent use.
type Service struct {
	engine Engine
	index  string
	logger *log.Logger
}

func NewService(engine Engine, index string) *Service {
	return &Service{
		engine: engine,
		index:  index,
		logger: log.Default(),
	}
}

// SetLogger sets a custom logger for the service
func (s *Service) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// Search runs a single pass with no retries. Every invocation ends in exactly
// one of: a SearchResponse, a *ValidationError, or a *ServiceError.
func (s *Service) Search(ctx context.Context, body []byte) (*SearchResponse, error) {
	ctx, span := searchTracer.Start(ctx, "search.faceted")
	defer span.End()

	req, err := NormalizeRequest(body, time.Now())
	if err != nil {
		s.logger.Printf("request validation failed: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("search.text", req.SearchText),
		attribute.Int("search.offset", req.Offset),
		attribute.Int("search.limit", req.Limit),
		attribute.String("search.order", req.Order),
	)

	query := BuildQuery(req)

	result, err := s.engine.FacetedSearch(ctx, s.index, query)
	if err != nil {
		s.logger.Printf("engine search failed: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "engine_failed")
		return nil, &ServiceError{
			Category: types.ErrorTypeConnection,
			Message:  "Database connection error",
			Cause:    err,
		}
	}

	resp, err := ProjectResponse(result)
	if err != nil {
		s.logger.Printf("result projection failed: %v", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "projection_failed")

		var docErr *InvalidDocumentError
		if errors.As(err, &docErr) {
			return nil, &ServiceError{
				Category: types.ErrorTypeDataIntegrity,
				Message:  "Internal Data error",
				Cause:    err,
			}
		}
		return nil, &ServiceError{
			Category: types.ErrorTypeUnexpected,
			Message:  "Unexpected error",
			Cause:    err,
		}
	}

	s.logger.Printf("search completed: count=%d total=%d", resp.Count, resp.Total)
	span.SetAttributes(
		attribute.Int("search.results.count", resp.Count),
		attribute.Int("search.results.total", resp.Total),
	)
	span.SetStatus(codes.Ok, "search_completed")

	return resp, nil
}
