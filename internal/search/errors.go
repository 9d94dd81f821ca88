package search

import (
	"fmt"

	"github.com/ca-srg/novelsearch/internal/types"
)

// ValidationError reports a malformed or out-of-range request field. It is
// always recoverable by the caller correcting the request.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// InvalidDocumentError reports an indexed document missing a required field.
// This indicates an upstream ingestion defect; re-querying does not help.
type InvalidDocumentError struct {
	DocID string `json:"doc_id"`
	Field string `json:"field"`
}

func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("document %s is missing required field %q", e.DocID, e.Field)
}

// ServiceError is a classified server-side failure. Message is safe to return
// to the caller; the cause is for logs only.
type ServiceError struct {
	Category types.ErrorType
	Message  string
	Cause    error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Category, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}
