package observability

import (
	"context"
	"fmt"
	"log"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const defaultShutdownTimeout = 5 * time.Second

// ShutdownFunc represents a graceful shutdown handler that waits for exporters to flush.
type ShutdownFunc func(context.Context) error

// NewShutdownFunc coordinates tracer provider shutdown.
func NewShutdownFunc(tp *sdktrace.TracerProvider) ShutdownFunc {
	return func(ctx context.Context) error {
		shutdownCtx, cancel := ensureShutdownContext(ctx)
		defer cancel()

		if tp == nil {
			return nil
		}

		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Printf("observability: failed to shutdown tracer provider: %v", err)
			return fmt.Errorf("tracer provider: %w", err)
		}

		return nil
	}
}

func ensureShutdownContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), defaultShutdownTimeout)
	}

	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, defaultShutdownTimeout)
}
