package types

import "time"

// ErrorType classifies a failure for response mapping and logging.
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeConnection     ErrorType = "connection"
	ErrorTypeDataIntegrity  ErrorType = "data_integrity"
	ErrorTypeUnexpected     ErrorType = "unexpected"
	ErrorTypeNetworkTimeout ErrorType = "network_timeout"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeResponse       ErrorType = "response"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Config represents the novelsearch service configuration
type Config struct {
	// OpenSearch configuration
	OpenSearchEndpoint          string        `json:"opensearch_endpoint" env:"OPENSEARCH_ENDPOINT,required=true"`
	OpenSearchRegion            string        `json:"opensearch_region" env:"OPENSEARCH_REGION,required=true"`
	OpenSearchInsecureSkipTLS   bool          `json:"opensearch_insecure_skip_tls" env:"OPENSEARCH_INSECURE_SKIP_TLS,default=false"`
	OpenSearchRateLimit         float64       `json:"opensearch_rate_limit" env:"OPENSEARCH_RATE_LIMIT,default=10.0"`
	OpenSearchRateBurst         int           `json:"opensearch_rate_burst" env:"OPENSEARCH_RATE_BURST,default=20"`
	OpenSearchConnectionTimeout time.Duration `json:"opensearch_connection_timeout" env:"OPENSEARCH_CONNECTION_TIMEOUT,default=30s"`
	OpenSearchRequestTimeout    time.Duration `json:"opensearch_request_timeout" env:"OPENSEARCH_REQUEST_TIMEOUT,default=60s"`
	OpenSearchMaxConnections    int           `json:"opensearch_max_connections" env:"OPENSEARCH_MAX_CONNECTIONS,default=100"`
	OpenSearchMaxIdleConns      int           `json:"opensearch_max_idle_conns" env:"OPENSEARCH_MAX_IDLE_CONNS,default=10"`
	OpenSearchIdleConnTimeout   time.Duration `json:"opensearch_idle_conn_timeout" env:"OPENSEARCH_IDLE_CONN_TIMEOUT,default=90s"`

	// Novel index configuration
	NovelIndex string `json:"novel_index" env:"NOVEL_INDEX,default=smart-novel"`

	// HTTP server configuration
	ServerAddr            string        `json:"server_addr" env:"SERVER_ADDR,default=:8080"`
	ServerReadTimeout     time.Duration `json:"server_read_timeout" env:"SERVER_READ_TIMEOUT,default=10s"`
	ServerWriteTimeout    time.Duration `json:"server_write_timeout" env:"SERVER_WRITE_TIMEOUT,default=90s"`
	ServerShutdownTimeout time.Duration `json:"server_shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT,default=15s"`

	// OpenTelemetry configuration
	OTelEnabled              bool    `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string  `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=novelsearch"`
	OTelExporterOTLPEndpoint string  `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelTracesSampler        string  `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=always_on"`
	OTelTracesSamplerArg     float64 `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1.0"`
}
