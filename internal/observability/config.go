package observability

import (
	"fmt"
	"strings"

	"github.com/ca-srg/novelsearch/internal/types"
)

const defaultServiceName = "novelsearch"

// Config keeps OpenTelemetry runtime settings resolved from the global configuration.
type Config struct {
	Enabled          bool
	ServiceName      string
	ExporterEndpoint string
	TracesSampler    string
	TracesSamplerArg float64
}

// LoadConfig resolves observability specific configuration from the root config.
func LoadConfig(cfg *types.Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("observability: nil root configuration provided")
	}

	otelCfg := &Config{
		Enabled:          cfg.OTelEnabled,
		ServiceName:      strings.TrimSpace(cfg.OTelServiceName),
		ExporterEndpoint: strings.TrimSpace(cfg.OTelExporterOTLPEndpoint),
		TracesSampler:    strings.TrimSpace(cfg.OTelTracesSampler),
		TracesSamplerArg: cfg.OTelTracesSamplerArg,
	}

	if err := otelCfg.Validate(); err != nil {
		return nil, err
	}

	return otelCfg, nil
}

// Validate ensures the configuration has all required properties before initialization.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("observability: config is nil")
	}

	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}

	if c.TracesSampler == "" {
		c.TracesSampler = "always_on"
	}

	if c.Enabled && c.ExporterEndpoint == "" {
		return fmt.Errorf("observability: exporter endpoint is required when tracing is enabled")
	}

	return nil
}
