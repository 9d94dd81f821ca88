package opensearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	opensearch "github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
	requestsigner "github.com/opensearch-project/opensearch-go/v4/signer/awsv2"
	"golang.org/x/time/rate"
)

// Client is a process-wide handle to the OpenSearch domain. It carries no
// per-request state and is safe for concurrent use.
type Client struct {
	client      *opensearchapi.Client
	rateLimiter *rate.Limiter
	config      *Config
}

type Config struct {
	Endpoint          string
	Region            string
	InsecureSkipTLS   bool
	RateLimit         float64
	RateBurst         int
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
	MaxConnections    int
	MaxIdleConns      int
	IdleConnTimeout   time.Duration
}

func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10.0
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 20
	}
	if cfg.ConnectionTimeout == 0 {
		cfg.ConnectionTimeout = 30 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 100
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 10
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	awsConfig, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	signer, err := requestsigner.NewSignerWithService(awsConfig, "es")
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS signer: %w", err)
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipTLS,
		},
		MaxConnsPerHost:       cfg.MaxConnections,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConns / 2,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.ConnectionTimeout,
	}

	osClient, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: []string{cfg.Endpoint},
			Signer:    signer,
			Transport: httpClient.Transport,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
	}

	rateLimiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)

	return &Client{
		client:      osClient,
		rateLimiter: rateLimiter,
		config:      cfg,
	}, nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	resp, err := c.client.Cluster.Health(ctx, &opensearchapi.ClusterHealthReq{})
	if err != nil {
		log.Printf("OpenSearch health check failed: %v", err)
		return fmt.Errorf("health check failed: %w", err)
	}

	if resp != nil {
		log.Printf("OpenSearch health check successful")
	}
	return nil
}

func (c *Client) GetClient() *opensearchapi.Client {
	return c.client
}

func (c *Client) WaitForRateLimit(ctx context.Context) error {
	return c.rateLimiter.Wait(ctx)
}
