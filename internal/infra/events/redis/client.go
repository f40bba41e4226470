package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Channel names
const (
	ChannelReportGenerated = "COMPLIANCE_REPORT_GENERATED"
	ChannelCheckRequested  = "COMPLIANCE_CHECK_REQUESTED"
)

// Client wraps the go-redis client with health checking.
type Client struct {
	*redis.Client
}

// New connects to url. Returns nil when url is empty (Redis not configured).
func New(ctx context.Context, url string) (*Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health dipakai readiness check
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
