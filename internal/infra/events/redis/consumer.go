package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appcompliance "github.com/bryanwahyu/automaton-compliance/internal/application/compliance"
	"github.com/bryanwahyu/automaton-compliance/internal/logging"
)

// CheckHandler runs one requested compliance check.
type CheckHandler func(ctx context.Context, cmd appcompliance.CheckCommand) error

// Consumer listens for check requests and runs them one at a time.
type Consumer struct {
	client  *redis.Client
	channel string
	handle  CheckHandler
	logger  *zap.Logger
}

func NewConsumer(client *redis.Client, channel string, handle CheckHandler, logger *zap.Logger) *Consumer {
	if channel == "" {
		channel = ChannelCheckRequested
	}
	return &Consumer{client: client, channel: channel, handle: handle, logger: logging.OrNop(logger)}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	sub := c.client.Subscribe(ctx, c.channel)
	defer sub.Close()

	// tunggu konfirmasi subscribe
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", c.channel, err)
	}
	c.logger.Info("listening for check requests", zap.String("channel", c.channel))

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			c.dispatch(ctx, msg.Payload)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, payload string) {
	cmd, err := decodeCheckRequest(payload)
	if err != nil {
		c.logger.Warn("dropping malformed check request", zap.Error(err))
		return
	}
	if err := c.handle(ctx, cmd); err != nil {
		c.logger.Error("requested compliance check failed",
			zap.String("tenant", cmd.TenantID),
			zap.String("jurisdiction", cmd.Jurisdiction),
			zap.Error(err),
		)
	}
}

func decodeCheckRequest(payload string) (appcompliance.CheckCommand, error) {
	var cmd appcompliance.CheckCommand
	if err := json.Unmarshal([]byte(payload), &cmd); err != nil {
		return cmd, fmt.Errorf("decode check request: %w", err)
	}
	if cmd.TenantID == "" || cmd.Jurisdiction == "" {
		return cmd, fmt.Errorf("check request needs tenant_id and jurisdiction")
	}
	return cmd, nil
}
