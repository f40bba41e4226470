package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
)

// publisher is the subset of *redis.Client used for fan-out.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// ReportEvent payload yang dikirim ke channel
type ReportEvent struct {
	Type         string         `json:"type"`
	ReportID     string         `json:"report_id"`
	TenantID     string         `json:"tenant_id"`
	Subject      string         `json:"subject"`
	Jurisdiction string         `json:"jurisdiction"`
	Summary      domain.Summary `json:"summary"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Publisher implements domain.EventPublisher over Redis pub/sub.
type Publisher struct {
	client  publisher
	channel string
}

func NewPublisher(client publisher, channel string) *Publisher {
	if channel == "" {
		channel = ChannelReportGenerated
	}
	return &Publisher{client: client, channel: channel}
}

var _ domain.EventPublisher = (*Publisher)(nil)

func (p *Publisher) PublishReport(ctx context.Context, r *domain.Report) error {
	ev := ReportEvent{
		Type:         ChannelReportGenerated,
		ReportID:     r.Metadata.ReportID,
		TenantID:     r.Metadata.TenantID,
		Subject:      r.Metadata.SubjectIdentity,
		Jurisdiction: r.Metadata.Jurisdiction,
		Summary:      r.Summary,
		Timestamp:    r.Metadata.Timestamp,
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}
