package notify

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"repairdesk/internal/domain/sla"
)

// RedisPublisher appends SLA events to a redis stream for the notification
// service to consume. Delivery to people (email, SMS, in-app) happens
// entirely downstream.
type RedisPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisPublisher(addr, password string, db int, stream string) (*RedisPublisher, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if stream == "" {
		return nil, errors.New("redis stream is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisPublisher{client: client, stream: stream}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, event sla.Event) error {
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":             string(event.Type),
			"case_id":          event.CaseID,
			"sla_id":           event.SLAID,
			"due_date":         event.DueDate.UTC().Format(time.RFC3339Nano),
			"escalation_level": event.EscalationLevel,
			"occurred_at":      event.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
