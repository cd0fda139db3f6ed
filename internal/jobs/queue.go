package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Job types consumed by cmd/worker.
const (
	JobSubscribeWebhooks = "webhooks/subscribe"
	JobBackfill          = "shopify/backfill"
)

// Topic both binaries agree on.
const Topic = "sync-jobs"

// Message is the wire form of one job submission. Jobs carry nothing beyond
// the tenant id; the worker loads everything else itself.
type Message struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	TenantID    string    `json:"tenant_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Queue is the fire-and-forget job boundary: submit and return. Completion,
// retries and results are the runner's business, not the caller's.
type Queue interface {
	Submit(ctx context.Context, jobType, tenantID string) (string, error)
}

type KafkaQueue struct {
	writer *kafka.Writer
}

func NewKafkaQueue(brokers string) *KafkaQueue {
	return &KafkaQueue{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(strings.Split(brokers, ",")...),
			Topic:    Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (q *KafkaQueue) Submit(ctx context.Context, jobType, tenantID string) (string, error) {
	msg := Message{
		ID:          uuid.New().String(),
		Type:        jobType,
		TenantID:    tenantID,
		SubmittedAt: time.Now().UTC(),
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tenantID),
		Value: value,
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit job: %w", err)
	}

	return msg.ID, nil
}

func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}
