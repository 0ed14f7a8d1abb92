// Package orderevents carries order status changes from the order service to
// interested gateways over Kafka.
package orderevents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
)

// StatusChanged is published after every status change the service commits.
// Consumers treat it as a hint to re-fetch; the payload is never applied.
type StatusChanged struct {
	OrderID    string        `json:"orderId"`
	From       domain.Status `json:"from"`
	To         domain.Status `json:"to"`
	ReturnTo   string        `json:"returnTo,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}

func Decode(b []byte) (StatusChanged, error) {
	var e StatusChanged
	if err := json.Unmarshal(b, &e); err != nil {
		return StatusChanged{}, fmt.Errorf("decode status event: %w", err)
	}
	if e.OrderID == "" {
		return StatusChanged{}, fmt.Errorf("decode status event: missing order id")
	}
	return e, nil
}

// Publisher emits status changes.
type Publisher interface {
	PublishStatus(ctx context.Context, e StatusChanged) error
}

type Producer struct {
	w *kafka.Writer
}

var _ Publisher = (*Producer)(nil)

func NewProducer(brokers, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(SplitBrokers(brokers)...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *Producer) Close() error {
	return p.w.Close()
}

// PublishStatus keys messages by order id so changes to one order stay ordered.
func (p *Producer) PublishStatus(ctx context.Context, e StatusChanged) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.OrderID),
		Value: b,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	})
}

func SplitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
