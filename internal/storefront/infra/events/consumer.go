// Package events refreshes open order views when the order service announces
// a status change.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jcmexdev/storefront-orders/internal/pkg/orderevents"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/lifecycle"
)

type ConsumerConfig struct {
	Brokers string
	Topic   string
	GroupID string
}

// Handler re-fetches every open view of the event's order. The event itself
// is only a hint: views take whatever the server returns.
type Handler struct {
	registry *lifecycle.Registry
	timeout  time.Duration
}

func NewHandler(reg *lifecycle.Registry, timeout time.Duration) *Handler {
	return &Handler{registry: reg, timeout: lifecycle.ClampTimeout(timeout)}
}

// Handle returns how many views were refreshed successfully.
func (h *Handler) Handle(ctx context.Context, e orderevents.StatusChanged) int {
	log := slog.With("order_id", e.OrderID, "from", e.From, "to", e.To)

	if _, err := domain.ParseStatus(string(e.To)); err != nil {
		log.WarnContext(ctx, "status event names an unknown status")
	} else if e.From != e.To && !domain.CanAdvance(e.From, e.To) {
		log.WarnContext(ctx, "status event skips the order lifecycle")
	}

	refreshed := 0
	for _, v := range h.registry.ForOrder(e.OrderID) {
		rctx, cancel := context.WithTimeout(ctx, h.timeout)
		st, err := v.Refresh(rctx)
		cancel()
		if err != nil {
			log.WarnContext(ctx, "refresh after status event failed", "error", err)
			continue
		}
		refreshed++
		if st.Order != nil && st.Order.Status != e.To {
			log.InfoContext(ctx, "server state differs from event", "server_status", st.Order.Status)
		}
	}
	return refreshed
}

// StartConsumer reads status events until ctx is done. Malformed messages
// are committed and skipped.
func StartConsumer(ctx context.Context, h *Handler, cfg ConsumerConfig) *kafka.Reader {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         orderevents.SplitBrokers(cfg.Brokers),
		GroupID:         cfg.GroupID,
		Topic:           cfg.Topic,
		MinBytes:        1,
		MaxBytes:        10e6,
		StartOffset:     kafka.LastOffset,
		ReadLagInterval: -1,
	})

	slog.Info("kafka consumer starting", "brokers", cfg.Brokers, "topic", cfg.Topic, "group", cfg.GroupID)

	go func() {
		defer r.Close()

		backoff := 300 * time.Millisecond
		for {
			m, err := r.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("kafka fetch error", "error", err)
				time.Sleep(backoff)
				continue
			}

			e, err := orderevents.Decode(m.Value)
			if err != nil {
				slog.Warn("kafka invalid status event, skip and commit", "error", err, "offset", m.Offset)
			} else {
				n := h.Handle(ctx, e)
				slog.Debug("status event handled", "order_id", e.OrderID, "views", n)
			}

			if err := r.CommitMessages(ctx, m); err != nil {
				slog.Warn("kafka commit failed", "error", err)
			}
		}
	}()
	return r
}
