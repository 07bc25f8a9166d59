package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/anneth/shop/internal/domain"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads order events and mails the customer.
type Consumer struct {
	mailer Mailer
	reader messageReader
}

func NewConsumer(mailer Mailer, topic, groupID string, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{mailer: mailer, reader: reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		slog.Error("error closing kafka reader", "error", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.ErrorContext(ctx, "error reading message", "error", err)
		return
	}

	if eventType := headerValue(m.Headers, eventTypeHeader); eventType != "" && eventType != domain.EventTypeOrderPlaced {
		slog.DebugContext(ctx, "skipping event", "event_type", eventType, "offset", m.Offset)
		return
	}

	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		slog.ErrorContext(ctx, "error parsing message", "offset", m.Offset, "error", err)
		return
	}
	if event.Email == "" {
		slog.WarnContext(ctx, "order event without recipient", "order_id", event.OrderID)
		return
	}

	if err := c.mailer.SendOrderConfirmation(ctx, event); err != nil {
		slog.ErrorContext(ctx, "failed to send order confirmation", "order_id", event.OrderID, "error", err)
		return
	}

	slog.InfoContext(ctx, "order confirmation sent", "order_id", event.OrderID)
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
