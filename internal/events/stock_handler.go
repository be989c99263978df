package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// StockCache is what the stock worker needs from the cache layer.
type StockCache interface {
	SeenEvent(ctx context.Context, service, eventID string) (bool, error)
	ForgetEvent(ctx context.Context, service, eventID string) error
	InvalidateStock(ctx context.Context) error
}

// StockInvalidationHandler drops cached stock levels whenever an order is placed.
// Redelivered events are skipped via the dedup marker.
func StockInvalidationHandler(cache StockCache, service string) Handler {
	return func(ctx context.Context, m kafka.Message) error {
		var env Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			slog.Warn("dropping undecodable event", "offset", m.Offset, "error", err)
			return nil
		}
		if env.EventType != EventOrderPlaced {
			return nil
		}
		p, err := UnwrapPayload[OrderPlacedPayload](env.Payload)
		if err != nil {
			slog.Warn("dropping order event with bad payload", "event_id", env.EventID, "error", err)
			return nil
		}

		seen, err := cache.SeenEvent(ctx, service, env.EventID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
		if err := cache.InvalidateStock(ctx); err != nil {
			if ferr := cache.ForgetEvent(ctx, service, env.EventID); ferr != nil {
				slog.Error("failed to clear dedup marker", "event_id", env.EventID, "error", ferr)
			}
			return err
		}
		slog.Info("stock cache invalidated", "order_id", p.OrderID, "items", len(p.Items))
		return nil
	}
}
